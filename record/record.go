// Package record declares the types used to represent a parsed exchange ledger.
//
// A ledger is an ordered sequence of records. Each record is either a trade
// executed on the exchange or a transfer of a single unit into or out of it.
// Trades and transfers carry their quantities as Halves: an amount of a unit
// together with the rate of that unit in the reporting currency.
//
// Records can be created by a reader (see the reader package) or constructed
// programmatically, which is how most of the ledger tests build their input.
package record

import (
	"time"

	"golang.org/x/exp/slices"
)

// Record is a single entry in an exchange ledger. The set of implementations
// is closed: *Trade, *TransferIn and *TransferOut.
type Record interface {
	// Position returns the location of the record in its source file.
	Position() Position

	// Timestamp returns when the record happened, or the zero time if the
	// source carries no dates.
	Timestamp() time.Time

	// Kind returns a short, human-readable name of the record type.
	Kind() string

	record()
}

// Records is a slice of Record in ledger order.
type Records []Record

// SortStable orders records chronologically, keeping the relative order of
// records with equal timestamps. If any record has no timestamp the order is
// left untouched: a ledger without dates is already in source order.
func (r Records) SortStable() {
	for _, rec := range r {
		if rec.Timestamp().IsZero() {
			return
		}
	}
	slices.SortStableFunc(r, func(a, b Record) int {
		return a.Timestamp().Compare(b.Timestamp())
	})
}

// Units returns every unit referenced by the record, in leg order.
func Units(r Record) []string {
	switch r := r.(type) {
	case *Trade:
		return []string{r.Sold.Unit, r.Bought.Unit}
	case *TransferIn:
		return []string{r.Lot.Unit}
	case *TransferOut:
		return []string{r.Disposal.Unit}
	}
	return nil
}

// Trade exchanges one unit for another on the exchange. The sold leg is the
// amount given up and the bought leg the amount received. Both legs are
// priced from the single rate quoted for the trade.
//
// Example (selling AUD to buy BTC at 40,000 AUD/BTC):
//
//	Sold:   400 AUD @ 40000
//	Bought: 0.01 BTC @ 40000
type Trade struct {
	Pos    Position
	Date   time.Time
	Sold   Half
	Bought Half
}

var _ Record = &Trade{}

func (t *Trade) Position() Position   { return t.Pos }
func (t *Trade) Timestamp() time.Time { return t.Date }
func (t *Trade) Kind() string         { return "trade" }
func (t *Trade) record()              {}

// NonReportingUnit returns the traded asset of the trade: the sold unit
// unless it is the reporting currency, in which case the bought unit.
func (t *Trade) NonReportingUnit(reporting string) string {
	if t.Sold.Unit != reporting {
		return t.Sold.Unit
	}
	return t.Bought.Unit
}

// TransferIn moves an amount of a unit into the exchange from elsewhere. It
// is treated as an acquisition. Its rate is an estimate: the last rate
// observed for the unit before the transfer.
type TransferIn struct {
	Pos  Position
	Date time.Time
	Lot  Half
}

var _ Record = &TransferIn{}

func (t *TransferIn) Position() Position   { return t.Pos }
func (t *TransferIn) Timestamp() time.Time { return t.Date }
func (t *TransferIn) Kind() string         { return "transfer-in" }
func (t *TransferIn) record()              {}

// TransferOut moves an amount of a unit out of the exchange. It is treated
// as a disposal priced at the last rate observed for the unit.
type TransferOut struct {
	Pos      Position
	Date     time.Time
	Disposal Half
}

var _ Record = &TransferOut{}

func (t *TransferOut) Position() Position   { return t.Pos }
func (t *TransferOut) Timestamp() time.Time { return t.Date }
func (t *TransferOut) Kind() string         { return "transfer-out" }
func (t *TransferOut) record()              {}
