// Package reader turns exchange exports into ledger records.
//
// A Reader parses one export into record.Records. Transfers in an export
// carry no price, so readers estimate one from the trades seen before: the
// RateTable holds the last rate observed per unit. The table is explicit
// state, passed into every Read and returned updated, so several exports can
// be read in sequence with rates carried from one to the next.
package reader

import (
	"context"
	"fmt"
	"io"

	"github.com/robinvdvleuten/capgains/record"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Type names an export format.
type Type string

const (
	// CoinJar reads the transaction CSV exported by the CoinJar exchange.
	CoinJar Type = "coinjar"
)

// Reader parses an export into records.
type Reader interface {
	// Read parses the export in r. Rates holds the last rate observed per unit
	// before this export and is not modified; the returned table includes the
	// rates observed while reading.
	Read(ctx context.Context, filename string, r io.Reader, rates RateTable) (record.Records, RateTable, error)
}

var readers = map[Type]func(reportingCurrency string) Reader{
	CoinJar: func(reportingCurrency string) Reader { return NewCoinJarReader(reportingCurrency) },
}

// New returns the reader for the given export type.
func New(t Type, reportingCurrency string) (Reader, error) {
	newReader, ok := readers[t]
	if !ok {
		return nil, fmt.Errorf("unknown reader %q", t)
	}
	return newReader(reportingCurrency), nil
}

// Types returns the names of all supported export formats.
func Types() []string {
	types := make([]string, 0, len(readers))
	for t := range readers {
		types = append(types, string(t))
	}
	slices.Sort(types)
	return types
}

// RateTable maps a unit to the last rate observed for it in the reporting
// currency.
type RateTable map[string]decimal.Decimal

// Observe records rate as the latest rate of unit.
func (t RateTable) Observe(unit string, rate decimal.Decimal) {
	t[unit] = rate
}

// Lookup returns the latest rate of unit.
func (t RateTable) Lookup(unit string) (decimal.Decimal, bool) {
	rate, ok := t[unit]
	return rate, ok
}

// Clone returns a copy of the table. Cloning a nil table returns an empty one.
func (t RateTable) Clone() RateTable {
	clone := make(RateTable, len(t))
	for unit, rate := range t {
		clone[unit] = rate
	}
	return clone
}

// Units returns the units in the table, sorted.
func (t RateTable) Units() []string {
	units := make([]string, 0, len(t))
	for unit := range t {
		units = append(units, unit)
	}
	slices.Sort(units)
	return units
}
