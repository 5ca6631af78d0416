package ledger

import (
	"github.com/robinvdvleuten/capgains/record"
	"github.com/shopspring/decimal"
)

// Match is the outcome of matching a disposal against a single lot.
type Match struct {
	// Lot and Disposal are the halves as they were before the match.
	Lot      record.Half
	Disposal record.Half

	// Amount is the quantity taken from both sides.
	Amount decimal.Decimal

	// Gain is the proceeds minus the cost basis of Amount.
	Gain decimal.Decimal

	// LotRemaining and DisposalRemaining are the amounts left after the match.
	LotRemaining      decimal.Decimal
	DisposalRemaining decimal.Decimal

	// Exhausted reports whether the lot is used up and must leave the queue.
	Exhausted bool
}

// MatchLot matches a disposal against a lot and returns the result without
// modifying either. The matched quantity is the smaller of the two amounts;
// the gain is that quantity valued at the disposal rate minus the same
// quantity valued at the lot rate. A lot with at most tolerance left is
// reported as exhausted.
func MatchLot(lot, disposal record.Half, tolerance decimal.Decimal) Match {
	delta := decimal.Min(lot.Amount, disposal.Amount)

	proceeds := delta.Mul(disposal.Rate)
	cost := delta.Mul(lot.Rate)

	lotRemaining := lot.Amount.Sub(delta)

	return Match{
		Lot:               lot,
		Disposal:          disposal,
		Amount:            delta,
		Gain:              proceeds.Sub(cost),
		LotRemaining:      lotRemaining,
		DisposalRemaining: disposal.Amount.Sub(delta),
		Exhausted:         lotRemaining.LessThanOrEqual(tolerance),
	}
}
