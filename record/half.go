package record

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Half is one side of a trade: an amount of a unit and the rate of one unit
// in the reporting currency. An acquired Half is a lot; a Half being given
// up is a disposal.
type Half struct {
	Amount decimal.Decimal
	Unit   string
	Rate   decimal.Decimal
}

// NewHalf creates a Half.
func NewHalf(amount decimal.Decimal, unit string, rate decimal.Decimal) Half {
	return Half{Amount: amount, Unit: unit, Rate: rate}
}

// Value returns the amount converted into the reporting currency.
func (h Half) Value() decimal.Decimal {
	return h.Amount.Mul(h.Rate)
}

// String returns a string representation such as "0.5 BTC @ 40000".
func (h Half) String() string {
	return fmt.Sprintf("%s %s @ %s", h.Amount.String(), h.Unit, h.Rate.String())
}
