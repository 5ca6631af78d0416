package ledger

import (
	"fmt"

	"github.com/robinvdvleuten/capgains/record"
	"github.com/shopspring/decimal"
)

// InsufficientLotsError is returned when a disposal cannot be covered by the
// open lots of its currency: more was given up than was ever acquired in the
// ledger. This is a data problem rather than a defect. Usually the currency
// was funded from somewhere whose cost basis the ledger does not contain.
type InsufficientLotsError struct {
	Currency  string
	Remaining decimal.Decimal // Unmatched part of the disposal
	Pos       record.Position
	Record    record.Record // The record whose disposal ran out of lots
}

func (e *InsufficientLotsError) Error() string {
	msg := fmt.Sprintf("ran out of lots for %s with %s %s left to match; more was disposed of than was ever acquired",
		e.Currency, e.Remaining.String(), e.Currency)
	if e.Pos.IsZero() {
		return msg
	}
	return fmt.Sprintf("%s: %s", e.Pos, msg)
}

func (e *InsufficientLotsError) GetPosition() record.Position {
	return e.Pos
}

func (e *InsufficientLotsError) GetRecord() record.Record {
	return e.Record
}

// NegativeAmountError is returned when a record carries a negative amount or
// a match leaves a lot or a disposal with one. It always indicates a defect,
// either in the matching logic or in whatever constructed the records.
type NegativeAmountError struct {
	Currency string
	Pos      record.Position
	Match    Match
	Input    *record.Half // Set when the record itself was negative
}

func (e *NegativeAmountError) Error() string {
	if e.Input != nil {
		msg := fmt.Sprintf("%s has a negative amount for %s (logic error)", e.Input, e.Currency)
		if e.Pos.IsZero() {
			return msg
		}
		return fmt.Sprintf("%s: %s", e.Pos, msg)
	}
	return fmt.Sprintf("matching %s against %s left lot %s and disposal %s for %s: amounts must never go below zero (logic error)",
		e.Match.Disposal, e.Match.Lot, e.Match.LotRemaining.String(), e.Match.DisposalRemaining.String(), e.Currency)
}

func (e *NegativeAmountError) GetPosition() record.Position {
	return e.Pos
}

// CurrencyErrors wraps the failures of a multi-currency calculation.
type CurrencyErrors struct {
	Errors []error
}

func (e *CurrencyErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d currencies failed", len(e.Errors))
}

// Unwrap returns the underlying errors for error unwrapping
func (e *CurrencyErrors) Unwrap() []error {
	return e.Errors
}

// CurrencyError ties a failure to the currency it happened in.
type CurrencyError struct {
	Currency string
	Err      error
}

func (e *CurrencyError) Error() string {
	return fmt.Sprintf("%s: %v", e.Currency, e.Err)
}

func (e *CurrencyError) Unwrap() error {
	return e.Err
}
