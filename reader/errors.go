package reader

import (
	"fmt"

	"github.com/robinvdvleuten/capgains/record"
)

// ParseError is returned when a row of an export cannot be parsed.
type ParseError struct {
	Pos        record.Position
	Message    string
	Underlying error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func (e *ParseError) GetPosition() record.Position {
	return e.Pos
}

func (e *ParseError) Unwrap() error {
	return e.Underlying
}

// UnpairedTradeError is returned when the first leg of a trade is the last
// row of an export.
type UnpairedTradeError struct {
	Pos record.Position
}

func (e *UnpairedTradeError) Error() string {
	return fmt.Sprintf("%s: trade is missing its second row", e.Pos)
}

func (e *UnpairedTradeError) GetPosition() record.Position {
	return e.Pos
}

// MissingRateError is returned when a transfer moves a unit that no earlier
// trade has priced, so no rate can be estimated for it.
type MissingRateError struct {
	Pos  record.Position
	Unit string
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("%s: no rate known for %s; a trade in %s must come before its first transfer", e.Pos, e.Unit, e.Unit)
}

func (e *MissingRateError) GetPosition() record.Position {
	return e.Pos
}
