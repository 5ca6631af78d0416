// Package ledger computes realized capital gains from an exchange ledger using
// first-in-first-out lot matching.
//
// For every currency the engine keeps a queue of the lots acquired so far,
// oldest first. Each disposal consumes the oldest lots until it is fully
// matched; every match realizes the difference between what the matched
// quantity was disposed of for and what it was acquired for, both expressed
// in the reporting currency.
//
// Example usage:
//
//	cfg := ledger.NewConfig()
//	ctx := cfg.WithContext(context.Background())
//
//	result, err := ledger.Calculate(ctx, records, "BTC")
//	if err != nil {
//	    var lotsErr *ledger.InsufficientLotsError
//	    if errors.As(err, &lotsErr) {
//	        // The ledger is missing acquisitions of lotsErr.Currency
//	    }
//	}
//	fmt.Println(result.Gain.StringFixed(2))
package ledger

import (
	"context"
	"fmt"

	"github.com/robinvdvleuten/capgains/logger"
	"github.com/robinvdvleuten/capgains/record"
	"github.com/robinvdvleuten/capgains/telemetry"
	"github.com/shopspring/decimal"
)

// Result is the outcome of a calculation for a single currency.
type Result struct {
	Currency string

	// Gain is the net realized capital gain in the reporting currency.
	// It is not rounded.
	Gain decimal.Decimal

	// OpenLots are the lots left after all disposals, oldest first.
	OpenLots []record.Half

	// Matches lists every lot match in the order it happened.
	Matches []Match

	// Err is set when the calculation for this currency failed. Only used by
	// CalculateAll; Calculate returns its error directly.
	Err error
}

// Engine matches the disposals of one currency against its lots.
// An Engine is not safe for concurrent use; run one per currency.
type Engine struct {
	currency  string
	tolerance decimal.Decimal
	queue     *Queue
	gain      decimal.Decimal
	matches   []Match
}

// NewEngine creates an engine for the given currency.
func NewEngine(currency string, tolerance decimal.Decimal) *Engine {
	return &Engine{
		currency:  currency,
		tolerance: tolerance,
		queue:     NewQueue(),
		gain:      decimal.Zero,
	}
}

// Calculate runs the engine over records for a single currency and returns
// the realized gain. Records that do not involve the currency are ignored,
// so the full ledger can be passed as well as a pre-filtered one.
func Calculate(ctx context.Context, records record.Records, currency string) (*Result, error) {
	cfg := ConfigFromContext(ctx)
	log := logger.FromContext(ctx).With("currency", currency)

	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.calculate %s (%d records)", currency, len(records)))
	defer timer.End()

	log.Debug("determining capital gain")

	e := NewEngine(currency, cfg.Tolerance)
	for _, rec := range records {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if err := e.Apply(ctx, rec); err != nil {
			return nil, err
		}
	}

	return e.Result(), nil
}

// Result returns the state of the engine as a Result.
func (e *Engine) Result() *Result {
	return &Result{
		Currency: e.currency,
		Gain:     e.gain,
		OpenLots: e.queue.Lots(),
		Matches:  e.matches,
	}
}

// Apply processes a single record: acquisitions of the engine's currency
// become lots, disposals are matched against them and everything else is
// ignored.
func (e *Engine) Apply(ctx context.Context, rec record.Record) error {
	switch r := rec.(type) {
	case *record.Trade:
		if r.Bought.Unit == e.currency {
			return e.acquire(ctx, rec, r.Bought)
		} else if r.Sold.Unit == e.currency {
			return e.dispose(ctx, rec, r.Sold)
		}
	case *record.TransferIn:
		if r.Lot.Unit == e.currency {
			return e.acquire(ctx, rec, r.Lot)
		}
	case *record.TransferOut:
		if r.Disposal.Unit == e.currency {
			return e.dispose(ctx, rec, r.Disposal)
		}
	}
	return nil
}

func (e *Engine) acquire(ctx context.Context, rec record.Record, lot record.Half) error {
	if lot.Amount.IsNegative() {
		return &NegativeAmountError{Currency: e.currency, Pos: rec.Position(), Input: &lot}
	}
	logger.FromContext(ctx).Debug("adding lot", "currency", e.currency, "lot", lot.String())
	e.queue.Push(lot)
	return nil
}

// dispose matches a disposal against the queue, oldest lot first, until at
// most tolerance of it is left.
func (e *Engine) dispose(ctx context.Context, rec record.Record, disposal record.Half) error {
	if disposal.Amount.IsNegative() {
		return &NegativeAmountError{Currency: e.currency, Pos: rec.Position(), Input: &disposal}
	}

	log := logger.FromContext(ctx).With("currency", e.currency)

	for disposal.Amount.GreaterThan(e.tolerance) {
		lot, ok := e.queue.Front()
		if !ok {
			return &InsufficientLotsError{
				Currency:  e.currency,
				Remaining: disposal.Amount,
				Pos:       rec.Position(),
				Record:    rec,
			}
		}

		m := MatchLot(lot, disposal, e.tolerance)
		log.Debug("subtracting disposal from lot", "disposal", disposal.String(), "lot", lot.String(), "delta", m.Amount.String())

		if m.LotRemaining.IsNegative() || m.DisposalRemaining.IsNegative() {
			return &NegativeAmountError{Currency: e.currency, Pos: rec.Position(), Match: m}
		}

		disposal.Amount = m.DisposalRemaining
		if m.Exhausted {
			log.Debug("popping exhausted lot", "lot", lot.String())
			e.queue.PopFront()
		} else {
			e.queue.SetFrontAmount(m.LotRemaining)
		}

		e.gain = e.gain.Add(m.Gain)
		e.matches = append(e.matches, m)
		log.Debug("capital gain updated", "gain", e.gain.String(), "open", e.queue.Total().String())
	}

	return nil
}
