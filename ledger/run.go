package ledger

import (
	"context"
	"errors"

	"github.com/robinvdvleuten/capgains/logger"
	"github.com/robinvdvleuten/capgains/record"
	"golang.org/x/sync/errgroup"
)

// CalculateAll calculates the gain of every currency concurrently. Each
// currency gets its own filtered copy of the records and its own lot queue,
// so nothing is shared between workers.
//
// A failing currency does not stop the others: its error is stored in the
// Result and the remaining currencies still complete. The returned error is
// only set when ctx is cancelled. Results are in the order of currencies.
func CalculateAll(ctx context.Context, records record.Records, currencies []string) ([]*Result, error) {
	cfg := ConfigFromContext(ctx)
	log := logger.FromContext(ctx)

	results := make([]*Result, len(currencies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)

	for i, currency := range currencies {
		subset := ForCurrency(records, currency)
		g.Go(func() error {
			result, err := Calculate(gctx, subset, currency)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				log.Debug("calculation failed", "currency", currency, "error", err)
				result = &Result{Currency: currency, Err: err}
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Failures collects the errors of failed results, or returns nil when all
// currencies succeeded.
func Failures(results []*Result) error {
	var errs []error
	for _, r := range results {
		if r != nil && r.Err != nil {
			errs = append(errs, &CurrencyError{Currency: r.Currency, Err: r.Err})
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return &CurrencyErrors{Errors: errs}
}
