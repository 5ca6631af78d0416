// Package loader reads one or more exchange exports into a single,
// chronologically ordered ledger.
//
// Exports are read in the order given. The rate table built while reading
// one export is passed on to the next, so a transfer in a later export can
// be priced by a trade in an earlier one. Exports should therefore be given
// oldest first; a warning is logged when one starts before the previous
// ones end. The same file given twice is only read once.
//
// Example usage:
//
//	ldr := loader.New(loader.WithReader(reader.CoinJar), loader.WithReportingCurrency("AUD"))
//	result, err := ldr.Load(ctx, "2021.csv", "2022.csv")
package loader

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/robinvdvleuten/capgains/logger"
	"github.com/robinvdvleuten/capgains/reader"
	"github.com/robinvdvleuten/capgains/record"
	"github.com/robinvdvleuten/capgains/telemetry"
)

// Stdin is the filename that makes Load read from standard input.
const Stdin = "-"

// Loader reads exports with a configured reader.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithReader(reader.CoinJar))
type Loader struct {
	// Reader is the export format of every file.
	Reader reader.Type

	// ReportingCurrency is passed to the reader; transfers in it are valued at 1.
	ReportingCurrency string

	// Stdin is read when a filename is "-".
	Stdin io.Reader
}

// Option configures how files are loaded.
type Option func(*Loader)

// WithReader selects the export format.
func WithReader(t reader.Type) Option {
	return func(l *Loader) {
		l.Reader = t
	}
}

// WithReportingCurrency sets the reporting currency.
func WithReportingCurrency(currency string) Option {
	return func(l *Loader) {
		l.ReportingCurrency = currency
	}
}

// WithStdin replaces standard input as the source of "-".
func WithStdin(r io.Reader) Option {
	return func(l *Loader) {
		l.Stdin = r
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{
		Reader:            reader.CoinJar,
		ReportingCurrency: "AUD",
		Stdin:             os.Stdin,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Result is the merged ledger of all loaded exports.
type Result struct {
	// Records of all exports, sorted by time. Records of the same moment
	// keep their export order.
	Records record.Records

	// Rates is the rate table after the last export.
	Rates reader.RateTable

	// Files are the files that were read, in order, without duplicates.
	Files []string
}

// Load reads the given exports in order and merges their records.
func (l *Loader) Load(ctx context.Context, filenames ...string) (*Result, error) {
	if len(filenames) == 0 {
		return nil, fmt.Errorf("no files to load")
	}

	rd, err := reader.New(l.Reader, l.ReportingCurrency)
	if err != nil {
		return nil, err
	}

	state := &loaderState{
		reader:  rd,
		visited: make(map[string]bool),
		result:  &Result{Rates: reader.RateTable{}},
	}

	for _, filename := range filenames {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if filename == Stdin {
			if err := state.read(ctx, "<stdin>", l.Stdin); err != nil {
				return nil, err
			}
			continue
		}

		if err := state.loadFile(ctx, filename); err != nil {
			return nil, err
		}
	}

	state.result.Records.SortStable()
	return state.result, nil
}

// loaderState tracks state while loading several exports.
type loaderState struct {
	reader  reader.Reader
	visited map[string]bool // Absolute paths of files already loaded
	result  *Result
	latest  time.Time // Latest timestamp of the exports read so far
}

func (s *loaderState) loadFile(ctx context.Context, filename string) error {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}
	if s.visited[absPath] {
		logger.FromContext(ctx).Debug("skipping duplicate export", "file", filename)
		return nil
	}
	s.visited[absPath] = true

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}
	defer f.Close()

	return s.read(ctx, filename, f)
}

func (s *loaderState) read(ctx context.Context, filename string, r io.Reader) error {
	timer := telemetry.StartTimer(ctx, "loader.read "+filepath.Base(filename))
	defer timer.End()

	records, rates, err := s.reader.Read(ctx, filename, r, s.result.Rates)
	if err != nil {
		return err
	}

	log := logger.FromContext(ctx)
	log.Debug("loaded export", "file", filename, "records", len(records))

	// Rates follow argument order; an export reaching back before the
	// previous ones prices its transfers from trades that happen later.
	earliest, latest := span(records)
	if !earliest.IsZero() && earliest.Before(s.latest) {
		log.Warn("export starts before the previous exports end, transfers are priced in argument order",
			"file", filename, "starts", earliest.Format(time.DateOnly), "previous", s.latest.Format(time.DateOnly))
	}
	if latest.After(s.latest) {
		s.latest = latest
	}

	s.result.Records = append(s.result.Records, records...)
	s.result.Rates = rates
	s.result.Files = append(s.result.Files, filename)
	return nil
}

// span returns the earliest and latest timestamp of records, ignoring
// records without one.
func span(records record.Records) (earliest, latest time.Time) {
	for _, rec := range records {
		ts := rec.Timestamp()
		if ts.IsZero() {
			continue
		}
		if earliest.IsZero() || ts.Before(earliest) {
			earliest = ts
		}
		if ts.After(latest) {
			latest = ts
		}
	}
	return earliest, latest
}
