package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/robinvdvleuten/capgains/ledger"
	"github.com/robinvdvleuten/capgains/loader"
	"github.com/robinvdvleuten/capgains/logger"
	"github.com/robinvdvleuten/capgains/output"
	"github.com/robinvdvleuten/capgains/reader"
	"github.com/robinvdvleuten/capgains/telemetry"
)

// session holds what every command run needs: the configured context and
// the telemetry report that must be printed however the command ends.
type session struct {
	ctx    context.Context
	config *ledger.Config
	stderr io.Writer

	collector telemetry.Collector
	root      telemetry.Timer
	once      sync.Once
}

func newSession(ctx context.Context, globals *Globals, name string, inputs Inputs, stderr io.Writer) (*session, error) {
	cfg := ledger.NewConfig()
	cfg.ReportingCurrency = globals.ReportingCurrency
	if globals.Workers > 0 {
		cfg.Workers = globals.Workers
	}
	if globals.Tolerance != "" {
		tol, err := ledger.ParseTolerance(globals.Tolerance)
		if err != nil {
			return nil, err
		}
		cfg.Tolerance = tol
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level := "info"
	if globals.Debug {
		level = "debug"
	}
	ctx = logger.WithContext(ctx, logger.New(stderr, level))
	ctx = cfg.WithContext(ctx)

	s := &session{ctx: ctx, config: cfg, stderr: stderr}

	if globals.Telemetry {
		s.collector = telemetry.NewTimingCollector()
		s.ctx = telemetry.WithCollector(s.ctx, s.collector)

		names := make([]string, len(inputs))
		for i, f := range inputs {
			names[i] = filepath.Base(f.Filename)
		}
		s.root = s.collector.Start(fmt.Sprintf("%s %s", name, strings.Join(names, " ")))
		s.ctx = telemetry.WithRootTimer(s.ctx, s.root)
	}

	return s, nil
}

// reportTelemetry prints the collected timings once.
func (s *session) reportTelemetry() {
	s.once.Do(func() {
		if s.collector != nil {
			s.root.End()
			_, _ = fmt.Fprintln(s.stderr)
			s.collector.Report(s.stderr, output.NewStyles(s.stderr))
		}
	})
}

// load reads the inputs with the given export format.
func (s *session) load(inputs Inputs, readerType string) (*loader.Result, error) {
	ldr := loader.New(
		loader.WithReader(reader.Type(readerType)),
		loader.WithReportingCurrency(s.config.ReportingCurrency),
		loader.WithStdin(inputs.Stdin()),
	)
	return ldr.Load(s.ctx, inputs.Filenames()...)
}

// fail renders err with source context followed by a summary line and
// returns the error that makes the command exit with 1.
func (s *session) fail(inputs Inputs, err error, summary string) error {
	renderer := NewErrorRenderer(inputs.Source)
	_, _ = fmt.Fprintln(s.stderr, renderer.Render(err))

	_, _ = fmt.Fprintln(s.stderr)
	printError(s.stderr, summary)

	s.reportTelemetry()
	return NewCommandError(1)
}

// calculate loads the inputs and runs every selected currency. Currencies
// that fail are rendered to stderr; the returned results include them.
func (s *session) calculate(inputs Inputs, readerType string, allowlist []string, pick func([]string) ([]string, error)) ([]*ledger.Result, error) {
	result, err := s.load(inputs, readerType)
	if err != nil {
		return nil, s.fail(inputs, err, "failed to read export")
	}

	currencies := ledger.Currencies(result.Records, s.config.ReportingCurrency)
	currencies = ledger.Allowed(currencies, normalizeCurrencies(allowlist))

	if pick != nil && len(currencies) > 0 {
		currencies, err = pick(currencies)
		if err != nil {
			return nil, err
		}
	}

	log := logger.FromContext(s.ctx)
	log.Debug("calculating", "currencies", strings.Join(currencies, ","), "records", len(result.Records))

	return ledger.CalculateAll(s.ctx, result.Records, currencies)
}

func normalizeCurrencies(currencies []string) []string {
	normalized := make([]string, 0, len(currencies))
	for _, c := range currencies {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			normalized = append(normalized, c)
		}
	}
	return normalized
}
