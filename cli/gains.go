package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kong"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/capgains/ledger"
	"github.com/robinvdvleuten/capgains/logger"
	"github.com/robinvdvleuten/capgains/output"
	"github.com/robinvdvleuten/capgains/report"
)

type GainsCmd struct {
	Files       Inputs   `help:"Exchange export filenames (use '-' for stdin, or omit for stdin)." arg:"" optional:"" name:"file"`
	Reader      string   `help:"Export format." enum:"coinjar" default:"coinjar"`
	Allowlist   []string `help:"Only report these currencies." sep:","`
	Interactive bool     `help:"Pick the currencies to report from a list." short:"i"`
	Watch       bool     `help:"Report again whenever an export changes." short:"w"`
	Total       bool     `help:"Also print the sum of the reported gains."`
}

func (cmd *GainsCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.Files.EnsureContents(); err != nil {
		return err
	}
	if cmd.Watch && cmd.Files.HasStdin() {
		return fmt.Errorf("--watch cannot be used with stdin")
	}

	var pick func([]string) ([]string, error)
	if cmd.Interactive && len(cmd.Allowlist) > 0 {
		printInfof(ctx.Stderr, "--allowlist given, not asking for currencies")
	} else if cmd.Interactive && !isTerminal() {
		printInfof(ctx.Stderr, "not a terminal, reporting all currencies")
	} else if cmd.Interactive {
		pick = selectCurrencies
		// Ask once; later runs in watch mode reuse the answer.
		if cmd.Watch {
			pick = cmd.pickOnce(pick)
		}
	}

	if !cmd.Watch {
		return cmd.run(context.Background(), globals, ctx.Stdout, ctx.Stderr, pick)
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = cmd.run(runCtx, globals, ctx.Stdout, ctx.Stderr, pick)

	filenames := cmd.Files.Filenames()
	printInfof(ctx.Stderr, "Watching %s for changes", pathStyle.Render(fmt.Sprint(filenames)))

	return watchFiles(runCtx, filenames, func() {
		_, _ = fmt.Fprintln(ctx.Stdout)
		_ = cmd.run(runCtx, globals, ctx.Stdout, ctx.Stderr, pick)
	})
}

// pickOnce remembers the first selection.
func (cmd *GainsCmd) pickOnce(pick func([]string) ([]string, error)) func([]string) ([]string, error) {
	var (
		selected []string
		asked    bool
	)
	return func(currencies []string) ([]string, error) {
		if asked {
			return keep(currencies, selected), nil
		}
		var err error
		selected, err = pick(currencies)
		asked = err == nil
		return selected, err
	}
}

// keep returns the currencies that are also in selected.
func keep(currencies, selected []string) []string {
	kept := []string{}
	for _, c := range currencies {
		if slices.Contains(selected, c) {
			kept = append(kept, c)
		}
	}
	return kept
}

func (cmd *GainsCmd) run(ctx context.Context, globals *Globals, stdout, stderr io.Writer, pick func([]string) ([]string, error)) error {
	s, err := newSession(ctx, globals, "gains", cmd.Files, stderr)
	if err != nil {
		return err
	}
	defer s.reportTelemetry()

	results, err := s.calculate(cmd.Files, cmd.Reader, cmd.Allowlist, pick)
	if err != nil {
		return err
	}

	f := report.New(
		report.WithReportingCurrency(s.config.ReportingCurrency),
		report.WithStyles(output.NewStyles(stdout)),
	)
	if err := f.FormatGains(stdout, results); err != nil {
		return err
	}
	if cmd.Total && len(results) > 0 {
		if _, err := fmt.Fprintln(stdout, f.TotalLine(results)); err != nil {
			return err
		}
	}

	if failures := ledger.Failures(results); failures != nil {
		failed := failures.(*ledger.CurrencyErrors)
		return s.fail(cmd.Files, failures, fmt.Sprintf("%d of %d currencies failed", len(failed.Errors), len(results)))
	}

	if len(results) == 0 {
		logger.FromContext(s.ctx).Info("no currencies to report")
	}

	return nil
}
