package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/capgains/ledger"
	"github.com/robinvdvleuten/capgains/output"
	"github.com/robinvdvleuten/capgains/report"
)

type LotsCmd struct {
	Files     Inputs   `help:"Exchange export filenames (use '-' for stdin, or omit for stdin)." arg:"" optional:"" name:"file"`
	Reader    string   `help:"Export format." enum:"coinjar" default:"coinjar"`
	Allowlist []string `help:"Only list these currencies." sep:","`
}

func (cmd *LotsCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.Files.EnsureContents(); err != nil {
		return err
	}

	s, err := newSession(context.Background(), globals, "lots", cmd.Files, ctx.Stderr)
	if err != nil {
		return err
	}
	defer s.reportTelemetry()

	results, err := s.calculate(cmd.Files, cmd.Reader, cmd.Allowlist, nil)
	if err != nil {
		return err
	}

	f := report.New(
		report.WithReportingCurrency(s.config.ReportingCurrency),
		report.WithStyles(output.NewStyles(ctx.Stdout)),
	)
	if err := f.FormatLots(ctx.Stdout, results); err != nil {
		return err
	}

	if failures := ledger.Failures(results); failures != nil {
		return s.fail(cmd.Files, failures, fmt.Sprintf("open lots unknown for %d currencies", len(failures.(*ledger.CurrencyErrors).Errors)))
	}

	return nil
}
