package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/capgains/output"
	"github.com/robinvdvleuten/capgains/record"
	"github.com/robinvdvleuten/capgains/report"
)

// DoctorCmd provides doctor utilities for debugging exchange exports.
type DoctorCmd struct {
	Records RecordsCmd `cmd:"" help:"Show the records read from exchange exports."`
	Rates   RatesCmd   `cmd:"" help:"Show the last observed rate per currency."`
}

// RecordsCmd dumps parsed records.
type RecordsCmd struct {
	Files  Inputs `help:"Exchange export filenames (use '-' for stdin, or omit for stdin)." arg:"" optional:"" name:"file"`
	Reader string `help:"Export format." enum:"coinjar" default:"coinjar"`
}

// Run executes the records command.
func (cmd *RecordsCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.Files.EnsureContents(); err != nil {
		return err
	}

	s, err := newSession(context.Background(), globals, "doctor records", cmd.Files, ctx.Stderr)
	if err != nil {
		return err
	}
	defer s.reportTelemetry()

	result, err := s.load(cmd.Files, cmd.Reader)
	if err != nil {
		return s.fail(cmd.Files, err, "failed to read export")
	}

	for _, rec := range result.Records {
		_, _ = fmt.Fprintln(ctx.Stdout, repr.String(newRecordView(rec), repr.Indent("  ")))
	}

	printSuccess(ctx.Stderr, fmt.Sprintf("Read %d records from %d files", len(result.Records), len(result.Files)))
	return nil
}

// RatesCmd prints the rate table after reading all exports.
type RatesCmd struct {
	Files  Inputs `help:"Exchange export filenames (use '-' for stdin, or omit for stdin)." arg:"" optional:"" name:"file"`
	Reader string `help:"Export format." enum:"coinjar" default:"coinjar"`
}

// Run executes the rates command.
func (cmd *RatesCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.Files.EnsureContents(); err != nil {
		return err
	}

	s, err := newSession(context.Background(), globals, "doctor rates", cmd.Files, ctx.Stderr)
	if err != nil {
		return err
	}
	defer s.reportTelemetry()

	result, err := s.load(cmd.Files, cmd.Reader)
	if err != nil {
		return s.fail(cmd.Files, err, "failed to read export")
	}

	f := report.New(
		report.WithReportingCurrency(s.config.ReportingCurrency),
		report.WithStyles(output.NewStyles(ctx.Stdout)),
	)
	return f.FormatRates(ctx.Stdout, result.Rates)
}

// recordView is a flat, printable form of a record. Decimals are rendered
// as strings so the dump shows values rather than their internals.
type recordView struct {
	Kind     string
	Pos      string
	Date     string
	Sold     string
	Bought   string
	Lot      string
	Disposal string
}

func newRecordView(rec record.Record) recordView {
	v := recordView{Kind: rec.Kind(), Pos: rec.Position().String()}
	if !rec.Timestamp().IsZero() {
		v.Date = rec.Timestamp().Format("2006-01-02 15:04:05")
	}

	switch r := rec.(type) {
	case *record.Trade:
		v.Sold = r.Sold.String()
		v.Bought = r.Bought.String()
	case *record.TransferIn:
		v.Lot = r.Lot.String()
	case *record.TransferOut:
		v.Disposal = r.Disposal.String()
	}
	return v
}
