// Package report renders the outcome of a capital gain calculation.
//
// Gains are rounded to two decimals here and nowhere else; the ledger keeps
// full precision until the very end.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/robinvdvleuten/capgains/ledger"
	"github.com/robinvdvleuten/capgains/output"
	"github.com/robinvdvleuten/capgains/reader"
	"github.com/robinvdvleuten/capgains/record"
	"github.com/shopspring/decimal"
)

const (
	// GainPlaces is the number of decimals gains are shown with.
	GainPlaces = 2

	// MinimumSpacing is the minimum number of spaces between columns.
	MinimumSpacing = 2
)

// Formatter writes results as text.
type Formatter struct {
	// ReportingCurrency is printed after every monetary amount.
	ReportingCurrency string

	// Styles colours the output. Nil prints plain text.
	Styles *output.Styles
}

// Option is a functional option for configuring a Formatter.
type Option func(*Formatter)

// WithReportingCurrency sets the currency printed after amounts.
func WithReportingCurrency(currency string) Option {
	return func(f *Formatter) {
		f.ReportingCurrency = currency
	}
}

// WithStyles enables styled output.
func WithStyles(styles *output.Styles) Option {
	return func(f *Formatter) {
		f.Styles = styles
	}
}

// New creates a new Formatter with the given options.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		ReportingCurrency: ledger.DefaultReportingCurrency,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// GainLine returns the report line of a single currency, e.g.
// "Capital gain for BTC is 5.00 AUD".
func (f *Formatter) GainLine(r *ledger.Result) string {
	gain := r.Gain.StringFixed(GainPlaces)
	return fmt.Sprintf("Capital gain for %s is %s %s",
		f.currency(r.Currency), f.gain(gain, r.Gain.IsNegative()), f.ReportingCurrency)
}

// FormatGains writes one line per successful result. Failed results are
// left out; the caller reports their errors.
func (f *Formatter) FormatGains(w io.Writer, results []*ledger.Result) error {
	for _, r := range results {
		if r == nil || r.Err != nil {
			continue
		}
		if _, err := fmt.Fprintln(w, f.GainLine(r)); err != nil {
			return err
		}
	}
	return nil
}

// Total returns the sum of the gains of all successful results.
func Total(results []*ledger.Result) decimal.Decimal {
	total := decimal.Zero
	for _, r := range results {
		if r != nil && r.Err == nil {
			total = total.Add(r.Gain)
		}
	}
	return total
}

// TotalLine returns the sum of the successful results as a report line, e.g.
// "Total capital gain is 5.00 AUD".
func (f *Formatter) TotalLine(results []*ledger.Result) string {
	total := Total(results)
	return fmt.Sprintf("Total capital gain is %s %s",
		f.gain(total.StringFixed(GainPlaces), total.IsNegative()), f.ReportingCurrency)
}

// FormatLots writes the open lots of every successful result, oldest first,
// with amounts aligned per currency.
func (f *Formatter) FormatLots(w io.Writer, results []*ledger.Result) error {
	var buf strings.Builder

	for _, r := range results {
		if r == nil || r.Err != nil {
			continue
		}

		buf.WriteString(f.currency(r.Currency))
		buf.WriteByte('\n')

		if len(r.OpenLots) == 0 {
			buf.WriteString("  " + f.dim("no open lots") + "\n")
			continue
		}

		amountWidth := maxWidth(r.OpenLots, func(lot record.Half) string { return lot.Amount.String() })
		rateWidth := maxWidth(r.OpenLots, func(lot record.Half) string { return lot.Rate.String() })

		for _, lot := range r.OpenLots {
			fmt.Fprintf(&buf, "  %s %s @ %s %s%s%s\n",
				runewidth.FillLeft(lot.Amount.String(), amountWidth),
				lot.Unit,
				runewidth.FillLeft(lot.Rate.String(), rateWidth),
				f.ReportingCurrency,
				strings.Repeat(" ", MinimumSpacing),
				f.dim(fmt.Sprintf("cost %s %s", lot.Value().StringFixed(GainPlaces), f.ReportingCurrency)),
			)
		}
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

// FormatRates writes the last observed rate of every unit, sorted by unit.
func (f *Formatter) FormatRates(w io.Writer, rates reader.RateTable) error {
	units := rates.Units()

	unitWidth := 0
	for _, unit := range units {
		unitWidth = max(unitWidth, runewidth.StringWidth(unit))
	}

	var buf strings.Builder
	for _, unit := range units {
		padding := unitWidth - runewidth.StringWidth(unit) + MinimumSpacing
		fmt.Fprintf(&buf, "%s%s%s %s\n", f.currency(unit), strings.Repeat(" ", padding), rates[unit].String(), f.ReportingCurrency)
	}

	_, err := io.WriteString(w, buf.String())
	return err
}

func maxWidth(lots []record.Half, text func(record.Half) string) int {
	width := 0
	for _, lot := range lots {
		width = max(width, runewidth.StringWidth(text(lot)))
	}
	return width
}

func (f *Formatter) currency(text string) string {
	if f.Styles == nil {
		return text
	}
	return f.Styles.Currency(text)
}

func (f *Formatter) gain(text string, loss bool) string {
	if f.Styles == nil {
		return text
	}
	return f.Styles.Gain(text, loss)
}

func (f *Formatter) dim(text string) string {
	if f.Styles == nil {
		return text
	}
	return f.Styles.Dim(text)
}
