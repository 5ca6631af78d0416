package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/robinvdvleuten/capgains/ledger"
	"github.com/robinvdvleuten/capgains/record"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// SourceFunc returns the contents of an export by filename, or nil when it
// is not available.
type SourceFunc func(filename string) []byte

// ErrorRenderer renders errors with terminal styling and source context.
type ErrorRenderer struct {
	sources SourceFunc
}

// NewErrorRenderer creates a renderer that looks up export rows for context.
// Sources may be nil.
func NewErrorRenderer(sources SourceFunc) *ErrorRenderer {
	return &ErrorRenderer{sources: sources}
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	var currencyErrs *ledger.CurrencyErrors
	if errors.As(err, &currencyErrs) && len(currencyErrs.Errors) > 1 {
		return r.RenderAll(currencyErrs.Errors)
	}

	var positioned interface {
		GetPosition() record.Position
	}
	if !errors.As(err, &positioned) || positioned.GetPosition().IsZero() {
		return err.Error()
	}
	pos := positioned.GetPosition()

	if r.sources != nil {
		if source := r.sources(pos.Filename); source != nil {
			return r.renderWithSourceContext(pos, err.Error(), source)
		}
	}

	var withRecord interface {
		GetRecord() record.Record
	}
	if errors.As(err, &withRecord) {
		return r.renderWithContext(err.Error(), withRecord.GetRecord())
	}

	return err.Error()
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// renderWithSourceContext shows the rows around the offending one and
// underlines it. A trade spans two rows, so the row after is shown too.
func (r *ErrorRenderer) renderWithSourceContext(pos record.Position, message string, sourceContent []byte) string {
	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	sourceLines := strings.Split(strings.TrimRight(string(sourceContent), "\n"), "\n")

	startLine := pos.Line - 3
	endLine := pos.Line

	if startLine < 0 {
		startLine = 0
	}
	if endLine >= len(sourceLines) {
		endLine = len(sourceLines) - 1
	}

	for i := startLine; i <= endLine; i++ {
		line := strings.TrimRight(sourceLines[i], "\r")
		fmt.Fprintf(&buf, "%5d | ", i+1)
		buf.WriteString(errContextStyle.Render(line))
		buf.WriteByte('\n')

		if i == pos.Line-1 && len(line) > 0 {
			buf.WriteString("      | ")
			buf.WriteString(errCaretStyle.Render(strings.Repeat("^", len(line))))
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

func (r *ErrorRenderer) renderWithContext(message string, rec record.Record) string {
	if rec == nil {
		return message
	}

	var buf strings.Builder

	buf.WriteString(errorStyle.Render(message))
	buf.WriteString("\n\n")

	var line string
	switch rr := rec.(type) {
	case *record.Trade:
		line = fmt.Sprintf("trade sold %s, bought %s", rr.Sold, rr.Bought)
	case *record.TransferIn:
		line = fmt.Sprintf("transfer in %s", rr.Lot)
	case *record.TransferOut:
		line = fmt.Sprintf("transfer out %s", rr.Disposal)
	}
	if !rec.Timestamp().IsZero() {
		line = rec.Timestamp().Format("2006-01-02 15:04:05") + " " + line
	}

	buf.WriteString("   ")
	buf.WriteString(errContextStyle.Render(line))
	buf.WriteByte('\n')

	return buf.String()
}
