// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles provides styled output helpers for the CLI. Styling is dropped
// automatically when the writer is not a terminal.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a new Styles instance for the given writer.
func NewStyles(w io.Writer) *Styles {
	return &Styles{
		output: termenv.NewOutput(w),
	}
}

// Success returns a styled success string (green + bold).
func (s *Styles) Success(text string) string {
	return s.output.String(text).Foreground(s.output.Color("2")).Bold().String()
}

// Error returns a styled error string (red + bold).
func (s *Styles) Error(text string) string {
	return s.output.String(text).Foreground(s.output.Color("1")).Bold().String()
}

// FilePath returns a styled file path (cyan).
func (s *Styles) FilePath(text string) string {
	return s.output.String(text).Foreground(s.output.Color("6")).String()
}

// Currency returns a styled currency code (yellow).
func (s *Styles) Currency(text string) string {
	return s.output.String(text).Foreground(s.output.Color("3")).String()
}

// Gain returns a styled monetary amount: green for gains, red for losses.
func (s *Styles) Gain(text string, loss bool) string {
	color := "2"
	if loss {
		color = "1"
	}
	return s.output.String(text).Foreground(s.output.Color(color)).String()
}

// Keyword returns a styled keyword (bold).
func (s *Styles) Keyword(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim returns dimmed text (for secondary information).
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}

// Warning returns a styled warning (yellow + bold).
func (s *Styles) Warning(text string) string {
	return s.output.String(text).Foreground(s.output.Color("3")).Bold().String()
}

// Timing returns a styled duration: red when slow, dimmed otherwise.
func (s *Styles) Timing(text string, slow bool) string {
	if slow {
		return s.output.String(text).Foreground(s.output.Color("1")).String()
	}
	return s.Dim(text)
}
