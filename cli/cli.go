// Package cli provides the commands of the capgains tool.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/robinvdvleuten/capgains/loader"
)

var (
	successSymbol = "✓"
	errorSymbol   = "✗"
	infoSymbol    = "→"

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D787", Dark: "#00D787"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#5FAFFF", Dark: "#5FAFFF"})
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#00D7D7", Dark: "#00D7D7"})
)

func printSuccess(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		successStyle.Render(successSymbol),
		message,
	)
}

func printError(w io.Writer, message string) {
	_, _ = fmt.Fprintf(w, "%s %s\n",
		errorStyle.Render(errorSymbol),
		errorStyle.Render(message),
	)
}

func printInfof(w io.Writer, format string, args ...interface{}) {
	formatted := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(w, "%s %s\n",
		infoStyle.Render(infoSymbol),
		formatted,
	)
}

// selectCurrencies lets the user pick which of the discovered currencies to
// report. Everything is preselected.
func selectCurrencies(currencies []string) ([]string, error) {
	selected := append([]string(nil), currencies...)

	form := huh.NewMultiSelect[string]().
		Title("Which currencies should be reported?").
		Options(huh.NewOptions(currencies...)...).
		Value(&selected)

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("failed to read selection: %w", err)
	}

	return selected, nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// stdinName is the filename stdin is reported under.
const stdinName = "<stdin>"

// FileOrStdin accepts either a file path or "-" for stdin.
// For stdin: Filename="<stdin>", Contents populated.
// For files: Filename set, Contents nil (read by loader).
type FileOrStdin struct {
	Filename string
	Contents []byte
}

// Decode implements kong.MapperValue.
func (f *FileOrStdin) Decode(ctx *kong.DecodeContext) error {
	var filename string
	if err := ctx.Scan.PopValueInto("filename", &filename); err != nil {
		return err
	}

	if filename == loader.Stdin || filename == "" {
		return f.readStdin()
	}

	if _, err := os.Stat(filename); err != nil {
		return err
	}
	f.Filename = filename
	f.Contents = nil

	return nil
}

func (f *FileOrStdin) readStdin() error {
	contents, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read from stdin: %w", err)
	}
	f.Filename = stdinName
	f.Contents = contents
	return nil
}

// IsStdin reports whether the input is read from stdin.
func (f *FileOrStdin) IsStdin() bool {
	return f.Filename == stdinName
}

// GetSourceContent returns source content for error formatting.
func (f *FileOrStdin) GetSourceContent() ([]byte, error) {
	if f.IsStdin() {
		return f.Contents, nil
	}
	return os.ReadFile(f.Filename)
}

// Inputs are the exports given on the command line, in order.
type Inputs []FileOrStdin

// EnsureContents reads stdin when no input was given.
func (in *Inputs) EnsureContents() error {
	if len(*in) > 0 {
		return nil
	}
	var f FileOrStdin
	if err := f.readStdin(); err != nil {
		return err
	}
	*in = Inputs{f}
	return nil
}

// Filenames returns the names to pass to the loader, with "-" for stdin.
func (in Inputs) Filenames() []string {
	names := make([]string, len(in))
	for i, f := range in {
		if f.IsStdin() {
			names[i] = loader.Stdin
			continue
		}
		names[i] = f.Filename
	}
	return names
}

// Stdin returns the buffered stdin contents, if stdin is one of the inputs.
func (in Inputs) Stdin() io.Reader {
	for _, f := range in {
		if f.IsStdin() {
			return bytes.NewReader(f.Contents)
		}
	}
	return bytes.NewReader(nil)
}

// HasStdin reports whether one of the inputs is stdin.
func (in Inputs) HasStdin() bool {
	for _, f := range in {
		if f.IsStdin() {
			return true
		}
	}
	return false
}

// Source returns the contents of the input with the given filename, for
// rendering errors. Unknown files return nil.
func (in Inputs) Source(filename string) []byte {
	for _, f := range in {
		if f.Filename != filename {
			continue
		}
		content, err := f.GetSourceContent()
		if err != nil {
			return nil
		}
		return content
	}
	return nil
}
