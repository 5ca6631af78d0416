package record

import "fmt"

// Position represents a location in a source export.
type Position struct {
	Filename string
	Line     int // Line number (1-indexed, the header is line 1)
}

// IsZero returns true for an unset position, as on programmatically built records.
func (p Position) IsZero() bool {
	return p.Filename == "" && p.Line == 0
}

// String returns a human-readable representation of the position.
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d", p.Filename, p.Line)
	}
	return fmt.Sprintf("line %d", p.Line)
}

// GoString returns a Go-syntax representation of the position.
func (p Position) GoString() string {
	return fmt.Sprintf("Position{Filename: %q, Line: %d}", p.Filename, p.Line)
}
