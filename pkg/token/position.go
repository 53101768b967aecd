package token

import "fmt"

// Position represents a location in the source code.
type Position struct {
	Line   int `json:"line"`   // 1-based line number
	Column int `json:"column"` // 1-based column number
	Offset int `json:"-"`      // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// String renders the position as "line:column", or "-" when unknown.
func (p Position) String() string {
	if !p.IsValid() {
		return "-"
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Shift translates a position found in a fragment back into the file the
// fragment was cut from. base is the position of the fragment's first byte.
func (p Position) Shift(base Position) Position {
	if !p.IsValid() || !base.IsValid() {
		return p
	}
	out := Position{Line: p.Line + base.Line - 1, Column: p.Column, Offset: p.Offset + base.Offset}
	if p.Line == 1 {
		out.Column = p.Column + base.Column - 1
	}
	return out
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Contains returns true if the span contains the given offset.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start.Offset && offset < s.End.Offset
}

// IsValid returns true if both start and end positions are valid.
func (s Span) IsValid() bool {
	return s.Start.IsValid() && s.End.IsValid()
}
