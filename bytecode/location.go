package bytecode

import "fmt"

// SourceLocation is the source position attached to an instruction. A zero
// line means the instruction has no location and inherits the previous one
// when the line table is built.
type SourceLocation struct {
	Line   int // 1-based line number
	Column int // 1-based column number, 0 if unknown
}

// String returns a formatted string representation of the source location.
func (s SourceLocation) String() string {
	if s.Column == 0 {
		return fmt.Sprintf("%d", s.Line)
	}
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// IsZero returns true if the location has not been set.
func (s SourceLocation) IsZero() bool {
	return s.Line == 0 && s.Column == 0
}

// Line returns a location carrying only a line number.
func Line(n int) SourceLocation {
	return SourceLocation{Line: n}
}
