package bytecode

import (
	"bytes"
	"slices"

	"github.com/deepnoodle-ai/stackasm/constkey"
)

// Equal reports whether two code units are byte-for-byte identical,
// including metadata and side tables. Constants are compared by type-aware
// key so 0 and 0.0 differ, and nested code units are compared recursively.
func (c *Code) Equal(other *Code) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil {
		return false
	}
	if c.format != other.format || c.stackSize != other.stackSize {
		return false
	}
	if !bytes.Equal(c.code, other.code) ||
		!bytes.Equal(c.lineTable, other.lineTable) ||
		!bytes.Equal(c.exceptionTable, other.exceptionTable) {
		return false
	}
	if !slices.Equal(c.names, other.names) || !c.meta.Equal(other.meta) {
		return false
	}
	if len(c.constants) != len(other.constants) {
		return false
	}
	for i := range c.constants {
		if !constantsEqual(c.constants[i], other.constants[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two metadata values are identical.
func (m Meta) Equal(other Meta) bool {
	return m.Name == other.Name &&
		m.QualName == other.QualName &&
		m.Filename == other.Filename &&
		m.FirstLine == other.FirstLine &&
		m.ArgCount == other.ArgCount &&
		m.PosOnlyArgCount == other.PosOnlyArgCount &&
		m.KwOnlyArgCount == other.KwOnlyArgCount &&
		m.Flags == other.Flags &&
		slices.Equal(m.Varnames, other.Varnames) &&
		slices.Equal(m.Cellvars, other.Cellvars) &&
		slices.Equal(m.Freevars, other.Freevars)
}

func constantsEqual(a, b any) bool {
	switch a := a.(type) {
	case *Code:
		bc, ok := b.(*Code)
		return ok && a.Equal(bc)
	case []any:
		bt, ok := b.([]any)
		if !ok || len(a) != len(bt) {
			return false
		}
		for i := range a {
			if !constantsEqual(a[i], bt[i]) {
				return false
			}
		}
		return true
	}
	return constkey.Equal(a, b)
}
