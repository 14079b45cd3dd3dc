package bytecode

import "strings"

// Flags describe properties of a code unit.
type Flags uint32

const (
	FlagOptimized         Flags = 0x0001
	FlagNewLocals         Flags = 0x0002
	FlagVarargs           Flags = 0x0004
	FlagVarKeywords       Flags = 0x0008
	FlagNested            Flags = 0x0010
	FlagGenerator         Flags = 0x0020
	FlagNoFree            Flags = 0x0040
	FlagCoroutine         Flags = 0x0080
	FlagIterableCoroutine Flags = 0x0100
	FlagAsyncGenerator    Flags = 0x0200
)

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagOptimized, "OPTIMIZED"},
	{FlagNewLocals, "NEWLOCALS"},
	{FlagVarargs, "VARARGS"},
	{FlagVarKeywords, "VARKEYWORDS"},
	{FlagNested, "NESTED"},
	{FlagGenerator, "GENERATOR"},
	{FlagNoFree, "NOFREE"},
	{FlagCoroutine, "COROUTINE"},
	{FlagIterableCoroutine, "ITERABLE_COROUTINE"},
	{FlagAsyncGenerator, "ASYNC_GENERATOR"},
}

// Has reports whether all bits of f2 are set.
func (f Flags) Has(f2 Flags) bool {
	return f&f2 == f2
}

// Suspendable reports whether the unit is a generator or coroutine of any
// kind.
func (f Flags) Suspendable() bool {
	return f&(FlagGenerator|FlagCoroutine|FlagAsyncGenerator) != 0
}

// String returns the set flag names joined with "|".
func (f Flags) String() string {
	var parts []string
	for _, fn := range flagNames {
		if f.Has(fn.flag) {
			parts = append(parts, fn.name)
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, "|")
}

// Meta holds the scalar metadata and variable tables of a code unit.
type Meta struct {
	Name      string
	QualName  string
	Filename  string
	FirstLine int

	ArgCount        int
	PosOnlyArgCount int
	KwOnlyArgCount  int
	Flags           Flags

	// Varnames are the local slot names, parameters first.
	Varnames []string
	// Cellvars and Freevars together form the deref index space, cells
	// first.
	Cellvars []string
	Freevars []string
}

// Clone returns a deep copy of m.
func (m Meta) Clone() Meta {
	m.Varnames = copyStrings(m.Varnames)
	m.Cellvars = copyStrings(m.Cellvars)
	m.Freevars = copyStrings(m.Freevars)
	return m
}

// DerefName returns the name at the given index of the cell-then-free space.
func (m Meta) DerefName(index int) (string, bool) {
	switch {
	case index < 0:
		return "", false
	case index < len(m.Cellvars):
		return m.Cellvars[index], true
	case index < len(m.Cellvars)+len(m.Freevars):
		return m.Freevars[index-len(m.Cellvars)], true
	default:
		return "", false
	}
}
