package bytecode

import (
	"github.com/deepnoodle-ai/stackasm/op"
)

// Code is one compiled unit: the raw instruction stream, its side tables and
// scalar metadata. It is immutable after creation and safe for concurrent use.
type Code struct {
	format string

	code      []byte
	constants []any
	names     []string
	meta      Meta
	stackSize int

	lineTable      []byte
	exceptionTable []byte
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	// Format is the name of the profile the unit is encoded with.
	Format         string
	Code           []byte
	Constants      []any
	Names          []string
	Meta           Meta
	StackSize      int
	LineTable      []byte
	ExceptionTable []byte
}

// NewCode creates a new immutable Code from the given parameters.
// Input slices are copied to ensure immutability.
func NewCode(params CodeParams) *Code {
	format := params.Format
	if format == "" {
		format = op.Default.Name
	}
	return &Code{
		format:         format,
		code:           copyBytes(params.Code),
		constants:      copyAny(params.Constants),
		names:          copyStrings(params.Names),
		meta:           params.Meta.Clone(),
		stackSize:      params.StackSize,
		lineTable:      copyBytes(params.LineTable),
		exceptionTable: copyBytes(params.ExceptionTable),
	}
}

// Format returns the name of the profile the unit is encoded with.
func (c *Code) Format() string {
	return c.format
}

// Profile resolves the unit's format name.
func (c *Code) Profile() (*op.Profile, error) {
	return op.ProfileByName(c.format)
}

// Bytes returns a copy of the raw instruction stream.
func (c *Code) Bytes() []byte {
	return copyBytes(c.code)
}

// Len returns the size of the instruction stream in bytes.
func (c *Code) Len() int {
	return len(c.code)
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// Constants returns a copy of the constant pool.
func (c *Code) Constants() []any {
	return copyAny(c.constants)
}

// NameCount returns the number of names.
func (c *Code) NameCount() int {
	return len(c.names)
}

// NameAt returns the name at the given index.
func (c *Code) NameAt(index int) string {
	return c.names[index]
}

// Names returns a copy of the name table.
func (c *Code) Names() []string {
	return copyStrings(c.names)
}

// Meta returns a copy of the unit's metadata.
func (c *Code) Meta() Meta {
	return c.meta.Clone()
}

// Name returns the unit name.
func (c *Code) Name() string {
	return c.meta.Name
}

// Filename returns the source filename.
func (c *Code) Filename() string {
	return c.meta.Filename
}

// FirstLine returns the line the line table is relative to.
func (c *Code) FirstLine() int {
	return c.meta.FirstLine
}

// Flags returns the unit flags.
func (c *Code) Flags() Flags {
	return c.meta.Flags
}

// StackSize returns the maximum stack depth needed to run the unit.
func (c *Code) StackSize() int {
	return c.stackSize
}

// LineTable returns a copy of the encoded line table.
func (c *Code) LineTable() []byte {
	return copyBytes(c.lineTable)
}

// ExceptionTable returns a copy of the encoded exception table.
func (c *Code) ExceptionTable() []byte {
	return copyBytes(c.exceptionTable)
}

// LineStarts decodes the line table.
func (c *Code) LineStarts() []LineStart {
	return DecodeLineTable(c.meta.FirstLine, c.lineTable)
}

// ExceptionEntries decodes the exception table.
func (c *Code) ExceptionEntries() ([]ExceptionEntry, error) {
	return DecodeExceptionTable(c.exceptionTable)
}

// Flatten returns this code and all code units nested in its constants, in
// depth-first order. Units referenced more than once appear once.
// Note: This returns a newly allocated slice, not internal state.
func (c *Code) Flatten() []*Code {
	var codes []*Code
	seen := map[*Code]bool{}
	var walk func(v any)
	walk = func(v any) {
		switch v := v.(type) {
		case *Code:
			if seen[v] {
				return
			}
			seen[v] = true
			codes = append(codes, v)
			for _, k := range v.constants {
				walk(k)
			}
		case []any:
			for _, item := range v {
				walk(item)
			}
		}
	}
	walk(c)
	return codes
}

// Stats returns statistics about this code unit.
func (c *Code) Stats() Stats {
	stats := Stats{
		ByteCount:     len(c.code),
		ConstantCount: len(c.constants),
		NameCount:     len(c.names),
		StackSize:     c.stackSize,
		NestedCount:   len(c.Flatten()) - 1,
	}
	for i := 0; i+1 < len(c.code); i += 2 {
		if op.Code(c.code[i]) == op.ExtendedArg {
			stats.PrefixCount++
		} else {
			stats.InstructionCount++
		}
	}
	if entries, err := c.ExceptionEntries(); err == nil {
		stats.ExceptionEntryCount = len(entries)
	}
	return stats
}
