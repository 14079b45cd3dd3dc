package bytecode

// Stats contains statistics about an encoded code unit.
type Stats struct {
	// InstructionCount is the number of real instructions, prefixes excluded.
	InstructionCount int

	// PrefixCount is the number of EXTENDED_ARG prefixes.
	PrefixCount int

	// ByteCount is the size of the instruction stream.
	ByteCount int

	ConstantCount int
	NameCount     int

	// NestedCount is the number of code units nested in the constants.
	NestedCount int

	ExceptionEntryCount int
	StackSize           int
}
