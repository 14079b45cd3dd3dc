package instr

// TryBegin opens a protected region whose exceptions are delivered to
// Target.
type TryBegin struct {
	Target Target

	// PushLasti is set when the runtime pushes the offset of the faulting
	// instruction along with the exception.
	PushLasti bool

	// Depth is the stack depth the handler is entered with, before the
	// exception state is pushed. -1 means it is taken from the stack depth
	// at the region start.
	Depth int
}

// NewTryBegin returns a region start with an unknown depth.
func NewTryBegin(target Target, pushLasti bool) *TryBegin {
	return &TryBegin{Target: target, PushLasti: pushLasti, Depth: -1}
}

func (*TryBegin) isElement() {}

// TryEnd closes the region opened by Entry.
type TryEnd struct {
	Entry *TryBegin
}

func (*TryEnd) isElement() {}
