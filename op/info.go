package op

import "math/bits"

// Effect computes how many values an instruction pops and pushes, given its
// effect argument and the branch outcome being analyzed.
type Effect func(arg int, branch Branch) (pop, push int)

// Info contains information about an opcode as seen by one format profile.
type Info struct {
	Code Code
	Name string
	Arg  ArgKind
	Jump JumpKind

	// Unconditional is set for jumps that always transfer control.
	Unconditional bool

	// Terminal is set for instructions that leave the unit (return, raise).
	Terminal bool

	effect Effect
}

// HasArg reports whether the opcode takes an operand.
func (i *Info) HasArg() bool {
	return i.Arg != ArgNone
}

// HasJump reports whether the opcode transfers control to a target.
func (i *Info) HasJump() bool {
	return i.Jump != JumpNone
}

// IsUncondJump reports whether the opcode is a jump that is always taken.
func (i *Info) IsUncondJump() bool {
	return i.HasJump() && i.Unconditional
}

// IsFinal reports whether execution never continues with the next
// instruction: returns, raises and unconditional jumps.
func (i *Info) IsFinal() bool {
	return i.Terminal || i.IsUncondJump()
}

// PrePost returns the pre effect (values that must already be on the stack,
// as a non-positive delta) and the post effect (values pushed afterwards).
// For an unknown branch the outcome with the larger net effect is used.
func (i *Info) PrePost(arg int, branch Branch) (pre, post int) {
	if i.effect == nil {
		return 0, 0
	}
	if branch == BranchUnknown && i.HasJump() {
		tpop, tpush := i.effect(arg, BranchTaken)
		npop, npush := i.effect(arg, BranchNotTaken)
		if tpush-tpop >= npush-npop {
			return -tpop, tpush
		}
		return -npop, npush
	}
	pop, push := i.effect(arg, branch)
	return -pop, push
}

// StackEffect returns the net change in stack depth.
func (i *Info) StackEffect(arg int, branch Branch) int {
	pre, post := i.PrePost(arg, branch)
	return pre + post
}

func fixed(pop, push int) Effect {
	return func(int, Branch) (int, int) { return pop, push }
}

func branching(takenPop, takenPush, pop, push int) Effect {
	return func(_ int, branch Branch) (int, int) {
		if branch == BranchTaken {
			return takenPop, takenPush
		}
		return pop, push
	}
}

// popArg pops arg values and pushes a fixed count.
func popArg(extra, push int) Effect {
	return func(arg int, _ Branch) (int, int) { return arg + extra, push }
}

// keepArg models operations that reach arg+extra deep into the stack but
// only consume the top values, leaving arg entries in place.
func keepArg(extra int) Effect {
	return func(arg int, _ Branch) (int, int) { return arg + extra, arg }
}

func copyEffect(arg int, _ Branch) (int, int) { return arg, arg + 1 }

func swapEffect(arg int, _ Branch) (int, int) { return arg, arg }

func unpackEffect(arg int, _ Branch) (int, int) { return 1, arg }

func buildMapEffect(arg int, _ Branch) (int, int) { return 2 * arg, 1 }

func makeFunctionEffect(arg int, _ Branch) (int, int) {
	return 1 + bits.OnesCount(uint(arg&0x0f)), 1
}

func callFunctionExEffect(arg int, _ Branch) (int, int) { return 3 + arg&1, 1 }

func formatValueEffect(arg int, _ Branch) (int, int) {
	if arg&0x04 != 0 {
		return 2, 1
	}
	return 1, 1
}

// flagPush pushes an extra value when the packed flag bit is set.
func flagPush(pop int) Effect {
	return func(arg int, _ Branch) (int, int) { return pop, 1 + arg&1 }
}
