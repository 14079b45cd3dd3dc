// Package instr defines the symbolic and concrete instruction models, the
// protected region markers and flat programs built from them.
package instr

import (
	"fmt"

	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/constkey"
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/op"
)

// Element is one entry of a flat program or basic block: an *Instr, a
// *Label, a *TryBegin or a *TryEnd.
type Element interface {
	isElement()
}

// Instr is an instruction with a symbolic operand. Instr values are
// immutable; methods that change an instruction return a copy.
type Instr struct {
	info *op.Info
	arg  Operand
	loc  bytecode.SourceLocation
}

func (*Instr) isElement() {}

// New creates an instruction for the given opcode after checking that the
// operand matches the opcode's category in the profile.
func New(p *op.Profile, code op.Code, arg Operand) (*Instr, error) {
	info, ok := p.Info(code)
	if !ok {
		return nil, errz.Errorf(errz.ErrMalformedInstruction, "unknown opcode %d in %s format", code, p.Name)
	}
	if err := checkOperand(info, arg); err != nil {
		return nil, err
	}
	return &Instr{info: info, arg: arg}, nil
}

// Named creates an instruction from an opcode name.
func Named(p *op.Profile, name string, arg Operand) (*Instr, error) {
	info, ok := p.Lookup(name)
	if !ok {
		return nil, errz.Errorf(errz.ErrMalformedInstruction, "unknown opcode %s in %s format", name, p.Name)
	}
	return New(p, info.Code, arg)
}

// MustNamed is like Named but panics on error.
func MustNamed(p *op.Profile, name string, arg Operand) *Instr {
	i, err := Named(p, name, arg)
	if err != nil {
		panic(err)
	}
	return i
}

func checkOperand(info *op.Info, arg Operand) error {
	if info.Code == op.ExtendedArg {
		return errz.Errorf(errz.ErrMalformedInstruction, "EXTENDED_ARG is produced by the assembler")
	}
	if !info.HasArg() {
		if arg != nil {
			return errz.Errorf(errz.ErrMalformedInstruction, "%s takes no argument, got %T", info.Name, arg)
		}
		return nil
	}
	if arg == nil {
		return errz.Errorf(errz.ErrMalformedInstruction, "%s requires a %s argument", info.Name, info.Arg)
	}
	if arg.ArgKind() != info.Arg {
		return errz.Errorf(errz.ErrMalformedInstruction,
			"%s requires a %s argument, got %T", info.Name, info.Arg, arg)
	}
	switch a := arg.(type) {
	case IntArg:
		if a < 0 {
			return errz.Errorf(errz.ErrMalformedInstruction, "%s argument %d is negative", info.Name, a)
		}
		if int64(a) > op.MaxArg {
			return errz.Errorf(errz.ErrEncodingOverflow, "%s argument %d exceeds %d", info.Name, a, int64(op.MaxArg))
		}
	case Compare:
		if !op.Compare(a).Valid() {
			return errz.Errorf(errz.ErrMalformedInstruction, "%s: invalid comparison %d", info.Name, a)
		}
	case *Label:
		if a == nil {
			return errz.Errorf(errz.ErrMalformedInstruction, "%s: nil label", info.Name)
		}
	}
	return nil
}

// Info returns the catalog entry of the instruction's opcode.
func (i *Instr) Info() *op.Info { return i.info }

// Op returns the opcode.
func (i *Instr) Op() op.Code { return i.info.Code }

// Name returns the opcode name.
func (i *Instr) Name() string { return i.info.Name }

// Arg returns the operand, or nil.
func (i *Instr) Arg() Operand { return i.arg }

// Location returns the source location.
func (i *Instr) Location() bytecode.SourceLocation { return i.loc }

// WithLocation returns a copy of the instruction carrying loc.
func (i *Instr) WithLocation(loc bytecode.SourceLocation) *Instr {
	c := *i
	c.loc = loc
	return &c
}

// Target returns the jump target, or nil for non-jump instructions.
func (i *Instr) Target() Target {
	t, _ := i.arg.(Target)
	return t
}

// Retarget returns a copy of a jump instruction pointing at t.
func (i *Instr) Retarget(t Target) (*Instr, error) {
	if !i.info.HasJump() {
		return nil, errz.Errorf(errz.ErrMalformedInstruction, "%s is not a jump", i.info.Name)
	}
	if t == nil {
		return nil, errz.Errorf(errz.ErrMalformedInstruction, "%s: nil target", i.info.Name)
	}
	c := *i
	c.arg = t
	return &c, nil
}

// WithOp returns a copy of the instruction using another opcode of the same
// operand category.
func (i *Instr) WithOp(info *op.Info) (*Instr, error) {
	if err := checkOperand(info, i.arg); err != nil {
		return nil, err
	}
	c := *i
	c.info = info
	return &c, nil
}

// HasJump reports whether the instruction transfers control to a target.
func (i *Instr) HasJump() bool { return i.info.HasJump() }

// IsUncondJump reports whether the instruction always jumps.
func (i *Instr) IsUncondJump() bool { return i.info.IsUncondJump() }

// IsFinal reports whether execution never continues with the next
// instruction.
func (i *Instr) IsFinal() bool { return i.info.IsFinal() }

// StackEffect returns the net stack depth change.
func (i *Instr) StackEffect(branch op.Branch) int {
	return i.info.StackEffect(effectArg(i.arg), branch)
}

// PrePost returns the values required on the stack (non-positive) and the
// values pushed afterwards.
func (i *Instr) PrePost(branch op.Branch) (pre, post int) {
	return i.info.PrePost(effectArg(i.arg), branch)
}

// Equal reports whether two instructions have the same opcode, location and
// operand. Constants are compared by type-aware key and jump targets by
// identity.
func (i *Instr) Equal(other *Instr) bool {
	if i.info.Code != other.info.Code || i.info.Name != other.info.Name || i.loc != other.loc {
		return false
	}
	return OperandEqual(i.arg, other.arg)
}

// OperandEqual compares two operands. Constant values of different types
// are never equal, even when numerically equal.
func OperandEqual(a, b Operand) bool {
	switch a := a.(type) {
	case nil:
		return b == nil
	case Const:
		bc, ok := b.(Const)
		return ok && constEqual(a.Value, bc.Value)
	default:
		return a == b
	}
}

func constEqual(a, b any) bool {
	if ca, ok := a.(*bytecode.Code); ok {
		cb, ok := b.(*bytecode.Code)
		return ok && ca.Equal(cb)
	}
	if ta, ok := a.([]any); ok {
		tb, ok := b.([]any)
		if !ok || len(ta) != len(tb) {
			return false
		}
		for k := range ta {
			if !constEqual(ta[k], tb[k]) {
				return false
			}
		}
		return true
	}
	return constkey.Equal(a, b)
}

// String returns the opcode name and operand.
func (i *Instr) String() string {
	switch a := i.arg.(type) {
	case nil:
		return i.info.Name
	case Target:
		return fmt.Sprintf("%s <%T>", i.info.Name, a)
	default:
		return fmt.Sprintf("%s %v", i.info.Name, a)
	}
}
