package instr

import (
	"fmt"

	"github.com/deepnoodle-ai/stackasm/op"
)

// Operand is the symbolic argument of an instruction. The concrete type
// selects the operand category; a nil Operand means no argument.
type Operand interface {
	ArgKind() op.ArgKind
}

// Target is an operand that a jump or protected region can refer to.
type Target interface {
	Operand
	JumpTarget()
}

// IntArg is an integer immediate.
type IntArg int

// Const is a constant pool value.
type Const struct {
	Value any
}

// Name is an entry of the name table.
type Name string

// Local is a local variable slot.
type Local string

// Cell is a cell variable owned by the unit.
type Cell string

// Free is a free variable captured from an enclosing unit.
type Free string

// Compare is a comparison operator.
type Compare op.Compare

// FlagName packs a low flag bit with a name index.
type FlagName struct {
	Flag bool
	Name string
}

// LocalPair packs two local slots into one operand.
type LocalPair struct {
	First  string
	Second string
}

func (IntArg) ArgKind() op.ArgKind    { return op.ArgInt }
func (Const) ArgKind() op.ArgKind     { return op.ArgConst }
func (Name) ArgKind() op.ArgKind      { return op.ArgName }
func (Local) ArgKind() op.ArgKind     { return op.ArgLocal }
func (Cell) ArgKind() op.ArgKind      { return op.ArgDeref }
func (Free) ArgKind() op.ArgKind      { return op.ArgDeref }
func (Compare) ArgKind() op.ArgKind   { return op.ArgCompare }
func (FlagName) ArgKind() op.ArgKind  { return op.ArgFlagName }
func (LocalPair) ArgKind() op.ArgKind { return op.ArgLocalPair }

func (c Const) String() string {
	switch v := c.Value.(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case nil:
		return "None"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (c Compare) String() string { return op.Compare(c).String() }

func (f FlagName) String() string {
	if f.Flag {
		return fmt.Sprintf("(True, %s)", f.Name)
	}
	return fmt.Sprintf("(False, %s)", f.Name)
}

func (l LocalPair) String() string {
	return fmt.Sprintf("(%s, %s)", l.First, l.Second)
}

// Label marks a position in a flat instruction list. Labels are compared by
// identity only.
type Label struct {
	_ byte
}

// NewLabel returns a new unique label.
func NewLabel() *Label {
	return &Label{}
}

func (*Label) ArgKind() op.ArgKind { return op.ArgJump }
func (*Label) JumpTarget()         {}
func (*Label) isElement()          {}

// effectArg returns the integer the stack effect formula of an opcode is
// evaluated with.
func effectArg(arg Operand) int {
	switch a := arg.(type) {
	case IntArg:
		return int(a)
	case FlagName:
		if a.Flag {
			return 1
		}
	}
	return 0
}
