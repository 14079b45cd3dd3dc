package instr

import (
	"fmt"

	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/op"
)

// ConcreteInstr is an instruction whose operand is a resolved integer.
type ConcreteInstr struct {
	info *op.Info
	arg  int
	loc  bytecode.SourceLocation
}

// NewConcrete creates a concrete instruction. Opcodes without an argument
// must carry 0.
func NewConcrete(p *op.Profile, code op.Code, arg int) (*ConcreteInstr, error) {
	info, ok := p.Info(code)
	if !ok {
		return nil, errz.Errorf(errz.ErrMalformedInstruction, "unknown opcode %d in %s format", code, p.Name)
	}
	if arg < 0 {
		return nil, errz.Errorf(errz.ErrMalformedInstruction, "%s argument %d is negative", info.Name, arg)
	}
	if int64(arg) > op.MaxArg {
		return nil, errz.Errorf(errz.ErrEncodingOverflow, "%s argument %d exceeds %d", info.Name, arg, int64(op.MaxArg))
	}
	if !info.HasArg() && arg != 0 {
		return nil, errz.Errorf(errz.ErrMalformedInstruction, "%s takes no argument, got %d", info.Name, arg)
	}
	return &ConcreteInstr{info: info, arg: arg}, nil
}

// Info returns the catalog entry of the instruction's opcode.
func (c *ConcreteInstr) Info() *op.Info { return c.info }

// Op returns the opcode.
func (c *ConcreteInstr) Op() op.Code { return c.info.Code }

// Name returns the opcode name.
func (c *ConcreteInstr) Name() string { return c.info.Name }

// Arg returns the integer operand.
func (c *ConcreteInstr) Arg() int { return c.arg }

// Location returns the source location.
func (c *ConcreteInstr) Location() bytecode.SourceLocation { return c.loc }

// WithLocation returns a copy of the instruction carrying loc.
func (c *ConcreteInstr) WithLocation(loc bytecode.SourceLocation) *ConcreteInstr {
	cp := *c
	cp.loc = loc
	return &cp
}

// Size returns the encoded size in bytes, prefixes included.
func (c *ConcreteInstr) Size() int {
	return op.InstrSize(c.arg)
}

// Encode appends the instruction to dst. The operand is split into
// big-endian bytes; each high byte is carried by an EXTENDED_ARG prefix and
// the lowest by the instruction itself.
func (c *ConcreteInstr) Encode(dst []byte) []byte {
	for i := op.ExtendedArgs(c.arg); i > 0; i-- {
		dst = append(dst, byte(op.ExtendedArg), byte(c.arg>>(8*i)))
	}
	return append(dst, byte(c.info.Code), byte(c.arg))
}

// EncodeSized is like Encode but pads the encoding to size bytes with
// leading zero prefixes.
func (c *ConcreteInstr) EncodeSized(dst []byte, size int) ([]byte, error) {
	need := c.Size()
	if size < need || size%2 != 0 || size > op.InstrSize(op.MaxArg) {
		return nil, errz.Errorf(errz.ErrEncodingOverflow, "%s %d does not fit in %d bytes", c.info.Name, c.arg, size)
	}
	for ; size > need; size -= 2 {
		dst = append(dst, byte(op.ExtendedArg), 0)
	}
	return c.Encode(dst), nil
}

// String returns the opcode name and operand.
func (c *ConcreteInstr) String() string {
	if !c.info.HasArg() {
		return c.info.Name
	}
	return fmt.Sprintf("%s %d", c.info.Name, c.arg)
}
