// Package stackasm assembles and disassembles code units for a stack based
// virtual machine. A code unit moves between three forms: the encoded
// bytecode.Code, a flat instr.Program of symbolic instructions, and a
// cfg.Graph of basic blocks.
//
//	prog, _ := stackasm.Disassemble(code)
//	// edit prog.Elements
//	code, _ = stackasm.Assemble(prog)
package stackasm

import (
	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/cfg"
	"github.com/deepnoodle-ai/stackasm/dis"
	"github.com/deepnoodle-ai/stackasm/instr"
)

// Assemble encodes a program. The program is not modified.
func Assemble(p *instr.Program, opts ...Option) (*bytecode.Code, error) {
	a, err := collectOptions(opts...).assembler()
	if err != nil {
		return nil, err
	}
	return a.Assemble(p)
}

// AssembleGraph encodes a control flow graph in block order.
func AssembleGraph(g *cfg.Graph, opts ...Option) (*bytecode.Code, error) {
	a, err := collectOptions(opts...).assembler()
	if err != nil {
		return nil, err
	}
	return a.AssembleGraph(g)
}

// Disassemble decodes a code unit into a program.
func Disassemble(code *bytecode.Code) (*instr.Program, error) {
	return dis.Disassemble(code)
}

// BuildGraph decodes a code unit straight into its control flow graph.
func BuildGraph(code *bytecode.Code) (*cfg.Graph, error) {
	p, err := dis.Disassemble(code)
	if err != nil {
		return nil, err
	}
	return cfg.FromFlat(p)
}

// StackSize returns the maximum stack depth a program needs.
func StackSize(p *instr.Program) (int, error) {
	g, err := cfg.FromFlat(p)
	if err != nil {
		return 0, err
	}
	start := 0
	if g.Profile.SuspendSeed && g.Meta.Flags.Suspendable() {
		start = 1
	}
	info, err := g.ComputeStackSize(start)
	if err != nil {
		return 0, err
	}
	return info.Max, nil
}

// Reassemble disassembles code and assembles the result again. Units
// produced by this package come back byte for byte; others come back
// normalized, without redundant EXTENDED_ARG prefixes and with a
// recomputed stack size. Nested code constants are kept as they are.
func Reassemble(code *bytecode.Code, opts ...Option) (*bytecode.Code, error) {
	a, err := collectOptions(opts...).assembler()
	if err != nil {
		return nil, err
	}
	p, err := dis.Disassemble(code)
	if err != nil {
		return nil, err
	}
	return a.Assemble(p)
}
