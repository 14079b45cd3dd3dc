// Package dis turns encoded code units back into instructions. Decode gives
// the annotated instruction listing used by Print; Disassemble rebuilds a
// symbolic program that assembles back to the same unit.
package dis

import (
	"fmt"

	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/op"
)

// Instruction is one decoded instruction with its EXTENDED_ARG prefixes
// folded into Arg.
type Instruction struct {
	// Offset is the byte offset of the first prefix, or of the instruction
	// itself when it has none.
	Offset   int
	Size     int
	Prefixes int
	Name     string
	Opcode   op.Code
	Arg      int
	Line     int

	// Target is the byte offset a jump lands on, -1 for other opcodes.
	Target int

	Annotation string
	Constant   any
	HasConst   bool
}

// Decode walks the instruction stream of code. Unknown opcodes, dangling
// prefixes, operands on opcodes that take none and operands outside the
// side tables are reported as invalid bytecode.
func Decode(code *bytecode.Code) ([]Instruction, error) {
	p, err := code.Profile()
	if err != nil {
		return nil, errz.Errorf(errz.ErrInvalidBytecode, "code unit %q", code.Name()).WithCause(err)
	}
	raw := code.Bytes()
	if len(raw)%2 != 0 {
		return nil, errz.Errorf(errz.ErrInvalidBytecode, "instruction stream has odd length %d", len(raw))
	}
	starts := code.LineStarts()
	meta := code.Meta()

	var out []Instruction
	start, ext, prefixes := 0, 0, 0
	for offset := 0; offset < len(raw); offset += 2 {
		info, ok := p.Info(op.Code(raw[offset]))
		if !ok {
			return nil, errz.Errorf(errz.ErrInvalidBytecode,
				"unknown %s opcode %d", p.Name, raw[offset]).AtOffset(offset)
		}
		if info.Code == op.ExtendedArg {
			if prefixes == 0 {
				start = offset
			}
			prefixes++
			if prefixes > op.MaxExtendedArgs {
				return nil, errz.Errorf(errz.ErrInvalidBytecode,
					"more than %d EXTENDED_ARG prefixes", op.MaxExtendedArgs).AtOffset(start)
			}
			ext = (ext | int(raw[offset+1])) << 8
			continue
		}
		if prefixes == 0 {
			start = offset
		}
		arg := ext | int(raw[offset+1])
		if !info.HasArg() && arg != 0 {
			return nil, errz.Errorf(errz.ErrInvalidBytecode,
				"%s takes no operand but has %d", info.Name, arg).AtOffset(start)
		}
		in := Instruction{
			Offset:   start,
			Size:     offset + 2 - start,
			Prefixes: prefixes,
			Name:     info.Name,
			Opcode:   info.Code,
			Arg:      arg,
			Line:     bytecode.LineAt(starts, start),
			Target:   -1,
		}
		if err := annotate(&in, info, p, code, meta); err != nil {
			return nil, err
		}
		if in.Target > len(raw) {
			return nil, errz.Errorf(errz.ErrInvalidBytecode,
				"%s jumps to %d past the end of the stream", info.Name, in.Target).AtOffset(start)
		}
		out = append(out, in)
		ext, prefixes = 0, 0
	}
	if prefixes > 0 {
		return nil, errz.Errorf(errz.ErrInvalidBytecode, "stream ends with EXTENDED_ARG").AtOffset(start)
	}
	owner := owners(out, len(raw))
	for i := range out {
		in := &out[i]
		if in.Target < 0 {
			continue
		}
		s, ok := owner[in.Target]
		if !ok {
			return nil, errz.Errorf(errz.ErrInvalidBytecode,
				"%s jumps into the middle of an instruction at %d", in.Name, in.Target).AtOffset(in.Offset)
		}
		if s != in.Target {
			in.Target = s
			in.Annotation = fmt.Sprintf("to %d", s)
		}
	}
	return out, nil
}

// owners maps the offset of every opcode in the stream, prefixes included,
// to the offset where its folded instruction starts. The end of the stream
// maps to itself.
func owners(decoded []Instruction, size int) map[int]int {
	m := make(map[int]int, size/2+1)
	for _, in := range decoded {
		for o := in.Offset; o < in.Offset+in.Size; o += 2 {
			m[o] = in.Offset
		}
	}
	m[size] = size
	return m
}

// annotate resolves the operand of in against the side tables.
func annotate(in *Instruction, info *op.Info, p *op.Profile, code *bytecode.Code, meta bytecode.Meta) error {
	outOfRange := func(table string, n int) error {
		return errz.Errorf(errz.ErrInvalidBytecode,
			"%s operand %d is outside the %s table of %d entries", in.Name, in.Arg, table, n).AtOffset(in.Offset)
	}
	arg := in.Arg
	switch info.Arg {
	case op.ArgJump:
		after := in.Offset + in.Size
		switch info.Jump {
		case op.JumpRelForward:
			in.Target = after + arg*p.OffsetUnit
		case op.JumpRelBackward:
			in.Target = after - arg*p.OffsetUnit
		case op.JumpAbs:
			in.Target = arg * p.OffsetUnit
		}
		if in.Target < 0 {
			return errz.Errorf(errz.ErrInvalidBytecode,
				"%s jumps before the start of the stream", in.Name).AtOffset(in.Offset)
		}
		in.Annotation = fmt.Sprintf("to %d", in.Target)
	case op.ArgConst:
		if arg >= code.ConstantCount() {
			return outOfRange("constant", code.ConstantCount())
		}
		in.Constant, in.HasConst = code.ConstantAt(arg), true
		in.Annotation = constRepr(in.Constant)
	case op.ArgName:
		if arg >= code.NameCount() {
			return outOfRange("name", code.NameCount())
		}
		in.Annotation = code.NameAt(arg)
	case op.ArgLocal:
		if arg >= len(meta.Varnames) {
			return outOfRange("local", len(meta.Varnames))
		}
		in.Annotation = meta.Varnames[arg]
	case op.ArgDeref:
		name, ok := meta.DerefName(arg)
		if !ok {
			return outOfRange("cell and free", len(meta.Cellvars)+len(meta.Freevars))
		}
		in.Annotation = name
	case op.ArgCompare:
		cmp := op.Compare(arg >> p.CompareShift)
		if arg&(1<<p.CompareShift-1) != 0 || !cmp.Valid() {
			return errz.Errorf(errz.ErrInvalidBytecode,
				"%s operand %d is not a comparison", in.Name, arg).AtOffset(in.Offset)
		}
		in.Annotation = cmp.String()
	case op.ArgFlagName:
		idx := arg >> 1
		if idx >= code.NameCount() {
			return outOfRange("name", code.NameCount())
		}
		in.Annotation = code.NameAt(idx)
		if arg&1 == 1 {
			in.Annotation = "NULL + " + in.Annotation
		}
	case op.ArgLocalPair:
		first, second := arg>>4, arg&15
		if arg > 0xFF || first >= len(meta.Varnames) || second >= len(meta.Varnames) {
			return outOfRange("local", len(meta.Varnames))
		}
		in.Annotation = meta.Varnames[first] + ", " + meta.Varnames[second]
	}
	return nil
}

func constRepr(v any) string {
	switch v := v.(type) {
	case nil:
		return "None"
	case string:
		if len(v) > 80 {
			v = v[:77] + "..."
		}
		return fmt.Sprintf("%q", v)
	case []byte:
		return fmt.Sprintf("b%q", v)
	case *bytecode.Code:
		return fmt.Sprintf("<code %s>", v.Name())
	case []any:
		s := "("
		for i, e := range v {
			if i > 0 {
				s += ", "
			}
			s += constRepr(e)
		}
		if len(v) == 1 {
			s += ","
		}
		return s + ")"
	default:
		return fmt.Sprint(v)
	}
}
