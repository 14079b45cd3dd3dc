package dis

import (
	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/instr"
	"github.com/deepnoodle-ai/stackasm/op"
)

// region is an exception table entry in byte offsets.
type region struct {
	start, end, target int
	begin              *instr.TryBegin
}

// Disassemble rebuilds the symbolic program of code. Jump destinations and
// handlers become labels, every exception table entry becomes one region
// with its recorded depth, and the unit's side tables and metadata are
// carried over so that assembling the result reproduces the same indices.
func Disassemble(code *bytecode.Code) (*instr.Program, error) {
	p, err := code.Profile()
	if err != nil {
		return nil, errz.Errorf(errz.ErrInvalidBytecode, "code unit %q", code.Name()).WithCause(err)
	}
	decoded, err := Decode(code)
	if err != nil {
		return nil, err
	}
	owner := owners(decoded, code.Len())

	labels := map[int]*instr.Label{}
	labelAt := func(offset int) *instr.Label {
		l, ok := labels[offset]
		if !ok {
			l = instr.NewLabel()
			labels[offset] = l
		}
		return l
	}
	for _, in := range decoded {
		if in.Target >= 0 {
			labelAt(in.Target)
		}
	}

	regions, err := readRegions(code, p, owner, labelAt)
	if err != nil {
		return nil, err
	}

	prog := instr.NewProgram(p)
	prog.Consts = code.Constants()
	prog.Names = code.Names()
	prog.Meta = code.Meta()

	meta := prog.Meta
	next := 0
	var open *region
	markers := func(offset int) {
		if open != nil && open.end == offset {
			prog.Append(&instr.TryEnd{Entry: open.begin})
			open = nil
		}
		if l, ok := labels[offset]; ok {
			prog.Append(l)
		}
		if next < len(regions) && regions[next].start == offset {
			open = &regions[next]
			next++
			prog.Append(open.begin)
		}
	}
	for _, d := range decoded {
		markers(d.Offset)
		in, err := rebuild(p, d, code, meta, labels)
		if err != nil {
			return nil, err
		}
		prog.Append(in)
	}
	markers(code.Len())
	return prog, nil
}

// readRegions decodes the exception table and checks that every entry
// covers whole instructions, lands its handler on an instruction and does
// not overlap the entry before it. Boundaries that fall on an EXTENDED_ARG
// prefix move to the start of the instruction the prefix belongs to.
func readRegions(code *bytecode.Code, p *op.Profile, owner map[int]int, labelAt func(int) *instr.Label) ([]region, error) {
	entries, err := code.ExceptionEntries()
	if err != nil {
		return nil, err
	}
	if len(entries) > 0 && !p.ExceptionTable {
		return nil, errz.Errorf(errz.ErrInvalidBytecode, "the %s format has no exception table", p.Name)
	}
	unit := p.OffsetUnit
	regions := make([]region, 0, len(entries))
	prevEnd := 0
	for i, e := range entries {
		start, okStart := owner[e.Start*unit]
		end, okEnd := owner[(e.Stop+1)*unit]
		target, okTarget := owner[e.Target*unit]
		switch {
		case !okStart || !okEnd:
			return nil, errz.Errorf(errz.ErrInvalidBytecode,
				"exception entry %d range [%d, %d) does not cover whole instructions", i, e.Start*unit, (e.Stop+1)*unit)
		case start < prevEnd:
			return nil, errz.Errorf(errz.ErrInvalidBytecode,
				"exception entry %d starts at %d inside the previous entry", i, start)
		case end <= start:
			return nil, errz.Errorf(errz.ErrInvalidBytecode, "exception entry %d is empty", i)
		case !okTarget || target >= code.Len():
			return nil, errz.Errorf(errz.ErrInvalidBytecode,
				"exception entry %d handler %d is not an instruction", i, e.Target*unit)
		}
		r := region{start: start, end: end, target: target}
		r.begin = &instr.TryBegin{Target: labelAt(target), PushLasti: e.Lasti, Depth: e.Depth}
		regions = append(regions, r)
		prevEnd = end
	}
	return regions, nil
}

// rebuild converts a decoded instruction to its symbolic form.
func rebuild(p *op.Profile, d Instruction, code *bytecode.Code, meta bytecode.Meta, labels map[int]*instr.Label) (*instr.Instr, error) {
	info, _ := p.Info(d.Opcode)
	var arg instr.Operand
	switch info.Arg {
	case op.ArgNone:
	case op.ArgInt:
		arg = instr.IntArg(d.Arg)
	case op.ArgJump:
		arg = labels[d.Target]
	case op.ArgConst:
		arg = instr.Const{Value: d.Constant}
	case op.ArgName:
		arg = instr.Name(code.NameAt(d.Arg))
	case op.ArgLocal:
		arg = instr.Local(meta.Varnames[d.Arg])
	case op.ArgDeref:
		if d.Arg < len(meta.Cellvars) {
			arg = instr.Cell(meta.Cellvars[d.Arg])
		} else {
			arg = instr.Free(meta.Freevars[d.Arg-len(meta.Cellvars)])
		}
	case op.ArgCompare:
		arg = instr.Compare(d.Arg >> p.CompareShift)
	case op.ArgFlagName:
		arg = instr.FlagName{Flag: d.Arg&1 == 1, Name: code.NameAt(d.Arg >> 1)}
	case op.ArgLocalPair:
		arg = instr.LocalPair{First: meta.Varnames[d.Arg>>4], Second: meta.Varnames[d.Arg&15]}
	}
	in, err := instr.New(p, d.Opcode, arg)
	if err != nil {
		return nil, errz.Errorf(errz.ErrInvalidBytecode, "%s", d.Name).AtOffset(d.Offset).WithCause(err)
	}
	if d.Line > 0 {
		in = in.WithLocation(bytecode.Line(d.Line))
	}
	return in, nil
}
