package assembler

import (
	"github.com/deepnoodle-ai/stackasm/cfg"
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/instr"
	"github.com/deepnoodle-ai/stackasm/op"
)

// slot is one instruction of the linearized graph.
type slot struct {
	in     *instr.Instr
	info   *op.Info
	arg    int
	size   int
	target *cfg.Block

	// deref operands are resolved once every cell and free name is known.
	deref bool
	free  bool
}

// region is a protected region marker at a slot position.
type region struct {
	pos   int
	begin *instr.TryBegin
	end   bool
}

// layout is the linearized graph: instructions in block order, the slot
// each block starts at and the region markers between slots.
type layout struct {
	profile    *op.Profile
	slots      []*slot
	blockStart map[*cfg.Block]int
	regions    []region
	offsets    []int
	codeSize   int
	passes     int
}

func (a *Assembler) linearize(g *cfg.Graph, ctx *context) (*layout, error) {
	l := &layout{profile: g.Profile, blockStart: map[*cfg.Block]int{}}
	for _, b := range g.Blocks() {
		l.blockStart[b] = len(l.slots)
		for k := 0; k < b.Len(); k++ {
			switch e := b.At(k).(type) {
			case *instr.TryBegin:
				l.regions = append(l.regions, region{pos: len(l.slots), begin: e})
			case *instr.TryEnd:
				l.regions = append(l.regions, region{pos: len(l.slots), begin: e.Entry, end: true})
			case *instr.Instr:
				s, err := l.resolve(b, e, ctx)
				if err != nil {
					return nil, err
				}
				l.slots = append(l.slots, s)
			}
		}
	}
	for _, s := range l.slots {
		if s.deref && s.free {
			s.arg += len(ctx.cellvars.items)
		}
		if !s.info.HasJump() {
			s.size = op.InstrSize(s.arg)
		}
	}
	return l, nil
}

// resolve interns the operand of in and picks the jump direction.
func (l *layout) resolve(b *cfg.Block, in *instr.Instr, ctx *context) (*slot, error) {
	if info, ok := l.profile.Info(in.Op()); !ok || info != in.Info() {
		return nil, errz.Errorf(errz.ErrMalformedInstruction, "%s in block %d is not a %s instruction", in.Name(), b.Index(), l.profile.Name)
	}
	s := &slot{in: in, info: in.Info(), size: 2}
	switch arg := in.Arg().(type) {
	case nil:
	case instr.IntArg:
		s.arg = int(arg)
	case instr.Const:
		s.arg = ctx.addConst(arg.Value)
	case instr.Name:
		s.arg = ctx.names.add(string(arg))
	case instr.Local:
		s.arg = ctx.varnames.add(string(arg))
	case instr.Cell:
		s.arg, s.deref = ctx.cellvars.add(string(arg)), true
	case instr.Free:
		s.arg, s.deref, s.free = ctx.freevars.add(string(arg)), true, true
	case instr.Compare:
		s.arg = int(arg) << l.profile.CompareShift
	case instr.FlagName:
		s.arg = ctx.names.add(arg.Name) << 1
		if arg.Flag {
			s.arg |= 1
		}
	case instr.LocalPair:
		first, second := ctx.varnames.add(arg.First), ctx.varnames.add(arg.Second)
		if first > 15 || second > 15 {
			return nil, errz.Errorf(errz.ErrEncodingOverflow,
				"%s: local slots %d and %d do not fit in 4 bits", in.Name(), first, second)
		}
		s.arg = first<<4 | second
	case *cfg.Block:
		s.target = arg
		info, err := l.direct(b, in, arg)
		if err != nil {
			return nil, err
		}
		s.info = info
	default:
		return nil, errz.Errorf(errz.ErrLabelResolution, "%s in block %d has unresolved %T operand", in.Name(), b.Index(), arg)
	}
	if int64(s.arg) > op.MaxArg {
		return nil, errz.Errorf(errz.ErrEncodingOverflow, "%s operand %d exceeds %d", in.Name(), s.arg, int64(op.MaxArg))
	}
	return s, nil
}

// direct returns the opcode a relative jump must use to reach target.
// Unconditional jumps are flipped to the profile's reverse variant; a
// conditional jump pointing the wrong way cannot be encoded.
func (l *layout) direct(b *cfg.Block, in *instr.Instr, target *cfg.Block) (*op.Info, error) {
	info := in.Info()
	backward := target.Index() <= b.Index()
	wrong := (info.Jump == op.JumpRelForward && backward) ||
		(info.Jump == op.JumpRelBackward && !backward)
	if !wrong {
		return info, nil
	}
	if info.IsUncondJump() {
		if code, ok := l.profile.ReverseJump(info.Code); ok {
			rev, _ := l.profile.Info(code)
			return rev, nil
		}
	}
	return nil, errz.Errorf(errz.ErrLabelResolution,
		"%s in block %d cannot reach block %d", in.Name(), b.Index(), target.Index())
}

// computeOffsets fills the byte offset of every slot from the current sizes.
func (l *layout) computeOffsets() {
	if l.offsets == nil {
		l.offsets = make([]int, len(l.slots)+1)
	}
	off := 0
	for i, s := range l.slots {
		l.offsets[i] = off
		off += s.size
	}
	l.offsets[len(l.slots)] = off
	l.codeSize = off
}

func (l *layout) blockOffset(b *cfg.Block) int {
	return l.offsets[l.blockStart[b]]
}

// relax resolves jump operands until no instruction needs to grow. Sizes
// only ever grow, so the loop ends once every jump fits; the pass budget
// bounds pathological inputs.
func (a *Assembler) relax(l *layout) error {
	unit := l.profile.OffsetUnit
	for pass := 1; ; pass++ {
		if pass > a.maxPasses {
			return errz.Errorf(errz.ErrNonConvergent, "jump sizes still changing after %d passes", a.maxPasses)
		}
		l.computeOffsets()
		grown := 0
		for i, s := range l.slots {
			if s.target == nil {
				continue
			}
			target := l.blockOffset(s.target)
			after := l.offsets[i] + s.size
			var arg int
			switch s.info.Jump {
			case op.JumpAbs:
				arg = target / unit
			case op.JumpRelForward:
				arg = (target - after) / unit
			case op.JumpRelBackward:
				arg = (after - target) / unit
			}
			if arg < 0 {
				return errz.Errorf(errz.ErrLabelResolution,
					"%s at offset %d cannot reach offset %d", s.info.Name, l.offsets[i], target).AtOffset(l.offsets[i])
			}
			if int64(arg) > op.MaxArg {
				return errz.Errorf(errz.ErrEncodingOverflow,
					"%s jump of %d units exceeds %d", s.info.Name, arg, int64(op.MaxArg)).AtOffset(l.offsets[i])
			}
			s.arg = arg
			if need := op.InstrSize(arg); need > s.size {
				s.size = need
				grown++
			}
		}
		a.logger.Debug().
			Int("pass", pass).
			Int("grown", grown).
			Int("code_size", l.codeSize).
			Msg("branch relaxation pass")
		if grown == 0 {
			l.passes = pass
			return nil
		}
	}
}
