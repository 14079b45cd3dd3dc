// Package assembler turns flat programs and control flow graphs into
// encoded code units.
package assembler

import (
	"github.com/rs/zerolog"

	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/cfg"
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/instr"
	"github.com/deepnoodle-ai/stackasm/op"
)

// Assembler encodes programs. It holds configuration only and may be used
// from several goroutines at once.
type Assembler struct {
	profile   *op.Profile
	maxPasses int
	logger    zerolog.Logger
}

// New returns an Assembler configured with the given options.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		profile:   op.Default,
		maxPasses: DefaultMaxPasses,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.maxPasses < 1 {
		a.maxPasses = 1
	}
	return a
}

// Assemble validates p, builds its control flow graph and encodes it. A
// program without a profile is assembled with the configured one.
func (a *Assembler) Assemble(p *instr.Program) (*bytecode.Code, error) {
	if p.Profile == nil {
		p = p.Clone()
		p.Profile = a.profile
	}
	g, err := cfg.FromFlat(p)
	if err != nil {
		return nil, err
	}
	return a.AssembleGraph(g)
}

// AssembleGraph encodes a control flow graph. Blocks are laid out in index
// order.
func (a *Assembler) AssembleGraph(g *cfg.Graph) (*bytecode.Code, error) {
	code, _, err := a.assemble(g)
	return code, err
}

func (a *Assembler) assemble(g *cfg.Graph) (*bytecode.Code, *layout, error) {
	if g.Profile == nil {
		return nil, nil, errz.Errorf(errz.ErrMalformedInstruction, "graph has no format profile")
	}
	start := 0
	if g.Profile.SuspendSeed && g.Meta.Flags.Suspendable() {
		start = 1
	}
	stack, err := g.ComputeStackSize(start)
	if err != nil {
		return nil, nil, err
	}

	ctx := newContext(g)
	l, err := a.linearize(g, ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := a.relax(l); err != nil {
		return nil, nil, err
	}

	raw, starts, err := l.encode()
	if err != nil {
		return nil, nil, err
	}
	entries, err := l.exceptionEntries(g, stack)
	if err != nil {
		return nil, nil, err
	}
	var excTable []byte
	if len(entries) > 0 {
		if excTable, err = bytecode.EncodeExceptionTable(entries); err != nil {
			return nil, nil, err
		}
	}

	code := bytecode.NewCode(bytecode.CodeParams{
		Format:         g.Profile.Name,
		Code:           raw,
		Constants:      ctx.consts,
		Names:          ctx.names.items,
		Meta:           ctx.meta(g.Meta),
		StackSize:      stack.Max,
		LineTable:      bytecode.EncodeLineTable(g.Meta.FirstLine, starts),
		ExceptionTable: excTable,
	})
	a.logger.Debug().
		Str("unit", g.Meta.Name).
		Str("format", g.Profile.Name).
		Int("passes", l.passes).
		Int("code_size", len(raw)).
		Int("stack_size", stack.Max).
		Int("exception_entries", len(entries)).
		Msg("assembled code unit")
	return code, l, nil
}

// encode serializes the slots with their final sizes and collects the line
// of every instruction.
func (l *layout) encode() ([]byte, []bytecode.LineStart, error) {
	raw := make([]byte, 0, l.codeSize)
	starts := make([]bytecode.LineStart, 0, len(l.slots))
	for i, s := range l.slots {
		c, err := instr.NewConcrete(l.profile, s.info.Code, s.arg)
		if err != nil {
			return nil, nil, err
		}
		if raw, err = c.EncodeSized(raw, s.size); err != nil {
			return nil, nil, err
		}
		starts = append(starts, bytecode.LineStart{Offset: l.offsets[i], Line: s.in.Location().Line})
	}
	return raw, starts, nil
}

// exceptionEntries flattens the region markers into non-overlapping table
// entries. An inner region suspends the enclosing one until it ends.
func (l *layout) exceptionEntries(g *cfg.Graph, stack cfg.StackInfo) ([]bytecode.ExceptionEntry, error) {
	if len(l.regions) == 0 {
		return nil, nil
	}
	if !l.profile.ExceptionTable {
		return nil, errz.Errorf(errz.ErrMalformedInstruction, "the %s format has no exception table", l.profile.Name)
	}
	unit := l.profile.OffsetUnit
	var entries []bytecode.ExceptionEntry
	var open []*instr.TryBegin
	segStart := 0

	emit := func(end int) error {
		if len(open) == 0 || end <= segStart {
			return nil
		}
		tb := open[len(open)-1]
		handler := g.Handler(tb)
		if handler == nil {
			return errz.Errorf(errz.ErrLabelResolution, "region has no handler block")
		}
		depth, ok := stack.Handlers[tb]
		if !ok {
			depth = max(tb.Depth, 0)
		}
		entries = append(entries, bytecode.ExceptionEntry{
			Start:  segStart / unit,
			Stop:   end/unit - 1,
			Target: l.blockOffset(handler) / unit,
			Depth:  depth,
			Lasti:  tb.PushLasti,
		})
		return nil
	}

	for _, r := range l.regions {
		at := l.offsets[r.pos]
		if err := emit(at); err != nil {
			return nil, err
		}
		segStart = at
		if !r.end {
			for _, o := range open {
				if o == r.begin {
					return nil, errz.Errorf(errz.ErrRegionImbalance, "region opened twice").AtOffset(at)
				}
			}
			open = append(open, r.begin)
			continue
		}
		if len(open) == 0 || open[len(open)-1] != r.begin {
			return nil, errz.Errorf(errz.ErrRegionImbalance, "region end does not match the innermost open region").AtOffset(at)
		}
		open = open[:len(open)-1]
	}
	if len(open) > 0 {
		return nil, errz.Errorf(errz.ErrRegionImbalance, "%d region(s) left open", len(open))
	}
	return entries, nil
}
