package cfg

import (
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/instr"
)

// FromFlat builds a graph from a validated flat program. A block starts at
// every referenced label, at every region start following other elements,
// and after every region end, jump or final instruction. Jumps are
// retargeted from labels to blocks; region markers are shared with the
// program and their handlers recorded in the graph.
func FromFlat(p *instr.Program) (*Graph, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	g := New(p.Profile)
	g.Meta = p.Meta.Clone()
	g.Consts = append([]any(nil), p.Consts...)
	g.Names = append([]string(nil), p.Names...)

	referenced := map[*instr.Label]bool{}
	for _, e := range p.Elements {
		switch e := e.(type) {
		case *instr.Instr:
			if l, ok := e.Target().(*instr.Label); ok {
				referenced[l] = true
			}
		case *instr.TryBegin:
			if l, ok := e.Target.(*instr.Label); ok {
				referenced[l] = true
			}
		}
	}

	blocks := map[*instr.Label]*Block{}
	cur := g.AddBlock()
	pending, pendingNext := false, false
	start := func(linked bool) {
		nb := g.AddBlock()
		if linked {
			cur.next = nb
		}
		cur = nb
	}
	flush := func() {
		if pending {
			start(pendingNext)
			pending = false
		}
	}

	for _, e := range p.Elements {
		switch e := e.(type) {
		case *instr.Label:
			if !referenced[e] {
				continue
			}
			if pending {
				flush()
			} else if len(cur.elems) > 0 {
				start(true)
			}
			blocks[e] = cur
		case *instr.TryBegin:
			if pending {
				flush()
			} else if len(cur.elems) > 0 {
				start(true)
			}
			cur.elems = append(cur.elems, e)
		case *instr.TryEnd:
			flush()
			cur.elems = append(cur.elems, e)
			pending, pendingNext = true, true
		case *instr.Instr:
			flush()
			cur.elems = append(cur.elems, e)
			if e.HasJump() || e.IsFinal() {
				pending, pendingNext = true, !e.IsFinal()
			}
		}
	}

	for _, b := range g.blocks {
		for i, e := range b.elems {
			switch e := e.(type) {
			case *instr.Instr:
				if !e.HasJump() {
					continue
				}
				target := blocks[e.Target().(*instr.Label)]
				retargeted, err := e.Retarget(target)
				if err != nil {
					return nil, err
				}
				b.elems[i] = retargeted
			case *instr.TryBegin:
				target, ok := blocks[e.Target.(*instr.Label)]
				if !ok {
					return nil, errz.Errorf(errz.ErrLabelResolution, "region handler label is not defined")
				}
				g.handlers[e] = target
			}
		}
	}
	return g, nil
}
