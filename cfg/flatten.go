package cfg

import (
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/instr"
)

// ToFlat lays the blocks out in index order. A fresh label precedes every
// block that a jump or region handler refers to; fallthrough edges rely on
// adjacency so they must point to the following block. Region markers are
// copied with their handler replaced by the block's label.
func (g *Graph) ToFlat() (*instr.Program, error) {
	targeted := map[*Block]bool{}
	for i, b := range g.blocks {
		if b.next != nil && (i+1 >= len(g.blocks) || g.blocks[i+1] != b.next) {
			return nil, errz.Errorf(errz.ErrInvalidGraph, "block %d falls through to block %d, which does not follow it", i, b.next.index)
		}
		for _, e := range b.elems {
			switch e := e.(type) {
			case *instr.Instr:
				if !e.HasJump() {
					continue
				}
				t, ok := e.Target().(*Block)
				if !ok || !g.owns(t) {
					return nil, errz.Errorf(errz.ErrInvalidGraph, "%s in block %d targets %T outside the graph", e.Name(), i, e.Target())
				}
				targeted[t] = true
			case *instr.TryBegin:
				h := g.Handler(e)
				if !g.owns(h) {
					return nil, errz.Errorf(errz.ErrInvalidGraph, "region in block %d has no handler block", i)
				}
				targeted[h] = true
			}
		}
	}

	labels := map[*Block]*instr.Label{}
	for b := range targeted {
		labels[b] = instr.NewLabel()
	}
	regions := map[*instr.TryBegin]*instr.TryBegin{}
	region := func(tb *instr.TryBegin) *instr.TryBegin {
		if c, ok := regions[tb]; ok {
			return c
		}
		c := &instr.TryBegin{
			Target:    labels[g.Handler(tb)],
			PushLasti: tb.PushLasti,
			Depth:     tb.Depth,
		}
		regions[tb] = c
		return c
	}

	p := instr.NewProgram(g.Profile)
	p.Meta = g.Meta.Clone()
	p.Consts = append([]any(nil), g.Consts...)
	p.Names = append([]string(nil), g.Names...)
	for _, b := range g.blocks {
		if l, ok := labels[b]; ok {
			p.Elements = append(p.Elements, l)
		}
		for _, e := range b.elems {
			switch e := e.(type) {
			case *instr.Instr:
				if e.HasJump() {
					retargeted, err := e.Retarget(labels[e.Target().(*Block)])
					if err != nil {
						return nil, err
					}
					e = retargeted
				}
				p.Elements = append(p.Elements, e)
			case *instr.TryBegin:
				p.Elements = append(p.Elements, region(e))
			case *instr.TryEnd:
				if e.Entry == nil {
					return nil, errz.Errorf(errz.ErrRegionImbalance, "region end in block %d has no start", b.index)
				}
				p.Elements = append(p.Elements, &instr.TryEnd{Entry: region(e.Entry)})
			}
		}
	}
	return p, nil
}

// ToProgram is an alias of ToFlat.
func (g *Graph) ToProgram() (*instr.Program, error) {
	return g.ToFlat()
}
