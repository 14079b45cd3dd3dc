package cfg

import (
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/instr"
	"github.com/deepnoodle-ai/stackasm/op"
)

// StackInfo is the result of stack depth analysis.
type StackInfo struct {
	// Max is the largest depth reached on any path from the first block.
	Max int

	// Handlers maps every reached region start to the depth the runtime
	// unwinds to before entering the handler: the stack depth at the region
	// start, unless the region carries an explicit depth.
	Handlers map[*instr.TryBegin]int
}

// frame is the suspended state of one block visit.
type frame struct {
	block *Block
	pos   int
	depth int
	done  bool
}

// ComputeStackSize walks every path from the first block, starting with
// start values on the stack, and returns the maximum depth. A block is only
// walked again when it is reached with a larger depth than before, and never
// while it is already being walked. The walk uses an explicit frame stack,
// so graph size is not limited by goroutine stack depth.
func (g *Graph) ComputeStackSize(start int) (StackInfo, error) {
	info := StackInfo{Max: start, Handlers: map[*instr.TryBegin]int{}}
	if len(g.blocks) == 0 {
		return info, nil
	}

	startDepth := make(map[*Block]int, len(g.blocks))
	active := make(map[*Block]bool)
	var stack []*frame

	enter := func(b *Block, depth int) {
		if active[b] {
			return
		}
		if d, ok := startDepth[b]; ok && d >= depth {
			return
		}
		startDepth[b] = depth
		active[b] = true
		stack = append(stack, &frame{block: b, depth: depth})
	}
	apply := func(f *frame, in *instr.Instr, branch op.Branch) (int, error) {
		pre, post := in.PrePost(branch)
		depth := f.depth + pre
		if depth < 0 {
			return 0, errz.Errorf(errz.ErrStackUnderflow,
				"%s in block %d needs %d value(s), stack has %d", in.Name(), f.block.index, -pre, f.depth)
		}
		depth += post
		if depth > info.Max {
			info.Max = depth
		}
		return depth, nil
	}

	enter(g.blocks[0], start)
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		if f.done {
			active[f.block] = false
			stack = stack[:len(stack)-1]
			continue
		}
		if f.pos >= len(f.block.elems) {
			f.done = true
			if f.block.next != nil {
				enter(f.block.next, f.depth)
			}
			continue
		}
		e := f.block.elems[f.pos]
		f.pos++

		switch e := e.(type) {
		case *instr.TryBegin:
			depth := f.depth
			if e.Depth >= 0 {
				depth = e.Depth
			}
			if d, ok := info.Handlers[e]; !ok || depth > d {
				info.Handlers[e] = depth
			}
			handler := g.Handler(e)
			if !g.owns(handler) {
				return StackInfo{}, errz.Errorf(errz.ErrInvalidGraph, "region in block %d has no handler block", f.block.index)
			}
			seed := depth + g.Profile.HandlerPush
			if e.PushLasti {
				seed++
			}
			if seed > info.Max {
				info.Max = seed
			}
			enter(handler, seed)
		case *instr.Instr:
			if e.HasJump() {
				target, ok := e.Target().(*Block)
				if !ok || !g.owns(target) {
					return StackInfo{}, errz.Errorf(errz.ErrInvalidGraph, "%s in block %d targets %T outside the graph", e.Name(), f.block.index, e.Target())
				}
				taken, err := apply(f, e, op.BranchTaken)
				if err != nil {
					return StackInfo{}, err
				}
				if e.IsUncondJump() {
					f.done = true
					enter(target, taken)
					continue
				}
				depth, err := apply(f, e, op.BranchNotTaken)
				if err != nil {
					return StackInfo{}, err
				}
				f.depth = depth
				enter(target, taken)
				continue
			}
			depth, err := apply(f, e, op.BranchUnknown)
			if err != nil {
				return StackInfo{}, err
			}
			f.depth = depth
			if e.IsFinal() {
				f.done = true
			}
		}
	}
	return info, nil
}
