// Package cfg builds control flow graphs from flat programs, flattens them
// back and computes the stack depth a graph needs.
package cfg

import (
	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/instr"
	"github.com/deepnoodle-ai/stackasm/op"
)

// Graph is an ordered list of basic blocks. Block order is the layout order
// used when the graph is flattened; a fallthrough edge must point to the
// block that follows.
type Graph struct {
	Profile *op.Profile
	Meta    bytecode.Meta
	Consts  []any
	Names   []string

	blocks   []*Block
	handlers map[*instr.TryBegin]*Block
}

// New returns an empty graph.
func New(p *op.Profile) *Graph {
	if p == nil {
		p = op.Default
	}
	return &Graph{Profile: p, handlers: map[*instr.TryBegin]*Block{}}
}

// Len returns the number of blocks.
func (g *Graph) Len() int { return len(g.blocks) }

// Block returns the block at index i.
func (g *Graph) Block(i int) *Block { return g.blocks[i] }

// Blocks returns a copy of the block list.
func (g *Graph) Blocks() []*Block {
	return append([]*Block(nil), g.blocks...)
}

// AddBlock appends a new empty block built from elems.
func (g *Graph) AddBlock(elems ...instr.Element) *Block {
	b := &Block{index: len(g.blocks), elems: elems}
	g.blocks = append(g.blocks, b)
	return b
}

// SetHandler records the handler block of a protected region.
func (g *Graph) SetHandler(tb *instr.TryBegin, b *Block) {
	g.handlers[tb] = b
}

// Handler returns the handler block of a protected region.
func (g *Graph) Handler(tb *instr.TryBegin) *Block {
	if b, ok := g.handlers[tb]; ok {
		return b
	}
	b, _ := tb.Target.(*Block)
	return b
}

func (g *Graph) owns(b *Block) bool {
	return b != nil && b.index < len(g.blocks) && g.blocks[b.index] == b
}

func (g *Graph) renumber(from int) {
	for i := from; i < len(g.blocks); i++ {
		g.blocks[i].index = i
	}
}

// SplitBlock divides b before element i and returns the block holding the
// tail. The new block is inserted after b and b falls through to it.
// Splitting at 0 returns b itself. Splitting at the end creates no empty
// block and returns the block that follows b, or nil when b is last.
func (g *Graph) SplitBlock(b *Block, i int) (*Block, error) {
	if !g.owns(b) {
		return nil, errz.Errorf(errz.ErrInvalidGraph, "block does not belong to the graph")
	}
	switch {
	case i < 0 || i > len(b.elems):
		return nil, errz.Errorf(errz.ErrInvalidGraph, "split index %d out of range for block %d of %d elements", i, b.index, len(b.elems))
	case i == 0:
		return b, nil
	case i == len(b.elems):
		if b.index+1 >= len(g.blocks) {
			return nil, nil
		}
		return g.blocks[b.index+1], nil
	}
	nb := &Block{
		elems: append([]instr.Element(nil), b.elems[i:]...),
		next:  b.next,
	}
	b.elems = b.elems[:i:i]
	b.next = nb

	pos := b.index + 1
	g.blocks = append(g.blocks, nil)
	copy(g.blocks[pos+1:], g.blocks[pos:])
	g.blocks[pos] = nb
	g.renumber(pos)
	return nb, nil
}
