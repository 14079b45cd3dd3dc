package cfg

import (
	"github.com/deepnoodle-ai/stackasm/instr"
	"github.com/deepnoodle-ai/stackasm/op"
)

// Block is a basic block: instructions and region markers executed in
// sequence, with at most one jump, always last. Blocks are owned by a Graph
// and are valid jump targets.
type Block struct {
	index int
	elems []instr.Element
	next  *Block
}

func (*Block) ArgKind() op.ArgKind { return op.ArgJump }
func (*Block) JumpTarget()         {}

// Index returns the position of the block in its graph.
func (b *Block) Index() int { return b.index }

// Len returns the number of elements in the block.
func (b *Block) Len() int { return len(b.elems) }

// At returns the element at index i.
func (b *Block) At(i int) instr.Element { return b.elems[i] }

// Elements returns a copy of the block's elements.
func (b *Block) Elements() []instr.Element {
	return append([]instr.Element(nil), b.elems...)
}

// Append adds elements to the end of the block.
func (b *Block) Append(elems ...instr.Element) {
	b.elems = append(b.elems, elems...)
}

// Set replaces the element at index i.
func (b *Block) Set(i int, e instr.Element) {
	b.elems[i] = e
}

// Next returns the block executed when control falls off the end of this
// one, or nil.
func (b *Block) Next() *Block { return b.next }

// SetNext sets the fallthrough block.
func (b *Block) SetNext(next *Block) { b.next = next }

// LastInstr returns the last instruction of the block, ignoring trailing
// region markers, or nil.
func (b *Block) LastInstr() *instr.Instr {
	for i := len(b.elems) - 1; i >= 0; i-- {
		if in, ok := b.elems[i].(*instr.Instr); ok {
			return in
		}
	}
	return nil
}

// Jump returns the block's jump target, or nil.
func (b *Block) Jump() *Block {
	last := b.LastInstr()
	if last == nil || !last.HasJump() {
		return nil
	}
	target, _ := last.Target().(*Block)
	return target
}
