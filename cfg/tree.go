package cfg

import (
	"fmt"

	"github.com/xlab/treeprint"

	"github.com/deepnoodle-ai/stackasm/instr"
)

// Tree renders the graph as a tree: one branch per block listing its
// elements and outgoing edges.
func (g *Graph) Tree() treeprint.Tree {
	tree := treeprint.New()
	tree.SetValue(fmt.Sprintf("graph (%s, %d blocks)", g.Profile.Name, len(g.blocks)))
	for _, b := range g.blocks {
		branch := tree.AddBranch(fmt.Sprintf("block %d", b.index))
		for _, e := range b.elems {
			switch e := e.(type) {
			case *instr.Instr:
				if t, ok := e.Target().(*Block); ok {
					branch.AddNode(fmt.Sprintf("%s block %d", e.Name(), t.index))
				} else {
					branch.AddNode(e.String())
				}
			case *instr.TryBegin:
				if h := g.Handler(e); h != nil {
					branch.AddNode(fmt.Sprintf("TryBegin handler=block %d lasti=%t", h.index, e.PushLasti))
				} else {
					branch.AddNode("TryBegin handler=?")
				}
			case *instr.TryEnd:
				branch.AddNode("TryEnd")
			}
		}
		if b.next != nil {
			branch.AddMetaNode("next", fmt.Sprintf("block %d", b.next.index))
		}
	}
	return tree
}

// String returns the tree rendering of the graph.
func (g *Graph) String() string {
	return g.Tree().String()
}
