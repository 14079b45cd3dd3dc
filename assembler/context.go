package assembler

import (
	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/cfg"
	"github.com/deepnoodle-ai/stackasm/constkey"
)

// table assigns stable indices to strings in order of first use.
type table struct {
	items []string
	index map[string]int
}

func newTable(seed []string) *table {
	t := &table{index: map[string]int{}}
	for _, s := range seed {
		if _, ok := t.index[s]; !ok {
			t.index[s] = len(t.items)
		}
		t.items = append(t.items, s)
	}
	return t
}

func (t *table) add(s string) int {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := len(t.items)
	t.items = append(t.items, s)
	t.index[s] = i
	return i
}

// context holds the side tables of one assembly. The tables are seeded
// with the graph's existing entries so their indices are kept.
type context struct {
	consts     []any
	constIndex map[string]int

	names    *table
	varnames *table
	cellvars *table
	freevars *table
}

func newContext(g *cfg.Graph) *context {
	c := &context{
		constIndex: map[string]int{},
		names:      newTable(g.Names),
		varnames:   newTable(g.Meta.Varnames),
		cellvars:   newTable(g.Meta.Cellvars),
		freevars:   newTable(g.Meta.Freevars),
	}
	for _, v := range g.Consts {
		i := len(c.consts)
		c.consts = append(c.consts, v)
		if key, ok := constkey.Key(v); ok {
			if _, seen := c.constIndex[key]; !seen {
				c.constIndex[key] = i
			}
		}
	}
	return c
}

// addConst returns the index of v, appending it when no constant with the
// same key exists. Values without a key are always appended.
func (c *context) addConst(v any) int {
	key, ok := constkey.Key(v)
	if ok {
		if i, found := c.constIndex[key]; found {
			return i
		}
	}
	i := len(c.consts)
	c.consts = append(c.consts, v)
	if ok {
		c.constIndex[key] = i
	}
	return i
}

// meta returns the graph metadata with the variable tables produced by the
// assembly.
func (c *context) meta(m bytecode.Meta) bytecode.Meta {
	m = m.Clone()
	m.Varnames = c.varnames.items
	m.Cellvars = c.cellvars.items
	m.Freevars = c.freevars.items
	return m
}
