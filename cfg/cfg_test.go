package cfg

import (
	"testing"

	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/instr"
	"github.com/deepnoodle-ai/stackasm/op"
	"github.com/stretchr/testify/require"
)

func in(name string, arg instr.Operand) *instr.Instr {
	return instr.MustNamed(op.Modern, name, arg)
}

func program(elems ...instr.Element) *instr.Program {
	p := instr.NewProgram(op.Modern)
	p.Append(elems...)
	return p
}

func ifElse() *instr.Program {
	els := instr.NewLabel()
	return program(
		in("LOAD_NAME", instr.Name("x")),
		in("POP_JUMP_IF_FALSE", els),
		in("LOAD_CONST", instr.Const{Value: 1}),
		in("LOAD_CONST", instr.Const{Value: 2}),
		in("BUILD_TUPLE", instr.IntArg(2)),
		in("RETURN_VALUE", nil),
		els,
		in("LOAD_CONST", instr.Const{Value: 3}),
		in("RETURN_VALUE", nil),
	)
}

func loopWithBreak() *instr.Program {
	top, brk, end := instr.NewLabel(), instr.NewLabel(), instr.NewLabel()
	return program(
		in("LOAD_NAME", instr.Name("it")),
		in("GET_ITER", nil),
		top,
		in("FOR_ITER", end),
		in("STORE_NAME", instr.Name("x")),
		in("LOAD_NAME", instr.Name("x")),
		in("POP_JUMP_IF_TRUE", brk),
		in("JUMP_BACKWARD", top),
		brk,
		in("POP_TOP", nil),
		in("RETURN_CONST", instr.Const{Value: nil}),
		end,
		in("RETURN_CONST", instr.Const{Value: nil}),
	)
}

func tryExcept(lasti bool) (*instr.Program, *instr.TryBegin) {
	handler := instr.NewLabel()
	tb := instr.NewTryBegin(handler, lasti)
	return program(
		tb,
		in("PUSH_NULL", nil),
		in("LOAD_NAME", instr.Name("f")),
		in("CALL", instr.IntArg(0)),
		in("POP_TOP", nil),
		&instr.TryEnd{Entry: tb},
		in("RETURN_CONST", instr.Const{Value: nil}),
		handler,
		in("PUSH_EXC_INFO", nil),
		in("POP_TOP", nil),
		in("POP_EXCEPT", nil),
		in("RETURN_CONST", instr.Const{Value: nil}),
	), tb
}

func nestedTry() (*instr.Program, *instr.TryBegin, *instr.TryBegin) {
	outerH, innerH := instr.NewLabel(), instr.NewLabel()
	outer := instr.NewTryBegin(outerH, false)
	inner := instr.NewTryBegin(innerH, true)
	return program(
		outer,
		in("LOAD_CONST", instr.Const{Value: 1}),
		inner,
		in("LOAD_NAME", instr.Name("g")),
		in("POP_TOP", nil),
		&instr.TryEnd{Entry: inner},
		in("POP_TOP", nil),
		&instr.TryEnd{Entry: outer},
		in("RETURN_CONST", instr.Const{Value: nil}),
		innerH,
		in("PUSH_EXC_INFO", nil),
		in("POP_TOP", nil),
		in("POP_EXCEPT", nil),
		in("POP_TOP", nil),
		in("POP_TOP", nil),
		in("RETURN_CONST", instr.Const{Value: nil}),
		outerH,
		in("PUSH_EXC_INFO", nil),
		in("POP_TOP", nil),
		in("POP_EXCEPT", nil),
		in("RETURN_CONST", instr.Const{Value: nil}),
	), outer, inner
}

func TestFromFlatSplitsBlocks(t *testing.T) {
	g, err := FromFlat(ifElse())
	require.NoError(t, err)
	require.Equal(t, 3, g.Len())

	b0 := g.Block(0)
	require.Equal(t, 2, b0.Len())
	require.Same(t, g.Block(1), b0.Next())
	require.Same(t, g.Block(2), b0.Jump())
	require.Nil(t, g.Block(1).Next())
	require.Equal(t, 4, g.Block(1).Len())
	require.Nil(t, g.Block(2).Next())
}

func TestFromFlatRegionBoundaries(t *testing.T) {
	p, tb := tryExcept(false)
	g, err := FromFlat(p)
	require.NoError(t, err)
	// [TryBegin..TryEnd] [RETURN_CONST] [handler]
	require.Equal(t, 3, g.Len())
	require.Same(t, tb, g.Block(0).At(0))
	require.Same(t, g.Block(2), g.Handler(tb))
	require.Same(t, g.Block(1), g.Block(0).Next())
}

func TestFromFlatDropsUnreferencedLabels(t *testing.T) {
	g, err := FromFlat(program(
		in("NOP", nil),
		instr.NewLabel(),
		in("RETURN_CONST", instr.Const{Value: nil}),
	))
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())
}

func TestFromFlatLabelAtEnd(t *testing.T) {
	end := instr.NewLabel()
	g, err := FromFlat(program(
		in("LOAD_NAME", instr.Name("x")),
		in("POP_JUMP_IF_TRUE", end),
		in("RETURN_CONST", instr.Const{Value: nil}),
		end,
	))
	require.NoError(t, err)
	require.Equal(t, 3, g.Len())
	require.Equal(t, 0, g.Block(2).Len())
	require.Same(t, g.Block(2), g.Block(0).Jump())
}

func TestFromFlatRejectsInvalidProgram(t *testing.T) {
	_, err := FromFlat(program(in("JUMP_FORWARD", instr.NewLabel())))
	require.ErrorIs(t, err, errz.ErrLabel)
}

func TestRoundTrip(t *testing.T) {
	tryP, _ := tryExcept(true)
	nested, _, _ := nestedTry()
	for name, p := range map[string]*instr.Program{
		"if-else": ifElse(),
		"loop":    loopWithBreak(),
		"try":     tryP,
		"nested":  nested,
	} {
		t.Run(name, func(t *testing.T) {
			g, err := FromFlat(p)
			require.NoError(t, err)
			flat, err := g.ToFlat()
			require.NoError(t, err)
			require.True(t, instr.Equivalent(p.Elements, flat.Elements),
				"before:\n%s\nafter:\n%s", p, flat)
			require.NoError(t, flat.Validate())
		})
	}
}

func TestToFlatRejectsBrokenFallthrough(t *testing.T) {
	g := New(op.Modern)
	a := g.AddBlock(in("NOP", nil))
	g.AddBlock(in("NOP", nil))
	c := g.AddBlock(in("RETURN_CONST", instr.Const{Value: nil}))
	a.SetNext(c)
	_, err := g.ToFlat()
	require.ErrorIs(t, err, errz.ErrGraph)
}

func TestSplitBlock(t *testing.T) {
	g, err := FromFlat(ifElse())
	require.NoError(t, err)
	b1 := g.Block(1)

	same, err := g.SplitBlock(b1, 0)
	require.NoError(t, err)
	require.Same(t, b1, same)

	tail, err := g.SplitBlock(b1, 2)
	require.NoError(t, err)
	require.Equal(t, 4, g.Len())
	require.Equal(t, 2, b1.Len())
	require.Equal(t, 2, tail.Len())
	require.Same(t, tail, b1.Next())
	require.Equal(t, 2, tail.Index())
	require.Equal(t, 3, g.Block(3).Index())
	// the jump in block 0 still reaches the else block
	require.Same(t, g.Block(3), g.Block(0).Jump())

	next, err := g.SplitBlock(b1, b1.Len())
	require.NoError(t, err)
	require.Same(t, tail, next)
	require.Equal(t, 4, g.Len())

	none, err := g.SplitBlock(g.Block(3), g.Block(3).Len())
	require.NoError(t, err)
	require.Nil(t, none)
	require.Equal(t, 4, g.Len())
	_, err = g.SplitBlock(b1, 9)
	require.ErrorIs(t, err, errz.ErrGraph)

	flat, err := g.ToFlat()
	require.NoError(t, err)
	require.True(t, instr.Equivalent(ifElse().Elements, flat.Elements))
}

func TestTree(t *testing.T) {
	g, err := FromFlat(ifElse())
	require.NoError(t, err)
	out := g.String()
	require.Contains(t, out, "block 0")
	require.Contains(t, out, "POP_JUMP_IF_FALSE block 2")
	require.Contains(t, out, "[next]")
}
