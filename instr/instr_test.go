package instr

import (
	"errors"
	"math"
	"testing"

	"github.com/deepnoodle-ai/stackasm/bytecode"
	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/deepnoodle-ai/stackasm/op"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesOperand(t *testing.T) {
	tests := []struct {
		name string
		code string
		arg  Operand
		kind errz.ErrorKind
	}{
		{"no-arg opcode with operand", "NOP", IntArg(1), errz.ErrMalformedInstruction},
		{"jump with integer", "JUMP_FORWARD", IntArg(4), errz.ErrMalformedInstruction},
		{"jump with nil label", "JUMP_FORWARD", (*Label)(nil), errz.ErrMalformedInstruction},
		{"missing operand", "LOAD_CONST", nil, errz.ErrMalformedInstruction},
		{"name for local", "LOAD_FAST", Name("x"), errz.ErrMalformedInstruction},
		{"negative immediate", "BUILD_LIST", IntArg(-1), errz.ErrMalformedInstruction},
		{"immediate too large", "BUILD_LIST", IntArg(op.MaxArg + 1), errz.ErrEncodingOverflow},
		{"bad comparison", "COMPARE_OP", Compare(9), errz.ErrMalformedInstruction},
		{"prefix opcode", "EXTENDED_ARG", IntArg(1), errz.ErrMalformedInstruction},
		{"unknown opcode", "JUMP_ABSOLUTE", NewLabel(), errz.ErrMalformedInstruction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Named(op.Modern, tt.code, tt.arg)
			require.Error(t, err)
			require.Equal(t, tt.kind, errz.KindOf(err))
		})
	}
}

func TestNewAcceptsOperands(t *testing.T) {
	ok := []struct {
		code string
		arg  Operand
	}{
		{"NOP", nil},
		{"LOAD_CONST", Const{1.5}},
		{"LOAD_NAME", Name("x")},
		{"LOAD_FAST", Local("y")},
		{"LOAD_DEREF", Cell("c")},
		{"LOAD_DEREF", Free("f")},
		{"COMPARE_OP", Compare(op.GreaterThan)},
		{"LOAD_ATTR", FlagName{Flag: true, Name: "append"}},
		{"LOAD_FAST_LOAD_FAST", LocalPair{"a", "b"}},
		{"JUMP_BACKWARD", NewLabel()},
		{"BUILD_TUPLE", IntArg(op.MaxArg)},
	}
	for _, tt := range ok {
		_, err := Named(op.Modern, tt.code, tt.arg)
		require.NoError(t, err, tt.code)
	}
}

func TestStackEffectUsesOperand(t *testing.T) {
	i := MustNamed(op.Modern, "BUILD_LIST", IntArg(3))
	require.Equal(t, -2, i.StackEffect(op.BranchUnknown))

	i = MustNamed(op.Modern, "LOAD_GLOBAL", FlagName{Flag: true, Name: "len"})
	require.Equal(t, 2, i.StackEffect(op.BranchUnknown))
	i = MustNamed(op.Modern, "LOAD_GLOBAL", FlagName{Name: "len"})
	require.Equal(t, 1, i.StackEffect(op.BranchUnknown))

	i = MustNamed(op.Modern, "COPY", IntArg(2))
	pre, post := i.PrePost(op.BranchUnknown)
	require.Equal(t, -2, pre)
	require.Equal(t, 3, post)
}

func TestRetarget(t *testing.T) {
	a, b := NewLabel(), NewLabel()
	j := MustNamed(op.Modern, "POP_JUMP_IF_TRUE", a)
	j2, err := j.Retarget(b)
	require.NoError(t, err)
	require.Same(t, a, j.Target())
	require.Same(t, b, j2.Target())

	_, err = MustNamed(op.Modern, "NOP", nil).Retarget(b)
	require.ErrorIs(t, err, errz.ErrMalformed)
}

func TestEqualDistinguishesConstTypes(t *testing.T) {
	zero := MustNamed(op.Modern, "LOAD_CONST", Const{0})
	fzero := MustNamed(op.Modern, "LOAD_CONST", Const{0.0})
	negZero := MustNamed(op.Modern, "LOAD_CONST", Const{math.Copysign(0, -1)})
	require.False(t, zero.Equal(fzero))
	require.False(t, fzero.Equal(negZero))
	require.True(t, zero.Equal(MustNamed(op.Modern, "LOAD_CONST", Const{0})))
	require.False(t, zero.Equal(zero.WithLocation(bytecode.Line(3))))
}

func TestConcreteEncoding(t *testing.T) {
	tests := []struct {
		arg  int
		want []byte
	}{
		{0, []byte{100, 0}},
		{0xFF, []byte{100, 0xFF}},
		{0x100, []byte{144, 1, 100, 0}},
		{0x10000, []byte{144, 1, 144, 0, 100, 0}},
		{0x12345678, []byte{144, 0x12, 144, 0x34, 144, 0x56, 100, 0x78}},
		{op.MaxArg, []byte{144, 0xFF, 144, 0xFF, 144, 0xFF, 100, 0xFF}},
	}
	for _, tt := range tests {
		c, err := NewConcrete(op.Modern, op.LoadConst, tt.arg)
		require.NoError(t, err)
		require.Equal(t, tt.want, c.Encode(nil))
		require.Equal(t, len(tt.want), c.Size())
	}
}

func TestConcreteEncodeSized(t *testing.T) {
	c, err := NewConcrete(op.Modern, op.JumpForward, 3)
	require.NoError(t, err)
	out, err := c.EncodeSized(nil, 4)
	require.NoError(t, err)
	require.Equal(t, []byte{144, 0, 110, 3}, out)

	big, err := NewConcrete(op.Modern, op.JumpForward, 0x100)
	require.NoError(t, err)
	_, err = big.EncodeSized(nil, 2)
	require.ErrorIs(t, err, errz.ErrOverflow)
}

func TestConcreteValidation(t *testing.T) {
	_, err := NewConcrete(op.Modern, op.Nop, 1)
	require.ErrorIs(t, err, errz.ErrMalformed)
	_, err = NewConcrete(op.Modern, op.LoadConst, -1)
	require.ErrorIs(t, err, errz.ErrMalformed)
	_, err = NewConcrete(op.Modern, op.LoadConst, op.MaxArg+1)
	require.ErrorIs(t, err, errz.ErrOverflow)
	_, err = NewConcrete(op.Modern, op.Code(250), 0)
	require.True(t, errors.Is(err, errz.ErrMalformed))
}
