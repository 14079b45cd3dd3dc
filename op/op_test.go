package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	info, ok := Modern.Lookup("LOAD_CLOSURE")
	require.True(t, ok)
	require.Equal(t, LoadClosure, info.Code)
	require.Equal(t, ArgDeref, info.Arg)

	_, ok = Modern.Lookup("JUMP_ABSOLUTE")
	require.False(t, ok)
	_, ok = Legacy.Lookup("JUMP_BACKWARD")
	require.False(t, ok)
}

func TestProfileCatalogs(t *testing.T) {
	tests := []struct {
		profile *Profile
		code    Code
		name    string
		arg     ArgKind
		jump    JumpKind
	}{
		{Modern, Nop, "NOP", ArgNone, JumpNone},
		{Modern, LoadConst, "LOAD_CONST", ArgConst, JumpNone},
		{Modern, LoadAttr, "LOAD_ATTR", ArgFlagName, JumpNone},
		{Legacy, LoadAttr, "LOAD_ATTR", ArgName, JumpNone},
		{Modern, LoadGlobal, "LOAD_GLOBAL", ArgFlagName, JumpNone},
		{Legacy, LoadGlobal, "LOAD_GLOBAL", ArgName, JumpNone},
		{Modern, PopJumpIfFalse, "POP_JUMP_IF_FALSE", ArgJump, JumpRelForward},
		{Legacy, PopJumpIfFalse, "POP_JUMP_IF_FALSE", ArgJump, JumpAbs},
		{Modern, JumpBackward, "JUMP_BACKWARD", ArgJump, JumpRelBackward},
		{Legacy, JumpAbsolute, "JUMP_ABSOLUTE", ArgJump, JumpAbs},
		{Modern, ForIter, "FOR_ITER", ArgJump, JumpRelForward},
		{Modern, CompareOp, "COMPARE_OP", ArgCompare, JumpNone},
		{Modern, LoadFastLoadFast, "LOAD_FAST_LOAD_FAST", ArgLocalPair, JumpNone},
		{Legacy, DupTop, "DUP_TOP", ArgNone, JumpNone},
	}
	for _, tt := range tests {
		t.Run(tt.profile.Name+"/"+tt.name, func(t *testing.T) {
			info, ok := tt.profile.Info(tt.code)
			require.True(t, ok)
			require.Equal(t, tt.code, info.Code)
			require.Equal(t, tt.name, info.Name)
			require.Equal(t, tt.arg, info.Arg)
			require.Equal(t, tt.jump, info.Jump)
		})
	}
}

func TestNamesAreUnique(t *testing.T) {
	for _, p := range []*Profile{Legacy, Modern} {
		seen := map[string]Code{}
		for _, code := range p.Codes() {
			info, ok := p.Info(code)
			require.True(t, ok)
			prev, dup := seen[info.Name]
			require.False(t, dup, "%s: %s used by %d and %d", p.Name, info.Name, prev, code)
			seen[info.Name] = code
			require.Equal(t, info.HasArg(), code >= HaveArgument, "%s: %s", p.Name, info.Name)
		}
	}
}

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName("legacy")
	require.NoError(t, err)
	require.Same(t, Legacy, p)

	p, err = ProfileByName("")
	require.NoError(t, err)
	require.Same(t, Modern, p)

	_, err = ProfileByName("future")
	require.Error(t, err)
}

func TestReverseJump(t *testing.T) {
	c, ok := Modern.ReverseJump(JumpForward)
	require.True(t, ok)
	require.Equal(t, JumpBackward, c)

	c, ok = Legacy.ReverseJump(JumpForward)
	require.True(t, ok)
	require.Equal(t, JumpAbsolute, c)

	_, ok = Modern.ReverseJump(PopJumpIfFalse)
	require.False(t, ok)
}

func TestExtendedArgs(t *testing.T) {
	tests := []struct {
		arg   int
		count int
		size  int
	}{
		{0, 0, 2},
		{0xFF, 0, 2},
		{0x100, 1, 4},
		{0xFFFF, 1, 4},
		{0x10000, 2, 6},
		{0xFFFFFF, 2, 6},
		{0x1000000, 3, 8},
		{MaxArg, 3, 8},
	}
	for _, tt := range tests {
		require.Equal(t, tt.count, ExtendedArgs(tt.arg), "arg %#x", tt.arg)
		require.Equal(t, tt.size, InstrSize(tt.arg), "arg %#x", tt.arg)
	}
}

func TestCompareString(t *testing.T) {
	require.Equal(t, "<", LessThan.String())
	require.Equal(t, ">=", GreaterThanOrEqual.String())
	require.True(t, NotEqual.Valid())
	require.False(t, Compare(6).Valid())
	require.Equal(t, "", Compare(6).String())
}
