package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func info(t *testing.T, p *Profile, code Code) *Info {
	t.Helper()
	i, ok := p.Info(code)
	require.True(t, ok)
	return i
}

func TestPrePost(t *testing.T) {
	tests := []struct {
		name   string
		code   Code
		arg    int
		branch Branch
		pre    int
		post   int
	}{
		{"load const", LoadConst, 0, BranchUnknown, 0, 1},
		{"binary op", BinaryOp, 0, BranchUnknown, -2, 1},
		{"copy 3", Copy, 3, BranchUnknown, -3, 4},
		{"swap 2", Swap, 2, BranchUnknown, -2, 2},
		{"list append 2", ListAppend, 2, BranchUnknown, -3, 2},
		{"map add 1", MapAdd, 1, BranchUnknown, -3, 1},
		{"match keys", MatchKeys, 0, BranchUnknown, -2, 3},
		{"build map 2", BuildMap, 2, BranchUnknown, -4, 1},
		{"call 3", Call, 3, BranchUnknown, -5, 1},
		{"make function closure+defaults", MakeFunction, 0x09, BranchUnknown, -3, 1},
		{"call ex kwargs", CallFunctionEx, 1, BranchUnknown, -4, 1},
		{"format value with format", FormatValue, 0x04, BranchUnknown, -2, 1},
		{"load attr method", LoadAttr, 1, BranchUnknown, -1, 2},
		{"load global null", LoadGlobal, 1, BranchUnknown, 0, 2},
		{"for iter taken", ForIter, 0, BranchTaken, -1, 0},
		{"for iter not taken", ForIter, 0, BranchNotTaken, -1, 2},
		{"for iter unknown", ForIter, 0, BranchUnknown, -1, 2},
		{"or pop taken", JumpIfTrueOrPop, 0, BranchTaken, -1, 1},
		{"or pop not taken", JumpIfTrueOrPop, 0, BranchNotTaken, -1, 0},
		{"or pop unknown", JumpIfTrueOrPop, 0, BranchUnknown, -1, 1},
		{"raise 2", RaiseVarargs, 2, BranchUnknown, -2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := info(t, Modern, tt.code)
			pre, post := i.PrePost(tt.arg, tt.branch)
			require.Equal(t, tt.pre, pre)
			require.Equal(t, tt.post, post)
			require.Equal(t, tt.pre+tt.post, i.StackEffect(tt.arg, tt.branch))
		})
	}
}

func TestNetEffectHidesRequirement(t *testing.T) {
	// COPY and SWAP have small net effects but need deep stacks.
	i := info(t, Modern, Swap)
	require.Equal(t, 0, i.StackEffect(4, BranchUnknown))
	pre, _ := i.PrePost(4, BranchUnknown)
	require.Equal(t, -4, pre)

	i = info(t, Legacy, RotThree)
	require.Equal(t, 0, i.StackEffect(0, BranchUnknown))
	pre, _ = i.PrePost(0, BranchUnknown)
	require.Equal(t, -3, pre)
}

func TestFlowFlags(t *testing.T) {
	require.True(t, info(t, Modern, ReturnValue).IsFinal())
	require.False(t, info(t, Modern, ReturnValue).HasJump())
	require.True(t, info(t, Modern, JumpForward).IsUncondJump())
	require.True(t, info(t, Modern, JumpForward).IsFinal())
	require.False(t, info(t, Modern, PopJumpIfTrue).IsFinal())
	require.True(t, info(t, Modern, RaiseVarargs).IsFinal())
	require.True(t, info(t, Modern, ReturnConst).IsFinal())
	require.True(t, info(t, Legacy, JumpAbsolute).IsUncondJump())
}
