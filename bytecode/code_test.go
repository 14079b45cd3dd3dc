package bytecode

import (
	"math"
	"testing"

	"github.com/deepnoodle-ai/stackasm/op"
	"github.com/stretchr/testify/require"
)

func sampleCode() *Code {
	inner := NewCode(CodeParams{
		Format:    "modern",
		Code:      []byte{byte(op.LoadFast), 0, byte(op.ReturnValue), 0},
		Constants: []any{nil},
		Meta: Meta{
			Name:      "inner",
			QualName:  "outer.<locals>.inner",
			Filename:  "example.py",
			FirstLine: 2,
			ArgCount:  1,
			Flags:     FlagOptimized | FlagNewLocals | FlagNested,
			Varnames:  []string{"x"},
		},
		StackSize: 1,
		LineTable: []byte{4, 1},
	})
	return NewCode(CodeParams{
		Format: "modern",
		Code: []byte{
			byte(op.LoadConst), 0,
			byte(op.LoadConst), 1,
			byte(op.BinaryOp), 0,
			byte(op.ReturnValue), 0,
		},
		Constants: []any{0, 0.0, math.Copysign(0, -1), inner, []any{1, "a"}},
		Names:     []string{"print"},
		Meta: Meta{
			Name:      "<module>",
			Filename:  "example.py",
			FirstLine: 1,
		},
		StackSize: 2,
	})
}

func TestNewCodeCopiesInput(t *testing.T) {
	raw := []byte{byte(op.Nop), 0}
	names := []string{"a"}
	code := NewCode(CodeParams{Code: raw, Names: names})
	raw[0] = byte(op.PopTop)
	names[0] = "b"
	require.Equal(t, byte(op.Nop), code.Bytes()[0])
	require.Equal(t, "a", code.NameAt(0))
	require.Equal(t, "modern", code.Format())

	out := code.Bytes()
	out[0] = 0
	require.Equal(t, byte(op.Nop), code.Bytes()[0])
}

func TestFlatten(t *testing.T) {
	code := sampleCode()
	all := code.Flatten()
	require.Len(t, all, 2)
	require.Same(t, code, all[0])
	require.Equal(t, "inner", all[1].Name())
}

func TestEqual(t *testing.T) {
	a, b := sampleCode(), sampleCode()
	require.True(t, a.Equal(b))

	c := NewCode(CodeParams{
		Format:    a.Format(),
		Code:      a.Bytes(),
		Constants: []any{0.0, 0.0, math.Copysign(0, -1), a.ConstantAt(3), []any{1, "a"}},
		Names:     a.Names(),
		Meta:      a.Meta(),
		StackSize: a.StackSize(),
	})
	require.False(t, a.Equal(c))

	d := NewCode(CodeParams{
		Format:    a.Format(),
		Code:      a.Bytes(),
		Constants: []any{0, 0.0, 0.0, a.ConstantAt(3), []any{1, "a"}},
		Names:     a.Names(),
		Meta:      a.Meta(),
		StackSize: a.StackSize(),
	})
	require.False(t, a.Equal(d))
}

func TestStats(t *testing.T) {
	code := NewCode(CodeParams{
		Code: []byte{
			byte(op.ExtendedArg), 1,
			byte(op.LoadConst), 0,
			byte(op.ReturnValue), 0,
		},
		StackSize:      1,
		ExceptionTable: []byte{0x80, 1, 2, 2},
	})
	stats := code.Stats()
	require.Equal(t, 2, stats.InstructionCount)
	require.Equal(t, 1, stats.PrefixCount)
	require.Equal(t, 6, stats.ByteCount)
	require.Equal(t, 1, stats.ExceptionEntryCount)
}

func TestFlags(t *testing.T) {
	f := FlagGenerator | FlagOptimized
	require.Equal(t, "OPTIMIZED|GENERATOR", f.String())
	require.True(t, f.Suspendable())
	require.False(t, FlagNested.Suspendable())
	require.Equal(t, "0", Flags(0).String())
}

func TestDerefName(t *testing.T) {
	m := Meta{Cellvars: []string{"a", "b"}, Freevars: []string{"c"}}
	name, ok := m.DerefName(2)
	require.True(t, ok)
	require.Equal(t, "c", name)
	_, ok = m.DerefName(3)
	require.False(t, ok)
}

func TestMarshalRoundTrip(t *testing.T) {
	code := sampleCode()
	data, err := Marshal(code)
	require.NoError(t, err)

	restored, err := Unmarshal(data)
	require.NoError(t, err)
	require.True(t, code.Equal(restored))
	require.True(t, math.Signbit(restored.ConstantAt(2).(float64)))
	require.IsType(t, 0, restored.ConstantAt(0))
	require.IsType(t, &Code{}, restored.ConstantAt(3))
}

func TestMarshalSharedNestedCode(t *testing.T) {
	shared := NewCode(CodeParams{Meta: Meta{Name: "shared"}})
	a := NewCode(CodeParams{Constants: []any{shared}, Meta: Meta{Name: "a"}})
	b := NewCode(CodeParams{Constants: []any{shared}, Meta: Meta{Name: "b"}})
	root := NewCode(CodeParams{Constants: []any{a, b}})

	data, err := Marshal(root)
	require.NoError(t, err)
	restored, err := Unmarshal(data)
	require.NoError(t, err)
	require.True(t, root.Equal(restored))
	ra := restored.ConstantAt(0).(*Code)
	rb := restored.ConstantAt(1).(*Code)
	require.Same(t, ra.ConstantAt(0), rb.ConstantAt(0))
}

func TestMarshalUnknownConstant(t *testing.T) {
	code := NewCode(CodeParams{Constants: []any{struct{}{}}})
	_, err := Marshal(code)
	require.Error(t, err)
}
