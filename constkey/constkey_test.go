package constkey

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistinctNumericTypes(t *testing.T) {
	require.False(t, Equal(0, 0.0))
	require.False(t, Equal(0, int64(0)))
	require.False(t, Equal(float32(1), 1.0))
	require.False(t, Equal(true, 1))
	require.False(t, Equal("", []byte{}))
}

func TestSignedZero(t *testing.T) {
	negZero := math.Copysign(0, -1)
	require.False(t, Equal(0.0, negZero))
	require.True(t, Equal(negZero, math.Copysign(0, -1)))
	require.False(t, Equal(complex(0, 0), complex(0, negZero)))
}

func TestEqualValues(t *testing.T) {
	require.True(t, Equal(42, 42))
	require.True(t, Equal("x", "x"))
	require.True(t, Equal(nil, nil))
	require.True(t, Equal(1.5, 1.5))
	require.True(t, Equal([]byte("ab"), []byte("ab")))
}

func TestTuples(t *testing.T) {
	require.True(t, Equal([]any{1, "a"}, []any{1, "a"}))
	require.False(t, Equal([]any{0}, []any{0.0}))
	require.False(t, Equal([]any{1, []any{2}}, []any{1, []any{2.0}}))
	require.False(t, Equal([]any{}, nil))
}

func TestPointerIdentity(t *testing.T) {
	type unit struct{ name string }
	a := &unit{"f"}
	b := &unit{"f"}
	require.True(t, Equal(a, a))
	require.False(t, Equal(a, b))
}

func TestUnencodable(t *testing.T) {
	f := func() {}
	_, ok := Key(f)
	require.False(t, ok)
	require.False(t, Equal(f, f))

	ch := make(chan int)
	require.False(t, Equal(ch, ch))
	require.False(t, Equal([]any{1, ch}, []any{1, ch}))
}
