package bytecode

import (
	"testing"

	"github.com/deepnoodle-ai/stackasm/errz"
	"github.com/stretchr/testify/require"
)

func TestExceptionTableRoundTrip(t *testing.T) {
	tests := []ExceptionEntry{
		{Start: 0, Stop: 0, Target: 0, Depth: 0},
		{Start: 2, Stop: 9, Target: 12, Depth: 1, Lasti: true},
		{Start: 63, Stop: 64, Target: 4095, Depth: 64},
		{Start: 1 << 20, Stop: 1<<20 + 4096, Target: 1<<24 + 3, Depth: 1000, Lasti: true},
	}
	for _, e := range tests {
		data, err := EncodeExceptionTable([]ExceptionEntry{e})
		require.NoError(t, err)
		require.NotZero(t, data[0]&0x80)
		got, err := DecodeExceptionTable(data)
		require.NoError(t, err)
		require.Equal(t, []ExceptionEntry{e}, got)
	}

	data, err := EncodeExceptionTable(tests)
	require.NoError(t, err)
	got, err := DecodeExceptionTable(data)
	require.NoError(t, err)
	require.Equal(t, tests, got)
}

func TestExceptionTableBytes(t *testing.T) {
	data, err := EncodeExceptionTable([]ExceptionEntry{
		{Start: 2, Stop: 9, Target: 100, Depth: 1, Lasti: true},
	})
	require.NoError(t, err)
	// 100 = 1<<6 | 36
	require.Equal(t, []byte{0x82, 0x08, 0x41, 0x24, 0x03}, data)
}

func TestExceptionTableErrors(t *testing.T) {
	_, err := EncodeExceptionTable([]ExceptionEntry{{Start: 4, Stop: 2}})
	require.ErrorIs(t, err, errz.ErrOverflow)

	_, err = DecodeExceptionTable([]byte{0x82, 0x08})
	require.ErrorIs(t, err, errz.ErrBytecode)

	// Missing begin marker.
	_, err = DecodeExceptionTable([]byte{0x02, 0x08, 0x01, 0x00})
	require.ErrorIs(t, err, errz.ErrBytecode)

	// Zero length.
	_, err = DecodeExceptionTable([]byte{0x82, 0x00, 0x01, 0x00})
	require.ErrorIs(t, err, errz.ErrBytecode)
}
