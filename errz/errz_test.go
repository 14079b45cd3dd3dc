package errz

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := Errorf(ErrStackUnderflow, "POP_TOP needs 1 value, have 0")
	require.Equal(t, "stack underflow: POP_TOP needs 1 value, have 0", err.Error())

	err = err.AtOffset(12)
	require.Equal(t, "stack underflow: POP_TOP needs 1 value, have 0 (offset 12)", err.Error())
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("assemble: %w", Errorf(ErrNonConvergent, "10 passes"))
	require.True(t, errors.Is(err, ErrNotConverged))
	require.False(t, errors.Is(err, ErrOverflow))
	require.Equal(t, ErrNonConvergent, KindOf(err))
	require.Equal(t, ErrorKind(0), KindOf(errors.New("plain")))
}

func TestCause(t *testing.T) {
	cause := errors.New("short read")
	err := Errorf(ErrInvalidBytecode, "exception table").WithCause(cause)
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, ErrBytecode)
	require.Contains(t, err.Error(), "short read")
}

func TestMultierrorKinds(t *testing.T) {
	var result *multierror.Error
	result = multierror.Append(result, Errorf(ErrLabelResolution, "undefined label"))
	result = multierror.Append(result, Errorf(ErrRegionImbalance, "unclosed region"))
	require.ErrorIs(t, result.ErrorOrNil(), ErrImbalance)
	require.ErrorIs(t, result.ErrorOrNil(), ErrLabel)
}

func TestKindString(t *testing.T) {
	require.Equal(t, "invalid graph", ErrInvalidGraph.String())
	require.Equal(t, "error", ErrorKind(99).String())
}
