// Package errz defines the structured errors returned by the assembler,
// disassembler and control flow graph.
package errz

import (
	"errors"
	"fmt"
)

// ErrorKind represents the category of an error.
type ErrorKind int

const (
	// ErrMalformedInstruction indicates an opcode/operand mismatch or an
	// operand outside its valid range.
	ErrMalformedInstruction ErrorKind = iota + 1
	// ErrStackUnderflow indicates an instruction requires more values than
	// the stack holds on some path.
	ErrStackUnderflow
	// ErrLabelResolution indicates a jump to an undefined or duplicate label.
	ErrLabelResolution
	// ErrNonConvergent indicates branch relaxation exceeded its pass budget.
	ErrNonConvergent
	// ErrRegionImbalance indicates mismatched protected region markers.
	ErrRegionImbalance
	// ErrEncodingOverflow indicates a value does not fit its encoding.
	ErrEncodingOverflow
	// ErrInvalidBytecode indicates bytes that cannot be decoded.
	ErrInvalidBytecode
	// ErrInvalidGraph indicates a control flow graph that cannot be
	// linearized.
	ErrInvalidGraph
)

// String returns the string representation of the error kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedInstruction:
		return "malformed instruction"
	case ErrStackUnderflow:
		return "stack underflow"
	case ErrLabelResolution:
		return "label resolution error"
	case ErrNonConvergent:
		return "non-convergent layout"
	case ErrRegionImbalance:
		return "region imbalance"
	case ErrEncodingOverflow:
		return "encoding overflow"
	case ErrInvalidBytecode:
		return "invalid bytecode"
	case ErrInvalidGraph:
		return "invalid graph"
	default:
		return "error"
	}
}

// Error is the structured error type used throughout the module.
type Error struct {
	Kind    ErrorKind
	Message string
	// Offset is the byte offset the error relates to, or -1.
	Offset int
	Cause  error
}

// Sentinels usable with errors.Is. Matching compares kinds only.
var (
	ErrMalformed    = &Error{Kind: ErrMalformedInstruction, Offset: -1}
	ErrUnderflow    = &Error{Kind: ErrStackUnderflow, Offset: -1}
	ErrLabel        = &Error{Kind: ErrLabelResolution, Offset: -1}
	ErrNotConverged = &Error{Kind: ErrNonConvergent, Offset: -1}
	ErrImbalance    = &Error{Kind: ErrRegionImbalance, Offset: -1}
	ErrOverflow     = &Error{Kind: ErrEncodingOverflow, Offset: -1}
	ErrBytecode     = &Error{Kind: ErrInvalidBytecode, Offset: -1}
	ErrGraph        = &Error{Kind: ErrInvalidGraph, Offset: -1}
)

// Errorf creates a new error of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Offset: -1}
}

// AtOffset returns a copy of the error annotated with a byte offset.
func (e *Error) AtOffset(offset int) *Error {
	c := *e
	c.Offset = offset
	return &c
}

// WithCause returns a copy of the error wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	c := *e
	c.Cause = cause
	return &c
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Offset >= 0 {
		msg += fmt.Sprintf(" (offset %d)", e.Offset)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
