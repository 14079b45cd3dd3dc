// Package constkey produces type-distinguishing keys for constant values.
//
// Two constants share a key only when they have the same dynamic type and
// the same encoded value, so the integer 0, the float 0.0 and the float -0.0
// all receive different keys. Keys are built from a canonical CBOR encoding
// of a normalized form of the value.
package constkey

import (
	"fmt"
	"math"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var encMode cbor.EncMode

func init() {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("constkey: cbor encoding mode: %v", err))
	}
	encMode = mode
}

// Key returns the key of v. The second result is false when v cannot be
// encoded; such values must be treated as distinct from every other value.
func Key(v any) (string, bool) {
	norm, ok := normalize(v)
	if !ok {
		return "", false
	}
	data, err := encMode.Marshal(norm)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Equal reports whether a and b have the same key. Values without a key are
// never equal, not even to themselves.
func Equal(a, b any) bool {
	ka, ok := Key(a)
	if !ok {
		return false
	}
	kb, ok := Key(b)
	return ok && ka == kb
}

func normalize(v any) (any, bool) {
	switch v := v.(type) {
	case nil:
		return []any{"nil"}, true
	case bool, string, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return []any{fmt.Sprintf("%T", v), v}, true
	case []byte:
		return []any{"bytes", v}, true
	case float64:
		return []any{"float64", math.Float64bits(v)}, true
	case float32:
		return []any{"float32", math.Float32bits(v)}, true
	case complex128:
		return []any{"complex128", math.Float64bits(real(v)), math.Float64bits(imag(v))}, true
	case []any:
		out := make([]any, 0, len(v)+1)
		out = append(out, "tuple")
		for _, item := range v {
			n, ok := normalize(item)
			if !ok {
				return nil, false
			}
			out = append(out, n)
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return []any{fmt.Sprintf("%T", v), "nil"}, true
		}
		// Pointers such as nested code units compare by identity.
		return []any{fmt.Sprintf("ptr:%T:%p", v, v)}, true
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false
	}
	return []any{fmt.Sprintf("%T", v), v}, true
}
