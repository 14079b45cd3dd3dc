package bytecode

import (
	"github.com/deepnoodle-ai/stackasm/errz"
)

// ExceptionEntry maps a protected range of the instruction stream to its
// handler. Offsets are in code units of the format; Stop is inclusive.
type ExceptionEntry struct {
	Start  int
	Stop   int
	Target int
	Depth  int
	Lasti  bool
}

const (
	varintData     = 0x3f
	varintContinue = 0x40
	varintBegin    = 0x80
)

// appendVarint appends v in 6-bit chunks, most significant first. Every
// byte but the last carries the continuation bit; the first byte of an
// entry also carries the begin marker.
func appendVarint(buf []byte, v int, begin bool) []byte {
	var tmp [12]byte
	n := len(tmp)
	n--
	tmp[n] = byte(v & varintData)
	v >>= 6
	for v > 0 {
		n--
		tmp[n] = byte(v&varintData) | varintContinue
		v >>= 6
	}
	if begin {
		tmp[n] |= varintBegin
	}
	return append(buf, tmp[n:]...)
}

// EncodeExceptionTable serializes entries as four varints each: start,
// length, target and depth<<1|lasti.
func EncodeExceptionTable(entries []ExceptionEntry) ([]byte, error) {
	var buf []byte
	for _, e := range entries {
		if e.Start < 0 || e.Stop < e.Start || e.Target < 0 || e.Depth < 0 {
			return nil, errz.Errorf(errz.ErrEncodingOverflow,
				"exception entry %d-%d -> %d depth %d is not encodable", e.Start, e.Stop, e.Target, e.Depth)
		}
		dl := e.Depth << 1
		if e.Lasti {
			dl |= 1
		}
		buf = appendVarint(buf, e.Start, true)
		buf = appendVarint(buf, e.Stop-e.Start+1, false)
		buf = appendVarint(buf, e.Target, false)
		buf = appendVarint(buf, dl, false)
	}
	return buf, nil
}

type varintReader struct {
	buf []byte
	pos int
}

func (r *varintReader) read(begin bool) (int, error) {
	if r.pos >= len(r.buf) {
		return 0, errz.Errorf(errz.ErrInvalidBytecode, "truncated exception table").AtOffset(r.pos)
	}
	b := r.buf[r.pos]
	if begin != (b&varintBegin != 0) {
		return 0, errz.Errorf(errz.ErrInvalidBytecode, "misplaced entry marker in exception table").AtOffset(r.pos)
	}
	r.pos++
	v := int(b & varintData)
	for b&varintContinue != 0 {
		if r.pos >= len(r.buf) {
			return 0, errz.Errorf(errz.ErrInvalidBytecode, "truncated exception table").AtOffset(r.pos)
		}
		b = r.buf[r.pos]
		if b&varintBegin != 0 {
			return 0, errz.Errorf(errz.ErrInvalidBytecode, "misplaced entry marker in exception table").AtOffset(r.pos)
		}
		r.pos++
		if v > 1<<40 {
			return 0, errz.Errorf(errz.ErrInvalidBytecode, "exception table value too large").AtOffset(r.pos)
		}
		v = v<<6 | int(b&varintData)
	}
	return v, nil
}

// DecodeExceptionTable parses an encoded exception table.
func DecodeExceptionTable(table []byte) ([]ExceptionEntry, error) {
	var entries []ExceptionEntry
	r := &varintReader{buf: table}
	for r.pos < len(table) {
		var vals [4]int
		for i := range vals {
			v, err := r.read(i == 0)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		if vals[1] == 0 {
			return nil, errz.Errorf(errz.ErrInvalidBytecode, "empty exception range at %d", vals[0])
		}
		entries = append(entries, ExceptionEntry{
			Start:  vals[0],
			Stop:   vals[0] + vals[1] - 1,
			Target: vals[2],
			Depth:  vals[3] >> 1,
			Lasti:  vals[3]&1 != 0,
		})
	}
	return entries, nil
}
