// Package bytecode provides the immutable representation of an encoded code
// unit and the codecs for its side tables.
//
// # Key Types
//
//   - [Code]: an encoded unit (instruction bytes, constants, names, metadata)
//   - [Meta]: scalar metadata and variable tables
//   - [LineStart]: one breakpoint of the line table
//   - [ExceptionEntry]: one protected range of the exception table
//
// # Immutability Guarantees
//
// Code is immutable after construction. The constructor copies its input
// slices and accessors return copies or values:
//
//	code.ConstantAt(i)
//	code.Bytes()       // a copy
//	code.Meta()        // a deep copy
//
// # Line table
//
// The line table is a sequence of two-byte records (offset delta, signed line
// delta) relative to Meta.FirstLine. An offset delta above 255 is carried by
// filler records with a zero line delta; line deltas outside -128..127 are
// split across records with a zero offset delta.
//
// # Exception table
//
// Each entry is four variable-length integers: start, length, target and
// depth<<1|lasti, all in code units. Integers are written in 6-bit chunks,
// most significant first, with 0x40 set on every byte but the last and 0x80
// set on the first byte of each entry.
package bytecode
