// Package ast defines the column types, values and statement nodes produced
// by the minisql parsers. Every node that came from source text keeps the
// span it was parsed from.
package ast

import "fmt"

// TypeKind enumerates the column types.
type TypeKind int

const (
	Text TypeKind = iota
	Int8
	Int16
	Int32
	Int64
	Int128
	UInt8
	UInt16
	UInt32
	UInt64
	UInt128
)

var kindNames = [...]string{
	Text:    "varchar",
	Int8:    "int8",
	Int16:   "int16",
	Int32:   "int32",
	Int64:   "int64",
	Int128:  "int128",
	UInt8:   "uint8",
	UInt16:  "uint16",
	UInt32:  "uint32",
	UInt64:  "uint64",
	UInt128: "uint128",
}

// IntegerKinds lists the fixed-width integer kinds in grammar order.
var IntegerKinds = []TypeKind{Int8, Int16, Int32, Int64, Int128, UInt8, UInt16, UInt32, UInt64, UInt128}

// String returns the type keyword.
func (k TypeKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("TypeKind(%d)", int(k))
	}
	return kindNames[k]
}

// Signed reports whether the kind is a signed integer.
func (k TypeKind) Signed() bool {
	return k >= Int8 && k <= Int128
}

// Bits returns the width of an integer kind, or 0 for text.
func (k TypeKind) Bits() int {
	switch k {
	case Int8, UInt8:
		return 8
	case Int16, UInt16:
		return 16
	case Int32, UInt32:
		return 32
	case Int64, UInt64:
		return 64
	case Int128, UInt128:
		return 128
	}
	return 0
}

// ColumnType is a declared column type. Size is the maximum byte length of
// a Text column and zero otherwise. ColumnType is comparable.
type ColumnType struct {
	Kind TypeKind
	Size int
}

// VarChar returns the text type with the given maximum byte length.
func VarChar(size int) ColumnType {
	return ColumnType{Kind: Text, Size: size}
}

// Integer returns the integer column type of the given kind.
func Integer(k TypeKind) ColumnType {
	return ColumnType{Kind: k}
}

// String renders the type in the grammar's canonical spelling, so parsing
// the result yields the same type.
func (t ColumnType) String() string {
	if t.Kind == Text {
		return fmt.Sprintf("varchar(%d)", t.Size)
	}
	return t.Kind.String()
}
