package ast

import (
	"math/big"
	"strconv"
	"strings"
)

// Value is a literal bound to a column. Only the field matching Kind is
// set: Text for text, Int for Int8..Int64, Uint for UInt8..UInt64 and Big
// for the 128-bit kinds.
type Value struct {
	Kind TypeKind

	Text string
	Int  int64
	Uint uint64
	Big  *big.Int
}

// TextValue returns a text value.
func TextValue(s string) Value {
	return Value{Kind: Text, Text: s}
}

// IntValue returns a signed value of kind Int8, Int16, Int32 or Int64.
func IntValue(k TypeKind, v int64) Value {
	return Value{Kind: k, Int: v}
}

// UintValue returns an unsigned value of kind UInt8, UInt16, UInt32 or UInt64.
func UintValue(k TypeKind, v uint64) Value {
	return Value{Kind: k, Uint: v}
}

// BigValue returns a value of kind Int128 or UInt128.
func BigValue(k TypeKind, v *big.Int) Value {
	return Value{Kind: k, Big: new(big.Int).Set(v)}
}

// Len returns the stored size of the value in bytes: the integer width, or
// the UTF-8 length of text.
func (v Value) Len() int {
	if v.Kind == Text {
		return len(v.Text)
	}
	return v.Kind.Bits() / 8
}

// IsEmpty reports whether the value is an empty text.
func (v Value) IsEmpty() bool {
	return v.Kind == Text && v.Text == ""
}

// Integer returns any integer value as a big.Int, or nil for text.
func (v Value) Integer() *big.Int {
	switch {
	case v.Kind == Text:
		return nil
	case v.Kind.Bits() == 128:
		if v.Big == nil {
			return new(big.Int)
		}
		return new(big.Int).Set(v.Big)
	case v.Kind.Signed():
		return big.NewInt(v.Int)
	default:
		return new(big.Int).SetUint64(v.Uint)
	}
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	if v.Kind == Text {
		return v.Text == o.Text
	}
	return v.Integer().Cmp(o.Integer()) == 0
}

// String renders the value as a literal the value grammar accepts.
func (v Value) String() string {
	switch {
	case v.Kind == Text:
		return QuoteText(v.Text)
	case v.Kind.Bits() == 128:
		return v.Integer().String()
	case v.Kind.Signed():
		return strconv.FormatInt(v.Int, 10)
	default:
		return strconv.FormatUint(v.Uint, 10)
	}
}

var textEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// QuoteText quotes s as a text literal, escaping backslashes and quotes.
func QuoteText(s string) string {
	return "'" + textEscaper.Replace(s) + "'"
}
