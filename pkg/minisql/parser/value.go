package parser

import (
	stderrors "errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/span"
)

var (
	maxInt128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minInt128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))
)

// value returns the parser for a literal of the given column type. The
// result carries the span of the whole literal, quotes included.
func value(typ ast.ColumnType) parser[ast.Spanned[ast.Value]] {
	inner := func(in span.Input) (ast.Value, span.Input, *errors.ParseError) {
		if typ.Kind == ast.Text {
			return textLiteral(typ, in)
		}
		return integerValue(typ.Kind, in)
	}
	return context("Value", withSpan(inner))
}

// textLiteral parses a single-quoted literal in which \' and \\ are the
// only escapes. Everything after the opening quote is fatal: an
// unterminated literal or a bad escape is never retried as something else.
func textLiteral(typ ast.ColumnType, in span.Input) (ast.Value, span.Input, *errors.ParseError) {
	_, cur, err := char('\'')(in)
	if err != nil {
		return ast.Value{}, in, errors.Expected(in, "text literal")
	}

	var sb strings.Builder
	for {
		if cur.AtEnd() {
			return ast.Value{}, in, errors.Expected(cur, "closing quote").Cut()
		}
		c := cur.Peek()
		switch c {
		case '\'':
			cur = cur.Advance(1)
			text := sb.String()
			if len(text) > typ.Size {
				return ast.Value{}, in, errors.New("VALUE-0001", span.Between(in, cur), map[string]any{
					"Length": len(text),
					"Type":   typ.String(),
				}).Cut()
			}
			return ast.TextValue(text), cur, nil
		case '\\':
			next := cur.PeekAt(1)
			if next != '\'' && next != '\\' {
				return ast.Value{}, in, errors.Expected(cur.Advance(1), `\' or \\ after \`).Cut()
			}
			sb.WriteByte(next)
			cur = cur.Advance(2)
		default:
			sb.WriteByte(c)
			cur = cur.Advance(1)
		}
	}
}

// integerValue scans an integer literal and converts it to exactly the
// given width and signedness.
func integerValue(kind ast.TypeKind, in span.Input) (ast.Value, span.Input, *errors.ParseError) {
	lit, rest, err := integerLiteral(in)
	if err != nil {
		return ast.Value{}, in, err
	}

	switch {
	case kind.Bits() == 128:
		n, convErr := parseInt128(lit.Fragment, kind.Signed())
		if convErr != nil {
			return ast.Value{}, in, numberError(lit, kind.String(), convErr)
		}
		return ast.BigValue(kind, n), rest, nil
	case kind.Signed():
		n, convErr := strconv.ParseInt(lit.Fragment, 10, kind.Bits())
		if convErr != nil {
			return ast.Value{}, in, numberError(lit, kind.String(), convErr)
		}
		return ast.IntValue(kind, n), rest, nil
	default:
		n, convErr := strconv.ParseUint(lit.Fragment, 10, kind.Bits())
		if convErr != nil {
			return ast.Value{}, in, numberError(lit, kind.String(), convErr)
		}
		return ast.UintValue(kind, n), rest, nil
	}
}

// parseInt128 converts a decimal literal to a 128-bit integer, reporting
// failures the way strconv does.
func parseInt128(s string, signed bool) (*big.Int, error) {
	fn := "ParseUint128"
	if signed {
		fn = "ParseInt128"
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || (!signed && strings.HasPrefix(s, "-")) {
		return nil, &strconv.NumError{Func: fn, Num: s, Err: strconv.ErrSyntax}
	}
	lo, hi := new(big.Int), maxUint128
	if signed {
		lo, hi = minInt128, maxInt128
	}
	if n.Cmp(lo) < 0 || n.Cmp(hi) > 0 {
		return nil, &strconv.NumError{Func: fn, Num: s, Err: strconv.ErrRange}
	}
	return n, nil
}

// numberError reports a failed numeric conversion at the literal.
func numberError(lit span.Span, typ string, err error) *errors.ParseError {
	reason := err.Error()
	var numErr *strconv.NumError
	if stderrors.As(err, &numErr) {
		reason = numErr.Err.Error()
	}
	return errors.Wrap("VALUE-0002", lit, err, map[string]any{
		"Literal": lit.Fragment,
		"Type":    typ,
		"Reason":  reason,
	}).Cut()
}
