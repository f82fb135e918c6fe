package parser

import (
	"strings"

	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/span"
)

// maxIdentifier is the longest name the identifier scanner takes.
const maxIdentifier = 128

func isIdentChar(c byte) bool {
	return c == '_' || isDigit(c) || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// identifier scans up to maxIdentifier identifier characters. It never
// fails; an empty span means no name was present.
func identifier(in span.Input) (span.Span, span.Input, *errors.ParseError) {
	n := 0
	for n < in.Len() && n < maxIdentifier && isIdentChar(in.PeekAt(n)) {
		n++
	}
	return in.Take(n), in.Advance(n), nil
}

// name is an identifier that must not be empty. what names the kind of
// name for the error message ("table", "column").
func name(what string) parser[span.Span] {
	return func(in span.Input) (span.Span, span.Input, *errors.ParseError) {
		s, rest, _ := identifier(in)
		if s.Len() == 0 {
			return s, in, errors.New("SYNTAX-0003", in.Point(), map[string]any{"What": what})
		}
		return s, rest, nil
	}
}

// keyword matches kw case-insensitively. The match must not run on into
// further identifier characters, so "int8" does not match "int8x".
func keyword(kw string) parser[span.Span] {
	return func(in span.Input) (span.Span, span.Input, *errors.ParseError) {
		rest := in.Rest()
		if len(rest) < len(kw) || !strings.EqualFold(rest[:len(kw)], kw) ||
			(len(rest) > len(kw) && isIdentChar(rest[len(kw)])) {
			return span.Span{}, in, errors.Expected(in, "'"+kw+"'")
		}
		return in.Take(len(kw)), in.Advance(len(kw)), nil
	}
}

// char matches a single byte.
func char(c byte) parser[span.Span] {
	return func(in span.Input) (span.Span, span.Input, *errors.ParseError) {
		if in.AtEnd() || in.Peek() != c {
			return span.Span{}, in, errors.Expected(in, "'"+string(c)+"'")
		}
		return in.Take(1), in.Advance(1), nil
	}
}

// ws0 skips any whitespace, including newlines.
func ws0(in span.Input) span.Input {
	n := 0
	for n < in.Len() && isSpace(in.PeekAt(n)) {
		n++
	}
	return in.Advance(n)
}

// ws1 skips whitespace and fails if there is none.
func ws1(in span.Input) (span.Input, *errors.ParseError) {
	rest := ws0(in)
	if rest.Offset() == in.Offset() {
		return in, errors.Expected(in, "whitespace")
	}
	return rest, nil
}

// integerLiteral scans an optional '-' followed by a run of digits. Only
// the shape is checked here; a bare sign is returned as is and rejected by
// the width-specific conversion.
func integerLiteral(in span.Input) (span.Span, span.Input, *errors.ParseError) {
	n := 0
	if in.PeekAt(0) == '-' {
		n++
	}
	for n < in.Len() && isDigit(in.PeekAt(n)) {
		n++
	}
	if n == 0 {
		return span.Span{}, in, errors.Expected(in, "integer")
	}
	return in.Take(n), in.Advance(n), nil
}
