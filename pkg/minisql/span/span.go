// Package span tracks byte offsets and line numbers while parsing.
//
// An Input is a cursor over the original text. Parsers never mutate an Input;
// they return a new one advanced past whatever they consumed. A Span is the
// immutable record of a consumed range, kept by AST nodes and errors so that
// diagnostics can point back into the source.
package span

import (
	"strings"
	"unicode/utf8"
)

// Span is a contiguous range of the original source text.
type Span struct {
	Fragment string // the text covered by the span
	Offset   int    // byte offset of the first byte in the original text
	Line     int    // 1-based line of the first byte
}

// Len returns the length of the span in bytes.
func (s Span) Len() int {
	return len(s.Fragment)
}

// End returns the byte offset just past the span.
func (s Span) End() int {
	return s.Offset + len(s.Fragment)
}

// String returns the spanned text.
func (s Span) String() string {
	return s.Fragment
}

// Input is a parse cursor over a source text.
type Input struct {
	src  string
	off  int
	end  int
	line int
}

// New returns a cursor positioned at the start of src.
func New(src string) Input {
	return Input{src: src, end: len(src), line: 1}
}

// Window returns a cursor restricted to src[start:end]. line is the 1-based
// line number of src[start]. Offsets reported by the cursor stay absolute, so
// a statement cut out of a larger script is diagnosed against the script.
func Window(src string, start, end, line int) Input {
	if start < 0 {
		start = 0
	}
	if end > len(src) {
		end = len(src)
	}
	if end < start {
		end = start
	}
	if line < 1 {
		line = 1
	}
	return Input{src: src, off: start, end: end, line: line}
}

// Source returns the complete original text.
func (in Input) Source() string { return in.src }

// Offset returns the absolute byte offset of the cursor.
func (in Input) Offset() int { return in.off }

// Line returns the 1-based line of the cursor.
func (in Input) Line() int { return in.line }

// Rest returns the unconsumed text.
func (in Input) Rest() string { return in.src[in.off:in.end] }

// Len returns the number of unconsumed bytes.
func (in Input) Len() int { return in.end - in.off }

// AtEnd reports whether all input has been consumed.
func (in Input) AtEnd() bool { return in.off >= in.end }

// Peek returns the next byte, or 0 at the end of input.
func (in Input) Peek() byte {
	if in.off >= in.end {
		return 0
	}
	return in.src[in.off]
}

// PeekAt returns the byte n positions ahead, or 0 past the end of input.
func (in Input) PeekAt(n int) byte {
	if in.off+n >= in.end || n < 0 {
		return 0
	}
	return in.src[in.off+n]
}

// Advance returns a cursor moved n bytes forward, keeping the line count in
// step with any newlines passed over. n is clamped to the remaining input.
func (in Input) Advance(n int) Input {
	if n <= 0 {
		return in
	}
	if n > in.Len() {
		n = in.Len()
	}
	skipped := in.src[in.off : in.off+n]
	in.line += strings.Count(skipped, "\n")
	in.off += n
	return in
}

// Point returns an empty span at the cursor.
func (in Input) Point() Span {
	return Span{Offset: in.off, Line: in.line}
}

// Take returns the span of the next n bytes without consuming them.
func (in Input) Take(n int) Span {
	if n > in.Len() {
		n = in.Len()
	}
	return Span{Fragment: in.src[in.off : in.off+n], Offset: in.off, Line: in.line}
}

// Between returns the span consumed while moving from one cursor to a later
// one over the same text.
func Between(from, to Input) Span {
	n := to.off - from.off
	if n < 0 {
		n = 0
	}
	return Span{
		Fragment: from.src[from.off : from.off+n],
		Offset:   from.off,
		Line:     from.line,
	}
}

// Position converts a byte offset in src into a 1-based line and a 1-based
// column counted in runes.
func Position(src string, offset int) (line, column int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	lineStart := strings.LastIndexByte(before, '\n') + 1
	column = utf8.RuneCountInString(before[lineStart:]) + 1
	return line, column
}

// LineAt returns the full text of the line containing offset, without the
// trailing newline, and the byte offset at which that line starts.
func LineAt(src string, offset int) (text string, start int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	start = strings.LastIndexByte(src[:offset], '\n') + 1
	end := strings.IndexByte(src[offset:], '\n')
	if end < 0 {
		end = len(src)
	} else {
		end += offset
	}
	return strings.TrimSuffix(src[start:end], "\r"), start
}
