// Package script cuts a script of statements into the pieces the parsers
// read one at a time.
//
// Statements end at a ';' outside a text literal. Text literals follow the
// value grammar: single quotes, with a backslash escaping the next byte.
// A "--" outside a literal starts a comment that runs to the end of the line.
package script

import (
	"strings"

	"github.com/sambeau/minisql/pkg/minisql/span"
)

// Chunk is one statement of a script, without its terminating ';'.
type Chunk struct {
	Text   string
	Offset int // byte offset of Text in the script
	Line   int // 1-based line of the first byte of Text
}

// Input returns a cursor over the chunk inside src, the script it was cut
// from. Offsets and lines reported through it are those of the script.
// Comments inside the chunk read as spaces.
func (c Chunk) Input(src string) span.Input {
	end := c.Offset + len(c.Text)
	if text := blankComments(c.Text); text != c.Text {
		src = src[:c.Offset] + text + src[end:]
	}
	return span.Window(src, c.Offset, end, c.Line)
}

// Split returns the statements of src in order. Leading whitespace and
// comments are not part of a chunk, and chunks with nothing else in them
// are dropped.
func Split(src string) []Chunk {
	var chunks []Chunk
	line := 1
	pos := 0
	for pos < len(src) {
		start := skipBlank(src, pos)
		line += strings.Count(src[pos:start], "\n")
		if start >= len(src) {
			break
		}
		end, terminated := statementEnd(src, start)
		if end > start {
			chunks = append(chunks, Chunk{Text: src[start:end], Offset: start, Line: line})
		}
		line += strings.Count(src[start:end], "\n")
		pos = end
		if terminated {
			pos++
		}
	}
	return chunks
}

// Complete reports whether src holds at least one statement and every
// statement in it is terminated. An open text literal is never complete.
func Complete(src string) bool {
	pos := 0
	seen := false
	for {
		start := skipBlank(src, pos)
		if start >= len(src) {
			return seen
		}
		end, terminated := statementEnd(src, start)
		if !terminated {
			return false
		}
		seen = seen || end > start
		pos = end + 1
	}
}

// skipBlank returns the offset of the first byte at or after pos that is
// neither whitespace nor inside a comment.
func skipBlank(src string, pos int) int {
	for pos < len(src) {
		switch c := src[pos]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			pos++
		case c == '-' && pos+1 < len(src) && src[pos+1] == '-':
			pos = commentEnd(src, pos)
		default:
			return pos
		}
	}
	return pos
}

// statementEnd returns the offset of the ';' ending the statement that
// starts at pos, or len(src) and false if there is none.
func statementEnd(src string, pos int) (int, bool) {
	inText := false
	escaped := false
	for i := pos; i < len(src); i++ {
		c := src[i]
		if inText {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '\'':
				inText = false
			}
			continue
		}
		switch {
		case c == '\'':
			inText = true
		case c == '-' && i+1 < len(src) && src[i+1] == '-':
			i = commentEnd(src, i) - 1
		case c == ';':
			return i, true
		}
	}
	return len(src), false
}

// blankComments returns s with every comment outside a text literal
// replaced by spaces. Newlines are kept, so offsets and lines do not move.
func blankComments(s string) string {
	if !strings.Contains(s, "--") {
		return s
	}
	var b []byte
	inText := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inText {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '\'':
				inText = false
			}
			continue
		}
		switch {
		case c == '\'':
			inText = true
		case c == '-' && i+1 < len(s) && s[i+1] == '-':
			if b == nil {
				b = []byte(s)
			}
			end := commentEnd(s, i)
			for j := i; j < end && s[j] != '\n'; j++ {
				b[j] = ' '
			}
			i = end - 1
		}
	}
	if b == nil {
		return s
	}
	return string(b)
}

// commentEnd returns the offset just past the line comment at pos.
func commentEnd(src string, pos int) int {
	if nl := strings.IndexByte(src[pos:], '\n'); nl >= 0 {
		return pos + nl + 1
	}
	return len(src)
}
