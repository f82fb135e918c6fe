package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/sambeau/minisql/pkg/minisql/span"
)

// Annotation is a labelled location in the source.
type Annotation struct {
	Label  string `json:"label"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// Report is a renderable diagnostic: the primary cause anchored at its
// exact location, plus every grammar context the failure unwound through.
type Report struct {
	Source  string       `json:"-"`
	Class   ErrorClass   `json:"class"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Hints   []string     `json:"hints,omitempty"`
	Offset  int          `json:"offset"`
	Length  int          `json:"length"`
	Line    int          `json:"line"`
	Column  int          `json:"column"`
	Related []Annotation `json:"related,omitempty"`
}

// Selector picks the representative report among the branches of an
// alternation and returns its index.
type Selector func(candidates []*Report) int

// DeepestContext selects the branch with the most related contexts: the
// parser got furthest in it before failing. Ties go to the first candidate.
func DeepestContext(candidates []*Report) int {
	best := 0
	for i, r := range candidates {
		if len(r.Related) > len(candidates[best].Related) {
			best = i
		}
	}
	return best
}

// Formatter converts error trees into reports.
type Formatter struct {
	// Select resolves alternations. Nil means DeepestContext.
	Select Selector
}

// Format converts err into a report against src using DeepestContext for
// alternations.
func Format(src string, err error) *Report {
	return Formatter{}.Format(src, err)
}

// Format converts err into a report against src. Errors that are not parse
// errors produce a report with only a message.
func (f Formatter) Format(src string, err error) *Report {
	var pe *ParseError
	if !As(err, &pe) {
		return &Report{Source: src, Message: err.Error(), Line: 1, Column: 1}
	}
	return f.format(src, pe)
}

func (f Formatter) format(src string, e *ParseError) *Report {
	var r *Report
	switch {
	case e.Cause != nil:
		r = causeReport(src, e.Cause)
	case len(e.Alternatives) > 0:
		reports := make([]*Report, len(e.Alternatives))
		for i, alt := range e.Alternatives {
			reports[i] = f.format(src, alt)
		}
		sel := f.Select
		if sel == nil {
			sel = DeepestContext
		}
		i := sel(reports)
		if i < 0 || i >= len(reports) {
			i = 0
		}
		r = reports[i]
	default:
		return &Report{Source: src, Message: "parse error", Line: 1, Column: 1}
	}

	for _, c := range e.Contexts {
		line, col := span.Position(src, c.Offset)
		r.Related = append(r.Related, Annotation{
			Label:  c.Label,
			Offset: c.Offset,
			Line:   line,
			Column: col,
		})
	}
	return r
}

func causeReport(src string, c *Cause) *Report {
	line, col := span.Position(src, c.Span.Offset)
	return &Report{
		Source:  src,
		Class:   c.Class,
		Code:    c.Code,
		Message: c.Message,
		Hints:   append([]string(nil), c.Hints...),
		Offset:  c.Span.Offset,
		Length:  c.Span.Len(),
		Line:    line,
		Column:  col,
	}
}

// Error implements the error interface.
func (r *Report) Error() string {
	return r.String()
}

// String returns a one-line location and message followed by hints.
func (r *Report) String() string {
	var sb strings.Builder
	if r.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", r.Line, r.Column))
	}
	sb.WriteString(r.Message)
	for _, hint := range r.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// PrettyString returns a multi-line description without a source excerpt.
func (r *Report) PrettyString() string {
	var sb strings.Builder

	switch r.Class {
	case ClassSyntax, "":
		sb.WriteString("Syntax error")
	case ClassCatalog:
		sb.WriteString("Catalog error")
	case ClassBinding:
		sb.WriteString("Binding error")
	case ClassValue:
		sb.WriteString("Value error")
	}
	sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", r.Line, r.Column))
	sb.WriteString(r.Message)

	for _, a := range r.Related {
		sb.WriteString(fmt.Sprintf("\n  while parsing %s (line %d, column %d)", a.Label, a.Line, a.Column))
	}
	for _, hint := range r.Hints {
		sb.WriteString("\n  hint: ")
		sb.WriteString(hint)
	}
	return sb.String()
}

// ToJSON returns the report as JSON bytes.
func (r *Report) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// ToJSONIndent returns the report as indented JSON bytes.
func (r *Report) ToJSONIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// RenderOptions control Render.
type RenderOptions struct {
	Color        bool   // ANSI colors
	ContextLines int    // source lines shown above the failing line
	Filename     string // shown in the location line when set
}

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiBlue  = "\x1b[34m"
	ansiCyan  = "\x1b[36m"
)

// Render writes the report with a source excerpt and an underline beneath
// the failing text.
func (r *Report) Render(w io.Writer, opts RenderOptions) error {
	paint := func(code, s string) string {
		if !opts.Color {
			return s
		}
		return code + s + ansiReset
	}

	var sb strings.Builder

	head := "error"
	if r.Code != "" {
		head += "[" + r.Code + "]"
	}
	sb.WriteString(paint(ansiBold+ansiRed, head))
	sb.WriteString(paint(ansiBold, ": "+r.Message))
	sb.WriteString("\n")

	where := fmt.Sprintf("line %d, column %d", r.Line, r.Column)
	if opts.Filename != "" {
		where = fmt.Sprintf("%s:%d:%d", opts.Filename, r.Line, r.Column)
	}
	gutter := len(fmt.Sprint(r.Line))
	pad := strings.Repeat(" ", gutter)
	sb.WriteString(fmt.Sprintf("%s %s %s\n", pad, paint(ansiBlue, "-->"), where))

	if r.Source != "" {
		sb.WriteString(fmt.Sprintf("%s %s\n", pad, paint(ansiBlue, "|")))

		lineText, lineStart := span.LineAt(r.Source, r.Offset)
		lines := strings.Split(r.Source[:lineStart], "\n")
		// the split leaves an empty element for the failing line itself
		lines = lines[:len(lines)-1]
		first := len(lines) - opts.ContextLines
		if first < 0 {
			first = 0
		}
		for i := first; i < len(lines); i++ {
			n := r.Line - (len(lines) - i)
			sb.WriteString(fmt.Sprintf("%*d %s %s\n", gutter, n, paint(ansiBlue, "|"), strings.TrimSuffix(lines[i], "\r")))
		}
		sb.WriteString(fmt.Sprintf("%*d %s %s\n", gutter, r.Line, paint(ansiBlue, "|"), lineText))

		col := r.Offset - lineStart
		if col > len(lineText) {
			col = len(lineText)
		}
		indent := runewidth.StringWidth(lineText[:col])
		width := 1
		if r.Length > 0 {
			end := col + r.Length
			if end > len(lineText) {
				end = len(lineText)
			}
			if w := runewidth.StringWidth(lineText[col:end]); w > 0 {
				width = w
			}
		}
		sb.WriteString(fmt.Sprintf("%s %s %s%s %s\n",
			pad, paint(ansiBlue, "|"),
			strings.Repeat(" ", indent),
			paint(ansiRed, strings.Repeat("^", width)),
			paint(ansiRed, r.Message)))
	}

	for _, a := range r.Related {
		sb.WriteString(fmt.Sprintf("%s %s while parsing %s at line %d, column %d\n",
			pad, paint(ansiCyan, "="), a.Label, a.Line, a.Column))
	}
	for _, hint := range r.Hints {
		sb.WriteString(fmt.Sprintf("%s %s hint: %s\n", pad, paint(ansiCyan, "="), hint))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
