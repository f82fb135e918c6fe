// Package errors provides the structured error tree produced by the minisql
// parsers and the formatter that turns it into a diagnostic report.
//
// A ParseError is either a base Cause (a failed expectation or a semantic
// failure such as an unknown column) carrying the stack of grammar contexts
// it unwound through, or an alternation of several candidate errors when
// every option of a choice failed. All error kinds share this one shape so
// they are formatted identically.
package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/sambeau/minisql/pkg/minisql/span"
)

// ErrorClass categorizes errors for filtering and display.
type ErrorClass string

const (
	ClassSyntax  ErrorClass = "syntax"  // Input does not match the grammar
	ClassCatalog ErrorClass = "catalog" // Unknown or conflicting table/column names
	ClassBinding ErrorClass = "binding" // Column list and value list disagree
	ClassValue   ErrorClass = "value"   // Literal violates its column type
)

// Sentinel errors, reachable with errors.Is on any *ParseError.
var (
	ErrSyntax          = stderrors.New("syntax error")
	ErrTableNotFound   = stderrors.New("table not found")
	ErrColumnNotFound  = stderrors.New("column not found")
	ErrTableExists     = stderrors.New("table already exists")
	ErrDuplicateColumn = stderrors.New("duplicate column")
	ErrColumnNotUsed   = stderrors.New("column declared, but not used")
	ErrColumnRepeated  = stderrors.New("column listed more than once")
	ErrColumnMissing   = stderrors.New("column missing from insert")
	ErrValueTooLong    = stderrors.New("value too long")
	ErrNumber          = stderrors.New("numeric conversion failed")
)

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass
	Template string   // Message template with {{.placeholders}}
	Hints    []string // Hint templates
	Sentinel error
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	"SYNTAX-0001": {
		Class:    ClassSyntax,
		Template: "expected {{.Expected}}",
		Sentinel: ErrSyntax,
	},
	"SYNTAX-0002": {
		Class:    ClassSyntax,
		Template: "unexpected input after end of statement",
		Sentinel: ErrSyntax,
	},
	"SYNTAX-0003": {
		Class:    ClassSyntax,
		Template: "expected {{.What}} name",
		Hints:    []string{"names use letters, digits and '_'"},
		Sentinel: ErrSyntax,
	},
	"CATALOG-0001": {
		Class:    ClassCatalog,
		Template: "table not found: {{.Name}}",
		Sentinel: ErrTableNotFound,
	},
	"CATALOG-0002": {
		Class:    ClassCatalog,
		Template: "column not found: {{.Name}}",
		Sentinel: ErrColumnNotFound,
	},
	"CATALOG-0003": {
		Class:    ClassCatalog,
		Template: "table already exists: {{.Name}}",
		Sentinel: ErrTableExists,
	},
	"CATALOG-0004": {
		Class:    ClassCatalog,
		Template: "column {{.Name}} is defined more than once",
		Sentinel: ErrDuplicateColumn,
	},
	"BIND-0001": {
		Class:    ClassBinding,
		Template: "column declared, but not used: {{.Name}}",
		Hints:    []string{"provide one value per listed column"},
		Sentinel: ErrColumnNotUsed,
	},
	"BIND-0002": {
		Class:    ClassBinding,
		Template: "column listed more than once: {{.Name}}",
		Sentinel: ErrColumnRepeated,
	},
	"BIND-0003": {
		Class:    ClassBinding,
		Template: "missing column{{if gt (len .Names) 1}}s{{end}} {{join .Names \", \"}} of table {{.Table}}",
		Hints:    []string{"every column of the table must be listed"},
		Sentinel: ErrColumnMissing,
	},
	"VALUE-0001": {
		Class:    ClassValue,
		Template: "value too long: {{.Length}} bytes exceeds {{.Type}}",
		Sentinel: ErrValueTooLong,
	},
	"VALUE-0002": {
		Class:    ClassValue,
		Template: "cannot convert {{printf \"%q\" .Literal}} to {{.Type}}{{if .Reason}}: {{.Reason}}{{end}}",
		Sentinel: ErrNumber,
	},
}

// Cause is the base of an error tree: what literally failed, and where.
type Cause struct {
	Class   ErrorClass
	Code    string
	Message string
	Hints   []string
	Data    map[string]any
	Span    span.Span // anchor; an empty fragment marks a point
	Err     error     // underlying error, if any

	sentinel error
}

// Context names a grammar rule that was being parsed when an error unwound
// through it. Offset and Line are where the rule started.
type Context struct {
	Label  string
	Offset int
	Line   int
}

// ParseError is the error produced by a failed parse.
type ParseError struct {
	Cause        *Cause
	Alternatives []*ParseError
	Contexts     []Context // innermost first

	// Fatal errors stop alternation: once a parser commits to a branch no
	// other branch is tried.
	Fatal bool
}

// New creates an error from the catalog, anchored at the given span.
func New(code string, at span.Span, data map[string]any) *ParseError {
	def, ok := ErrorCatalog[code]
	if !ok {
		return &ParseError{Cause: &Cause{
			Class:    ClassSyntax,
			Code:     code,
			Message:  fmt.Sprintf("unknown error code: %s", code),
			Span:     at,
			Data:     data,
			sentinel: ErrSyntax,
		}}
	}

	var hints []string
	for _, h := range def.Hints {
		hints = append(hints, renderTemplate(h, data))
	}

	return &ParseError{Cause: &Cause{
		Class:    def.Class,
		Code:     code,
		Message:  renderTemplate(def.Template, data),
		Hints:    hints,
		Data:     data,
		Span:     at,
		sentinel: def.Sentinel,
	}}
}

// Wrap creates a catalog error that also carries an underlying error.
func Wrap(code string, at span.Span, err error, data map[string]any) *ParseError {
	e := New(code, at, data)
	e.Cause.Err = err
	return e
}

// Expected creates a syntax error for a failed expectation at the cursor.
func Expected(in span.Input, what string) *ParseError {
	return New("SYNTAX-0001", in.Point(), map[string]any{"Expected": what})
}

// Alt combines the errors of every failed branch of a choice.
func Alt(errs ...*ParseError) *ParseError {
	var alts []*ParseError
	for _, e := range errs {
		if e != nil {
			alts = append(alts, e)
		}
	}
	if len(alts) == 1 {
		return alts[0]
	}
	return &ParseError{Alternatives: alts}
}

// WithContext records that the error unwound through the named rule, which
// started at the given cursor.
func (e *ParseError) WithContext(label string, start span.Input) *ParseError {
	e.Contexts = append(e.Contexts, Context{
		Label:  label,
		Offset: start.Offset(),
		Line:   start.Line(),
	})
	return e
}

// Cut marks the error as fatal.
func (e *ParseError) Cut() *ParseError {
	e.Fatal = true
	return e
}

// WithHint returns the error with an extra hint on its base cause.
func (e *ParseError) WithHint(hint string) *ParseError {
	if c := e.Base(); c != nil && hint != "" {
		c.Hints = append(c.Hints, hint)
	}
	return e
}

// Base returns the representative cause: the cause itself for a base error,
// or the cause of the alternative with the deepest context stack.
func (e *ParseError) Base() *Cause {
	if e.Cause != nil {
		return e.Cause
	}
	best := e.deepest()
	if best == nil {
		return nil
	}
	return best.Base()
}

func (e *ParseError) deepest() *ParseError {
	var best *ParseError
	bestDepth := -1
	for _, alt := range e.Alternatives {
		if d := alt.depth(); d > bestDepth {
			best, bestDepth = alt, d
		}
	}
	return best
}

// depth counts the contexts between the error and its base cause.
func (e *ParseError) depth() int {
	if e.Cause != nil {
		return len(e.Contexts)
	}
	best := e.deepest()
	if best == nil {
		return len(e.Contexts)
	}
	return len(e.Contexts) + best.depth()
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	c := e.Base()
	if c == nil {
		return "parse error"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("line %d, offset %d: %s", c.Span.Line, c.Span.Offset, c.Message))
	if label := e.innermostContext(); label != "" {
		sb.WriteString(" (while parsing ")
		sb.WriteString(label)
		sb.WriteString(")")
	}
	return sb.String()
}

func (e *ParseError) innermostContext() string {
	if e.Cause == nil {
		if best := e.deepest(); best != nil {
			if label := best.innermostContext(); label != "" {
				return label
			}
		}
	}
	if len(e.Contexts) > 0 {
		return e.Contexts[0].Label
	}
	return ""
}

// Unwrap exposes the sentinel and underlying error of the base cause, or
// every alternative, to errors.Is and errors.As.
func (e *ParseError) Unwrap() []error {
	if e.Cause != nil {
		var errs []error
		if e.Cause.sentinel != nil {
			errs = append(errs, e.Cause.sentinel)
		}
		if e.Cause.Err != nil {
			errs = append(errs, e.Cause.Err)
		}
		return errs
	}
	errs := make([]error, 0, len(e.Alternatives))
	for _, alt := range e.Alternatives {
		errs = append(errs, alt)
	}
	return errs
}

// Code returns the error code of the representative cause.
func (e *ParseError) Code() string {
	if c := e.Base(); c != nil {
		return c.Code
	}
	return ""
}

// As is errors.As for callers that import this package in place of the
// standard library one.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Is is errors.Is for callers that import this package in place of the
// standard library one.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Funcs(templateFuncs).Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}
