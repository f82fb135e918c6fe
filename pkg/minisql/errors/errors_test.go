package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"strconv"
	"strings"
	"testing"

	"github.com/sambeau/minisql/pkg/minisql/span"
)

func TestNewRendersTemplate(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		data     map[string]any
		expected string
		class    ErrorClass
	}{
		{
			name:     "expected",
			code:     "SYNTAX-0001",
			data:     map[string]any{"Expected": "')'"},
			expected: "expected ')'",
			class:    ClassSyntax,
		},
		{
			name:     "column not found",
			code:     "CATALOG-0002",
			data:     map[string]any{"Name": "age"},
			expected: "column not found: age",
			class:    ClassCatalog,
		},
		{
			name:     "single missing column",
			code:     "BIND-0003",
			data:     map[string]any{"Names": []string{"id"}, "Table": "t"},
			expected: "missing column id of table t",
			class:    ClassBinding,
		},
		{
			name:     "several missing columns",
			code:     "BIND-0003",
			data:     map[string]any{"Names": []string{"id", "name"}, "Table": "t"},
			expected: "missing columns id, name of table t",
			class:    ClassBinding,
		},
		{
			name:     "numeric conversion",
			code:     "VALUE-0002",
			data:     map[string]any{"Literal": "999", "Type": "int8", "Reason": "value out of range"},
			expected: `cannot convert "999" to int8: value out of range`,
			class:    ClassValue,
		},
		{
			name:     "no data",
			code:     "SYNTAX-0002",
			expected: "unexpected input after end of statement",
			class:    ClassSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, span.Span{}, tt.data)
			if err.Cause.Message != tt.expected {
				t.Errorf("Message = %q, want %q", err.Cause.Message, tt.expected)
			}
			if err.Cause.Class != tt.class {
				t.Errorf("Class = %q, want %q", err.Cause.Class, tt.class)
			}
		})
	}
}

func TestUnknownCode(t *testing.T) {
	err := New("NOPE-0001", span.Span{}, nil)
	if !strings.Contains(err.Cause.Message, "unknown error code") {
		t.Errorf("unexpected message %q", err.Cause.Message)
	}
}

func TestSentinels(t *testing.T) {
	at := span.Span{Fragment: "age", Offset: 20, Line: 1}

	if err := NewColumnNotFound(at, "t", nil); !stderrors.Is(err, ErrColumnNotFound) {
		t.Error("column not found should match ErrColumnNotFound")
	}
	if err := New("BIND-0001", at, map[string]any{"Name": "age"}); !stderrors.Is(err, ErrColumnNotUsed) {
		t.Error("BIND-0001 should match ErrColumnNotUsed")
	}

	_, convErr := strconv.ParseInt("999", 10, 8)
	wrapped := Wrap("VALUE-0002", at, convErr, map[string]any{"Literal": "999", "Type": "int8"})
	if !stderrors.Is(wrapped, ErrNumber) {
		t.Error("wrapped numeric error should match ErrNumber")
	}
	if !stderrors.Is(wrapped, strconv.ErrRange) {
		t.Error("wrapped numeric error should expose strconv.ErrRange")
	}

	alt := Alt(Expected(span.New("x"), "'create'"), NewTableNotFound(at, nil))
	if !stderrors.Is(alt, ErrTableNotFound) || !stderrors.Is(alt, ErrSyntax) {
		t.Error("alternation should expose every branch")
	}
}

func TestAltSingleBranchCollapses(t *testing.T) {
	e := Expected(span.New("x"), "digit")
	if got := Alt(nil, e, nil); got != e {
		t.Error("Alt with one branch should return that branch")
	}
}

func TestBaseSelectsDeepestAlternative(t *testing.T) {
	in := span.New("CREATE TABLE t (x)")
	shallow := Expected(in, "'insert'")
	deep := Expected(in.Advance(16), "column type").
		WithContext("Column Type", in.Advance(16)).
		WithContext("Column", in.Advance(14))
	tie := Expected(in, "'select'").WithContext("A", in).WithContext("B", in)

	err := Alt(shallow, deep, tie)
	if err.Base() != deep.Cause {
		t.Fatalf("Base() picked %q", err.Base().Message)
	}
	if err.Code() != "SYNTAX-0001" {
		t.Errorf("Code() = %q", err.Code())
	}
	if !strings.Contains(err.Error(), "while parsing Column Type") {
		t.Errorf("Error() = %q, want innermost context", err.Error())
	}
}

func TestClosestMatch(t *testing.T) {
	tests := []struct {
		input      string
		candidates []string
		expected   string
	}{
		{"nmae", []string{"id", "name"}, "name"},
		{"ID", []string{"id", "name"}, ""}, // exact match ignoring case
		{"zzzzzz", []string{"id", "name"}, ""},
		{"user", []string{"users", "orders"}, "users"},
		{"", []string{"users"}, ""},
		{"x", nil, ""},
	}
	for _, tt := range tests {
		if got := ClosestMatch(tt.input, tt.candidates); got != tt.expected {
			t.Errorf("ClosestMatch(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestNotFoundHints(t *testing.T) {
	at := span.Span{Fragment: "nmae", Offset: 3, Line: 1}
	err := NewColumnNotFound(at, "t", []string{"id", "name"})
	if len(err.Cause.Hints) != 1 || err.Cause.Hints[0] != "Did you mean `name`?" {
		t.Errorf("hints = %v", err.Cause.Hints)
	}
	err = NewTableNotFound(at, []string{"orders"})
	if len(err.Cause.Hints) != 0 {
		t.Errorf("unexpected hints %v", err.Cause.Hints)
	}
}

func TestFormatStack(t *testing.T) {
	src := "INSERT INTO t (id, age) VALUES (1, 2)"
	in := span.New(src)
	err := NewColumnNotFound(in.Advance(19).Take(3), "t", nil).
		WithContext("Column Names", in.Advance(15)).
		WithContext("Insert Statement", in)

	r := Format(src, err)
	if r.Code != "CATALOG-0002" || r.Offset != 19 || r.Length != 3 {
		t.Fatalf("report = %+v", r)
	}
	if r.Line != 1 || r.Column != 20 {
		t.Errorf("position = %d:%d, want 1:20", r.Line, r.Column)
	}
	if len(r.Related) != 2 {
		t.Fatalf("related = %+v", r.Related)
	}
	if r.Related[0].Label != "Column Names" || r.Related[0].Offset != 15 || r.Related[0].Column != 16 {
		t.Errorf("related[0] = %+v", r.Related[0])
	}
	if r.Related[1].Label != "Insert Statement" || r.Related[1].Offset != 0 {
		t.Errorf("related[1] = %+v", r.Related[1])
	}
}

func TestFormatAlternationSelector(t *testing.T) {
	src := "CREATE TABLE"
	in := span.New(src)
	first := Expected(in, "'insert'").WithContext("Insert Statement", in)
	second := Expected(in.Advance(12), "whitespace").WithContext("Create Table", in)
	err := Alt(first, second).WithContext("Statement", in)

	r := Format(src, err)
	if r.Offset != 0 {
		t.Errorf("tie should go to the first branch, got offset %d", r.Offset)
	}
	if len(r.Related) != 2 || r.Related[1].Label != "Statement" {
		t.Errorf("outer context should follow the branch contexts: %+v", r.Related)
	}

	last := Formatter{Select: func(c []*Report) int { return len(c) - 1 }}
	r = last.Format(src, err)
	if r.Offset != 12 || r.Related[0].Label != "Create Table" {
		t.Errorf("custom selector ignored: %+v", r)
	}
}

func TestFormatPlainError(t *testing.T) {
	r := Format("x", stderrors.New("boom"))
	if r.Message != "boom" || r.Code != "" {
		t.Errorf("report = %+v", r)
	}
}

func TestReportStrings(t *testing.T) {
	r := &Report{
		Class:   ClassValue,
		Code:    "VALUE-0001",
		Message: "value too long: 9 bytes exceeds varchar(5)",
		Line:    2,
		Column:  4,
		Hints:   []string{"shorten the text"},
		Related: []Annotation{{Label: "Value", Line: 2, Column: 4}},
	}

	if got, want := r.String(), "line 2, column 4: value too long: 9 bytes exceeds varchar(5)\n  shorten the text"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	pretty := r.PrettyString()
	for _, want := range []string{"Value error: line 2, column 4", "while parsing Value (line 2, column 4)", "hint: shorten the text"} {
		if !strings.Contains(pretty, want) {
			t.Errorf("PrettyString() missing %q:\n%s", want, pretty)
		}
	}

	data, err := r.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["code"] != "VALUE-0001" || decoded["class"] != "value" {
		t.Errorf("json = %s", data)
	}
	if _, ok := decoded["Source"]; ok {
		t.Error("source text should not be serialized")
	}
}

func TestRender(t *testing.T) {
	src := "INSERT INTO t\n  (id, age)\n  VALUES (1, 2)"
	in := span.New(src)
	at := in.Advance(21) // "age"
	err := NewColumnNotFound(at.Take(3), "t", []string{"id", "ago"}).
		WithContext("Column Names", in.Advance(16))

	var buf bytes.Buffer
	if err := Format(src, err).Render(&buf, RenderOptions{ContextLines: 1, Filename: "q.sql"}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	expected := []string{
		"error[CATALOG-0002]: column not found: age",
		"--> q.sql:2:8",
		"1 | INSERT INTO t",
		"2 |   (id, age)",
		"  |        ^^^ column not found: age",
		"= while parsing Column Names at line 2, column 3",
		"= hint: Did you mean `ago`?",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("render missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("colors should be off")
	}

	buf.Reset()
	Format(src, err).Render(&buf, RenderOptions{Color: true})
	if !strings.Contains(buf.String(), ansiRed) {
		t.Error("colors should be on")
	}
}
