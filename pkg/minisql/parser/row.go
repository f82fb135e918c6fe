package parser

import (
	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/catalog"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/span"
)

// Binding is a column named in an INSERT column list, resolved against
// the catalog.
type Binding struct {
	Name   span.Span
	Column catalog.Column
}

// RowParser binds the literals of a value list to the columns of the
// column list, first to first. Each column is consumed at most once.
type RowParser struct {
	pending []Binding
}

// NewRowParser returns a matcher for the given columns in column-list order.
func NewRowParser(bindings []Binding) *RowParser {
	return &RowParser{pending: append([]Binding(nil), bindings...)}
}

// Next parses the next literal with the type of the next unbound column.
// With no column left it fails with expected ')' at the literal.
func (r *RowParser) Next(in span.Input) (ast.BoundValue, span.Input, *errors.ParseError) {
	b, ok := r.Pop()
	if !ok {
		return ast.BoundValue{}, in, errors.Expected(in, "')'")
	}
	v, rest, err := value(b.Column.Type)(in)
	if err != nil {
		return ast.BoundValue{}, in, err
	}
	return ast.BoundValue{Column: b.Name, Value: v}, rest, nil
}

// Pop removes and returns the next unbound column.
func (r *RowParser) Pop() (Binding, bool) {
	if len(r.pending) == 0 {
		return Binding{}, false
	}
	b := r.pending[0]
	r.pending = r.pending[1:]
	return b, true
}

// Len returns the number of columns still unbound.
func (r *RowParser) Len() int { return len(r.pending) }

// IsEmpty reports whether every column has been bound.
func (r *RowParser) IsEmpty() bool { return len(r.pending) == 0 }
