package ast

import (
	"strings"

	"github.com/sambeau/minisql/pkg/minisql/span"
)

// Spanned pairs a parsed value with the source it was parsed from.
type Spanned[T any] struct {
	Span  span.Span
	Value T
}

// Statement is implemented by every statement node.
type Statement interface {
	statementNode()
	// TableName returns the table the statement refers to.
	TableName() string
	// String renders the statement in canonical form.
	String() string
}

// ColumnDef is one column of a CREATE TABLE statement.
type ColumnDef struct {
	Name span.Span
	Type Spanned[ColumnType]
}

// CreateTable is a parsed CREATE TABLE statement. Columns are in
// declaration order.
type CreateTable struct {
	Table   span.Span
	Columns []ColumnDef
}

func (s *CreateTable) statementNode() {}

// TableName returns the name of the table being defined.
func (s *CreateTable) TableName() string { return s.Table.Fragment }

// String renders the statement as canonical SQL.
func (s *CreateTable) String() string {
	var sb strings.Builder
	sb.WriteString("CREATE TABLE ")
	sb.WriteString(s.Table.Fragment)
	sb.WriteString(" (")
	for i, c := range s.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(c.Name.Fragment)
		sb.WriteString(" ")
		sb.WriteString(c.Type.Value.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// BoundValue is a value of an INSERT statement together with the name of
// the column it was bound to.
type BoundValue struct {
	Column span.Span
	Value  Spanned[Value]
}

// Insert is a parsed INSERT statement. Values are in the order of the
// statement's column list.
type Insert struct {
	Table  span.Span
	Values []BoundValue
}

func (s *Insert) statementNode() {}

// TableName returns the name of the target table.
func (s *Insert) TableName() string { return s.Table.Fragment }

// Len returns the total stored size of the row in bytes.
func (s *Insert) Len() int {
	n := 0
	for _, v := range s.Values {
		n += v.Value.Value.Len()
	}
	return n
}

// IsEmpty reports whether the statement binds no values.
func (s *Insert) IsEmpty() bool {
	return len(s.Values) == 0
}

// Get returns the value bound to the named column.
func (s *Insert) Get(column string) (Value, bool) {
	for _, v := range s.Values {
		if v.Column.Fragment == column {
			return v.Value.Value, true
		}
	}
	return Value{}, false
}

// String renders the statement as canonical SQL.
func (s *Insert) String() string {
	names := make([]string, len(s.Values))
	values := make([]string, len(s.Values))
	for i, v := range s.Values {
		names[i] = v.Column.Fragment
		values[i] = v.Value.Value.String()
	}
	return "INSERT INTO " + s.Table.Fragment +
		" (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(values, ", ") + ")"
}
