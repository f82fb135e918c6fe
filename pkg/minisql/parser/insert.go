package parser

import (
	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/catalog"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/span"
)

// insert returns the parser for
//
//	INSERT INTO name (column, ...) VALUES (literal, ...)
//
// checked against cat. Failures after the INSERT keyword are fatal.
func insert(cat catalog.Catalog) parser[*ast.Insert] {
	return context("Insert Statement", func(in span.Input) (*ast.Insert, span.Input, *errors.ParseError) {
		_, cur, err := keyword("insert")(ws0(in))
		if err != nil {
			return nil, in, err
		}
		stmt, cur, err := cut(insertBody(cat))(cur)
		if err != nil {
			return nil, in, err
		}
		return stmt, cur, nil
	})
}

func insertBody(cat catalog.Catalog) parser[*ast.Insert] {
	return func(in span.Input) (*ast.Insert, span.Input, *errors.ParseError) {
		cur, err := ws1(in)
		if err != nil {
			return nil, in, err
		}
		if _, cur, err = keyword("into")(cur); err != nil {
			return nil, in, err
		}
		if cur, err = ws1(cur); err != nil {
			return nil, in, err
		}
		table, cur, err := context("Table Name", name("table"))(cur)
		if err != nil {
			return nil, in, err
		}
		columns, ok := cat.Lookup(table.Fragment)
		if !ok {
			return nil, in, errors.NewTableNotFound(table, cat.TableNames())
		}

		values, cur, err := insertValues(table.Fragment, columns, cur)
		if err != nil {
			return nil, in, err
		}
		return &ast.Insert{Table: table, Values: values}, cur, nil
	}
}

// insertValues parses the column list and the value list and binds them.
func insertValues(table string, columns catalog.Columns, in span.Input) ([]ast.BoundValue, span.Input, *errors.ParseError) {
	names, cur, err := context("Column Definitions", columnNames)(in)
	if err != nil {
		return nil, in, err
	}

	bindings, err := bind(table, columns, names.Value, names.Span)
	if err != nil {
		return nil, in, err.WithContext("Column Definitions", in)
	}

	row := NewRowParser(bindings)
	values, cur, err := context("Column Values", delimited('(', commaSep(row.Next), ')'))(cur)
	if err != nil {
		return nil, in, err
	}
	cur = ws0(cur)

	if b, ok := row.Pop(); ok {
		return nil, in, errors.New("BIND-0001", b.Name, map[string]any{"Name": b.Name.Fragment})
	}
	return values, cur, nil
}

// columnNames parses the parenthesized column list and the VALUES keyword
// with the whitespace around it. The span covers the parentheses.
func columnNames(in span.Input) (ast.Spanned[[]span.Span], span.Input, *errors.ParseError) {
	var none ast.Spanned[[]span.Span]
	cur, err := ws1(in)
	if err != nil {
		return none, in, err
	}
	names, cur, err := withSpan(delimited('(', context("Column Names", commaSep(name("column"))), ')'))(cur)
	if err != nil {
		return none, in, err
	}
	if cur, err = ws1(cur); err != nil {
		return none, in, err
	}
	if _, cur, err = keyword("values")(cur); err != nil {
		return none, in, err
	}
	if cur, err = ws1(cur); err != nil {
		return none, in, err
	}
	return names, cur, nil
}

// bind resolves every listed name against the table. A name may be listed
// once, and every column of the table must be listed; missing columns are
// reported at the column list. A list naming only some of the columns is
// rejected on purpose: every insert carries a value for each column.
func bind(table string, columns catalog.Columns, names []span.Span, list span.Span) ([]Binding, *errors.ParseError) {
	bindings := make([]Binding, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		col, ok := columns[n.Fragment]
		if !ok {
			return nil, errors.NewColumnNotFound(n, table, columns.Names())
		}
		if seen[n.Fragment] {
			return nil, errors.New("BIND-0002", n, map[string]any{"Name": n.Fragment})
		}
		seen[n.Fragment] = true
		bindings = append(bindings, Binding{Name: n, Column: col})
	}

	var missing []string
	for _, col := range columns.Ordered() {
		if !seen[col.Name] {
			missing = append(missing, col.Name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.New("BIND-0003", list, map[string]any{"Names": missing, "Table": table})
	}
	return bindings, nil
}
