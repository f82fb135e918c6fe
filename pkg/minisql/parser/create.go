package parser

import (
	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/span"
)

// createTable parses
//
//	CREATE TABLE name (column type, ...)
//
// Leading whitespace is skipped. Failures after the CREATE keyword are
// fatal.
func createTable(in span.Input) (*ast.CreateTable, span.Input, *errors.ParseError) {
	return context("Create Table", func(in span.Input) (*ast.CreateTable, span.Input, *errors.ParseError) {
		_, cur, err := keyword("create")(ws0(in))
		if err != nil {
			return nil, in, err
		}
		stmt, cur, err := cut(createTableBody)(cur)
		if err != nil {
			return nil, in, err
		}
		return stmt, cur, nil
	})(in)
}

func createTableBody(in span.Input) (*ast.CreateTable, span.Input, *errors.ParseError) {
	cur, err := ws1(in)
	if err != nil {
		return nil, in, err
	}
	if _, cur, err = keyword("table")(cur); err != nil {
		return nil, in, err
	}
	if cur, err = ws1(cur); err != nil {
		return nil, in, err
	}
	table, cur, err := context("Table Name", name("table"))(cur)
	if err != nil {
		return nil, in, err
	}
	if cur, err = ws1(cur); err != nil {
		return nil, in, err
	}
	columns, cur, err := context("Column Definitions", delimited('(', commaSep(columnDef), ')'))(cur)
	if err != nil {
		return nil, in, err
	}
	return &ast.CreateTable{Table: table, Columns: columns}, cur, nil
}

// columnDef parses a name, exactly one space and a column type.
func columnDef(in span.Input) (ast.ColumnDef, span.Input, *errors.ParseError) {
	return context("Column", func(in span.Input) (ast.ColumnDef, span.Input, *errors.ParseError) {
		colName, cur, err := context("Column Name", name("column"))(in)
		if err != nil {
			return ast.ColumnDef{}, in, err
		}
		if _, cur, err = char(' ')(cur); err != nil {
			return ast.ColumnDef{}, in, err
		}
		typ, cur, err := withSpan(columnType)(cur)
		if err != nil {
			return ast.ColumnDef{}, in, err
		}
		return ast.ColumnDef{Name: colName, Type: typ}, cur, nil
	})(in)
}
