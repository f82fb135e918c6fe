// Package parser implements the grammars for CREATE TABLE and INSERT
// statements.
//
// Parsers are plain functions from a span.Input cursor to a result and the
// remaining input, or to an *errors.ParseError anchored at the point of
// failure and labelled with every grammar rule it unwound through. INSERT
// statements are parsed against a catalog.Catalog: the declared type of
// each listed column decides how its literal is read.
//
// The Parse* functions require the whole input to be consumed; trailing
// whitespace is allowed. The catalog is only read.
package parser

import (
	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/catalog"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/span"
)

// ParseCreateTable parses text as a single CREATE TABLE statement.
func ParseCreateTable(text string) (*ast.CreateTable, error) {
	return ParseCreateTableInput(span.New(text))
}

// ParseCreateTableInput parses the whole of in as a CREATE TABLE statement.
func ParseCreateTableInput(in span.Input) (*ast.CreateTable, error) {
	stmt, err := complete(createTable, in)
	return stmt, toError(err)
}

// ParseInsert parses text as a single INSERT statement against cat.
func ParseInsert(cat catalog.Catalog, text string) (*ast.Insert, error) {
	return ParseInsertInput(cat, span.New(text))
}

// ParseInsertInput parses the whole of in as an INSERT statement against cat.
func ParseInsertInput(cat catalog.Catalog, in span.Input) (*ast.Insert, error) {
	stmt, err := complete(insert(cat), in)
	return stmt, toError(err)
}

// ParseStatement parses text as either statement. When neither grammar
// matches, the error holds both failures as alternatives.
func ParseStatement(cat catalog.Catalog, text string) (ast.Statement, error) {
	return ParseStatementInput(cat, span.New(text))
}

// ParseStatementInput parses the whole of in as either statement.
func ParseStatementInput(cat catalog.Catalog, in span.Input) (ast.Statement, error) {
	stmt, err := complete(statement(cat), in)
	return stmt, toError(err)
}

// ParseType parses text as a single column type keyword.
func ParseType(text string) (ast.ColumnType, error) {
	typ, err := complete(columnType, span.New(text))
	return typ, toError(err)
}

// CreateTable parses a CREATE TABLE statement at the start of in and
// returns the input that follows it.
func CreateTable(in span.Input) (*ast.CreateTable, span.Input, error) {
	stmt, rest, err := createTable(in)
	return stmt, rest, toError(err)
}

// Insert parses an INSERT statement at the start of in against cat and
// returns the input that follows it.
func Insert(cat catalog.Catalog, in span.Input) (*ast.Insert, span.Input, error) {
	stmt, rest, err := insert(cat)(in)
	return stmt, rest, toError(err)
}

func statement(cat catalog.Catalog) parser[ast.Statement] {
	create := func(in span.Input) (ast.Statement, span.Input, *errors.ParseError) {
		stmt, rest, err := createTable(in)
		if err != nil {
			return nil, in, err
		}
		return stmt, rest, nil
	}
	ins := insert(cat)
	insertStmt := func(in span.Input) (ast.Statement, span.Input, *errors.ParseError) {
		stmt, rest, err := ins(in)
		if err != nil {
			return nil, in, err
		}
		return stmt, rest, nil
	}
	return alt[ast.Statement](create, insertStmt)
}

// complete runs p and requires that only whitespace follows.
func complete[T any](p parser[T], in span.Input) (T, *errors.ParseError) {
	var zero T
	v, rest, err := p(in)
	if err != nil {
		return zero, err
	}
	rest = ws0(rest)
	if !rest.AtEnd() {
		return zero, errors.New("SYNTAX-0002", rest.Take(rest.Len()), nil)
	}
	return v, nil
}
