package parser

import (
	"strconv"

	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/span"
)

// columnType parses a type keyword: varchar(N) or one of the integer
// keywords. Once "varchar" has matched, a malformed size is fatal.
func columnType(in span.Input) (ast.ColumnType, span.Input, *errors.ParseError) {
	return context("Column Type", func(in span.Input) (ast.ColumnType, span.Input, *errors.ParseError) {
		if _, _, err := keyword("varchar")(in); err == nil {
			return varchar(in)
		}
		return integerType(in)
	})(in)
}

func varchar(in span.Input) (ast.ColumnType, span.Input, *errors.ParseError) {
	_, rest, err := keyword("varchar")(in)
	if err != nil {
		return ast.ColumnType{}, in, err
	}
	size, rest, err := cut(delimited('(', varcharSize, ')'))(rest)
	if err != nil {
		return ast.ColumnType{}, in, err
	}
	return ast.VarChar(size), rest, nil
}

func varcharSize(in span.Input) (int, span.Input, *errors.ParseError) {
	lit, rest, err := integerLiteral(in)
	if err != nil {
		return 0, in, err
	}
	n, convErr := strconv.ParseUint(lit.Fragment, 10, 31)
	if convErr != nil {
		return 0, in, numberError(lit, "varchar size", convErr)
	}
	return int(n), rest, nil
}

func integerType(in span.Input) (ast.ColumnType, span.Input, *errors.ParseError) {
	for _, k := range ast.IntegerKinds {
		if _, rest, err := keyword(k.String())(in); err == nil {
			return ast.Integer(k), rest, nil
		}
	}
	return ast.ColumnType{}, in, errors.Expected(in, "column type")
}
