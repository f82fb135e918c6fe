package parser

import (
	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/span"
)

// parser is the shape of every grammar rule: on success it returns the
// value and the input just past what it consumed, on failure an error
// anchored where the failure happened.
type parser[T any] func(in span.Input) (T, span.Input, *errors.ParseError)

// withSpan pairs the result of p with the exact slice of input it consumed.
func withSpan[T any](p parser[T]) parser[ast.Spanned[T]] {
	return func(in span.Input) (ast.Spanned[T], span.Input, *errors.ParseError) {
		v, rest, err := p(in)
		if err != nil {
			return ast.Spanned[T]{}, in, err
		}
		return ast.Spanned[T]{Span: span.Between(in, rest), Value: v}, rest, nil
	}
}

// context labels any failure of p with the rule it was parsing.
func context[T any](label string, p parser[T]) parser[T] {
	return func(in span.Input) (T, span.Input, *errors.ParseError) {
		v, rest, err := p(in)
		if err != nil {
			return v, in, err.WithContext(label, in)
		}
		return v, rest, nil
	}
}

// cut makes any failure of p fatal, so enclosing alternations stop trying
// other branches.
func cut[T any](p parser[T]) parser[T] {
	return func(in span.Input) (T, span.Input, *errors.ParseError) {
		v, rest, err := p(in)
		if err != nil {
			return v, in, err.Cut()
		}
		return v, rest, nil
	}
}

// alt tries each parser in turn and returns the first success. A fatal
// failure ends the search; otherwise every failure is kept.
func alt[T any](ps ...parser[T]) parser[T] {
	return func(in span.Input) (T, span.Input, *errors.ParseError) {
		var zero T
		errs := make([]*errors.ParseError, 0, len(ps))
		for _, p := range ps {
			v, rest, err := p(in)
			if err == nil {
				return v, rest, nil
			}
			if err.Fatal {
				return zero, in, err
			}
			errs = append(errs, err)
		}
		return zero, in, errors.Alt(errs...)
	}
}

// commaSep parses one or more p separated by commas, allowing whitespace
// around every element. Once a comma has been read an element must follow:
// a failing element is returned as is instead of ending the list before
// the comma.
func commaSep[T any](p parser[T]) parser[[]T] {
	return func(in span.Input) ([]T, span.Input, *errors.ParseError) {
		start := in
		v, cur, err := p(ws0(in))
		if err != nil {
			return nil, start, err
		}
		items := []T{v}
		for {
			cur = ws0(cur)
			if cur.Peek() != ',' {
				return items, cur, nil
			}
			v, cur, err = p(ws0(cur.Advance(1)))
			if err != nil {
				return nil, start, err
			}
			items = append(items, v)
		}
	}
}

// delimited parses open, p and closing, returning the result of p.
func delimited[T any](open byte, p parser[T], closing byte) parser[T] {
	return func(in span.Input) (T, span.Input, *errors.ParseError) {
		var zero T
		_, cur, err := char(open)(in)
		if err != nil {
			return zero, in, err
		}
		v, cur, err := p(cur)
		if err != nil {
			return zero, in, err
		}
		_, cur, err = char(closing)(cur)
		if err != nil {
			return zero, in, err
		}
		return v, cur, nil
	}
}

func toError(err *errors.ParseError) error {
	if err == nil {
		return nil
	}
	return err
}
