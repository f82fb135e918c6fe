// Package session runs statements against a catalog that grows as CREATE
// TABLE statements are accepted.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/catalog"
	"github.com/sambeau/minisql/pkg/minisql/logging"
	"github.com/sambeau/minisql/pkg/minisql/parser"
	"github.com/sambeau/minisql/pkg/minisql/script"
	"github.com/sambeau/minisql/pkg/minisql/span"
	"github.com/sambeau/minisql/pkg/minisql/store"
)

// Kind names the statement a result came from.
type Kind string

const (
	KindCreate Kind = "create"
	KindInsert Kind = "insert"
)

// Result describes an accepted statement.
type Result struct {
	Kind      Kind
	Table     string
	Columns   int // columns defined, or values inserted
	RowSize   int // bytes: the widest row for a table, the bound values for an insert
	Statement ast.Statement
}

func (r Result) String() string {
	switch r.Kind {
	case KindCreate:
		return fmt.Sprintf("OK: table %s (%d %s)", r.Table, r.Columns, plural(r.Columns, "column"))
	case KindInsert:
		return fmt.Sprintf("OK: insert into %s (%d %s, %s)", r.Table, r.Columns, plural(r.Columns, "value"),
			humanize.Bytes(uint64(r.RowSize)))
	}
	return "OK"
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// Session holds a catalog and, optionally, the store it is saved to.
// It is safe for concurrent use.
type Session struct {
	mu    sync.RWMutex
	cat   catalog.Catalog
	store store.Store
	log   *logging.Logger
}

// New returns a session with an empty catalog. st may be nil, in which case
// tables only live as long as the session.
func New(st store.Store, log *logging.Logger) *Session {
	return &Session{cat: catalog.New(), store: st, log: log}
}

// Open returns a session over the tables saved in st.
func Open(ctx context.Context, st store.Store, log *logging.Logger) (*Session, error) {
	s := New(st, log)
	if st == nil {
		return s, nil
	}
	cat, err := st.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	s.cat = cat
	log.Debugf("session opened with %d tables", len(cat))
	return s, nil
}

// Exec runs a single statement.
func (s *Session) Exec(ctx context.Context, text string) (Result, error) {
	return s.ExecInput(ctx, span.New(text))
}

// ExecInput runs the statement covering the whole of in. Errors from the
// grammars are *errors.ParseError values positioned within in's source.
func (s *Session) ExecInput(ctx context.Context, in span.Input) (Result, error) {
	switch leadingKeyword(in) {
	case "create":
		stmt, err := parser.ParseCreateTableInput(in)
		if err != nil {
			return Result{}, err
		}
		return s.create(ctx, stmt)
	case "insert":
		s.mu.RLock()
		stmt, err := parser.ParseInsertInput(s.cat, in)
		s.mu.RUnlock()
		if err != nil {
			return Result{}, err
		}
		return insertResult(stmt), nil
	}

	// Neither keyword: let both grammars fail so the report explains what
	// was expected.
	s.mu.RLock()
	stmt, err := parser.ParseStatementInput(s.cat, in)
	s.mu.RUnlock()
	if err != nil {
		return Result{}, err
	}
	switch stmt := stmt.(type) {
	case *ast.CreateTable:
		return s.create(ctx, stmt)
	case *ast.Insert:
		return insertResult(stmt), nil
	}
	return Result{}, fmt.Errorf("unsupported statement %T", stmt)
}

// ExecScript runs every statement of src in order and stops at the first
// failure. The results of the statements that ran are returned with it.
func (s *Session) ExecScript(ctx context.Context, src string) ([]Result, error) {
	var results []Result
	for _, chunk := range script.Split(src) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := s.ExecInput(ctx, chunk.Input(src))
		if err != nil {
			s.log.Debugf("statement at line %d failed: %v", chunk.Line, err)
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Session) create(ctx context.Context, stmt *ast.CreateTable) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cat.Add(stmt); err != nil {
		return Result{}, err
	}
	name := stmt.TableName()
	cols := s.cat[name]
	if s.store != nil {
		if err := s.store.SaveTable(ctx, name, cols.Ordered()); err != nil {
			delete(s.cat, name)
			return Result{}, fmt.Errorf("saving table %s: %w", name, err)
		}
	}
	s.log.Infof("created table %s with %d columns", name, len(cols))
	return Result{
		Kind:      KindCreate,
		Table:     name,
		Columns:   len(cols),
		RowSize:   cols.RowSize(),
		Statement: stmt,
	}, nil
}

func insertResult(stmt *ast.Insert) Result {
	size := 0
	for _, v := range stmt.Values {
		size += v.Value.Value.Len()
	}
	return Result{
		Kind:      KindInsert,
		Table:     stmt.TableName(),
		Columns:   stmt.Len(),
		RowSize:   size,
		Statement: stmt,
	}
}

// Tables returns the table names in sorted order.
func (s *Session) Tables() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat.TableNames()
}

// Describe returns the columns of table in declaration order.
func (s *Session) Describe(table string) ([]catalog.Column, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cols, ok := s.cat.Lookup(table)
	if !ok {
		return nil, false
	}
	return cols.Ordered(), true
}

// Catalog returns a copy of the current catalog.
func (s *Session) Catalog() catalog.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat.Clone()
}

// Reset forgets every table. The store is left untouched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cat = catalog.New()
}

// leadingKeyword returns the first word of in, lower-cased.
func leadingKeyword(in span.Input) string {
	rest := strings.TrimLeft(in.Rest(), " \t\r\n")
	end := 0
	for end < len(rest) && isLetter(rest[end]) {
		end++
	}
	return strings.ToLower(rest[:end])
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
