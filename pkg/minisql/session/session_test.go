package session

import (
	"bytes"
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"

	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/catalog"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/logging"
	"github.com/sambeau/minisql/pkg/minisql/span"
	"github.com/sambeau/minisql/pkg/minisql/store"
)

const usersScript = `CREATE TABLE users (id uint32, name varchar(20));
INSERT INTO users (id, name) VALUES (1, 'ann');
INSERT INTO users (name, id) VALUES ('bob', 2);`

func TestExecScript(t *testing.T) {
	s := New(nil, nil)
	results, err := s.ExecScript(context.Background(), usersScript)
	if err != nil {
		t.Fatalf("ExecScript: %v", err)
	}

	var got []string
	for _, r := range results {
		got = append(got, r.String())
	}
	want := []string{
		"OK: table users (2 columns)",
		"OK: insert into users (2 values, 7 B)",
		"OK: insert into users (2 values, 7 B)",
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Error(diff)
	}
	if results[0].RowSize != 24 {
		t.Errorf("RowSize = %d, want 24", results[0].RowSize)
	}

	ins, ok := results[2].Statement.(*ast.Insert)
	if !ok {
		t.Fatalf("expected *ast.Insert, got %T", results[2].Statement)
	}
	if v, _ := ins.Get("id"); !v.Equal(ast.UintValue(ast.UInt32, 2)) {
		t.Errorf("id = %s, want 2", v)
	}
	if diff := deep.Equal(s.Tables(), []string{"users"}); diff != nil {
		t.Error(diff)
	}
}

func TestExecScriptStopsAtFirstFailure(t *testing.T) {
	src := usersScript + "\nINSERT INTO users (id, age) VALUES (3, 4);\nCREATE TABLE never (a int8);"
	s := New(nil, nil)
	results, err := s.ExecScript(context.Background(), src)
	if len(results) != 3 {
		t.Errorf("expected 3 results before the failure, got %d", len(results))
	}
	if !stderrors.Is(err, errors.ErrColumnNotFound) {
		t.Fatalf("expected column not found, got %v", err)
	}

	var pe *errors.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *errors.ParseError, got %T", err)
	}
	at := pe.Base().Span
	if at.Fragment != "age" || at.Offset != strings.Index(src, "age") || at.Line != 4 {
		t.Errorf("error anchored at %q offset %d line %d", at.Fragment, at.Offset, at.Line)
	}
	if _, ok := s.Describe("never"); ok {
		t.Error("statements after the failure must not run")
	}
}

func TestExecScriptComments(t *testing.T) {
	src := `-- users
CREATE TABLE users (
  id uint32, -- key
  name varchar(20)
) -- the users table
;
INSERT INTO users (id, name) VALUES (1, 'a--b') -- seed
;
INSERT INTO users (id, name) VALUES (2, 'cy') -- no semicolon`
	s := New(nil, nil)
	results, err := s.ExecScript(context.Background(), src)
	if err != nil {
		t.Fatalf("ExecScript: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	ins := results[1].Statement.(*ast.Insert)
	if v, _ := ins.Get("name"); v.String() != "'a--b'" {
		t.Errorf("name = %s, want 'a--b'", v)
	}

	// errors after a comment are still placed in the script
	bad := "CREATE TABLE t (a int8, -- first\n b float);"
	_, err = New(nil, nil).ExecScript(context.Background(), bad)
	var pe *errors.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *errors.ParseError, got %v", err)
	}
	if at := pe.Base().Span; at.Line != 2 || at.Offset != strings.Index(bad, "float") {
		t.Errorf("error at line %d offset %d", at.Line, at.Offset)
	}
}

func TestExecDispatch(t *testing.T) {
	ctx := context.Background()
	s := New(nil, nil)
	if _, err := s.Exec(ctx, "  create table t (a int8, b varchar(3))"); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := []struct {
		name string
		sql  string
		code string
	}{
		{"create twice", "CREATE TABLE t (c int8)", "CATALOG-0003"},
		{"duplicate column", "CREATE TABLE u (c int8, c int16)", "CATALOG-0004"},
		{"unknown table", "INSERT INTO tt (a) VALUES (1)", "CATALOG-0001"},
		{"value too long", "INSERT INTO t (a, b) VALUES (1, 'abcd')", "VALUE-0001"},
		{"neither statement", "SELECT * FROM t", "SYNTAX-0001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Exec(ctx, tt.sql)
			var pe *errors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *errors.ParseError, got %v", err)
			}
			if pe.Code() != tt.code {
				t.Errorf("code = %s, want %s (%v)", pe.Code(), tt.code, err)
			}
		})
	}

	res, err := s.Exec(ctx, "INSERT INTO t (b, a) VALUES ('xyz', -1)")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if res.Kind != KindInsert || res.Table != "t" || res.RowSize != 4 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestExecNeitherStatementReportsBoth(t *testing.T) {
	_, err := New(nil, nil).Exec(context.Background(), "DROP TABLE t")
	var pe *errors.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *errors.ParseError, got %v", err)
	}
	if len(pe.Alternatives) != 2 {
		t.Errorf("expected both grammars as alternatives, got %d", len(pe.Alternatives))
	}
}

func TestSessionPersistsTables(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.yaml")

	var logs bytes.Buffer
	log := logging.New(&logs, nil, "text", logging.LevelInfo)
	s, err := Open(ctx, store.NewFileStore(path, nil), log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.ExecScript(ctx, usersScript); err != nil {
		t.Fatalf("ExecScript: %v", err)
	}
	if !strings.Contains(logs.String(), "[INFO] created table users with 2 columns") {
		t.Errorf("missing log line:\n%s", logs.String())
	}

	// a new session over the same store sees the table and checks inserts
	// against it
	s2, err := Open(ctx, store.NewFileStore(path, nil), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	cols, ok := s2.Describe("users")
	if !ok || len(cols) != 2 || cols[1].Name != "name" {
		t.Fatalf("Describe(users) = %v, %v", cols, ok)
	}
	if _, err := s2.Exec(ctx, "INSERT INTO users (id, name) VALUES (5, 'cy')"); err != nil {
		t.Errorf("insert after reload: %v", err)
	}
}

type failingStore struct{ store.Store }

func (failingStore) Load(context.Context) (catalog.Catalog, error) { return catalog.New(), nil }

func (failingStore) SaveTable(context.Context, string, []catalog.Column) error {
	return stderrors.New("disk full")
}

func TestCreateRolledBackWhenSaveFails(t *testing.T) {
	s := New(failingStore{}, nil)
	_, err := s.Exec(context.Background(), "CREATE TABLE t (a int8)")
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected save error, got %v", err)
	}
	if len(s.Tables()) != 0 {
		t.Errorf("table kept after failed save: %v", s.Tables())
	}
}

func TestReset(t *testing.T) {
	s := New(nil, nil)
	if _, err := s.ExecScript(context.Background(), usersScript); err != nil {
		t.Fatal(err)
	}
	cat := s.Catalog()
	s.Reset()
	if len(s.Tables()) != 0 {
		t.Error("Reset must forget every table")
	}
	if _, ok := cat["users"]; !ok {
		t.Error("Catalog() must return a copy")
	}
}

func TestLeadingKeyword(t *testing.T) {
	tests := map[string]string{
		"CREATE TABLE t":   "create",
		"\n\t insert into": "insert",
		"Insert(":          "insert",
		"  ":               "",
		"42":               "",
	}
	for in, want := range tests {
		if got := leadingKeyword(span.New(in)); got != want {
			t.Errorf("leadingKeyword(%q) = %q, want %q", in, got, want)
		}
	}
}
