package store

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-test/deep"

	"github.com/sambeau/minisql/config"
	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/catalog"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/logging"
)

var usersColumns = []catalog.Column{
	{Name: "id", Type: ast.Integer(ast.UInt64)},
	{Name: "name", Type: ast.VarChar(40)},
	{Name: "balance", Type: ast.Integer(ast.Int128)},
}

// exercise runs the same save/load cycle against any store.
func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	cat, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load (empty): %v", err)
	}
	if len(cat) != 0 {
		t.Fatalf("expected an empty catalog, got %v", cat.TableNames())
	}

	if err := s.SaveTable(ctx, "users", usersColumns); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	if err := s.SaveTable(ctx, "audit", []catalog.Column{{Name: "msg", Type: ast.VarChar(200)}}); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	if err := s.SaveTable(ctx, "users", usersColumns); !stderrors.Is(err, errors.ErrTableExists) {
		t.Errorf("expected ErrTableExists, got %v", err)
	}

	cat, err = s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := deep.Equal(cat.TableNames(), []string{"audit", "users"}); diff != nil {
		t.Error(diff)
	}
	want := make([]catalog.Column, len(usersColumns))
	for i, c := range usersColumns {
		c.Position = i
		want[i] = c
	}
	if diff := deep.Equal(cat["users"].Ordered(), want); diff != nil {
		t.Error(diff)
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestMemoryFrom(t *testing.T) {
	cat := catalog.New()
	if err := cat.Define("users", usersColumns); err != nil {
		t.Fatal(err)
	}
	m := NewMemoryFrom(cat)
	if err := m.SaveTable(context.Background(), "audit", nil); err != nil {
		t.Fatalf("SaveTable: %v", err)
	}
	if _, ok := cat["audit"]; ok {
		t.Error("saving must not touch the source catalog")
	}
	loaded, _ := m.Load(context.Background())
	if diff := deep.Equal(loaded.TableNames(), []string{"audit", "users"}); diff != nil {
		t.Error(diff)
	}
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "catalog.yaml")
	s := NewFileStore(path, nil)
	exercise(t, s)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	for _, want := range []string{"tables:", "users:", "name: balance", "type: int128", "type: varchar(40)"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("snapshot missing %q:\n%s", want, data)
		}
	}

	// a second store over the same file sees the saved tables
	cat, err := NewFileStore(path, nil).Load(context.Background())
	if err != nil || len(cat) != 2 {
		t.Errorf("reload = %v, %v", cat.TableNames(), err)
	}
}

func TestFileStoreGzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml.gz")
	exercise(t, NewFileStore(path, nil))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		t.Error("snapshot is not gzip-compressed")
	}
}

func TestFileStoreBadType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := "tables:\n  t:\n    - name: a\n      type: float\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := NewFileStore(path, nil).Load(context.Background())
	if err == nil || !strings.Contains(err.Error(), `bad type "float"`) {
		t.Errorf("expected a bad type error, got %v", err)
	}
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	var logs bytes.Buffer
	s, err := OpenSQL("sqlite", path, logging.New(&logs, nil, "text", logging.LevelDebug))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer s.Close()

	exercise(t, s)
	if !strings.Contains(logs.String(), "[DEBUG] saved table users to sqlite catalog") {
		t.Errorf("missing debug log:\n%s", logs.String())
	}

	// reopening keeps the data
	s2, err := OpenSQL("sqlite", path, nil)
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	defer s2.Close()
	cat, err := s2.Load(context.Background())
	if err != nil || len(cat) != 2 {
		t.Errorf("reload = %v, %v", cat.TableNames(), err)
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: "postgres"}
	if got := pg.rebind("SELECT a FROM t WHERE b = ? AND c = ?"); got != "SELECT a FROM t WHERE b = $1 AND c = $2" {
		t.Errorf("rebind = %q", got)
	}
	my := &SQLStore{driver: "mysql"}
	if got := my.rebind("x = ?"); got != "x = ?" {
		t.Errorf("rebind = %q", got)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		cfg     config.CatalogConfig
		kind    string
		wantErr bool
	}{
		{config.CatalogConfig{Driver: "memory"}, "*store.Memory", false},
		{config.CatalogConfig{Driver: "file", Path: filepath.Join(dir, "c.yaml")}, "*store.FileStore", false},
		{config.CatalogConfig{Driver: "sqlite", Path: filepath.Join(dir, "c.db")}, "*store.SQLStore", false},
		{config.CatalogConfig{Driver: "oracle"}, "", true},
	}
	for _, tt := range tests {
		s, err := Open(tt.cfg, nil)
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%s) err = %v", tt.cfg.Driver, err)
			continue
		}
		if err != nil {
			continue
		}
		if got := typeName(s); got != tt.kind {
			t.Errorf("Open(%s) = %s, want %s", tt.cfg.Driver, got, tt.kind)
		}
		s.Close()
	}
}

func typeName(s Store) string {
	switch s.(type) {
	case *Memory:
		return "*store.Memory"
	case *FileStore:
		return "*store.FileStore"
	case *SQLStore:
		return "*store.SQLStore"
	}
	return "unknown"
}
