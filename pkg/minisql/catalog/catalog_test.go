package catalog

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/span"
)

func def(name string, typ ast.ColumnType) ast.ColumnDef {
	return ast.ColumnDef{Name: span.Span{Fragment: name}, Type: ast.Spanned[ast.ColumnType]{Value: typ}}
}

func TestAdd(t *testing.T) {
	cat := New()
	err := cat.Add(&ast.CreateTable{
		Table: span.Span{Fragment: "users"},
		Columns: []ast.ColumnDef{
			def("name", ast.VarChar(20)),
			def("id", ast.Integer(ast.UInt32)),
		},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	cols, ok := cat.Lookup("users")
	if !ok {
		t.Fatal("users not found")
	}
	if got := cols.Names(); !reflect.DeepEqual(got, []string{"name", "id"}) {
		t.Errorf("Names() = %v", got)
	}
	if cols["id"].Position != 1 || cols["id"].Type != ast.Integer(ast.UInt32) {
		t.Errorf("id = %+v", cols["id"])
	}
	if cols.RowSize() != 24 {
		t.Errorf("RowSize() = %d, want 24", cols.RowSize())
	}
	if _, ok := cat.Lookup("Users"); ok {
		t.Error("table names are case-sensitive")
	}
}

func TestAddRejectsDuplicates(t *testing.T) {
	cat := New()
	stmt := &ast.CreateTable{
		Table:   span.Span{Fragment: "t", Offset: 13},
		Columns: []ast.ColumnDef{def("a", ast.Integer(ast.Int8))},
	}
	if err := cat.Add(stmt); err != nil {
		t.Fatalf("Add: %v", err)
	}

	err := cat.Add(stmt)
	var pe *errors.ParseError
	if !stderrors.As(err, &pe) || pe.Code() != "CATALOG-0003" {
		t.Fatalf("expected CATALOG-0003, got %v", err)
	}
	if pe.Cause.Span.Offset != 13 {
		t.Errorf("anchored at %d, want 13", pe.Cause.Span.Offset)
	}

	dupCol := &ast.CreateTable{
		Table: span.Span{Fragment: "u"},
		Columns: []ast.ColumnDef{
			def("a", ast.Integer(ast.Int8)),
			def("a", ast.VarChar(3)),
		},
	}
	if err := cat.Add(dupCol); !stderrors.Is(err, errors.ErrDuplicateColumn) {
		t.Errorf("expected duplicate column, got %v", err)
	}
	if _, ok := cat.Lookup("u"); ok {
		t.Error("a rejected table must not be registered")
	}
}

func TestDefineAndClone(t *testing.T) {
	cat := New()
	err := cat.Define("b", []Column{{Name: "x", Type: ast.Integer(ast.Int64)}, {Name: "y", Type: ast.VarChar(2)}})
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := cat.Define("a", nil); err != nil {
		t.Fatalf("Define: %v", err)
	}
	if err := cat.Define("a", nil); !stderrors.Is(err, errors.ErrTableExists) {
		t.Errorf("expected ErrTableExists, got %v", err)
	}
	if got := cat.TableNames(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("TableNames() = %v", got)
	}
	if cat["b"]["y"].Position != 1 {
		t.Errorf("y position = %d", cat["b"]["y"].Position)
	}

	clone := cat.Clone()
	delete(clone["b"], "x")
	if _, ok := cat["b"]["x"]; !ok {
		t.Error("Clone shares column maps")
	}
}
