// Package catalog holds the tables known to a session and their columns.
//
// A Catalog is built by adding accepted CREATE TABLE statements and is read
// by the INSERT parser. It does no locking; callers serialize Add against
// concurrent lookups.
package catalog

import (
	"fmt"
	"sort"

	"github.com/sambeau/minisql/pkg/minisql/ast"
	"github.com/sambeau/minisql/pkg/minisql/errors"
)

// Column describes one declared column.
type Column struct {
	Name     string
	Type     ast.ColumnType
	Position int // zero-based declaration order
}

// Columns maps column names to their descriptors for one table.
type Columns map[string]Column

// Names returns the column names in declaration order.
func (c Columns) Names() []string {
	ordered := c.Ordered()
	names := make([]string, len(ordered))
	for i, col := range ordered {
		names[i] = col.Name
	}
	return names
}

// Ordered returns the columns in declaration order.
func (c Columns) Ordered() []Column {
	cols := make([]Column, 0, len(c))
	for _, col := range c {
		cols = append(cols, col)
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].Position != cols[j].Position {
			return cols[i].Position < cols[j].Position
		}
		return cols[i].Name < cols[j].Name
	})
	return cols
}

// RowSize returns the stored size in bytes of a row with every text column
// at its maximum length.
func (c Columns) RowSize() int {
	n := 0
	for _, col := range c {
		if col.Type.Kind == ast.Text {
			n += col.Type.Size
		} else {
			n += col.Type.Kind.Bits() / 8
		}
	}
	return n
}

// Catalog maps table names to their columns.
type Catalog map[string]Columns

// New returns an empty catalog.
func New() Catalog {
	return make(Catalog)
}

// TableNames returns the table names sorted.
func (c Catalog) TableNames() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the columns of the named table.
func (c Catalog) Lookup(table string) (Columns, bool) {
	cols, ok := c[table]
	return cols, ok
}

// Add registers the table defined by stmt. A table that already exists or
// a column defined twice is reported at the offending name.
func (c Catalog) Add(stmt *ast.CreateTable) error {
	if _, exists := c[stmt.Table.Fragment]; exists {
		return errors.New("CATALOG-0003", stmt.Table, map[string]any{"Name": stmt.Table.Fragment})
	}

	cols := make(Columns, len(stmt.Columns))
	for i, def := range stmt.Columns {
		name := def.Name.Fragment
		if _, dup := cols[name]; dup {
			return errors.New("CATALOG-0004", def.Name, map[string]any{"Name": name})
		}
		cols[name] = Column{Name: name, Type: def.Type.Value, Position: i}
	}
	c[stmt.Table.Fragment] = cols
	return nil
}

// Define registers a table from already validated columns, as read back
// from a store. Positions are taken from the slice order.
func (c Catalog) Define(table string, columns []Column) error {
	if _, exists := c[table]; exists {
		return fmt.Errorf("define %s: %w", table, errors.ErrTableExists)
	}
	cols := make(Columns, len(columns))
	for i, col := range columns {
		if _, dup := cols[col.Name]; dup {
			return fmt.Errorf("define %s.%s: %w", table, col.Name, errors.ErrDuplicateColumn)
		}
		col.Position = i
		cols[col.Name] = col
	}
	c[table] = cols
	return nil
}

// Clone returns a deep copy of the catalog.
func (c Catalog) Clone() Catalog {
	out := make(Catalog, len(c))
	for table, cols := range c {
		copied := make(Columns, len(cols))
		for name, col := range cols {
			copied[name] = col
		}
		out[table] = copied
	}
	return out
}
