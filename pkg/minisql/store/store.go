// Package store keeps catalogs between sessions.
//
// The parsers never touch a store; a session saves each accepted table
// definition and loads the catalog back when it starts.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/sambeau/minisql/config"
	"github.com/sambeau/minisql/pkg/minisql/catalog"
	"github.com/sambeau/minisql/pkg/minisql/errors"
	"github.com/sambeau/minisql/pkg/minisql/logging"
	"github.com/sambeau/minisql/pkg/minisql/parser"
)

// Store persists table definitions.
type Store interface {
	// Load returns every saved table.
	Load(ctx context.Context) (catalog.Catalog, error)
	// SaveTable records a new table. Saving a table that already exists
	// fails with errors.ErrTableExists.
	SaveTable(ctx context.Context, name string, columns []catalog.Column) error
	Close() error
}

// Open returns the store selected by cfg.
func Open(cfg config.CatalogConfig, log *logging.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "file":
		return NewFileStore(cfg.Path, log), nil
	}

	source := cfg.DSN
	switch cfg.Driver {
	case "sqlite":
		source = cfg.Path
	case "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unknown catalog driver %q", cfg.Driver)
	}
	s, err := OpenSQL(cfg.Driver, source, log)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Memory keeps tables for the life of the process.
type Memory struct {
	mu     sync.Mutex
	tables catalog.Catalog
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: catalog.New()}
}

// NewMemoryFrom returns an in-memory store holding a copy of cat. Tables
// created through it never reach the store cat was loaded from.
func NewMemoryFrom(cat catalog.Catalog) *Memory {
	return &Memory{tables: cat.Clone()}
}

func (m *Memory) Load(ctx context.Context) (catalog.Catalog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.Clone(), nil
}

func (m *Memory) SaveTable(ctx context.Context, name string, columns []catalog.Column) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tables.Define(name, columns)
}

func (m *Memory) Close() error { return nil }

// typeColumn rebuilds a column from its stored type text.
func typeColumn(table, name, typ string) (catalog.Column, error) {
	t, err := parser.ParseType(typ)
	if err != nil {
		return catalog.Column{}, fmt.Errorf("table %s column %s: bad type %q: %w", table, name, typ, err)
	}
	return catalog.Column{Name: name, Type: t}, nil
}

// existsError reports a table that is already saved.
func existsError(name string) error {
	return fmt.Errorf("save table %s: %w", name, errors.ErrTableExists)
}
