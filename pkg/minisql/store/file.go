package store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/gzip"
	"gopkg.in/yaml.v3"

	"github.com/sambeau/minisql/pkg/minisql/catalog"
	"github.com/sambeau/minisql/pkg/minisql/logging"
)

// snapshot is the on-disk form of a catalog.
type snapshot struct {
	Tables map[string][]snapshotColumn `yaml:"tables"`
}

type snapshotColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// FileStore keeps the catalog in a YAML file, gzip-compressed when the
// path ends in ".gz". The file is rewritten on every save.
type FileStore struct {
	mu   sync.Mutex
	path string
	log  *logging.Logger
}

// NewFileStore returns a store backed by the file at path. The file is
// created on the first save.
func NewFileStore(path string, log *logging.Logger) *FileStore {
	return &FileStore{path: path, log: log}
}

func (f *FileStore) compressed() bool {
	return strings.HasSuffix(f.path, ".gz")
}

func (f *FileStore) Load(ctx context.Context) (catalog.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.read()
	if err != nil {
		return nil, err
	}

	cat := catalog.New()
	for table, cols := range snap.Tables {
		columns := make([]catalog.Column, 0, len(cols))
		for _, c := range cols {
			col, err := typeColumn(table, c.Name, c.Type)
			if err != nil {
				return nil, fmt.Errorf("loading %s: %w", f.path, err)
			}
			columns = append(columns, col)
		}
		if err := cat.Define(table, columns); err != nil {
			return nil, fmt.Errorf("loading %s: %w", f.path, err)
		}
	}
	f.log.Debugf("loaded %d tables from %s", len(cat), f.path)
	return cat, nil
}

func (f *FileStore) SaveTable(ctx context.Context, name string, columns []catalog.Column) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snap, err := f.read()
	if err != nil {
		return err
	}
	if _, exists := snap.Tables[name]; exists {
		return existsError(name)
	}

	cols := make([]snapshotColumn, len(columns))
	for i, c := range columns {
		cols[i] = snapshotColumn{Name: c.Name, Type: c.Type.String()}
	}
	snap.Tables[name] = cols

	if err := f.write(snap); err != nil {
		return err
	}
	f.log.Debugf("saved table %s to %s", name, f.path)
	return nil
}

func (f *FileStore) Close() error { return nil }

// read returns the current snapshot, or an empty one if the file does not
// exist yet.
func (f *FileStore) read() (*snapshot, error) {
	snap := &snapshot{Tables: map[string][]snapshotColumn{}}

	file, err := os.Open(f.path)
	if os.IsNotExist(err) {
		return snap, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening catalog file: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	if f.compressed() {
		gz, err := gzip.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f.path, err)
		}
		defer gz.Close()
		r = gz
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if err := yaml.Unmarshal(data, snap); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", f.path, err)
	}
	if snap.Tables == nil {
		snap.Tables = map[string][]snapshotColumn{}
	}
	return snap, nil
}

// write replaces the file with snap through a temporary file in the same
// directory.
func (f *FileStore) write(snap *snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}

	if f.compressed() {
		var buf bytes.Buffer
		gz := gzip.NewWriter(&buf)
		if _, err := gz.Write(data); err != nil {
			return fmt.Errorf("compressing catalog: %w", err)
		}
		if err := gz.Close(); err != nil {
			return fmt.Errorf("compressing catalog: %w", err)
		}
		data = buf.Bytes()
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating catalog directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".catalog-*")
	if err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing catalog: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing catalog: %w", err)
	}
	return nil
}
