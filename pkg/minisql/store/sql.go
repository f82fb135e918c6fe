package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	// Database drivers registered with database/sql.
	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	_ "modernc.org/sqlite"             // SQLite driver (pure Go, no CGO required)

	"github.com/sambeau/minisql/pkg/minisql/catalog"
	"github.com/sambeau/minisql/pkg/minisql/logging"
)

// SQLStore keeps the catalog in a minisql_columns table of a SQL database:
// one row per column.
type SQLStore struct {
	db     *sql.DB
	driver string
	log    *logging.Logger
}

// OpenSQL connects to the database and creates the catalog table if needed.
// For sqlite the source is a file path; for postgres and mysql a DSN.
func OpenSQL(driver, source string, log *logging.Logger) (*SQLStore, error) {
	dsn := source
	if driver == "sqlite" {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(source), 0755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
		dsn = source + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s catalog: %w", driver, err)
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to %s catalog: %w", driver, err)
	}

	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	s := &SQLStore{db: db, driver: driver, log: log}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	log.Debugf("opened %s catalog", driver)
	return s, nil
}

// createSchema creates the catalog table if it doesn't exist.
func (s *SQLStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS minisql_columns (
			table_name VARCHAR(128) NOT NULL,
			column_name VARCHAR(128) NOT NULL,
			position INTEGER NOT NULL,
			column_type VARCHAR(64) NOT NULL,
			PRIMARY KEY (table_name, column_name)
		)`
	_, err := s.db.Exec(schema)
	return err
}

// rebind rewrites ? placeholders for drivers that number them.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *SQLStore) Load(ctx context.Context) (catalog.Catalog, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT table_name, column_name, column_type FROM minisql_columns ORDER BY table_name, position")
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	defer rows.Close()

	tables := map[string][]catalog.Column{}
	var order []string
	for rows.Next() {
		var table, name, typ string
		if err := rows.Scan(&table, &name, &typ); err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		col, err := typeColumn(table, name, typ)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		if _, seen := tables[table]; !seen {
			order = append(order, table)
		}
		tables[table] = append(tables[table], col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	cat := catalog.New()
	for _, table := range order {
		if err := cat.Define(table, tables[table]); err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
	}
	s.log.Debugf("loaded %d tables from %s catalog", len(cat), s.driver)
	return cat, nil
}

func (s *SQLStore) SaveTable(ctx context.Context, name string, columns []catalog.Column) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save table %s: %w", name, err)
	}
	defer tx.Rollback()

	var n int
	err = tx.QueryRowContext(ctx, s.rebind("SELECT COUNT(*) FROM minisql_columns WHERE table_name = ?"), name).Scan(&n)
	if err != nil {
		return fmt.Errorf("save table %s: %w", name, err)
	}
	if n > 0 {
		return existsError(name)
	}

	insert := s.rebind("INSERT INTO minisql_columns (table_name, column_name, position, column_type) VALUES (?, ?, ?, ?)")
	for i, col := range columns {
		if _, err := tx.ExecContext(ctx, insert, name, col.Name, i, col.Type.String()); err != nil {
			return fmt.Errorf("save table %s: %w", name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save table %s: %w", name, err)
	}
	s.log.Debugf("saved table %s to %s catalog", name, s.driver)
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
