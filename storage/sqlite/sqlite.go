package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	// Registers the pure Go "sqlite" driver.
	_ "modernc.org/sqlite"

	"github.com/pitabwire/userlocale/storage"
)

const (
	driverName    = "sqlite"
	dirPermission = 0o700
	pragmas       = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
)

var invalidTableChars = regexp.MustCompile(`[^a-zA-Z0-9_]`)

// Store keeps entries in a single table of a local SQLite database file.
type Store struct {
	db    *sql.DB
	table string
}

// New opens (creating if needed) the database file named by a sqlite:// or file:// DSN.
// The special path ":memory:" gives a private in-process database.
func New(ctx context.Context, opts ...storage.Option) (storage.RawStore, error) {
	storeOpts := storage.NewOptions(opts...)

	path := storeOpts.DSN.FilePath()
	if path == "" || path == "." {
		return nil, errors.New("sqlite: a database path is required")
	}

	source := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), dirPermission); err != nil {
			return nil, fmt.Errorf("sqlite: could not create database directory: %w", err)
		}
		source = path + pragmas
	}

	db, err := sql.Open(driverName, source)
	if err != nil {
		return nil, err
	}
	// One writer at a time keeps SQLite away from SQLITE_BUSY under the WAL journal,
	// and a single connection keeps :memory: databases alive between calls.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:    db,
		table: TableName(storeOpts.Name),
	}

	if err = s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// TableName derives the key value table name from a store name.
func TableName(name string) string {
	return invalidTableChars.ReplaceAllString(name, "_") + "_kv"
}

func (s *Store) migrate(ctx context.Context) error {
	//nolint:gosec // table name is sanitised by TableName
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`, s.table)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sqlite: could not create table %s: %w", s.table, err)
	}
	return nil
}

// Get retrieves an item from the table.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	//nolint:gosec // table name is sanitised by TableName
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT value FROM %s WHERE key = ?`, s.table), key)

	var value []byte
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if value == nil {
		value = []byte{}
	}
	return value, true, nil
}

// Set upserts an item.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}

	//nolint:gosec // table name is sanitised by TableName
	query := fmt.Sprintf(`INSERT INTO %s (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, s.table)

	_, err := s.db.ExecContext(ctx, query, key, value, time.Now().UnixMilli())
	return err
}

// Delete removes an item from the table.
func (s *Store) Delete(ctx context.Context, key string) error {
	//nolint:gosec // table name is sanitised by TableName
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table), key)
	return err
}

// Exists checks if a key exists in the table.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	//nolint:gosec // table name is sanitised by TableName
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(1) FROM %s WHERE key = ?`, s.table), key)

	var count int
	if err := row.Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
