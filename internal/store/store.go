// Package store persists the three lifecycle namespaces — completed-control
// history, suspended controls, controlled-dossier markers — in an embedded
// SQLite database. Each namespace is written back in full on every mutation:
// a whole new set is computed first, then swapped in inside one transaction,
// so a failure never leaves a partially written namespace behind.
package store

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// Timestamps are stored as RFC 3339 strings.
const timeLayout = "2006-01-02T15:04:05Z07:00"

// Store is the SQLite-backed lifecycle store.
type Store struct {
	db *sql.DB
}

// New opens (and if needed creates) the database at dbPath and applies the
// schema.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Single connection keeps SQLite happy under the single-editor model.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema.sql: %w", err)
	}
	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// replaceNamespace runs fn inside a transaction after clearing table. fn
// inserts the full new content; any error rolls the whole swap back.
func (s *Store) replaceNamespace(table string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM " + table); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear %s: %w", table, err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", table, err)
	}
	return nil
}
