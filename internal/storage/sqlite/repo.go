// Package sqlite implements a SQLite-backed storage.Repository using
// database/sql and the pure-Go modernc.org/sqlite driver.
//
// A single connection is used: SQLite serializes writers anyway, and an
// in-memory database only exists on the connection that created it.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	gddl "notionsqlite/internal/ddl"
	sqliteddl "notionsqlite/internal/storage/sqlite/ddl"
)

// Repository is a SQLite-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a SQLite connection using the provided DSN and returns
// a Repository plus a Close function for cleanup. With cfg.Overwrite an
// existing database file is removed first.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	if path := cfg.filePath(); cfg.Overwrite && path != "" {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("sqlite: overwrite %s: %w", path, err)
		}
	}

	db, err := Open(cfg.DSN)
	if err != nil {
		return nil, nil, err
	}

	// Apply a basic ping with context to fail fast on invalid DSNs.
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// Open opens dsn with the modernc driver, limited to one connection.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// New wraps an already-open database handle.
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB exposes the underlying handle, mainly for queries in tests.
func (r *Repository) DB() *sql.DB { return r.db }

// Dialect returns the SQLite dialect.
func (r *Repository) Dialect() gddl.Dialect { return sqliteddl.Dialect{} }

// Exec executes a single SQL statement with bound arguments.
func (r *Repository) Exec(ctx context.Context, query string, args ...any) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// TableSQL returns the CREATE statement SQLite recorded for table.
func (r *Repository) TableSQL(ctx context.Context, table string) (string, error) {
	var s string
	err := r.db.QueryRowContext(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&s)
	if err != nil {
		return "", fmt.Errorf("sqlite: schema of %s: %w", table, err)
	}
	return s, nil
}
