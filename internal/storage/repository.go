// Package storage contains storage-agnostic contracts and the backend
// registry. Concrete backends live in subpackages and register themselves
// from init; import internal/storage/all to enable every built-in kind.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"notionsqlite/internal/ddl"
)

// Executor runs a single statement with bound arguments.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) error
}

// Repository is an open connection to a relational store.
type Repository interface {
	Executor
	// Dialect returns the SQL dialect used to render statements for this
	// store.
	Dialect() ddl.Dialect
	// Close releases the underlying connection. It is safe to call once.
	Close()
}

// Conn is an open backend handle without lifecycle management.
type Conn interface {
	Executor
	Dialect() ddl.Dialect
}

// WithClose turns c into a Repository whose Close calls closeFn at most
// once. A nil closeFn makes Close a no-op.
func WithClose(c Conn, closeFn func()) Repository {
	return &closingRepo{Conn: c, closeFn: closeFn}
}

type closingRepo struct {
	Conn
	once    sync.Once
	closeFn func()
}

func (r *closingRepo) Close() {
	r.once.Do(func() {
		if r.closeFn != nil {
			r.closeFn()
		}
	})
}

// Config is the storage-agnostic connection configuration handed to a
// backend Factory.
type Config struct {
	// Kind selects the backend, e.g. "sqlite", "postgres", "mysql", "mssql".
	Kind string
	// DSN is the backend-specific connection string. For SQLite it is a
	// file path or a "file:" URI.
	DSN string
	// Overwrite asks the backend to start from an empty store. SQLite
	// removes an existing database file; server backends leave it to the
	// caller to drop tables.
	Overwrite bool
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) the Factory for kind. It is typically
// called from a backend package's init function.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the Factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds in sorted order. The returned slice
// is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
