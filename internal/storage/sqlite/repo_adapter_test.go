package sqlite

import (
	"context"
	"testing"

	"notionsqlite/internal/storage"
	sqliteddl "notionsqlite/internal/storage/sqlite/ddl"
)

// TestSQLiteStorageRegistrationUsesNewRepositoryHook verifies that the
// "sqlite" storage backend registered in init() uses the newRepository hook
// and that Close reaches the cleanup function.
//
// Not parallel: it swaps a package-level hook.
func TestSQLiteStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	ctx := context.Background()

	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		called bool
		gotCfg Config
		closed bool
	)

	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		called = true
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	cfg := storage.Config{
		Kind:      "sqlite",
		DSN:       "file:test.db?mode=memory&cache=shared",
		Overwrite: true,
	}

	repo, err := storage.New(ctx, cfg)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}

	if !called {
		t.Fatalf("newRepository hook was not called")
	}
	if gotCfg.DSN != cfg.DSN {
		t.Errorf("hook cfg.DSN = %q, want %q", gotCfg.DSN, cfg.DSN)
	}
	if !gotCfg.Overwrite {
		t.Errorf("hook cfg.Overwrite = false, want true")
	}

	if _, ok := repo.Dialect().(sqliteddl.Dialect); !ok {
		t.Fatalf("Dialect() = %T, want sqlite dialect", repo.Dialect())
	}

	repo.Close()
	if !closed {
		t.Fatalf("repo.Close() did not invoke closeFn")
	}
}
