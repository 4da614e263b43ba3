package mysql

import (
	"context"
	"testing"

	"notionsqlite/internal/storage"
)

// Not parallel: it swaps a package-level hook.
func TestMySQLStorageRegistrationUsesNewRepositoryHook(t *testing.T) {
	origNewRepository := newRepository
	defer func() { newRepository = origNewRepository }()

	var (
		gotCfg Config
		closed bool
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{}, func() { closed = true }, nil
	}

	cfg := storage.Config{Kind: "mysql", DSN: "user:pass@tcp(localhost:3306)/notion"}
	repo, err := storage.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if gotCfg.DSN != cfg.DSN {
		t.Errorf("hook cfg.DSN = %q, want %q", gotCfg.DSN, cfg.DSN)
	}
	if got := repo.Dialect().QuoteIdent("a`b"); got != "`a``b`" {
		t.Errorf("Dialect().QuoteIdent = %q", got)
	}

	repo.Close()
	if !closed {
		t.Fatalf("repo.Close() did not invoke closeFn")
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "no-slash-here"}); err == nil {
		t.Fatalf("NewRepository(bad dsn) error = nil, want error")
	}
}
