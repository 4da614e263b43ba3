package postgres

import (
	"context"

	"notionsqlite/internal/storage"
	pgddl "notionsqlite/internal/storage/postgres/ddl"
)

// newRepository is swapped in tests to avoid a real server connection.
var newRepository = NewRepository

// init registers the "postgres" backend. Overwrite is not applied here; the sink
// drops existing tables instead.
func init() {
	storage.Register(pgddl.Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN})
		if err != nil {
			return nil, err
		}
		return storage.WithClose(r, closeFn), nil
	})
}
