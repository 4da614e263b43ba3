package sqlite

import (
	"context"

	"notionsqlite/internal/storage"
	sqliteddl "notionsqlite/internal/storage/sqlite/ddl"
)

// newRepository is swapped in tests to avoid touching the filesystem.
var newRepository = NewRepository

func init() {
	storage.Register(sqliteddl.Kind, func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{DSN: cfg.DSN, Overwrite: cfg.Overwrite})
		if err != nil {
			return nil, err
		}
		return storage.WithClose(r, closeFn), nil
	})
}
