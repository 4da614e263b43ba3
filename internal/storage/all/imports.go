// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their factories with the storage package.
//
// Importing this package makes the following storage kinds available:
//
//   - "sqlite"   (notionsqlite/internal/storage/sqlite)
//   - "postgres" (notionsqlite/internal/storage/postgres)
//   - "mysql"    (notionsqlite/internal/storage/mysql)
//   - "mssql"    (notionsqlite/internal/storage/mssql)
//
// Typical usage:
//
//	import _ "notionsqlite/internal/storage/all"
//
//	repo, err := storage.New(ctx, storage.Config{Kind: "sqlite", DSN: "notion.db"})
//	if err != nil {
//	    // handle error
//	}
//	defer repo.Close()
package all

import (
	_ "notionsqlite/internal/storage/mssql"
	_ "notionsqlite/internal/storage/mysql"
	_ "notionsqlite/internal/storage/postgres"
	_ "notionsqlite/internal/storage/sqlite"
)
