// Package sqlite implements a SQLite-backed storage.Repository.
package sqlite

import (
	"strings"
)

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "notion.db"
	//   "file:notion.db?_pragma=busy_timeout(5000)"
	//   ":memory:"
	DSN string

	// Overwrite removes an existing database file before opening it.
	// In-memory databases are always fresh and ignore it.
	Overwrite bool
}

// filePath returns the on-disk path named by the DSN, or "" for in-memory
// databases.
func (c Config) filePath() string {
	dsn := strings.TrimSpace(c.DSN)
	if dsn == "" || dsn == ":memory:" {
		return ""
	}
	if !strings.HasPrefix(dsn, "file:") {
		return dsn
	}
	path, query, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	if path == "" || path == ":memory:" || strings.Contains(query, "mode=memory") {
		return ""
	}
	return path
}
