// Package datasource defines where input documents come from. Concrete
// sources live in subpackages: notionapi talks to the Notion REST API and
// file replays documents saved on disk.
package datasource

import (
	"context"
	"io"

	"notionsqlite/internal/notion"
)

// Source opens a single byte stream, such as a saved JSON document.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Database yields the documents of one Notion database: its schema document
// and the pages of its query results.
type Database interface {
	// Schema returns the "database" document.
	Schema(ctx context.Context) (any, error)
	// Fetch returns the "list" document for the page starting at cursor
	// (zero for the first page). It has the notion.FetchFunc signature.
	Fetch(ctx context.Context, pageSize int, cursor notion.Cursor) (any, error)
}
