package file

import (
	"context"
	"fmt"
	"sync"

	"notionsqlite/internal/datasource"
	"notionsqlite/internal/notion"
)

// Replay serves previously saved Notion documents: one database document and
// the query result pages in the order they were saved. Each saved page
// carries its own next_cursor, so pagination ends where the saved run ended.
type Replay struct {
	schema datasource.Source
	pages  []datasource.Source

	mu   sync.Mutex
	next int
}

var _ datasource.Database = (*Replay)(nil)

// NewReplay returns a Replay over the given sources.
func NewReplay(schema datasource.Source, pages ...datasource.Source) *Replay {
	return &Replay{schema: schema, pages: pages}
}

// OpenReplay builds a Replay from a database document path and a page list
// file (see ReadPageList).
func OpenReplay(schemaPath, listPath string) (*Replay, error) {
	entries, err := ReadPageList(listPath)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("replay: page list %s is empty", listPath)
	}
	pages := make([]datasource.Source, len(entries))
	for i, e := range entries {
		pages[i] = NewLocal(e)
	}
	return NewReplay(NewLocal(schemaPath), pages...), nil
}

// Schema decodes the saved database document.
func (r *Replay) Schema(ctx context.Context) (any, error) {
	return decode(ctx, r.schema)
}

// Fetch decodes the next saved page. A zero cursor restarts from the first
// page; pageSize is ignored because the pages were sized when saved.
func (r *Replay) Fetch(ctx context.Context, _ int, cursor notion.Cursor) (any, error) {
	r.mu.Lock()
	if cursor.IsZero() {
		r.next = 0
	}
	if r.next >= len(r.pages) {
		r.mu.Unlock()
		return nil, fmt.Errorf("replay: no saved page for cursor %q", cursor)
	}
	src := r.pages[r.next]
	r.next++
	r.mu.Unlock()

	return decode(ctx, src)
}

func decode(ctx context.Context, src datasource.Source) (any, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	defer rc.Close()

	doc, err := notion.DecodeDocument(rc)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}
	return doc, nil
}
