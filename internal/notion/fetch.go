package notion

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

const (
	// DefaultPageSize is the page size sent with every query.
	DefaultPageSize = 10
	// DefaultMaxPages bounds pagination against a source that never stops
	// returning a cursor.
	DefaultMaxPages = 10000
)

// FetchFunc performs one paginated query round-trip. cursor is zero on the
// first call. The returned document must be a "list" object.
type FetchFunc func(ctx context.Context, pageSize int, cursor Cursor) (any, error)

// Fetcher drives a FetchFunc until the source stops returning a cursor.
type Fetcher struct {
	fetch    FetchFunc
	mapper   *Mapper
	pageSize int
	maxPages int
	log      *zap.Logger

	pages int
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithPageSize overrides DefaultPageSize. Non-positive values are ignored.
func WithPageSize(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.pageSize = n
		}
	}
}

// WithMaxPages overrides DefaultMaxPages. Non-positive values are ignored.
func WithMaxPages(n int) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxPages = n
		}
	}
}

// WithLogger sets the logger used for per-page progress lines.
func WithLogger(l *zap.Logger) FetcherOption {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFetcher returns a Fetcher that maps every page with mapper.
func NewFetcher(fetch FetchFunc, mapper *Mapper, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		fetch:    fetch,
		mapper:   mapper,
		pageSize: DefaultPageSize,
		maxPages: DefaultMaxPages,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Pages returns how many pages the latest Each or FetchAll call fetched.
func (f *Fetcher) Pages() int { return f.pages }

// fetchState is the pagination state machine: Continue(cursor) until done.
type fetchState struct {
	cursor Cursor
	done   bool
}

// Each fetches pages in order and calls fn for every mapped record, in
// page-arrival then within-page order. It stops at the first error from the
// source, the mapper, or fn. Records of earlier pages have already been
// handed to fn when a later page fails.
func (f *Fetcher) Each(ctx context.Context, fn func(Record) error) error {
	if f.fetch == nil {
		return fmt.Errorf("%w: fetch function must not be nil", ErrTransport)
	}

	// The page limit applies per run.
	f.pages = 0
	st := fetchState{}
	for !st.done {
		if err := ctx.Err(); err != nil {
			return err
		}
		if f.pages >= f.maxPages {
			return fmt.Errorf("%w: stopped after %d pages", ErrPageLimit, f.pages)
		}

		doc, err := f.fetch(ctx, f.pageSize, st.cursor)
		if err != nil {
			return fmt.Errorf("%w: page %d: %w", ErrTransport, f.pages+1, err)
		}
		f.pages++

		page, err := f.mapper.MapPage(doc)
		if err != nil {
			return fmt.Errorf("page %d: %w", f.pages, err)
		}
		f.log.Info("fetched page",
			zap.Int("page", f.pages),
			zap.Int("records", len(page.Records)),
			zap.Bool("has_more", page.HasMore),
		)

		for _, rec := range page.Records {
			if err := fn(rec); err != nil {
				return err
			}
		}

		if page.NextCursor.IsZero() {
			st = fetchState{done: true}
		} else {
			st = fetchState{cursor: page.NextCursor}
		}
	}

	f.log.Info("fetched all pages", zap.Int("pages", f.pages))
	return nil
}

// FetchAll collects every record. On error no records are returned.
func (f *Fetcher) FetchAll(ctx context.Context) ([]Record, error) {
	var out []Record
	err := f.Each(ctx, func(r Record) error {
		out = append(out, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
