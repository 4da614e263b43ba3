// Package etl runs one snapshot: it reads a Notion database schema, creates
// the destination tables, then streams every page of query results into
// them.
package etl

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"notionsqlite/internal/config"
	"notionsqlite/internal/datasource"
	"notionsqlite/internal/datasource/file"
	"notionsqlite/internal/datasource/notionapi"
	"notionsqlite/internal/metrics"
	"notionsqlite/internal/notion"
	"notionsqlite/internal/sink"
	"notionsqlite/internal/storage"
)

// Summary reports what a run did. It is returned even when the run fails
// part way, with the counts reached so far.
type Summary struct {
	RunID             string
	Job               string
	Pages             int
	Fetched           int
	Inserted          int
	DroppedItems      int
	DroppedProperties int
	Duplicates        int
	Duration          time.Duration
}

// Deps carries collaborators that tests and embedding programs may replace.
// The zero value builds everything from the pipeline config.
type Deps struct {
	Logger *zap.Logger
	// Source replaces the source described by cfg.Source.
	Source datasource.Database
	// Transport is the HTTP round tripper for the Notion API client.
	Transport http.RoundTripper
	// OpenRepository replaces storage.New.
	OpenRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
}

var newRunID = func() string { return uuid.New().String() }

// Run executes cfg. Each step is timed with metrics.RecordStep under the
// names "source", "schema", "prepare" and "load".
func Run(ctx context.Context, cfg config.Pipeline, deps Deps) (Summary, error) {
	start := time.Now()
	sum := Summary{RunID: newRunID(), Job: cfg.Job}

	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", sum.RunID), zap.String("job", cfg.Job))

	policy := notion.PolicyLenient
	if cfg.Mapping.Strict {
		policy = notion.PolicyStrict
	}

	finish := func(err error) (Summary, error) {
		sum.Duration = time.Since(start)
		recordSummary(sum)
		if err != nil {
			log.Error("run failed", zap.Error(err), zap.Int("inserted", sum.Inserted))
			return sum, err
		}
		log.Info("run complete",
			zap.Int("pages", sum.Pages),
			zap.Int("fetched", sum.Fetched),
			zap.Int("inserted", sum.Inserted),
			zap.Int("dropped_items", sum.DroppedItems),
			zap.Int("dropped_properties", sum.DroppedProperties),
			zap.Int("duplicates", sum.Duplicates),
			zap.Duration("duration", sum.Duration),
		)
		return sum, nil
	}

	// 1) Source
	src := deps.Source
	if src == nil {
		err := timed(cfg.Job, "source", func() (err error) {
			src, err = openSource(cfg, deps.Transport, log)
			return err
		})
		if err != nil {
			return finish(err)
		}
	}

	// 2) Schema
	var schema notion.Schema
	err := timed(cfg.Job, "schema", func() error {
		doc, err := src.Schema(ctx)
		if err != nil {
			return fmt.Errorf("etl: fetch schema: %w", err)
		}
		schema, err = notion.SchemaParser{Policy: policy, Logger: log}.Parse(doc)
		if err != nil {
			return fmt.Errorf("etl: parse schema: %w", err)
		}
		return nil
	})
	if err != nil {
		return finish(err)
	}
	log.Info("schema parsed", zap.Int("properties", schema.Len()), zap.Strings("names", schema.SortedNames()))

	// 3) Storage and tables
	var (
		repo storage.Repository
		sk   *sink.Sink
	)
	err = timed(cfg.Job, "prepare", func() (err error) {
		repo, err = openRepository(ctx, cfg.Storage, deps)
		if err != nil {
			return fmt.Errorf("etl: open storage: %w", err)
		}
		db := cfg.Storage.DB
		sk, err = sink.New(repo, repo.Dialect(), schema, sink.Options{
			PropertiesTable: db.PropertiesTable,
			MetadataTable:   db.MetadataTable,
			IDColumn:        db.IDColumn,
			DropExisting:    db.Overwrite,
			Logger:          log,
		})
		if err != nil {
			return err
		}
		return sk.CreateTables(ctx)
	})
	if repo != nil {
		defer repo.Close()
	}
	if err != nil {
		return finish(err)
	}

	// 4) Stream pages into the sink
	mapper := notion.NewMapper(schema, policy, log)
	n := cfg.Source.Notion
	fetcher := notion.NewFetcher(src.Fetch, mapper,
		notion.WithPageSize(n.PageSize),
		notion.WithMaxPages(n.MaxPages),
		notion.WithLogger(log),
	)
	// Pages and records are handled one at a time: a record is written
	// before the next one is read, and the next page is requested only
	// after every record of the current page is stored.
	var seen idSet
	err = timed(cfg.Job, "load", func() error {
		return fetcher.Each(ctx, func(rec notion.Record) error {
			sum.Fetched++
			if cfg.Runtime.DedupeIDs && !seen.add(rec.ID) {
				sum.Duplicates++
				log.Debug("skipping duplicate page", zap.String("page_id", rec.ID))
				return nil
			}
			return sk.Insert(ctx, rec)
		})
	})

	st := mapper.Stats()
	sum.Pages = fetcher.Pages()
	sum.Inserted = sk.Inserted()
	sum.DroppedItems = st.DroppedItems
	sum.DroppedProperties = st.DroppedProperties
	return finish(err)
}

func openSource(cfg config.Pipeline, transport http.RoundTripper, log *zap.Logger) (datasource.Database, error) {
	switch cfg.Source.Kind {
	case "notion":
		n := cfg.Source.Notion
		timeout, err := n.TimeoutDuration()
		if err != nil {
			return nil, err
		}
		c, err := notionapi.New(notionapi.Config{
			BaseURL:       n.BaseURL,
			APIKey:        n.ResolveAPIKey(),
			NotionVersion: n.NotionVersion,
			Timeout:       timeout,
			MaxRetries:    n.MaxRetries,
			Transport:     transport,
			Logger:        log,
		})
		if err != nil {
			return nil, err
		}
		return c.Database(n.DatabaseID, n.Filter), nil
	case "file":
		return file.OpenReplay(cfg.Source.File.Schema, cfg.Source.File.Pages)
	default:
		return nil, fmt.Errorf("etl: unsupported source.kind=%s", cfg.Source.Kind)
	}
}

func openRepository(ctx context.Context, s config.Storage, deps Deps) (storage.Repository, error) {
	open := deps.OpenRepository
	if open == nil {
		open = storage.New
	}
	return open(ctx, storage.Config{
		Kind:      s.Kind,
		DSN:       s.DB.DSN,
		Overwrite: s.DB.Overwrite,
	})
}

func timed(job, step string, fn func() error) error {
	t0 := time.Now()
	err := fn()
	metrics.RecordStep(job, step, err, time.Since(t0))
	return err
}

func recordSummary(s Summary) {
	metrics.RecordPages(s.Job, int64(s.Pages))
	metrics.RecordRow(s.Job, "fetched", int64(s.Fetched))
	metrics.RecordRow(s.Job, "inserted", int64(s.Inserted))
	metrics.RecordRow(s.Job, "dropped_items", int64(s.DroppedItems))
	metrics.RecordRow(s.Job, "dropped_properties", int64(s.DroppedProperties))
	metrics.RecordRow(s.Job, "duplicates", int64(s.Duplicates))
}

// idSet remembers page ids by their 64-bit xxh3 hash.
type idSet map[uint64]struct{}

// add reports whether id was not yet in the set.
func (s *idSet) add(id string) bool {
	if *s == nil {
		*s = make(idSet)
	}
	h := xxh3.HashString(id)
	if _, dup := (*s)[h]; dup {
		return false
	}
	(*s)[h] = struct{}{}
	return true
}
