// Package sink persists mapped Notion records into a relational store.
//
// Two tables are written. The properties table has a primary-key id column
// plus one column per schema property; the metadata table has one row of
// page metadata per record. DDL and DML are rendered through the store's
// ddl.Dialect and every value is a bound parameter.
package sink

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"notionsqlite/internal/ddl"
	"notionsqlite/internal/notion"
	"notionsqlite/internal/storage"
)

// ErrStorage wraps every failure reported by the underlying store.
var ErrStorage = errors.New("sink: storage failure")

// Default table and column names.
const (
	DefaultPropertiesTable = "pages"
	DefaultMetadataTable   = "page_metadata"
	DefaultIDColumn        = "page_id"
)

// metadataColumns is the fixed layout of the metadata table.
var metadataColumns = []ddl.ColumnDef{
	{Name: "id", Type: ddl.TypeKey, PrimaryKey: true},
	{Name: "url", Type: ddl.TypeText},
	{Name: "created_time", Type: ddl.TypeText},
	{Name: "created_by", Type: ddl.TypeText},
	{Name: "last_edited_time", Type: ddl.TypeText},
	{Name: "last_edited_by", Type: ddl.TypeText},
	{Name: "archived", Type: ddl.TypeBool},
}

// Options configures a Sink. Zero values select the defaults.
type Options struct {
	PropertiesTable string
	MetadataTable   string
	IDColumn        string
	// DropExisting drops both tables before creating them.
	DropExisting bool
	Logger       *zap.Logger
}

// Sink writes records for one schema. It is not safe for concurrent use.
type Sink struct {
	exec    storage.Executor
	dialect ddl.Dialect
	schema  notion.Schema
	opt     Options
	log     *zap.Logger

	metaInsert string
	inserted   int
}

// New returns a Sink writing through exec using dialect d.
func New(exec storage.Executor, d ddl.Dialect, schema notion.Schema, opt Options) (*Sink, error) {
	if exec == nil {
		return nil, fmt.Errorf("sink: executor must not be nil")
	}
	if d == nil {
		return nil, fmt.Errorf("sink: dialect must not be nil")
	}
	if opt.PropertiesTable == "" {
		opt.PropertiesTable = DefaultPropertiesTable
	}
	if opt.MetadataTable == "" {
		opt.MetadataTable = DefaultMetadataTable
	}
	if opt.IDColumn == "" {
		opt.IDColumn = DefaultIDColumn
	}
	if opt.PropertiesTable == opt.MetadataTable {
		return nil, fmt.Errorf("sink: properties and metadata tables must differ, both are %q", opt.MetadataTable)
	}
	log := opt.Logger
	if log == nil {
		log = zap.NewNop()
	}

	cols := make([]string, len(metadataColumns))
	for i, c := range metadataColumns {
		cols[i] = c.Name
	}
	metaInsert, err := ddl.BuildInsertSQL(d, opt.MetadataTable, cols)
	if err != nil {
		return nil, fmt.Errorf("sink: %w", err)
	}

	return &Sink{
		exec:       exec,
		dialect:    d,
		schema:     schema,
		opt:        opt,
		log:        log,
		metaInsert: metaInsert,
	}, nil
}

// Inserted returns the number of records written so far.
func (s *Sink) Inserted() int { return s.inserted }

// PropertiesTableDef describes the properties table: the id column followed
// by one nullable column per schema property in name order.
func (s *Sink) PropertiesTableDef() ddl.TableDef {
	props := s.schema.Properties()
	cols := make([]ddl.ColumnDef, 0, len(props)+1)
	cols = append(cols, ddl.ColumnDef{Name: s.opt.IDColumn, Type: ddl.TypeKey, PrimaryKey: true})
	for _, p := range props {
		cols = append(cols, ddl.ColumnDef{Name: p.Name, Type: columnType(p.Type), Nullable: true})
	}
	return ddl.TableDef{FQN: s.opt.PropertiesTable, Columns: cols}
}

// MetadataTableDef describes the page metadata table.
func (s *Sink) MetadataTableDef() ddl.TableDef {
	return ddl.TableDef{FQN: s.opt.MetadataTable, Columns: append([]ddl.ColumnDef(nil), metadataColumns...)}
}

// CreateTables creates both tables. Existing tables are an error unless
// Options.DropExisting is set.
func (s *Sink) CreateTables(ctx context.Context) error {
	defs := []ddl.TableDef{s.PropertiesTableDef(), s.MetadataTableDef()}

	if s.opt.DropExisting {
		for _, t := range defs {
			if err := s.exec.Exec(ctx, ddl.BuildDropTableSQL(s.dialect, t.FQN)); err != nil {
				return fmt.Errorf("%w: drop %s: %w", ErrStorage, t.FQN, err)
			}
		}
	}

	for _, t := range defs {
		stmt, err := ddl.BuildCreateTableSQL(s.dialect, t)
		if err != nil {
			return fmt.Errorf("sink: table %s: %w", t.FQN, err)
		}
		if err := s.exec.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: create %s: %w", ErrStorage, t.FQN, err)
		}
		s.log.Debug("created table", zap.String("table", t.FQN), zap.Int("columns", len(t.Columns)))
	}
	return nil
}

// Insert writes rec into both tables. Properties absent from the record are
// left NULL.
func (s *Sink) Insert(ctx context.Context, rec notion.Record) error {
	names := make([]string, 0, len(rec.Properties))
	for _, n := range s.schema.SortedNames() {
		if _, ok := rec.Properties[n]; ok {
			names = append(names, n)
		}
	}
	if len(names) != len(rec.Properties) {
		return fmt.Errorf("sink: page %s has properties outside the schema", rec.ID)
	}

	cols := make([]string, 0, len(names)+1)
	args := make([]any, 0, len(names)+1)
	cols = append(cols, s.opt.IDColumn)
	args = append(args, rec.ID)
	for _, n := range names {
		cols = append(cols, n)
		args = append(args, rec.Properties[n].SQLValue())
	}

	stmt, err := ddl.BuildInsertSQL(s.dialect, s.opt.PropertiesTable, cols)
	if err != nil {
		return fmt.Errorf("sink: %w", err)
	}
	if err := s.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("%w: insert page %s: %w", ErrStorage, rec.ID, err)
	}

	if err := s.exec.Exec(ctx, s.metaInsert,
		rec.ID,
		rec.URL,
		rec.CreatedTime,
		string(rec.CreatedBy),
		rec.LastEditedTime,
		string(rec.LastEditedBy),
		rec.Archived,
	); err != nil {
		return fmt.Errorf("%w: insert metadata %s: %w", ErrStorage, rec.ID, err)
	}

	s.inserted++
	s.log.Debug("inserted page", zap.String("page_id", rec.ID), zap.Int("properties", len(names)))
	return nil
}

// InsertAll inserts recs in order and stops at the first failure.
func (s *Sink) InsertAll(ctx context.Context, recs []notion.Record) error {
	for _, r := range recs {
		if err := s.Insert(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func columnType(t notion.PropertyType) ddl.LogicalType {
	if t == notion.PropertyNumber {
		return ddl.TypeReal
	}
	return ddl.TypeText
}
