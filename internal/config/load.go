package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultJob             = "notion-snapshot"
	DefaultAPIKeyEnv       = "NOTION_API_KEY"
	DefaultPageSize        = 10
	DefaultMaxPages        = 10000
	DefaultStorageKind     = "sqlite"
	DefaultDSN             = "notion.db"
	DefaultPropertiesTable = "pages"
	DefaultMetadataTable   = "page_metadata"
	DefaultIDColumn        = "page_id"
	DefaultMetricsBackend  = "none"
)

// Default returns a Pipeline with every default applied and no database id.
func Default() Pipeline {
	var p Pipeline
	p.ApplyDefaults()
	return p
}

// ApplyDefaults fills zero-valued fields. Booleans are left untouched.
func (p *Pipeline) ApplyDefaults() {
	if p.Job == "" {
		p.Job = DefaultJob
	}
	if p.Source.Kind == "" {
		p.Source.Kind = "notion"
	}
	n := &p.Source.Notion
	if n.APIKeyEnv == "" {
		n.APIKeyEnv = DefaultAPIKeyEnv
	}
	if n.PageSize == 0 {
		n.PageSize = DefaultPageSize
	}
	if n.MaxPages == 0 {
		n.MaxPages = DefaultMaxPages
	}
	if p.Storage.Kind == "" {
		p.Storage.Kind = DefaultStorageKind
	}
	db := &p.Storage.DB
	if db.DSN == "" && p.Storage.Kind == DefaultStorageKind {
		db.DSN = DefaultDSN
	}
	if db.PropertiesTable == "" {
		db.PropertiesTable = DefaultPropertiesTable
	}
	if db.MetadataTable == "" {
		db.MetadataTable = DefaultMetadataTable
	}
	if db.IDColumn == "" {
		db.IDColumn = DefaultIDColumn
	}
	if p.Metrics.Backend == "" {
		p.Metrics.Backend = DefaultMetricsBackend
	}
	if p.Metrics.Options == nil {
		p.Metrics.Options = Options{}
	}
}

// Load reads a pipeline file, decoding YAML for .yaml/.yml files and JSON
// otherwise, and applies defaults. Unknown fields are rejected.
func Load(path string) (Pipeline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var p Pipeline
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(b, &p)
	default:
		err = decodeJSON(b, &p)
	}
	if err != nil {
		return Pipeline{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	p.ApplyDefaults()
	return p, nil
}

func decodeJSON(b []byte, p *Pipeline) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(p)
}

func decodeYAML(b []byte, p *Pipeline) error {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
