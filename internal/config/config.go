// Package config defines the canonical configuration model for a snapshot
// run. A Pipeline is decoded from a JSON or YAML file, completed with
// defaults, validated, and then passed through the program without
// additional glue code.
//
// Field names in Go mirror the document structure:
//
//	{
//	  "job":     "crm-snapshot",
//	  "source":  { "kind": "notion", "notion": { "database_id": "...", "api_key_env": "NOTION_API_KEY" } },
//	  "mapping": { "strict": false },
//	  "storage": { "kind": "sqlite", "db": { "dsn": "notion.db", "overwrite": true } },
//	  "runtime": { "dedupe_ids": true },
//	  "metrics": { "backend": "prompush", "options": { "url": "http://pushgateway:9091" } }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Pipeline describes one snapshot run. It is the top-level object decoded
// from a pipeline file.
type Pipeline struct {
	// Job names the run for logs and metrics labels.
	Job string `json:"job" yaml:"job"`

	// Source describes where the database documents come from.
	Source Source `json:"source" yaml:"source"`

	// Mapping controls how page items are turned into records.
	Mapping Mapping `json:"mapping" yaml:"mapping"`

	// Storage describes where records are written.
	Storage Storage       `json:"storage" yaml:"storage"`
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	Metrics Metrics       `json:"metrics" yaml:"metrics"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "notion" (the REST API) or
	// "file" (previously saved documents).
	Kind string `json:"kind" yaml:"kind"`

	Notion SourceNotion `json:"notion" yaml:"notion"`
	File   SourceFile   `json:"file" yaml:"file"`
}

// SourceNotion holds configuration for the "notion" source kind.
type SourceNotion struct {
	DatabaseID string `json:"database_id" yaml:"database_id"`

	// APIKey is the integration token. Prefer APIKeyEnv so the token stays
	// out of the pipeline file.
	APIKey    string `json:"api_key" yaml:"api_key"`
	APIKeyEnv string `json:"api_key_env" yaml:"api_key_env"`

	BaseURL       string `json:"base_url" yaml:"base_url"`
	NotionVersion string `json:"notion_version" yaml:"notion_version"`

	// PageSize is the number of items requested per query (1..100).
	PageSize int `json:"page_size" yaml:"page_size"`
	// MaxPages bounds pagination against a source that never stops
	// returning a cursor.
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// Timeout is a Go duration string (e.g., "30s") applied per request.
	Timeout    string `json:"timeout" yaml:"timeout"`
	MaxRetries int    `json:"max_retries" yaml:"max_retries"`

	// Filter is forwarded verbatim as the query "filter" object.
	Filter Options `json:"filter" yaml:"filter"`
}

// ResolveAPIKey returns APIKey, falling back to the APIKeyEnv variable.
func (s SourceNotion) ResolveAPIKey() string {
	if k := strings.TrimSpace(s.APIKey); k != "" {
		return k
	}
	if s.APIKeyEnv != "" {
		return strings.TrimSpace(os.Getenv(s.APIKeyEnv))
	}
	return ""
}

// TimeoutDuration parses Timeout. An empty value yields zero, which the
// transport replaces with its own default.
func (s SourceNotion) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(s.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config: source.notion.timeout: %w", err)
	}
	return d, nil
}

// SourceFile holds configuration for the "file" source kind: a saved
// database document plus a list file naming the saved query result pages in
// order (one path per line; blank lines and # comments are ignored).
type SourceFile struct {
	Schema string `json:"schema" yaml:"schema"`
	Pages  string `json:"pages" yaml:"pages"`
}

// Mapping controls the record mapper.
type Mapping struct {
	// Strict turns dropped items and unreadable properties into errors.
	Strict bool `json:"strict" yaml:"strict"`
}

// Storage selects the sink used to persist records.
type Storage struct {
	// Kind selects the storage backend: sqlite, postgres, mysql or mssql.
	Kind string   `json:"kind" yaml:"kind"`
	DB   DBConfig `json:"db" yaml:"db"`
}

// DBConfig configures the relational sink.
type DBConfig struct {
	// DSN is the backend connection string. For sqlite it is the output
	// file path.
	DSN string `json:"dsn" yaml:"dsn"`

	PropertiesTable string `json:"properties_table" yaml:"properties_table"`
	MetadataTable   string `json:"metadata_table" yaml:"metadata_table"`
	IDColumn        string `json:"id_column" yaml:"id_column"`

	// Overwrite replaces previous output: the sqlite file is removed and
	// both tables are dropped before they are created.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`
}

// RuntimeConfig controls run-time behavior that is not tied to a component.
type RuntimeConfig struct {
	// DedupeIDs skips records whose id was already written in this run.
	DedupeIDs bool `json:"dedupe_ids" yaml:"dedupe_ids"`
}

// Metrics selects the metrics backend and its options.
//
// Backends and their options:
//
//	none
//	prompush: url (string), grouping (object of strings)
//	datadog:  addr (string), namespace (string), tags (array of strings)
type Metrics struct {
	Backend string  `json:"backend" yaml:"backend"`
	Options Options `json:"options" yaml:"options"`
}

// Options is a small helper to fetch typed values from free-form maps. It
// performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64
// and YAML integers as int; both are accepted.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object
// whose values are strings. Non-string values are ignored. Returns an empty map
// when the key is missing or the value is not an object.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// StringSlice returns a []string for key when the value is an array of strings
// (or an array of interface values containing strings). Returns nil when the
// key is missing or the value is not an array.
func (o Options) StringSlice(key string) []string {
	if v, ok := o[key]; ok {
		switch vv := v.(type) {
		case []any:
			out := make([]string, 0, len(vv))
			for _, x := range vv {
				if s, ok := x.(string); ok {
					out = append(out, s)
				}
			}
			return out
		case []string:
			return vv
		}
	}
	return nil
}

// Any returns the raw value for key, which may itself be a nested map,
// slice or primitive.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON makes a missing or null options object decode to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}

// UnmarshalYAML is the YAML counterpart of UnmarshalJSON.
func (o *Options) UnmarshalYAML(n *yaml.Node) error {
	if n.Tag == "!!null" {
		*o = Options{}
		return nil
	}
	var tmp map[string]any
	if err := n.Decode(&tmp); err != nil {
		return err
	}
	if tmp == nil {
		tmp = map[string]any{}
	}
	*o = Options(tmp)
	return nil
}
