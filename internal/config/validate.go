// This file adds a lightweight linter for Pipeline values. It performs
// static checks over a decoded Pipeline and returns a list of issues (errors
// and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
	"time"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "source.notion.page_size"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Errors returns only the issues with SeverityError.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			out = append(out, iss)
		}
	}
	return out
}

// maxPageSize is the largest page_size the Notion API accepts.
const maxPageSize = 100

// ValidatePipeline performs static validation of a Pipeline. It does not
// mutate the pipeline and does not read files or the environment beyond
// resolving the API key variable. Callers may decide whether to treat
// warnings as fatal.
func ValidatePipeline(p Pipeline) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateMetrics(p.Metrics)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "":
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	case "notion":
		issues = append(issues, validateNotion(s.Notion)...)
	case "file":
		if strings.TrimSpace(s.File.Schema) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.schema",
				Message:  "file source requires the path of a saved database document",
			})
		}
		if strings.TrimSpace(s.File.Pages) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.pages",
				Message:  "file source requires the path of a page list file",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q; want notion or file", s.Kind),
		})
	}
	return issues
}

func validateNotion(n SourceNotion) []Issue {
	var issues []Issue

	if strings.TrimSpace(n.DatabaseID) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.notion.database_id",
			Message:  "database_id must not be empty",
		})
	}
	if n.ResolveAPIKey() == "" {
		msg := "no api key: set api_key or api_key_env"
		if n.APIKeyEnv != "" {
			msg = fmt.Sprintf("no api key: environment variable %s is empty", n.APIKeyEnv)
		}
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.notion.api_key",
			Message:  msg,
		})
	}
	if n.APIKey != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.notion.api_key",
			Message:  "api key stored in the pipeline file; prefer api_key_env",
		})
	}
	if n.PageSize < 1 || n.PageSize > maxPageSize {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.notion.page_size",
			Message:  fmt.Sprintf("page_size=%d; must be between 1 and %d", n.PageSize, maxPageSize),
		})
	}
	if n.MaxPages < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.notion.max_pages",
			Message:  "max_pages must not be negative",
		})
	}
	if n.MaxRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.notion.max_retries",
			Message:  "max_retries must not be negative",
		})
	}
	if n.Timeout != "" {
		if d, err := time.ParseDuration(n.Timeout); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.notion.timeout",
				Message:  fmt.Sprintf("timeout %q is not a duration: %v", n.Timeout, err),
			})
		} else if d <= 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.notion.timeout",
				Message:  "timeout must be positive",
			})
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	}

	known := map[string]struct{}{
		"postgres": {},
		"mysql":    {},
		"mssql":    {},
		"sqlite":   {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	db := s.DB
	if strings.TrimSpace(db.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	for path, v := range map[string]string{
		"storage.db.properties_table": db.PropertiesTable,
		"storage.db.metadata_table":   db.MetadataTable,
		"storage.db.id_column":        db.IDColumn,
	} {
		if strings.TrimSpace(v) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  "must not be empty",
			})
		}
	}
	if db.PropertiesTable != "" && db.PropertiesTable == db.MetadataTable {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.metadata_table",
			Message:  fmt.Sprintf("metadata_table must differ from properties_table (%q)", db.PropertiesTable),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue

	switch m.Backend {
	case "", "none":
	case "prompush":
		if m.Options.String("url", "") == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.options.url",
				Message:  "prompush backend requires a pushgateway url",
			})
		}
	case "datadog":
		if m.Options.String("addr", "") == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.options.addr",
				Message:  "datadog backend requires a DogStatsD addr",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; want none, prompush or datadog", m.Backend),
		})
	}
	return issues
}
