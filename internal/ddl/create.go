// internal/ddl/create.go

// Package ddl defines a small, backend-agnostic model for SQL DDL and DML
// and renders CREATE TABLE and INSERT statements through a Dialect.
//
// The rendering rules are shared by every backend:
//
//   - Identifiers go through Dialect.QuoteIdent; dotted table names are
//     quoted segment by segment.
//   - No IF NOT EXISTS clause is emitted. Creating a table that already
//     exists is an error reported by the engine.
//   - ColumnDef.Default is emitted as raw SQL (the caller is responsible for
//     safety and dialect correctness).
//   - Values are never inlined; INSERT statements use Dialect.Placeholder.
//
// Backend packages (e.g., internal/storage/postgres/ddl) provide the Dialect
// implementations.
package ddl

import (
	"fmt"
	"strings"
)

// BuildCreateTableSQL renders a CREATE TABLE statement for t.
//
// Rules:
//
//   - t.FQN must be non-empty.
//
//   - Each column must have a non-empty Name. Its SQL type is SQLType when
//     set, otherwise d.ColumnType(Type).
//
//   - A column is rendered as:
//
//     <Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
//     where NOT NULL is added when Nullable == false.
//
//   - Columns with PrimaryKey == true are collected and rendered as a separate
//     PRIMARY KEY (<col1>, <col2>, ...) clause at the end of the column list.
//
//   - The resulting statement has the form:
//
//     CREATE TABLE <FQN> (
//     <col1-def>,
//     <col2-def>,
//     ...,
//     [PRIMARY KEY (<pk-cols>)]
//     );
func BuildCreateTableSQL(d Dialect, t TableDef) (string, error) {
	if d == nil {
		return "", fmt.Errorf("ddl: dialect must not be nil")
	}
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, 1)
	seen := make(map[string]struct{}, len(t.Columns))

	for _, c := range t.Columns {
		// Column names are data, not code: only fully empty names are
		// rejected, surrounding whitespace is kept and quoted.
		if c.Name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		if _, dup := seen[c.Name]; dup {
			return "", fmt.Errorf("ddl: duplicate column %q in table %s", c.Name, fqn)
		}
		seen[c.Name] = struct{}{}

		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			typ = d.ColumnType(c.Type)
		}
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s has no SQL type for %s", c.Name, c.Type)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(typ)

		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}

		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}

		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(c.Name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	stmt := fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n);",
		QuoteFQN(d, fqn),
		strings.Join(cols, ",\n  "),
	)
	return stmt, nil
}

// BuildInsertSQL renders a single-row INSERT into table for the given
// columns, in order, with one placeholder per column.
func BuildInsertSQL(d Dialect, table string, columns []string) (string, error) {
	if d == nil {
		return "", fmt.Errorf("ddl: dialect must not be nil")
	}
	table = strings.TrimSpace(table)
	if table == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	names := make([]string, len(columns))
	marks := make([]string, len(columns))
	for i, c := range columns {
		if c == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", table)
		}
		names[i] = d.QuoteIdent(c)
		marks[i] = d.Placeholder(i + 1)
	}

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteFQN(d, table),
		strings.Join(names, ", "),
		strings.Join(marks, ", "),
	), nil
}

// BuildDropTableSQL renders DROP TABLE IF EXISTS for table.
func BuildDropTableSQL(d Dialect, table string) string {
	return "DROP TABLE IF EXISTS " + QuoteFQN(d, table)
}

// QuoteFQN quotes each dot-separated segment of fqn with d.
func QuoteFQN(d Dialect, fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// DoubleQuote wraps id in open/close, doubling every embedded close
// character. It is the quoting rule shared by all supported engines.
func DoubleQuote(id string, open, close byte) string {
	var sb strings.Builder
	sb.Grow(len(id) + 2)
	sb.WriteByte(open)
	for i := 0; i < len(id); i++ {
		if id[i] == close {
			sb.WriteByte(close)
		}
		sb.WriteByte(id[i])
	}
	sb.WriteByte(close)
	return sb.String()
}
