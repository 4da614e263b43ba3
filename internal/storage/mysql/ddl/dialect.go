// Package ddl provides the MySQL dialect for the generic ddl builders.
//
// MySQL cannot index an unbounded TEXT column, so the primary key is
// VARCHAR(255). Notion page ids are 36-character UUIDs.
package ddl

import gddl "notionsqlite/internal/ddl"

// Kind is the storage kind this dialect serves.
const Kind = "mysql"

// Dialect implements ddl.Dialect for MySQL.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

func (Dialect) Name() string { return Kind }

func (Dialect) QuoteIdent(id string) string { return gddl.DoubleQuote(id, '`', '`') }

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) ColumnType(t gddl.LogicalType) string {
	switch t {
	case gddl.TypeReal:
		return "DOUBLE"
	case gddl.TypeBool:
		return "BOOLEAN"
	case gddl.TypeKey:
		return "VARCHAR(255)"
	default:
		return "LONGTEXT"
	}
}
