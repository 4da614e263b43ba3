// Package ddl provides the SQLite dialect for the generic ddl builders.
//
// SQLite specifics:
//   - Identifiers are double-quoted: "table", "col", with embedded " doubled.
//   - Bind markers are positional "?".
//   - Number columns are REAL; everything else, including the primary key,
//     is TEXT. Booleans are declared BOOLEAN (NUMERIC affinity, stored 0/1).
package ddl

import gddl "notionsqlite/internal/ddl"

// Kind is the storage kind this dialect serves.
const Kind = "sqlite"

// Dialect implements ddl.Dialect for SQLite.
type Dialect struct{}

var _ gddl.Dialect = Dialect{}

func (Dialect) Name() string { return Kind }

func (Dialect) QuoteIdent(id string) string { return gddl.DoubleQuote(id, '"', '"') }

func (Dialect) Placeholder(int) string { return "?" }

// ColumnType maps a logical type into a SQLite column type.
func (Dialect) ColumnType(t gddl.LogicalType) string {
	switch t {
	case gddl.TypeReal:
		return "REAL"
	case gddl.TypeBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
