package ddl

import (
	"strings"
	"testing"

	gddl "notionsqlite/internal/ddl"
)

func TestDialect_QuoteIdent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "Name", want: `"Name"`},
		{in: "page_id", want: `"page_id"`},
		{in: `a"b`, want: `"a""b"`},
		{in: "あ f　_", want: `"あ f　_"`},
	}
	for _, tt := range tests {
		if got := (Dialect{}).QuoteIdent(tt.in); got != tt.want {
			t.Fatalf("QuoteIdent(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDialect_Placeholder(t *testing.T) {
	t.Parallel()

	d := Dialect{}
	if got := d.Placeholder(1); got != "$1" {
		t.Fatalf("Placeholder(1) = %q, want %q", got, "$1")
	}
	if got := d.Placeholder(3); got != "$3" {
		t.Fatalf("Placeholder(3) = %q, want %q", got, "$3")
	}
}

func TestDialect_ColumnType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   gddl.LogicalType
		want string
	}{
		{in: gddl.TypeText, want: "TEXT"},
		{in: gddl.TypeReal, want: "DOUBLE PRECISION"},
		{in: gddl.TypeBool, want: "BOOLEAN"},
		{in: gddl.TypeKey, want: "TEXT"},
	}
	for _, tt := range tests {
		if got := (Dialect{}).ColumnType(tt.in); got != tt.want {
			t.Fatalf("ColumnType(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDialect_CreateTable(t *testing.T) {
	t.Parallel()

	sql, err := gddl.BuildCreateTableSQL(Dialect{}, gddl.TableDef{
		FQN: "pages",
		Columns: []gddl.ColumnDef{
			{Name: "page_id", Type: gddl.TypeKey, PrimaryKey: true},
			{Name: "Age", Type: gddl.TypeReal, Nullable: true},
		},
	})
	if err != nil {
		t.Fatalf("BuildCreateTableSQL() error = %v", err)
	}
	for _, frag := range []string{
		`CREATE TABLE "pages" (`,
		`"page_id" TEXT NOT NULL`,
		`"Age" DOUBLE PRECISION`,
		`PRIMARY KEY ("page_id")`,
	} {
		if !strings.Contains(sql, frag) {
			t.Fatalf("CREATE TABLE missing %q:\n%s", frag, sql)
		}
	}
	if (Dialect{}).Name() != Kind {
		t.Fatalf("Name() = %q, want %q", (Dialect{}).Name(), Kind)
	}
}
