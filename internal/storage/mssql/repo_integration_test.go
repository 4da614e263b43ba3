//go:build integration

package mssql

import (
	"context"
	"os"
	"testing"
	"time"
)

// getTestDSN reads the MSSQL_TEST_DSN environment variable.
// If it is empty, the caller should skip the test.
func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("MSSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MSSQL_TEST_DSN not set; skipping MSSQL integration tests")
	}
	return dsn
}

// TestExecIntegration creates a table with bracketed identifiers and binds
// @pN parameters against a real SQL Server.
func TestExecIntegration(t *testing.T) {
	dsn := getTestDSN(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn})
	if err != nil {
		t.Fatalf("NewRepository() error = %v, want nil", err)
	}
	defer closeFn()

	_ = repo.Exec(ctx, "DROP TABLE IF EXISTS [notion_exec_test]")
	if err := repo.Exec(ctx, `
		CREATE TABLE [notion_exec_test] (
			[page_id] NVARCHAR(450) NOT NULL PRIMARY KEY,
			[a]]b] FLOAT NULL,
			[archived] BIT NOT NULL
		);`); err != nil {
		t.Fatalf("Exec(CREATE TABLE) error = %v", err)
	}
	defer func() { _ = repo.Exec(ctx, "DROP TABLE IF EXISTS [notion_exec_test]") }()

	if err := repo.Exec(ctx,
		"INSERT INTO [notion_exec_test] ([page_id], [a]]b], [archived]) VALUES (@p1, @p2, @p3)",
		"p1", 3.5, true,
	); err != nil {
		t.Fatalf("Exec(INSERT) error = %v", err)
	}
}
