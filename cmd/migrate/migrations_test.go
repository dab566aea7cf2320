package main

import (
	"path/filepath"
	"runtime"
	"testing"

	"github.com/pressly/goose/v3"
)

// testMigrationsDir resolves db/migrations relative to this file so the
// tests pass regardless of the working directory.
func testMigrationsDir(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "db", "migrations")
}

func TestMigrationsParse(t *testing.T) {
	migrations, err := goose.CollectMigrations(testMigrationsDir(t), 0, goose.MaxVersion)
	if err != nil {
		t.Fatalf("collect migrations: %v", err)
	}
	if len(migrations) == 0 {
		t.Fatal("no migrations found")
	}
	if got := filepath.Base(migrations[0].Source); got != "00001_create_warehouse_tables.sql" {
		t.Fatalf("unexpected first migration: %s", got)
	}
}
