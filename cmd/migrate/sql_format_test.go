package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	dir := testMigrationsDir(t)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}

	var sqlFiles int
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".sql" {
			continue
		}
		sqlFiles++

		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		for _, directive := range []string{"-- +goose Up", "-- +goose Down"} {
			if !strings.Contains(string(b), directive) {
				t.Fatalf("%s missing %q", name, directive)
			}
		}
	}
	if sqlFiles == 0 {
		t.Fatal("no sql migrations found")
	}
}
