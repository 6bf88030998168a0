package migrate

import (
	"os"
	"strings"
	"testing"
	"testing/fstest"
	"time"
)

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)

	path, err := CreateSQLMigration(dir, "Add Zone Index!", now)
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	if !strings.HasSuffix(path, "20261016093000_add_zone_index.sql") {
		t.Fatalf("unexpected filename %s", path)
	}
	if err := Validate(os.DirFS(dir)); err != nil {
		t.Fatalf("validate created migration: %v", err)
	}

	if _, err := CreateSQLMigration(dir, "add zone index", now); err == nil {
		t.Fatal("expected duplicate file error")
	}
}

func TestCreateSQLMigrationTableSkeleton(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "create_rent_adjustments", time.Now())
	if err != nil {
		t.Fatalf("create migration: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	body := string(data)
	for _, sub := range []string{"CREATE TABLE IF NOT EXISTS rent_adjustments", "DROP TABLE IF EXISTS rent_adjustments;"} {
		if !strings.Contains(body, sub) {
			t.Fatalf("missing %q in %s", sub, body)
		}
	}
}

func TestCreateSQLMigrationRejectsEmptyName(t *testing.T) {
	if _, err := CreateSQLMigration(t.TempDir(), "!!!", time.Now()); err == nil {
		t.Fatal("expected error for empty sanitized name")
	}
}

func TestValidateRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {
			"bad.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"duplicate version": {
			"20260301090000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			"20260301090000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"missing down": {
			"20260301090000_a.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
		"unbalanced statements": {
			"20260301090000_a.sql": {Data: []byte("-- +goose Up\n-- +goose StatementBegin\n-- +goose Down\n")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			if err := Validate(fsys); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("20260301090200")
	if err != nil || v != 20260301090200 {
		t.Fatalf("unexpected result %d %v", v, err)
	}
	for _, raw := range []string{"", "2026", "2026030109020x"} {
		if _, err := ParseVersion(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
