package qcli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExpandGlobs(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"a.surql", "b.surql", filepath.Join("nested", "c.surql")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	got, err := ExpandGlobs([]string{filepath.Join(dir, "**", "*.surql")})
	if err != nil {
		t.Fatalf("ExpandGlobs: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 files, got %v", got)
	}
}

func TestExpandGlobsPlainPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "one.surql")
	if err := os.WriteFile(path, []byte("SELECT 1;"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := ExpandGlobs([]string{path})
	if err != nil {
		t.Fatalf("ExpandGlobs: %v", err)
	}
	if len(got) != 1 || got[0] != path {
		t.Fatalf("expected [%s], got %v", path, got)
	}
}

func TestDiffPlans(t *testing.T) {
	before := "person: TableIterator"
	after := "person: SingleIndex(by_name) Equality([0])"
	diff, err := DiffPlans(before, after)
	if err != nil {
		t.Fatalf("DiffPlans: %v", err)
	}
	if !strings.Contains(diff, "-person: TableIterator") || !strings.Contains(diff, "+person: SingleIndex(by_name) Equality([0])") {
		t.Fatalf("expected diff to show before/after lines, got:\n%s", diff)
	}
}
