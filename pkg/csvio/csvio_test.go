package csvio

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestWriteFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "extract.csv")
	header := []string{"code", "status", "host_url"}
	rows := [][]string{
		{"A", "CONFIGURED", "https://a.example.com"},
		{"B", "", ""}, // empty fields must survive the round trip
		{"C", "DRAFT", "value,with,commas"},
	}

	if err := WriteFile(path, header, rows); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}

	gotHeader, gotRows, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !reflect.DeepEqual(gotHeader, header) {
		t.Errorf("header = %v, want %v", gotHeader, header)
	}
	if !reflect.DeepEqual(gotRows, rows) {
		t.Errorf("rows = %v, want %v", gotRows, rows)
	}
}

func TestWriteFileReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "extract.csv")
	header := []string{"code"}

	if err := WriteFile(path, header, [][]string{{"old"}}); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if err := WriteFile(path, header, [][]string{{"new"}}); err != nil {
		t.Fatalf("WriteFile() rewrite error: %v", err)
	}

	_, rows, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if len(rows) != 1 || rows[0][0] != "new" {
		t.Errorf("rows = %v, want the rewritten content", rows)
	}

	// No temp files may survive a successful rewrite.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}

func TestWriteFileNoRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	header := []string{"INTEGRATION", "STATUS", "MESSAGE"}

	if err := WriteFile(path, header, nil); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	gotHeader, gotRows, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if !reflect.DeepEqual(gotHeader, header) {
		t.Errorf("header = %v, want %v", gotHeader, header)
	}
	if len(gotRows) != 0 {
		t.Errorf("rows = %v, want none", gotRows)
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, _, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("ReadFile() should fail for a missing file")
	}
}
