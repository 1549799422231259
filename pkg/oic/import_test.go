package oic

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writePackage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("archive"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// importServer simulates the import endpoint with per-method status codes.
type importServer struct {
	postStatus int
	putStatus  int
	methods    []string
}

func (s *importServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.methods = append(s.methods, r.Method)
		switch r.Method {
		case http.MethodPost:
			w.WriteHeader(s.postStatus)
		case http.MethodPut:
			w.WriteHeader(s.putStatus)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}
}

func TestImportStateMachine(t *testing.T) {
	tests := []struct {
		name        string
		postStatus  int
		putStatus   int
		wantStatus  string
		wantMessage string
		wantMethods []string
	}{
		{
			name:        "create succeeds",
			postStatus:  http.StatusOK,
			wantStatus:  StatusSuccess,
			wantMessage: "Imported",
			wantMethods: []string{http.MethodPost},
		},
		{
			name:        "create succeeds with 204",
			postStatus:  http.StatusNoContent,
			wantStatus:  StatusSuccess,
			wantMessage: "Imported",
			wantMethods: []string{http.MethodPost},
		},
		{
			name:        "conflict then replace succeeds",
			postStatus:  http.StatusConflict,
			putStatus:   http.StatusNoContent,
			wantStatus:  StatusSuccess,
			wantMessage: "Replaced",
			wantMethods: []string{http.MethodPost, http.MethodPut},
		},
		{
			name:        "conflict then replace fails",
			postStatus:  http.StatusConflict,
			putStatus:   http.StatusInternalServerError,
			wantStatus:  ImportStatusError,
			wantMessage: "500",
			wantMethods: []string{http.MethodPost, http.MethodPut},
		},
		{
			name:        "create fails without retry",
			postStatus:  http.StatusInternalServerError,
			wantStatus:  ImportStatusError,
			wantMessage: "500",
			wantMethods: []string{http.MethodPost},
		},
		{
			name:        "unauthorized is terminal",
			postStatus:  http.StatusUnauthorized,
			wantStatus:  ImportStatusError,
			wantMessage: "401",
			wantMethods: []string{http.MethodPost},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := &importServer{postStatus: tt.postStatus, putStatus: tt.putStatus}
			server := httptest.NewServer(srv.handler())
			defer server.Close()

			path := writePackage(t, t.TempDir(), "pkg.iar")
			im := NewImporter(NewClient("tok"), server.URL, "/import", "acme-dev")

			outcome, err := im.Import(context.Background(), path)
			if err != nil {
				t.Fatalf("Import() error: %v", err)
			}
			if outcome.Integration != "pkg.iar" {
				t.Errorf("integration = %q, want pkg.iar", outcome.Integration)
			}
			if outcome.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", outcome.Status, tt.wantStatus)
			}
			if outcome.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", outcome.Message, tt.wantMessage)
			}
			if !reflect.DeepEqual(srv.methods, tt.wantMethods) {
				t.Errorf("methods = %v, want %v", srv.methods, tt.wantMethods)
			}
		})
	}
}

func TestImportIdempotentRerun(t *testing.T) {
	// First upload creates; the platform then reports 409 and the rerun replaces.
	created := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			if created {
				w.WriteHeader(http.StatusConflict)
				return
			}
			created = true
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	path := writePackage(t, t.TempDir(), "pkg.iar")
	im := NewImporter(NewClient("tok"), server.URL, "/import", "acme-dev")

	first, err := im.Import(context.Background(), path)
	if err != nil {
		t.Fatalf("first Import() error: %v", err)
	}
	second, err := im.Import(context.Background(), path)
	if err != nil {
		t.Fatalf("second Import() error: %v", err)
	}
	if first.Message != "Imported" || second.Message != "Replaced" {
		t.Errorf("messages = %q, %q; want Imported, Replaced", first.Message, second.Message)
	}
}

func TestImportDirectoryBatchIsolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		name := r.MultipartForm.File["file"][0].Filename
		if name == "b.iar" {
			// Network-level failure for this package only.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatal(err)
			}
			conn.Close()
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	dir := t.TempDir()
	writePackage(t, dir, "c.iar")
	writePackage(t, dir, "a.iar")
	writePackage(t, dir, "b.iar")
	writePackage(t, dir, "notes.txt") // must be ignored
	if err := os.Mkdir(filepath.Join(dir, "nested.iar"), 0o755); err != nil {
		t.Fatal(err)
	}

	im := NewImporter(NewClient("tok"), server.URL, "/import", "acme-dev")
	outcomes, err := im.ImportDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ImportDirectory() error: %v", err)
	}

	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(outcomes))
	}
	gotNames := []string{outcomes[0].Integration, outcomes[1].Integration, outcomes[2].Integration}
	wantNames := []string{"a.iar", "b.iar", "c.iar"}
	if !reflect.DeepEqual(gotNames, wantNames) {
		t.Errorf("order = %v, want lexicographic %v", gotNames, wantNames)
	}
	if outcomes[0].Status != StatusSuccess {
		t.Errorf("a.iar status = %q, want SUCCESS", outcomes[0].Status)
	}
	if outcomes[1].Status != ImportStatusError {
		t.Errorf("b.iar status = %q, want ERROR for the network failure", outcomes[1].Status)
	}
	if outcomes[2].Status != StatusSuccess {
		t.Errorf("c.iar status = %q, want SUCCESS (b's failure must not stop the batch)", outcomes[2].Status)
	}
}

func TestImportDirectoryMissingDir(t *testing.T) {
	im := NewImporter(NewClient("tok"), "http://unused.invalid", "/import", "acme-dev")
	if _, err := im.ImportDirectory(context.Background(), filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("ImportDirectory() should fail for a missing directory")
	}
}

func TestImportRecords(t *testing.T) {
	outcomes := []ImportOutcome{
		{"a.iar", StatusSuccess, "Imported"},
		{"b.iar", ImportStatusError, "500"},
	}
	want := [][]string{
		{"a.iar", "SUCCESS", "Imported"},
		{"b.iar", "ERROR", "500"},
	}
	if got := ImportRecords(outcomes); !reflect.DeepEqual(got, want) {
		t.Errorf("ImportRecords() = %v, want %v", got, want)
	}
}
