package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"assetlib/internal/testsupport"
)

func TestCheckDirectoryAccess(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name   string
		path   string
		passed bool
		detail string
	}{
		{"writable dir", root, true, "read/write ok"},
		{"missing", filepath.Join(root, "nope"), false, "does not exist"},
		{"regular file", file, false, "is not a directory"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := CheckDirectoryAccess("Library directory", tc.path)
			if result.Passed != tc.passed {
				t.Fatalf("Passed = %v, detail %q", result.Passed, result.Detail)
			}
			if !strings.Contains(result.Detail, tc.detail) || !strings.HasPrefix(result.Detail, tc.path) {
				t.Fatalf("detail = %q, want path and %q", result.Detail, tc.detail)
			}
		})
	}
}

func TestCheckIngestion_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithIngestion(srv.URL))
	result := CheckIngestion(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckIngestion_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithIngestion(srv.URL))
	if result := CheckIngestion(context.Background(), cfg); result.Passed {
		t.Fatal("expected failure for server error")
	}
}

func TestCheckIngestion_MissingURL(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithIngestion(""))
	if result := CheckIngestion(context.Background(), cfg); result.Passed {
		t.Fatal("expected failure for missing URL")
	}
}

func TestCheckRegistry(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if result := CheckRegistry(context.Background(), cfg); !result.Passed {
		t.Fatalf("missing registry should pass: %s", result.Detail)
	}
	testsupport.MustOpenRegistry(t, cfg)
	if result := CheckRegistry(context.Background(), cfg); !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures %+v", failed)
	}
}
