package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"assetlib/internal/export"
	"assetlib/internal/host"
	"assetlib/internal/registry"
	"assetlib/internal/testsupport"
)

func TestExportCommandPackagesManifest(t *testing.T) {
	env := setupCLITestEnv(t)
	src := filepath.Join(env.baseDir, "job")
	texture := filepath.Join(src, "tex", "crate_basecolor.png")
	testsupport.WriteFile(t, texture, 64)

	manifestPath := filepath.Join(src, "crate.yaml")
	writeManifest(t, manifestPath, `asset:
  name: Wooden Crate
  asset_type: Props
  subcategory: Containers
references:
  - owner: /mat/crate
    field: basecolor
    value: `+texture+`
    label: crate
`)

	out, _, err := runCLI(t, []string{"export", manifestPath, "--in-place", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v\n%s", err, out)
	}
	var result export.Result
	decodeJSON(t, out, &result)
	if !result.Success || result.FilesCopied != 1 || result.RemapCount != 1 {
		t.Fatalf("unexpected result %+v", result)
	}
	if !strings.HasPrefix(result.AssetDir, filepath.Join(env.cfg.Paths.LibraryDir, "Props", "Containers")) {
		t.Fatalf("asset dir %s outside expected category", result.AssetDir)
	}

	manifest, err := host.LoadManifest(manifestPath)
	if err != nil {
		t.Fatalf("reload manifest: %v", err)
	}
	value, _ := manifest.Value("/mat/crate", "basecolor")
	if !strings.HasPrefix(value, result.AssetDir) {
		t.Fatalf("manifest not rewritten, value %q", value)
	}

	out, _, err = runCLI(t, []string{"registry", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("registry list: %v", err)
	}
	requireContains(t, out, result.AssetID)
	requireContains(t, out, "Wooden Crate")

	out, _, err = runCLI(t, []string{"remap", "show", result.PathsFile}, "")
	if err != nil {
		t.Fatalf("remap show: %v", err)
	}
	requireContains(t, out, "crate_basecolor.png")
	requireContains(t, out, texture)
}

func TestExportCommandVersionUpUnknownLineage(t *testing.T) {
	env := setupCLITestEnv(t)
	manifestPath := filepath.Join(env.baseDir, "empty.yaml")
	writeManifest(t, manifestPath, "references: []\n")

	out, _, err := runCLI(t, []string{"export", manifestPath, "--name", "Rock", "--type", "Props", "--version-up", "ABCDEF12345AA"}, env.configPath)
	if err == nil {
		t.Fatalf("expected failure, output %s", out)
	}
	requireContains(t, out, "ERROR")
}

func TestExportCommandRejectsConflictingFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	manifestPath := filepath.Join(env.baseDir, "empty.yaml")
	writeManifest(t, manifestPath, "references: []\n")

	_, _, err := runCLI(t, []string{"export", manifestPath, "--version-up", "ABCDEF12345AA", "--variant", "ABCDEF12345"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "mutually exclusive") {
		t.Fatalf("expected flag conflict, got %v", err)
	}
}

func TestIngestCommandReplaysAndRecords(t *testing.T) {
	var (
		mu    sync.Mutex
		posts int
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		posts++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "idx-42"})
	}))
	defer srv.Close()

	env := setupCLITestEnv(t)
	texture := filepath.Join(env.baseDir, "job", "rock.png")
	testsupport.WriteFile(t, texture, 16)
	manifestPath := filepath.Join(env.baseDir, "rock.yaml")
	writeManifest(t, manifestPath, `references:
  - owner: /mat/rock
    field: tex
    value: `+texture+`
`)

	out, _, err := runCLI(t, []string{"export", manifestPath, "--name", "Rock", "--type", "Props", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var result export.Result
	decodeJSON(t, out, &result)

	env.cfg.Ingestion.Enabled = true
	env.cfg.Ingestion.BaseURL = srv.URL
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err = runCLI(t, []string{"ingest", result.MetadataPath}, env.configPath)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	requireContains(t, out, "idx-42")
	mu.Lock()
	got := posts
	mu.Unlock()
	if got != 1 {
		t.Fatalf("expected one post, got %d", got)
	}

	store, err := registry.Open(env.cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	rec, err := store.Get(t.Context(), result.AssetID)
	if err != nil || rec == nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.IngestedAt == nil || rec.ExternalID != "idx-42" {
		t.Fatalf("ingestion not recorded: %+v", rec)
	}
}

func TestIngestCommandRequiresBaseURL(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"ingest", filepath.Join(env.baseDir, "metadata.json")}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "base_url") {
		t.Fatalf("expected base_url error, got %v", err)
	}
}

func TestPreflightCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v\n%s", err, out)
	}
	requireContains(t, out, "Library directory")
	requireContains(t, out, "[OK]")
}
