package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"assetlib/internal/export"
	"assetlib/internal/preflight"
	"assetlib/internal/services/ingest"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Registry", statusError, "locked", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Registry:", "[ERROR] locked")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Registry", statusOK, "ready", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestPreflightLines(t *testing.T) {
	lines := preflightLines([]preflight.Result{
		{Name: "Library directory", Passed: true, Detail: "/lib (read/write ok)"},
		{Name: "Asset index", Passed: false, Detail: "http 503"},
	}, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] /lib") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] http 503") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
}

func TestExportLinesWithIssues(t *testing.T) {
	result := &export.Result{
		Success:   true,
		Status:    "exported ABCDEF12345AA001 with 1 issue",
		AssetID:   "ABCDEF12345AA001",
		Issues:    []export.Issue{{Kind: export.IssueFileIO, Message: "source missing", Path: "/job/a.png"}},
		Ingestion: ingest.Outcome{Status: ingest.StatusFailed, Message: "index unavailable"},
	}
	joined := strings.Join(exportLines(result, false), "\n")
	requireContains(t, joined, "[WARN] exported ABCDEF12345AA001")
	requireContains(t, joined, "source missing (/job/a.png)")
	requireContains(t, joined, "[WARN] failed: index unavailable")
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
