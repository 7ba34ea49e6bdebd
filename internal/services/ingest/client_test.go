package ingest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"assetlib/internal/identity"
	"assetlib/internal/layout"
	"assetlib/internal/metadata"
	"assetlib/internal/services"
	"assetlib/internal/services/ingest"
	"assetlib/internal/testsupport"
)

// fakeIndex is an index that stores records by idempotency key.
type fakeIndex struct {
	mu       sync.Mutex
	records  map[string]ingest.Payload
	requests int
	failures int
	status   int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: make(map[string]ingest.Payload)}
}

func (f *fakeIndex) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.URL.Path == "/health" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.URL.Path != "/assets" || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	f.requests++
	if f.failures > 0 {
		f.failures--
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(f.status)
		return
	}
	key := r.Header.Get("Idempotency-Key")
	if _, exists := f.records[key]; exists {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"exists"}`))
		return
	}
	var payload ingest.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.records[key] = payload
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"id": "idx-" + key})
}

func writeMetadata(t *testing.T) (*metadata.Metadata, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	m := metadata.NewComposer(cfg).Compose(metadata.Input{
		Identity:    identity.Identity{BaseUID: "ABCDEF12345", VariantID: "AA", Version: 1},
		Name:        "Mossy Boulder",
		AssetType:   "Props",
		Subcategory: "Rocks",
		AssetDir:    filepath.Join(cfg.Paths.LibraryDir, "Props", "Rocks", "ABCDEF12345AA001"),
	})
	path := filepath.Join(t.TempDir(), layout.MetadataFile)
	if err := metadata.Write(m, path); err != nil {
		t.Fatalf("metadata.Write: %v", err)
	}
	return m, path
}

func newClient(url string, opts ...ingest.Option) *ingest.Client {
	opts = append([]ingest.Option{
		ingest.WithRetryMaxAttempts(3),
		ingest.WithRetryBackoff(time.Millisecond, 5*time.Millisecond),
		ingest.WithSleeper(func(time.Duration) {}),
	}, opts...)
	return ingest.NewClient(ingest.Config{BaseURL: url, APIKey: "secret", TimeoutSeconds: 5}, opts...)
}

func TestIngestCreatesRecord(t *testing.T) {
	index := newFakeIndex()
	server := httptest.NewServer(index)
	defer server.Close()

	m, path := writeMetadata(t)
	outcome, err := newClient(server.URL).Ingest(context.Background(), m, path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if outcome.Status != ingest.StatusCreated || outcome.ExternalID != "idx-ABCDEF12345AA001" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	payload := index.records["ABCDEF12345AA001"]
	if payload.Name != "Mossy Boulder" || payload.Category != "Props/Rocks" || payload.Metadata == nil {
		t.Fatalf("unexpected payload %+v", payload)
	}
	if payload.Paths.MetadataFile != path {
		t.Fatalf("metadata path = %q", payload.Paths.MetadataFile)
	}
}

func TestReplayTwiceYieldsOneRecord(t *testing.T) {
	index := newFakeIndex()
	server := httptest.NewServer(index)
	defer server.Close()

	_, path := writeMetadata(t)
	client := newClient(server.URL)
	first, err := client.Replay(context.Background(), path)
	if err != nil || first.Status != ingest.StatusCreated {
		t.Fatalf("first replay: %+v %v", first, err)
	}
	second, err := client.Replay(context.Background(), path)
	if err != nil {
		t.Fatalf("second replay: %v", err)
	}
	if second.Status != ingest.StatusAlreadyExists {
		t.Fatalf("expected already_exists, got %+v", second)
	}
	if len(index.records) != 1 {
		t.Fatalf("expected one record, got %d", len(index.records))
	}
}

func TestIngestRetriesTransientFailures(t *testing.T) {
	index := newFakeIndex()
	index.failures = 2
	index.status = http.StatusServiceUnavailable
	server := httptest.NewServer(index)
	defer server.Close()

	var slept []time.Duration
	m, path := writeMetadata(t)
	client := newClient(server.URL, ingest.WithSleeper(func(d time.Duration) { slept = append(slept, d) }))
	outcome, err := client.Ingest(context.Background(), m, path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if outcome.Attempts != 3 || index.requests != 3 {
		t.Fatalf("attempts=%d requests=%d", outcome.Attempts, index.requests)
	}
	if len(slept) != 2 {
		t.Fatalf("expected two backoff sleeps, got %v", slept)
	}
}

func TestIngestGivesUpAfterMaxAttempts(t *testing.T) {
	index := newFakeIndex()
	index.failures = 10
	index.status = http.StatusBadGateway
	server := httptest.NewServer(index)
	defer server.Close()

	m, path := writeMetadata(t)
	outcome, err := newClient(server.URL).Ingest(context.Background(), m, path)
	if !errors.Is(err, services.ErrIngestion) {
		t.Fatalf("expected ingestion failure, got %v", err)
	}
	if outcome.Status != ingest.StatusFailed || outcome.Attempts != 3 || index.requests != 3 {
		t.Fatalf("unexpected outcome %+v after %d requests", outcome, index.requests)
	}
}

func TestIngestDoesNotRetryRejections(t *testing.T) {
	index := newFakeIndex()
	index.failures = 10
	index.status = http.StatusUnprocessableEntity
	server := httptest.NewServer(index)
	defer server.Close()

	m, path := writeMetadata(t)
	outcome, err := newClient(server.URL).Ingest(context.Background(), m, path)
	if !errors.Is(err, services.ErrIngestion) {
		t.Fatalf("expected ingestion failure, got %v", err)
	}
	if outcome.Status != ingest.StatusRejected || index.requests != 1 {
		t.Fatalf("unexpected outcome %+v after %d requests", outcome, index.requests)
	}
}

func TestIngestRetriesUnreachableServer(t *testing.T) {
	server := httptest.NewServer(newFakeIndex())
	url := server.URL
	server.Close()

	m, path := writeMetadata(t)
	outcome, err := newClient(url).Ingest(context.Background(), m, path)
	if !errors.Is(err, services.ErrIngestion) {
		t.Fatalf("expected ingestion failure, got %v", err)
	}
	if outcome.Attempts != 3 {
		t.Fatalf("expected retries against an unreachable server, got %+v", outcome)
	}
}

func TestIngestSendsHeaders(t *testing.T) {
	var gotKey, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	m, path := writeMetadata(t)
	outcome, err := newClient(server.URL).Ingest(context.Background(), m, path)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if gotKey != m.ID || gotAuth != "Bearer secret" {
		t.Fatalf("headers: key=%q auth=%q", gotKey, gotAuth)
	}
	if outcome.ExternalID != m.ID {
		t.Fatalf("empty body should fall back to asset id, got %q", outcome.ExternalID)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(newFakeIndex())
	defer server.Close()
	if err := newClient(server.URL).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestReplayMissingFile(t *testing.T) {
	_, err := newClient("http://127.0.0.1:1").Replay(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
