package testsupport

import (
	"context"
	"fmt"
	"testing"

	"assetlib/internal/config"
	"assetlib/internal/registry"
)

// MustOpenRegistry opens a registry.Store for tests and registers cleanup.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *registry.Store {
	t.Helper()

	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("registry.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// Register inserts a minimal record for the given asset ID components.
func Register(t testing.TB, store *registry.Store, baseUID, variant string, version int) registry.Record {
	t.Helper()

	rec := registry.Record{
		AssetID:      fmt.Sprintf("%s%s%03d", baseUID, variant, version),
		BaseUID:      baseUID,
		VariantID:    variant,
		Version:      version,
		Name:         "fixture",
		AssetType:    "Props",
		Subcategory:  "Misc",
		AssetDir:     "/tmp/fixture",
		MetadataPath: "/tmp/fixture/metadata.json",
	}
	if err := store.Register(context.Background(), rec); err != nil {
		t.Fatalf("store.Register: %v", err)
	}
	return rec
}
