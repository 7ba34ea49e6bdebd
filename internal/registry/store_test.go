package registry_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"assetlib/internal/identity"
	"assetlib/internal/registry"
	"assetlib/internal/services"
	"assetlib/internal/testsupport"
)

const base = "0123456789A"

func TestRegisterAndLookups(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	ctx := context.Background()

	testsupport.Register(t, store, base, "AA", 1)
	testsupport.Register(t, store, base, "AA", 2)
	testsupport.Register(t, store, base, "AC", 1)
	testsupport.Register(t, store, "BBBBBBBBBBB", "AA", 1)

	versions, err := store.Versions(ctx, base, "AA")
	if err != nil {
		t.Fatalf("Versions: %v", err)
	}
	if !reflect.DeepEqual(versions, []int{1, 2}) {
		t.Fatalf("versions = %v", versions)
	}

	variants, err := store.Variants(ctx, base)
	if err != nil {
		t.Fatalf("Variants: %v", err)
	}
	if !reflect.DeepEqual(variants, []string{"AA", "AC"}) {
		t.Fatalf("variants = %v", variants)
	}

	exists, err := store.BaseExists(ctx, base)
	if err != nil || !exists {
		t.Fatalf("BaseExists = %v, %v", exists, err)
	}
	exists, err = store.BaseExists(ctx, "ZZZZZZZZZZZ")
	if err != nil || exists {
		t.Fatalf("BaseExists(unknown) = %v, %v", exists, err)
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	ctx := context.Background()

	rec := testsupport.Register(t, store, base, "AA", 1)
	if err := store.Register(ctx, rec); err != nil {
		t.Fatalf("second Register: %v", err)
	}
	records, err := store.List(ctx, registry.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected one record, got %d", len(records))
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)

	rec, err := store.Get(context.Background(), "nope")
	if err != nil || rec != nil {
		t.Fatalf("Get(missing) = %v, %v", rec, err)
	}
}

func TestMarkIngestedAndPendingFilter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	ctx := context.Background()

	first := testsupport.Register(t, store, base, "AA", 1)
	testsupport.Register(t, store, base, "AA", 2)

	if err := store.MarkIngested(ctx, first.AssetID, "ext-1"); err != nil {
		t.Fatalf("MarkIngested: %v", err)
	}
	got, err := store.Get(ctx, first.AssetID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.IngestedAt == nil || got.ExternalID != "ext-1" {
		t.Fatalf("unexpected ingestion state: %+v", got)
	}

	pending, err := store.List(ctx, registry.Filter{PendingIngest: true})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 1 || pending[0].Version != 2 {
		t.Fatalf("pending = %+v", pending)
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := registry.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	testsupport.Register(t, store, base, "AA", 1)
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenRegistry(t, cfg)
	exists, err := reopened.BaseExists(context.Background(), base)
	if err != nil || !exists {
		t.Fatalf("record lost after reopen: %v %v", exists, err)
	}
}

func TestStoreBacksAllocator(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenRegistry(t, cfg)
	ctx := context.Background()
	testsupport.Register(t, store, base, "AA", 1)
	testsupport.Register(t, store, base, "AA", 2)

	alloc := identity.NewAllocator(store)
	next, err := alloc.AllocateVersionUp(ctx, base+"AA")
	if err != nil {
		t.Fatalf("AllocateVersionUp: %v", err)
	}
	if next.AssetID() != base+"AA003" {
		t.Fatalf("next = %s", next.AssetID())
	}
	variant, err := alloc.AllocateVariant(ctx, base)
	if err != nil {
		t.Fatalf("AllocateVariant: %v", err)
	}
	if variant.VariantID != "AB" {
		t.Fatalf("variant = %s", variant.VariantID)
	}
	if _, err := alloc.AllocateVersionUp(ctx, base+"AZ"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestOpenRejectsForeignSchemaVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "registry.db")
	store, err := registry.OpenPath(dbPath)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("PRAGMA user_version = 7"); err != nil {
		t.Fatalf("stamp version: %v", err)
	}
	_ = db.Close()

	if _, err := registry.OpenPath(dbPath); !errors.Is(err, registry.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}

	reopened, err := registry.OpenPath(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatalf("fresh OpenPath: %v", err)
	}
	_ = reopened.Close()
}
