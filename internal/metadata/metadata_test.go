package metadata_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"assetlib/internal/identity"
	"assetlib/internal/layout"
	"assetlib/internal/metadata"
	"assetlib/internal/packager"
	"assetlib/internal/sequence"
	"assetlib/internal/services"
	"assetlib/internal/testsupport"
)

func newComposer(t *testing.T) *metadata.Composer {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	fixed := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return metadata.NewComposer(cfg).WithClock(func() time.Time { return fixed })
}

func sampleInput() metadata.Input {
	return metadata.Input{
		Identity:     identity.Identity{BaseUID: "ABCDEF12345", VariantID: "AA", Version: 1},
		Name:         "Mossy Boulder",
		Description:  "Large boulder with moss for the forest set",
		Dimension:    "3D",
		AssetType:    "Props",
		Subcategory:  "Rocks and Cliffs",
		RenderEngine: "Redshift",
		UserTags:     "Hero, exterior  forest",
		CreatedBy:    "tester",
		AssetDir:     "/lib/Props/Rocks_And_Cliffs/ABCDEF12345AA001",
		FrameRange:   sequence.Range{Start: 1001, End: 1018},
		Files: []packager.CopiedFile{
			{Relative: "Textures/moss/moss.png", Size: 10},
			{Relative: "Geometry/abc/boulder.abc", Size: 20},
			{Relative: "Geometry/bgeo/sim/sim.1001.bgeo.sc", Size: 30},
		},
		RemapCount: 3,
	}
}

func TestTags(t *testing.T) {
	got := newComposer(t).Tags(sampleInput())
	want := []string{"boulder", "exterior", "forest", "hero", "large", "moss", "mossy", "props", "redshift", "rocks_and_cliffs", "set"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tags() = %v\nwant %v", got, want)
	}
}

func TestCompose(t *testing.T) {
	m := newComposer(t).Compose(sampleInput())
	if m.ID != "ABCDEF12345AA001" || m.Version != 1 || m.VariantID != "AA" {
		t.Fatalf("identity fields wrong: %+v", m)
	}
	if m.Textures.Count != 1 || m.GeometryFiles.Count != 2 {
		t.Fatalf("inventory wrong: textures=%+v geometry=%+v", m.Textures, m.GeometryFiles)
	}
	if m.PathRemapping.TotalRemapped != 3 || m.PathRemapping.PathsJSONFile != "Data/paths.json" {
		t.Fatalf("remap section wrong: %+v", m.PathRemapping)
	}
	if m.FileSizes["Geometry/abc/boulder.abc"] != 20 {
		t.Fatalf("file sizes wrong: %+v", m.FileSizes)
	}
	if m.Category() != "Props/Rocks_And_Cliffs" {
		t.Fatalf("Category() = %q", m.Category())
	}
}

func TestWriteAndLoad(t *testing.T) {
	m := newComposer(t).Compose(sampleInput())
	path := filepath.Join(t.TempDir(), layout.MetadataFile)
	if err := metadata.Write(m, path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("metadata.json is not JSON: %v", err)
	}
	for _, key := range []string{"id", "base_uid", "variant_id", "version", "name", "asset_type", "subcategory", "render_engine", "tags", "created_at", "created_by", "frame_range", "textures", "geometry_files", "path_remapping"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("metadata.json missing %q", key)
		}
	}

	loaded, err := metadata.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !loaded.CreatedAt.Equal(m.CreatedAt) {
		t.Fatalf("created_at changed: %v vs %v", loaded.CreatedAt, m.CreatedAt)
	}
	loaded.CreatedAt = m.CreatedAt
	if !reflect.DeepEqual(loaded, m) {
		t.Fatalf("round trip mismatch:\n%+v\n%+v", loaded, m)
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := metadata.Load(filepath.Join(dir, "missing.json")); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"id":"ABCDEF12345AA002","base_uid":"ABCDEF12345","variant_id":"AA","version":1,"name":"x"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := metadata.Load(bad); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for mismatched id, got %v", err)
	}
}
