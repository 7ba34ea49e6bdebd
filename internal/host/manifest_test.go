package host_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"assetlib/internal/host"
)

func TestLoadManifestYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "scene.yaml")
	yamlDoc := `asset:
  name: Mossy Rock
  asset_type: props
references:
  - owner: /mat/rock
    field: basecolor
    value: /job/tex/rock_basecolor.png
    label: rock
  - owner: /obj/sim
    field: file
    value: /job/cache/sim.$F4.bgeo.sc
`
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := host.LoadManifest(yamlPath)
	if err != nil {
		t.Fatalf("LoadManifest yaml: %v", err)
	}
	refs, _ := m.References(context.Background())
	if len(refs) != 2 || refs[0].OwnerLabel != "rock" || m.Asset.Name != "Mossy Rock" {
		t.Fatalf("unexpected manifest: %+v", m)
	}

	jsonPath := filepath.Join(dir, "scene.json")
	jsonDoc := `{"references":[{"owner":"/mat/a","field":"tex","value":"/a.exr"}]}`
	if err := os.WriteFile(jsonPath, []byte(jsonDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = host.LoadManifest(jsonPath)
	if err != nil {
		t.Fatalf("LoadManifest json: %v", err)
	}
	if len(m.Refs) != 1 || m.Refs[0].Value != "/a.exr" {
		t.Fatalf("unexpected json manifest: %+v", m.Refs)
	}
}

func TestLoadManifestRejectsIncompleteReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("references:\n  - value: /a.png\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := host.LoadManifest(path); err == nil {
		t.Fatal("expected error for reference without owner/field")
	}
}

func TestWriteReferenceAndSerialize(t *testing.T) {
	ctx := context.Background()
	m := host.NewManifest([]host.Triple{{OwnerID: "/mat/a", Field: "tex", Value: "/old/a.png"}})

	if err := m.WriteReference(ctx, "/mat/a", "tex", "/lib/a.png"); err != nil {
		t.Fatalf("WriteReference: %v", err)
	}
	if err := m.WriteReference(ctx, "/mat/b", "tex", "/lib/b.png"); !errors.Is(err, host.ErrUnknownReference) {
		t.Fatalf("expected unknown reference, got %v", err)
	}
	if v, _ := m.Value("/mat/a", "tex"); v != "/lib/a.png" {
		t.Fatalf("value = %q", v)
	}

	out := filepath.Join(t.TempDir(), "Data", "scene.yaml")
	if err := m.SerializeScene(ctx, out); err != nil {
		t.Fatalf("SerializeScene: %v", err)
	}
	reloaded, err := host.LoadManifest(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Refs[0].Value != "/lib/a.png" {
		t.Fatalf("serialized value = %q", reloaded.Refs[0].Value)
	}
}
