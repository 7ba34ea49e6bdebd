package host

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrUnknownReference is returned when a write-back names a field the
// manifest never reported.
var ErrUnknownReference = errors.New("unknown reference")

// AssetDefaults lets a manifest carry export parameters so a scripted
// export needs no extra flags.
type AssetDefaults struct {
	Name         string   `yaml:"name,omitempty" json:"name,omitempty"`
	Description  string   `yaml:"description,omitempty" json:"description,omitempty"`
	Dimension    string   `yaml:"dimension,omitempty" json:"dimension,omitempty"`
	AssetType    string   `yaml:"asset_type,omitempty" json:"asset_type,omitempty"`
	Subcategory  string   `yaml:"subcategory,omitempty" json:"subcategory,omitempty"`
	RenderEngine string   `yaml:"render_engine,omitempty" json:"render_engine,omitempty"`
	Tags         []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Manifest is a file-backed host: a YAML (or JSON) document listing the
// references of a scene. Write-backs update the in-memory document, which
// can be saved or serialized into the packaged asset.
type Manifest struct {
	Asset AssetDefaults `yaml:"asset,omitempty" json:"asset,omitempty"`
	Refs  []Triple      `yaml:"references" json:"references"`

	mu   sync.Mutex
	path string
}

// NewManifest wraps triples in an in-memory manifest.
func NewManifest(triples []Triple) *Manifest {
	return &Manifest{Refs: append([]Triple(nil), triples...)}
}

// LoadManifest reads a manifest from path. JSON documents parse as YAML.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	for i, ref := range m.Refs {
		if strings.TrimSpace(ref.OwnerID) == "" || strings.TrimSpace(ref.Field) == "" {
			return nil, fmt.Errorf("parse manifest %s: reference %d needs owner and field", path, i)
		}
	}
	m.path = path
	return &m, nil
}

// Path returns the file the manifest was loaded from, if any.
func (m *Manifest) Path() string {
	return m.path
}

// References implements ReferenceProvider.
func (m *Manifest) References(context.Context) ([]Triple, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Triple(nil), m.Refs...), nil
}

// WriteReference implements ReferenceWriter.
func (m *Manifest) WriteReference(_ context.Context, ownerID, field, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.Refs {
		if m.Refs[i].OwnerID == ownerID && m.Refs[i].Field == field {
			m.Refs[i].Value = value
			return nil
		}
	}
	return fmt.Errorf("%w: %s.%s", ErrUnknownReference, ownerID, field)
}

// Value returns the current value of one field.
func (m *Manifest) Value(ownerID, field string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ref := range m.Refs {
		if ref.OwnerID == ownerID && ref.Field == field {
			return ref.Value, true
		}
	}
	return "", false
}

// SerializeScene implements SceneSerializer by writing the current document.
func (m *Manifest) SerializeScene(_ context.Context, path string) error {
	return m.Save(path)
}

// Save writes the manifest as YAML.
func (m *Manifest) Save(path string) error {
	m.mu.Lock()
	data, err := yaml.Marshal(m)
	m.mu.Unlock()
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
