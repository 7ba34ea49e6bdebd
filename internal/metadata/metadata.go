package metadata

import (
	"encoding/json"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"assetlib/internal/fileutil"
	"assetlib/internal/identity"
	"assetlib/internal/layout"
	"assetlib/internal/sequence"
	"assetlib/internal/services"
)

// FileList is an inventory section.
type FileList struct {
	Count int      `json:"count"`
	Files []string `json:"files"`
}

// PathRemapping points at the asset's remap table.
type PathRemapping struct {
	TotalRemapped int    `json:"total_remapped"`
	PathsJSONFile string `json:"paths_json_file"`
}

// Metadata is the canonical record written to metadata.json.
type Metadata struct {
	ID            string           `json:"id"`
	BaseUID       string           `json:"base_uid"`
	VariantID     string           `json:"variant_id"`
	Version       int              `json:"version"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Dimension     string           `json:"dimension"`
	AssetType     string           `json:"asset_type"`
	Subcategory   string           `json:"subcategory"`
	RenderEngine  string           `json:"render_engine"`
	Tags          []string         `json:"tags"`
	CreatedAt     time.Time        `json:"created_at"`
	CreatedBy     string           `json:"created_by"`
	AssetDir      string           `json:"asset_dir"`
	FrameRange    sequence.Range   `json:"frame_range"`
	Textures      FileList         `json:"textures"`
	GeometryFiles FileList         `json:"geometry_files"`
	PathRemapping PathRemapping    `json:"path_remapping"`
	FileSizes     map[string]int64 `json:"file_sizes"`
}

// Identity returns the identity fields as an identity.Identity.
func (m *Metadata) Identity() identity.Identity {
	return identity.Identity{BaseUID: m.BaseUID, VariantID: m.VariantID, Version: m.Version}
}

// Validate checks the fields replay depends on.
func (m *Metadata) Validate() error {
	id := m.Identity()
	if err := id.Validate(); err != nil {
		return err
	}
	if id.AssetID() != m.ID {
		return services.Wrap(services.ErrValidation, "metadata", "validate", "id "+m.ID+" does not match identity fields", nil)
	}
	if strings.TrimSpace(m.Name) == "" {
		return services.Wrap(services.ErrValidation, "metadata", "validate", "name is empty", nil)
	}
	return nil
}

// Category is the hierarchy path used by the external index.
func (m *Metadata) Category() string {
	return path.Join(layout.Folder(m.AssetType), layout.Folder(m.Subcategory))
}

// Write stores m at path atomically.
func Write(m *Metadata, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return services.Wrap(services.ErrFileIO, "metadata", "encode", path, err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return services.Wrap(services.ErrFileIO, "metadata", "write", path, err)
	}
	return nil
}

// Load reads and validates a metadata.json file.
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, services.Wrap(services.ErrNotFound, "metadata", "read", path, err)
		}
		return nil, services.Wrap(services.ErrFileIO, "metadata", "read", path, err)
	}
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, services.Wrap(services.ErrValidation, "metadata", "decode", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func sortedKeys(values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for key := range values {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}
