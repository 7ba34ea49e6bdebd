package export

import (
	"strings"

	"assetlib/internal/config"
	"assetlib/internal/host"
	"assetlib/internal/identity"
	"assetlib/internal/services"
)

// Mode selects how the identity of an export is allocated.
type Mode string

const (
	// ModeNew starts a new lineage at variant AA, version 1.
	ModeNew Mode = "new"
	// ModeVersionUp adds a version to an existing base UID + variant.
	ModeVersionUp Mode = "version_up"
	// ModeVariant opens a new variant of an existing base UID.
	ModeVariant Mode = "variant"
)

// Request is one export call. Hierarchy values are already-resolved
// strings. Host supplies the references; if it also implements
// host.ReferenceWriter or host.SceneSerializer those capabilities are used.
type Request struct {
	Mode Mode
	// BaseID is base UID + variant for ModeVersionUp and the base UID for
	// ModeVariant.
	BaseID       string
	Name         string
	Description  string
	Dimension    string
	AssetType    string
	Subcategory  string
	RenderEngine string
	Tags         string
	CreatedBy    string
	SkipIngest   bool
	Host         host.ReferenceProvider
}

// normalize fills defaults and validates the request before anything is
// touched on disk.
func (r *Request) normalize(cfg *config.Config) error {
	r.Name = strings.TrimSpace(r.Name)
	r.AssetType = strings.TrimSpace(r.AssetType)
	r.Subcategory = strings.TrimSpace(r.Subcategory)
	r.BaseID = strings.TrimSpace(r.BaseID)
	if r.Mode == "" {
		r.Mode = ModeNew
	}
	if strings.TrimSpace(r.Dimension) == "" {
		r.Dimension = cfg.Library.DefaultDimension
	}
	if strings.TrimSpace(r.RenderEngine) == "" {
		r.RenderEngine = cfg.Library.DefaultRenderEngine
	}
	if strings.TrimSpace(r.CreatedBy) == "" {
		r.CreatedBy = cfg.Library.CreatedBy
	}

	if r.Host == nil {
		return invalid("host reference provider is required")
	}
	if r.Name == "" {
		return invalid("asset name is required")
	}
	if r.AssetType == "" {
		return invalid("asset type is required")
	}
	switch r.Mode {
	case ModeNew:
		if r.BaseID != "" {
			return invalid("new assets do not take a base id")
		}
	case ModeVersionUp:
		if _, _, err := identity.ParseBaseID(r.BaseID); err != nil {
			return err
		}
	case ModeVariant:
		if _, err := identity.NormalizeBaseUID(r.BaseID); err != nil {
			return err
		}
	default:
		return invalid("unknown export mode " + string(r.Mode))
	}
	return nil
}

func invalid(message string) error {
	return services.Wrap(services.ErrValidation, "export", "validate request", message, nil)
}
