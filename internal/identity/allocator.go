package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"assetlib/internal/logging"
	"assetlib/internal/services"
)

var (
	// ErrVariantSpaceExhausted reports that every code AA..ZZ is taken for a
	// base UID. Codes are never wrapped around.
	ErrVariantSpaceExhausted = fmt.Errorf("%w: variant space exhausted", services.ErrValidation)
	// ErrVersionSpaceExhausted reports that a lineage reached MaxVersion.
	ErrVersionSpaceExhausted = fmt.Errorf("%w: version space exhausted", services.ErrValidation)
)

const defaultUIDAttempts = 8

// Catalog answers the lookups the allocator needs about existing records.
type Catalog interface {
	Versions(ctx context.Context, baseUID, variantID string) ([]int, error)
	Variants(ctx context.Context, baseUID string) ([]string, error)
	BaseExists(ctx context.Context, baseUID string) (bool, error)
}

// Allocator hands out identities for new assets, versions and variants.
type Allocator struct {
	catalog  Catalog
	newUID   func() string
	attempts int
	logger   *slog.Logger
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithUIDSource overrides the random base UID generator.
func WithUIDSource(fn func() string) Option {
	return func(a *Allocator) {
		if fn != nil {
			a.newUID = fn
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Allocator) {
		a.logger = logging.NewComponentLogger(logger, "identity")
	}
}

// NewAllocator builds an allocator backed by catalog.
func NewAllocator(catalog Catalog, opts ...Option) *Allocator {
	a := &Allocator{
		catalog:  catalog,
		newUID:   RandomBaseUID,
		attempts: defaultUIDAttempts,
		logger:   logging.NewComponentLogger(nil, "identity"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RandomBaseUID returns BaseUIDLength upper-case hex characters drawn from a
// random UUID.
func RandomBaseUID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:BaseUIDLength])
}

// AllocateNew returns a fresh identity at variant AA, version 1. Generated
// base UIDs are checked against the local catalog only.
func (a *Allocator) AllocateNew(ctx context.Context) (Identity, error) {
	for attempt := 1; attempt <= a.attempts; attempt++ {
		baseUID := a.newUID()
		if err := ValidateBaseUID(baseUID); err != nil {
			return Identity{}, err
		}
		exists, err := a.catalog.BaseExists(ctx, baseUID)
		if err != nil {
			return Identity{}, fmt.Errorf("identity: check base uid: %w", err)
		}
		if !exists {
			id := Identity{BaseUID: baseUID, VariantID: FirstVariant, Version: 1}
			a.logger.Debug("allocated new identity", logging.String(logging.FieldAssetID, id.AssetID()))
			return id, nil
		}
		logging.WarnWithContext(a.logger, "generated base uid already registered",
			"identity_collision",
			logging.String("base_uid", baseUID),
			logging.Int("attempt", attempt),
			logging.String(logging.FieldImpact, "a new base uid will be generated"),
		)
	}
	return Identity{}, services.Wrap(services.ErrValidation, "identity", "allocate new",
		fmt.Sprintf("no unused base uid after %d attempts", a.attempts), nil)
}

// AllocateVersionUp returns the next version in the lineage named by baseID
// (base UID + variant).
func (a *Allocator) AllocateVersionUp(ctx context.Context, baseID string) (Identity, error) {
	baseUID, variant, err := ParseBaseID(baseID)
	if err != nil {
		return Identity{}, err
	}
	versions, err := a.catalog.Versions(ctx, baseUID, variant)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: lookup versions: %w", err)
	}
	if len(versions) == 0 {
		return Identity{}, services.Wrap(services.ErrNotFound, "identity", "version up",
			fmt.Sprintf("no records for %s%s", baseUID, variant), nil)
	}
	highest := 0
	for _, v := range versions {
		if v > highest {
			highest = v
		}
	}
	if highest >= MaxVersion {
		return Identity{}, services.Wrap(ErrVersionSpaceExhausted, "identity", "version up",
			fmt.Sprintf("%s%s already at version %d", baseUID, variant, highest), nil)
	}
	id := Identity{BaseUID: baseUID, VariantID: variant, Version: highest + 1}
	a.logger.Debug("allocated version", logging.String(logging.FieldAssetID, id.AssetID()), logging.Int("previous", highest))
	return id, nil
}

// AllocateVariant returns the smallest unused variant code for baseUID at
// version 1.
func (a *Allocator) AllocateVariant(ctx context.Context, baseUID string) (Identity, error) {
	baseUID, err := NormalizeBaseUID(baseUID)
	if err != nil {
		return Identity{}, err
	}
	codes, err := a.catalog.Variants(ctx, baseUID)
	if err != nil {
		return Identity{}, fmt.Errorf("identity: lookup variants: %w", err)
	}
	if len(codes) == 0 {
		return Identity{}, services.Wrap(services.ErrNotFound, "identity", "variant",
			fmt.Sprintf("no records for base uid %s", baseUID), nil)
	}
	next, err := NextVariant(codes)
	if err != nil {
		return Identity{}, err
	}
	id := Identity{BaseUID: baseUID, VariantID: next, Version: 1}
	a.logger.Debug("allocated variant", logging.String(logging.FieldAssetID, id.AssetID()), logging.Int("existing_variants", len(codes)))
	return id, nil
}

// NextVariant returns the first code not present in existing, scanning from AA.
// Malformed codes in existing are ignored.
func NextVariant(existing []string) (string, error) {
	indexes := make([]int, 0, len(existing))
	for _, code := range existing {
		idx, err := VariantIndex(code)
		if err != nil {
			continue
		}
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	next := 0
	for _, idx := range indexes {
		if idx == next {
			next++
			continue
		}
		if idx > next {
			break
		}
	}
	return VariantCode(next)
}
