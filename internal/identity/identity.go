package identity

import (
	"fmt"
	"strconv"
	"strings"

	"assetlib/internal/services"
)

// Identifier widths. An asset ID is BaseUIDLength + VariantLength +
// VersionDigits characters, e.g. "3F9A0C1D2E7AB004".
const (
	BaseUIDLength = 11
	VariantLength = 2
	VersionDigits = 3
	AssetIDLength = BaseUIDLength + VariantLength + VersionDigits
	BaseIDLength  = BaseUIDLength + VariantLength

	FirstVariant = "AA"
	MaxVariants  = 26 * 26
	MaxVersion   = 999
)

// Identity addresses one exported asset version. It is allocated once per
// export and never mutated afterwards.
type Identity struct {
	BaseUID   string `json:"base_uid"`
	VariantID string `json:"variant_id"`
	Version   int    `json:"version"`
}

// AssetID returns the concatenated identifier used for directory names and
// as the ingestion idempotency key.
func (id Identity) AssetID() string {
	return id.BaseUID + id.VariantID + id.VersionString()
}

// BaseID returns the base UID and variant, the key shared by every version
// of one lineage.
func (id Identity) BaseID() string {
	return id.BaseUID + id.VariantID
}

// VersionString returns the zero-padded version.
func (id Identity) VersionString() string {
	return fmt.Sprintf("%0*d", VersionDigits, id.Version)
}

func (id Identity) String() string {
	return id.AssetID()
}

// Validate checks every component of the identity.
func (id Identity) Validate() error {
	if err := ValidateBaseUID(id.BaseUID); err != nil {
		return err
	}
	if _, err := VariantIndex(id.VariantID); err != nil {
		return err
	}
	if id.Version < 1 || id.Version > MaxVersion {
		return validationError("version", fmt.Sprintf("version %d out of range 1..%d", id.Version, MaxVersion))
	}
	return nil
}

// ParseAssetID splits a full asset ID into its components.
func ParseAssetID(value string) (Identity, error) {
	value = normalize(value)
	if len(value) != AssetIDLength {
		return Identity{}, validationError("parse asset id", fmt.Sprintf("%q must be %d characters", value, AssetIDLength))
	}
	baseUID, variant, err := ParseBaseID(value[:BaseIDLength])
	if err != nil {
		return Identity{}, err
	}
	digits := value[BaseIDLength:]
	if !isDigits(digits) {
		return Identity{}, validationError("parse asset id", fmt.Sprintf("version %q must be %d digits", digits, VersionDigits))
	}
	version, _ := strconv.Atoi(digits)
	id := Identity{BaseUID: baseUID, VariantID: variant, Version: version}
	if err := id.Validate(); err != nil {
		return Identity{}, err
	}
	return id, nil
}

// ParseBaseID splits a base ID (base UID + variant) into its components.
func ParseBaseID(value string) (string, string, error) {
	value = normalize(value)
	if len(value) != BaseIDLength {
		return "", "", validationError("parse base id", fmt.Sprintf("%q must be %d characters", value, BaseIDLength))
	}
	baseUID, variant := value[:BaseUIDLength], value[BaseUIDLength:]
	if err := ValidateBaseUID(baseUID); err != nil {
		return "", "", err
	}
	if _, err := VariantIndex(variant); err != nil {
		return "", "", err
	}
	return baseUID, variant, nil
}

// ValidateBaseUID checks length and alphabet ([0-9A-Z]).
func ValidateBaseUID(value string) error {
	if len(value) != BaseUIDLength {
		return validationError("base uid", fmt.Sprintf("%q must be %d characters", value, BaseUIDLength))
	}
	for _, r := range value {
		if (r < '0' || r > '9') && (r < 'A' || r > 'Z') {
			return validationError("base uid", fmt.Sprintf("%q contains invalid character %q", value, r))
		}
	}
	return nil
}

// NormalizeBaseUID trims and upper-cases user input before validating it.
func NormalizeBaseUID(value string) (string, error) {
	value = normalize(value)
	if err := ValidateBaseUID(value); err != nil {
		return "", err
	}
	return value, nil
}

// VariantIndex converts a two-letter variant code to its base-26 value
// (AA=0, AB=1, ..., ZZ=675).
func VariantIndex(code string) (int, error) {
	if len(code) != VariantLength {
		return 0, validationError("variant", fmt.Sprintf("%q must be %d letters", code, VariantLength))
	}
	index := 0
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return 0, validationError("variant", fmt.Sprintf("%q must be upper-case letters", code))
		}
		index = index*26 + int(r-'A')
	}
	return index, nil
}

// VariantCode converts a base-26 value back to its two-letter code.
func VariantCode(index int) (string, error) {
	if index < 0 || index >= MaxVariants {
		return "", services.Wrap(ErrVariantSpaceExhausted, "identity", "variant", fmt.Sprintf("index %d outside AA..ZZ", index), nil)
	}
	return string([]byte{byte('A' + index/26), byte('A' + index%26)}), nil
}

func normalize(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func validationError(operation, message string) error {
	return services.Wrap(services.ErrValidation, "identity", operation, message, nil)
}
