package references

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"assetlib/internal/host"
	"assetlib/internal/logging"
)

// Class is the classification of a file reference.
type Class string

const (
	ClassTexture  Class = "texture"
	ClassGeometry Class = "geometry-single"
	ClassSequence Class = "sequence-pattern"
	ClassUDIM     Class = "udim-pattern"
)

// Kind is the content family implied by an extension.
type Kind int

const (
	KindUnknown Kind = iota
	KindTexture
	KindGeometry
)

// FileReference is one classified host reference.
type FileReference struct {
	OwnerID        string `json:"owner_id"`
	Field          string `json:"field"`
	RawValue       string `json:"raw_value"`
	Classification Class  `json:"classification"`
	OwnerLabel     string `json:"owner_label,omitempty"`
	// Token is the frame or tile placeholder for pattern classes.
	Token string `json:"token,omitempty"`
	// Extension is the recognised extension, lower-cased with leading dot.
	Extension string `json:"extension"`
	Kind      Kind   `json:"-"`
}

// IsPattern reports whether the reference names many files.
func (r FileReference) IsPattern() bool {
	return r.Classification == ClassSequence || r.Classification == ClassUDIM
}

// Owner returns the label used for folder naming, falling back to the last
// segment of the owner ID.
func (r FileReference) Owner() string {
	if label := strings.TrimSpace(r.OwnerLabel); label != "" {
		return label
	}
	return path.Base(strings.TrimRight(r.OwnerID, "/"))
}

// Warning describes a dropped host value.
type Warning struct {
	OwnerID  string `json:"owner_id"`
	Field    string `json:"field"`
	RawValue string `json:"raw_value"`
	Reason   string `json:"reason"`
}

// Result is the scanner output.
type Result struct {
	References []FileReference
	Warnings   []Warning
}

// Scanner classifies host triples.
type Scanner struct {
	rules  Rules
	logger *slog.Logger
}

// NewScanner returns a scanner using rules.
func NewScanner(rules Rules, logger *slog.Logger) *Scanner {
	rules.sort()
	return &Scanner{rules: rules, logger: logging.NewComponentLogger(logger, "scanner")}
}

// Rules returns the scanner's classification tables.
func (s *Scanner) Rules() Rules {
	return s.rules
}

// Scan classifies every triple. Duplicate (owner, field) pairs keep the first
// value; unclassifiable values become warnings.
func (s *Scanner) Scan(ctx context.Context, triples []host.Triple) Result {
	logger := logging.WithContext(ctx, s.logger)
	var result Result
	seen := make(map[[2]string]struct{}, len(triples))
	for _, triple := range triples {
		key := [2]string{triple.OwnerID, triple.Field}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		ref, reason := s.Classify(triple)
		if reason != "" {
			warning := Warning{OwnerID: triple.OwnerID, Field: triple.Field, RawValue: triple.Value, Reason: reason}
			result.Warnings = append(result.Warnings, warning)
			if strings.TrimSpace(triple.Value) == "" {
				logger.Debug("skipping empty reference", logging.String("owner", triple.OwnerID), logging.String("field", triple.Field))
				continue
			}
			logging.WarnWithContext(logger, "dropping unclassifiable reference", "reference_dropped",
				logging.String("owner", triple.OwnerID),
				logging.String("field", triple.Field),
				logging.String("value", triple.Value),
				logging.String("reason", reason),
				logging.String(logging.FieldImpact, "file will not be packaged or remapped"),
				logging.String(logging.FieldErrorHint, "check the extension tables under [references]"),
			)
			continue
		}
		result.References = append(result.References, ref)
	}
	logger.Info("scanned host references",
		logging.Int("triples", len(triples)),
		logging.Int("classified", len(result.References)),
		logging.Int("dropped", len(result.Warnings)),
	)
	return result
}

// Classify classifies one triple. A non-empty reason means the value was
// dropped.
func (s *Scanner) Classify(triple host.Triple) (FileReference, string) {
	raw := strings.TrimSpace(triple.Value)
	if raw == "" {
		return FileReference{}, "empty value"
	}
	ref := FileReference{
		OwnerID:    triple.OwnerID,
		Field:      triple.Field,
		RawValue:   raw,
		OwnerLabel: strings.TrimSpace(triple.OwnerLabel),
	}

	dir, name := filepath.Split(raw)
	if name == "" {
		return FileReference{}, "value names a directory"
	}
	if _, ok := s.rules.FrameToken(dir); ok {
		return FileReference{}, "frame placeholder in directory part"
	}
	if _, ok := s.rules.TileToken(dir); ok {
		return FileReference{}, "tile placeholder in directory part"
	}

	ext, kind := s.rules.Extension(name)
	if kind == KindUnknown {
		return FileReference{}, "unrecognised extension"
	}
	ref.Extension = ext
	ref.Kind = kind

	if token, ok := s.rules.TileToken(name); ok {
		if kind != KindTexture {
			return FileReference{}, "tile placeholder on non-texture file"
		}
		ref.Classification = ClassUDIM
		ref.Token = token
		return ref, ""
	}
	if token, ok := s.rules.FrameToken(name); ok {
		ref.Classification = ClassSequence
		ref.Token = token
		return ref, ""
	}
	if kind == KindTexture {
		ref.Classification = ClassTexture
	} else {
		ref.Classification = ClassGeometry
	}
	return ref, ""
}
