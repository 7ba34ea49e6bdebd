package remap

import (
	"context"
	"log/slog"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"assetlib/internal/host"
	"assetlib/internal/logging"
	"assetlib/internal/packager"
	"assetlib/internal/references"
)

// frameDigits locate the frame number inside a file name, in priority order.
var frameDigits = []*regexp.Regexp{
	regexp.MustCompile(`\.(\d+)\.`),
	regexp.MustCompile(`_(\d+)[._]`),
	regexp.MustCompile(`(\d+)\.`),
}

const frameMarker = "\x00#"

// Input is everything the builder merges.
type Input struct {
	AssetDir string
	Mappings []packager.Mapping
	Files    []packager.CopiedFile
	// Values are every raw host value, including those the scanner
	// dropped; unmapped ones are reconciled against Files.
	Values []string
}

// Warning describes a host value left unmapped.
type Warning struct {
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Builder merges packager output into a remap table.
type Builder struct {
	rules  references.Rules
	logger *slog.Logger
}

// NewBuilder returns a builder that recognises the frame tokens of rules.
func NewBuilder(rules references.Rules, logger *slog.Logger) *Builder {
	return &Builder{rules: rules, logger: logging.NewComponentLogger(logger, "remap")}
}

// Build merges mappings into a table and reconciles unmapped values by
// file name, then by frame-normalised file name. The frame fallback only
// matches files copied for a sequence or UDIM group, so a versioned single
// such as crate_v2.png never lands on crate_v1.png's folder.
func (b *Builder) Build(ctx context.Context, in Input) (*Table, []Warning) {
	logger := logging.WithContext(ctx, b.logger)
	table := NewTable()
	for _, m := range in.Mappings {
		table.Add(m.Original, absolute(in.AssetDir, m.Relative))
	}

	byName := make(map[string]string)
	byFrame := make(map[string]string)
	for _, file := range in.Files {
		name := path.Base(file.Relative)
		if _, exists := byName[name]; !exists {
			byName[name] = file.Relative
		}
		if !file.Sequence {
			continue
		}
		if key := b.frameKey(name); key != "" {
			if _, exists := byFrame[key]; !exists {
				byFrame[key] = file.Relative
			}
		}
	}

	var warnings []Warning
	reconciled := 0
	for _, value := range in.Values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, mapped := table.Lookup(value); mapped {
			continue
		}
		name := filepath.Base(value)
		if rel, ok := byName[name]; ok {
			table.Add(value, absolute(in.AssetDir, rel))
			reconciled++
			continue
		}
		if key := b.frameKey(name); key != "" {
			if rel, ok := byFrame[key]; ok {
				table.Add(value, absolute(in.AssetDir, path.Join(path.Dir(rel), name)))
				reconciled++
				continue
			}
		}
		warnings = append(warnings, Warning{Value: value, Reason: "no packaged file matches"})
		logging.WarnWithContext(logger, "reference left unmapped", "remap_unmapped",
			logging.String("value", value),
			logging.String(logging.FieldImpact, "host keeps pointing at the original location"),
			logging.String(logging.FieldErrorHint, "package the file manually or fix the host path"),
		)
	}

	logger.Info("remap table built",
		logging.Int("entries", table.Len()),
		logging.Int("reconciled", reconciled),
		logging.Int("unmapped", len(warnings)),
	)
	return table, warnings
}

// frameKey replaces the frame token or frame digits in name with a marker.
// An empty key means name carries no frame.
func (b *Builder) frameKey(name string) string {
	if token, ok := b.rules.FrameToken(name); ok {
		return strings.Replace(name, token, frameMarker, 1)
	}
	for _, re := range frameDigits {
		if loc := re.FindStringSubmatchIndex(name); loc != nil {
			return name[:loc[2]] + frameMarker + name[loc[3]:]
		}
	}
	return ""
}

// Apply writes every mapped triple back through writer. It returns the
// number of fields rewritten and a warning per failed write.
func Apply(ctx context.Context, table *Table, triples []host.Triple, writer host.ReferenceWriter) (int, []Warning) {
	applied := 0
	var warnings []Warning
	for _, triple := range triples {
		newPath, ok := table.Lookup(strings.TrimSpace(triple.Value))
		if !ok {
			continue
		}
		if err := writer.WriteReference(ctx, triple.OwnerID, triple.Field, newPath); err != nil {
			warnings = append(warnings, Warning{Value: triple.Value, Reason: err.Error()})
			continue
		}
		applied++
	}
	return applied, warnings
}

func absolute(assetDir, relative string) string {
	return filepath.Join(assetDir, filepath.FromSlash(relative))
}
