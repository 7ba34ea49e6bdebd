package sequence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"assetlib/internal/config"
	"assetlib/internal/layout"
	"assetlib/internal/logging"
	"assetlib/internal/references"
	"assetlib/internal/textutil"
)

const tileDigits = 4

// Group is one discovered sequence or tile set.
type Group struct {
	// Pattern is the host value with its placeholder intact.
	Pattern string
	// Resolved is Pattern with owner tokens substituted.
	Resolved  string
	Token     string
	BaseName  string
	Class     references.Class
	Kind      references.Kind
	Extension string
	// Frames holds the numbers found in place of the token: frame numbers
	// for sequences, tile ids for UDIM sets.
	Frames []int
	Files  []string
	// Subfolder is the library-relative folder the files are packaged into.
	Subfolder  string
	Unresolved bool
	References []references.FileReference
}

// PatternName returns the pattern file name with the placeholder intact.
func (g *Group) PatternName() string {
	return filepath.Base(g.Pattern)
}

// Warning describes a pattern that could not be fully resolved.
type Warning struct {
	Pattern string `json:"pattern"`
	Reason  string `json:"reason"`
}

// Result is the resolver output.
type Result struct {
	Groups   []*Group
	Warnings []Warning
}

type listing struct {
	names []string
	err   error
}

// Resolver expands pattern references into concrete files. A resolver
// caches directory listings and is meant to live for one export run.
type Resolver struct {
	rules       references.Rules
	defaultTile string
	listings    *lru.Cache[string, listing]
	logger      *slog.Logger
}

// NewResolver builds a resolver from configuration.
func NewResolver(cfg *config.Config, rules references.Rules, logger *slog.Logger) (*Resolver, error) {
	cache, err := lru.New[string, listing](cfg.Sequences.ListingCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create listing cache: %w", err)
	}
	return &Resolver{
		rules:       rules,
		defaultTile: cfg.Sequences.DefaultTile,
		listings:    cache,
		logger:      logging.NewComponentLogger(logger, "sequence"),
	}, nil
}

// Resolve discovers the files behind every pattern reference in refs.
// Non-pattern references are ignored. Groups keep the order of first
// discovery; the same (pattern, base name) is resolved once.
func (r *Resolver) Resolve(ctx context.Context, refs []references.FileReference) Result {
	logger := logging.WithContext(ctx, r.logger)
	var result Result
	byKey := make(map[string]*Group)

	for _, ref := range refs {
		if !ref.IsPattern() {
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Warnings = append(result.Warnings, Warning{Pattern: ref.RawValue, Reason: err.Error()})
			continue
		}
		group := r.newGroup(ref)
		key := group.Resolved + "\x00" + group.BaseName
		if existing, ok := byKey[key]; ok {
			existing.References = append(existing.References, ref)
			continue
		}
		byKey[key] = group
		result.Groups = append(result.Groups, group)

		if reason := r.discover(group); reason != "" {
			group.Unresolved = true
			result.Warnings = append(result.Warnings, Warning{Pattern: group.Pattern, Reason: reason})
			logging.WarnWithContext(logger, "pattern unresolved", "pattern_unresolved",
				logging.String("pattern", group.Pattern),
				logging.String("reason", reason),
				logging.String(logging.FieldImpact, "pattern is remapped but no files are copied"),
				logging.String(logging.FieldErrorHint, "verify the cache directory exists and contains numbered files"),
			)
			continue
		}
		logger.Debug("pattern resolved",
			logging.String("pattern", group.Pattern),
			logging.Int("files", len(group.Files)),
			logging.String("subfolder", group.Subfolder),
		)
	}
	return result
}

func (r *Resolver) newGroup(ref references.FileReference) *Group {
	owner := ref.Owner()
	resolved := r.rules.SubstituteOwner(ref.RawValue, owner)
	prefix, suffix := splitAround(filepath.Base(resolved), ref.Token)

	base := strings.TrimRight(prefix, "._- ")
	if base == "" {
		base = strings.TrimLeft(strings.TrimSuffix(suffix, ref.Extension), "._- ")
	}
	if base == "" {
		base = "sequence"
	}

	group := &Group{
		Pattern:    ref.RawValue,
		Resolved:   resolved,
		Token:      ref.Token,
		BaseName:   base,
		Class:      ref.Classification,
		Kind:       ref.Kind,
		Extension:  ref.Extension,
		References: []references.FileReference{ref},
	}
	folder := textutil.SanitizeFileName(base)
	switch {
	case ref.Classification == references.ClassUDIM:
		group.Subfolder = layout.TextureFolder(owner)
	case ref.Kind == references.KindTexture:
		group.Subfolder = path.Join(layout.TextureFolder(owner), folder)
	default:
		group.Subfolder = path.Join(layout.GeometryFolder(ref.Extension), folder)
	}
	return group
}

// discover fills Files and Frames. A non-empty return is the reason the
// group stays unresolved.
func (r *Resolver) discover(group *Group) string {
	dir := filepath.Dir(group.Resolved)
	prefix, suffix := splitAround(filepath.Base(group.Resolved), group.Token)
	width := 0
	if group.Class == references.ClassUDIM {
		width = tileDigits
	}

	names, err := r.list(dir)
	if err != nil && group.Class != references.ClassUDIM {
		if errors.Is(err, fs.ErrNotExist) {
			return "directory does not exist"
		}
		return fmt.Sprintf("list directory: %v", err)
	}
	for _, name := range names {
		number, ok := matchNumber(name, prefix, suffix, width)
		if !ok {
			continue
		}
		group.Files = append(group.Files, filepath.Join(dir, name))
		group.Frames = append(group.Frames, number)
	}

	if len(group.Files) == 0 && group.Class == references.ClassUDIM {
		probe := filepath.Join(dir, prefix+r.defaultTile+suffix)
		if info, statErr := os.Stat(probe); statErr == nil && info.Mode().IsRegular() {
			tile, _ := strconv.Atoi(r.defaultTile)
			group.Files = []string{probe}
			group.Frames = []int{tile}
		}
	}
	if len(group.Files) == 0 {
		if group.Class == references.ClassUDIM {
			return "no tiles found and default tile " + r.defaultTile + " is missing"
		}
		return "no files match the pattern"
	}

	sortTogether(group)
	return ""
}

func (r *Resolver) list(dir string) ([]string, error) {
	if cached, ok := r.listings.Get(dir); ok {
		return cached.names, cached.err
	}
	entries, err := os.ReadDir(dir)
	var names []string
	for _, entry := range entries {
		if entry.Type().IsRegular() || entry.Type()&fs.ModeSymlink != 0 {
			names = append(names, entry.Name())
		}
	}
	r.listings.Add(dir, listing{names: names, err: err})
	return names, err
}

// splitAround splits name at the first occurrence of token.
func splitAround(name, token string) (string, string) {
	i := strings.Index(name, token)
	if i < 0 {
		return name, ""
	}
	return name[:i], name[i+len(token):]
}

// matchNumber reports whether name is prefix + digits + suffix. A positive
// width requires exactly that many digits.
func matchNumber(name, prefix, suffix string, width int) (int, bool) {
	if len(name) <= len(prefix)+len(suffix) {
		return 0, false
	}
	if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, suffix) {
		return 0, false
	}
	middle := name[len(prefix) : len(name)-len(suffix)]
	if width > 0 && len(middle) != width {
		return 0, false
	}
	for _, c := range middle {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(middle)
	if err != nil {
		return 0, false
	}
	return n, true
}

// sortTogether orders files lexicographically, keeping Frames aligned.
func sortTogether(group *Group) {
	idx := make([]int, len(group.Files))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return group.Files[idx[a]] < group.Files[idx[b]] })
	files := make([]string, len(idx))
	frames := make([]int, len(idx))
	for i, j := range idx {
		files[i] = group.Files[j]
		frames[i] = group.Frames[j]
	}
	group.Files, group.Frames = files, frames
}
