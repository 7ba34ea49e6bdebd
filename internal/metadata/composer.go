package metadata

import (
	"path/filepath"
	"strings"
	"time"

	"assetlib/internal/config"
	"assetlib/internal/identity"
	"assetlib/internal/layout"
	"assetlib/internal/packager"
	"assetlib/internal/sequence"
	"assetlib/internal/textutil"
)

// Input carries everything an export knows about the asset.
type Input struct {
	Identity     identity.Identity
	Name         string
	Description  string
	Dimension    string
	AssetType    string
	Subcategory  string
	RenderEngine string
	// UserTags is the raw comma or whitespace separated tag string.
	UserTags   string
	CreatedBy  string
	AssetDir   string
	FrameRange sequence.Range
	Files      []packager.CopiedFile
	RemapCount int
}

// Composer builds metadata records.
type Composer struct {
	minWordLength int
	stopwords     map[string]struct{}
	now           func() time.Time
}

// NewComposer builds a composer using the tag and library settings of cfg.
func NewComposer(cfg *config.Config) *Composer {
	stop := make(map[string]struct{}, len(cfg.Tags.Stopwords))
	for _, word := range cfg.Tags.Stopwords {
		stop[textutil.Lower(word)] = struct{}{}
	}
	return &Composer{
		minWordLength: cfg.Tags.MinWordLength,
		stopwords:     stop,
		now:           time.Now,
	}
}

// WithClock replaces the timestamp source.
func (c *Composer) WithClock(now func() time.Time) *Composer {
	c.now = now
	return c
}

// Compose assembles the record for in.
func (c *Composer) Compose(in Input) *Metadata {
	id := in.Identity
	m := &Metadata{
		ID:           id.AssetID(),
		BaseUID:      id.BaseUID,
		VariantID:    id.VariantID,
		Version:      id.Version,
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		Dimension:    in.Dimension,
		AssetType:    in.AssetType,
		Subcategory:  in.Subcategory,
		RenderEngine: in.RenderEngine,
		Tags:         c.Tags(in),
		CreatedAt:    c.now().UTC().Truncate(time.Second),
		CreatedBy:    in.CreatedBy,
		AssetDir:     in.AssetDir,
		FrameRange:   in.FrameRange,
		Textures:     FileList{Files: []string{}},
		GeometryFiles: FileList{
			Files: []string{},
		},
		PathRemapping: PathRemapping{
			TotalRemapped: in.RemapCount,
			PathsJSONFile: filepath.ToSlash(filepath.Join(layout.DataDir, layout.PathsFile)),
		},
		FileSizes: make(map[string]int64, len(in.Files)),
	}
	for _, file := range in.Files {
		switch {
		case strings.HasPrefix(file.Relative, layout.TexturesDir+"/"):
			m.Textures.Files = append(m.Textures.Files, file.Relative)
		case strings.HasPrefix(file.Relative, layout.GeometryDir+"/"):
			m.GeometryFiles.Files = append(m.GeometryFiles.Files, file.Relative)
		}
		m.FileSizes[file.Relative] = file.Size
	}
	m.Textures.Count = len(m.Textures.Files)
	m.GeometryFiles.Count = len(m.GeometryFiles.Files)
	return m
}

// Tags derives the tag set: user tags, hierarchy tags and keywords from
// the name and description. The result is lower-case, unique and sorted.
func (c *Composer) Tags(in Input) []string {
	tags := make(map[string]struct{})
	for _, tag := range textutil.SplitList(in.UserTags) {
		if tag = textutil.Lower(strings.TrimSpace(tag)); tag != "" {
			tags[tag] = struct{}{}
		}
	}
	for _, label := range []string{in.AssetType, in.Subcategory, in.RenderEngine} {
		if tag := hierarchyTag(label); tag != "" {
			tags[tag] = struct{}{}
		}
	}
	for _, word := range textutil.Tokenize(in.Name+" "+in.Description, c.minWordLength) {
		if _, stop := c.stopwords[word]; stop {
			continue
		}
		tags[word] = struct{}{}
	}
	return sortedKeys(tags)
}

func hierarchyTag(label string) string {
	return strings.Join(strings.Fields(textutil.Lower(label)), "_")
}
