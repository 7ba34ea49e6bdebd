package packager

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"assetlib/internal/config"
	"assetlib/internal/fileutil"
	"assetlib/internal/layout"
	"assetlib/internal/logging"
	"assetlib/internal/references"
	"assetlib/internal/sequence"
	"assetlib/internal/services"
)

// CollisionError reports an asset directory that already exists.
type CollisionError struct {
	Path string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("asset directory %s already exists", e.Path)
}

// Is makes CollisionError match services.ErrCollision.
func (e *CollisionError) Is(target error) bool {
	return target == services.ErrCollision
}

// Request describes one packaging run.
type Request struct {
	AssetDir string
	// References are the classified host references; pattern references
	// are expected to be covered by Groups.
	References []references.FileReference
	Groups     []*sequence.Group
}

// Mapping pairs a host value with its library-relative path.
type Mapping struct {
	Original string `json:"original"`
	Relative string `json:"relative"`
	Pattern  bool   `json:"pattern,omitempty"`
}

// CopiedFile is one file placed in the library.
type CopiedFile struct {
	Source   string `json:"source"`
	Relative string `json:"relative"`
	Size     int64  `json:"size"`
	SHA256   string `json:"sha256"`
	// Sequence marks frames and tiles copied for a pattern group.
	Sequence bool `json:"sequence,omitempty"`
}

// Warning describes a file that was skipped.
type Warning struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Result is the packager output. Slices follow plan order, not copy
// completion order.
type Result struct {
	AssetDir string
	Mappings []Mapping
	Files    []CopiedFile
	Warnings []Warning
}

// Packager lays out asset directories and copies files into them.
type Packager struct {
	workers int
	verify  bool
	logger  *slog.Logger
}

// New constructs a packager from configuration.
func New(cfg *config.Config, logger *slog.Logger) *Packager {
	workers := cfg.Packaging.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Packager{
		workers: workers,
		verify:  cfg.Packaging.VerifyCopies,
		logger:  logging.NewComponentLogger(logger, "packager"),
	}
}

// CheckDestination fails with a CollisionError when assetDir exists.
func CheckDestination(assetDir string) error {
	_, err := os.Lstat(assetDir)
	switch {
	case err == nil:
		return &CollisionError{Path: assetDir}
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return services.Wrap(services.ErrFileIO, "packaging", "stat asset dir", assetDir, err)
	}
}

// Package creates the asset skeleton and copies every concrete file.
// Missing or unreadable files become warnings; only a collision or a
// failure to create the skeleton is returned as an error.
func (p *Packager) Package(ctx context.Context, req Request) (*Result, error) {
	logger := logging.WithContext(ctx, p.logger)
	if err := CheckDestination(req.AssetDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(req.AssetDir), 0o755); err != nil {
		return nil, services.Wrap(services.ErrFileIO, "packaging", "create hierarchy", filepath.Dir(req.AssetDir), err)
	}
	// Mkdir (not MkdirAll) so a concurrent export that won the race is
	// reported as a collision.
	if err := os.Mkdir(req.AssetDir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, &CollisionError{Path: req.AssetDir}
		}
		return nil, services.Wrap(services.ErrFileIO, "packaging", "create asset dir", req.AssetDir, err)
	}
	for _, dir := range layout.Skeleton {
		if err := os.MkdirAll(filepath.Join(req.AssetDir, dir), 0o755); err != nil {
			p.rollback(logger, req.AssetDir)
			return nil, services.Wrap(services.ErrFileIO, "packaging", "create skeleton", dir, err)
		}
	}

	plan := newPlanner()
	for _, ref := range req.References {
		if !ref.IsPattern() {
			plan.addSingle(ref)
		}
	}
	for _, group := range req.Groups {
		plan.addGroup(group)
	}

	outcomes := p.copyAll(ctx, req.AssetDir, plan.jobs)
	if err := ctx.Err(); err != nil {
		p.rollback(logger, req.AssetDir)
		return nil, services.Wrap(services.ErrTimeout, "packaging", "copy files", "packaging interrupted", err)
	}

	result := &Result{AssetDir: req.AssetDir}
	for i, job := range plan.jobs {
		outcome := outcomes[i]
		if outcome.err != nil {
			result.Warnings = append(result.Warnings, Warning{Path: job.source, Reason: outcome.err.Error()})
			logging.WarnWithContext(logger, "file skipped", "copy_failed",
				logging.Path(job.source),
				logging.Error(outcome.err),
				logging.String(logging.FieldImpact, "file is missing from the packaged asset"),
				logging.String(logging.FieldErrorHint, "check the source file exists and is readable"),
			)
			continue
		}
		result.Files = append(result.Files, CopiedFile{
			Source:   job.source,
			Relative: job.relative,
			Size:     outcome.copy.Size,
			SHA256:   outcome.copy.SHA256,
			Sequence: job.sequence,
		})
		for _, original := range job.originals {
			result.Mappings = append(result.Mappings, Mapping{Original: original, Relative: job.relative})
		}
	}
	result.Mappings = append(result.Mappings, plan.patterns...)

	logger.Info("asset packaged",
		logging.String("asset_dir", req.AssetDir),
		logging.Int("copied", len(result.Files)),
		logging.Int("skipped", len(result.Warnings)),
		logging.Int("patterns", len(plan.patterns)),
	)
	return result, nil
}

// rollback removes a half-built asset directory. Nothing is registered for
// it yet, so leaving it would block its version number for good.
func (p *Packager) rollback(logger *slog.Logger, assetDir string) {
	if err := os.RemoveAll(assetDir); err != nil {
		logger.Warn("failed to remove partial asset directory", logging.Path(assetDir), logging.Error(err))
	}
}

type outcome struct {
	copy fileutil.CopyResult
	err  error
}

func (p *Packager) copyAll(ctx context.Context, assetDir string, jobs []copyJob) []outcome {
	outcomes := make([]outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			dst := filepath.Join(assetDir, filepath.FromSlash(job.relative))
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			var res fileutil.CopyResult
			var err error
			if p.verify {
				res, err = fileutil.CopyFileVerified(job.source, dst)
			} else {
				res, err = fileutil.CopyFile(job.source, dst)
			}
			outcomes[i] = outcome{copy: res, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

type copyJob struct {
	source    string
	relative  string
	originals []string
	sequence  bool
}

// planner assigns library names sequentially so collisions resolve the
// same way on every run.
type planner struct {
	jobs     []copyJob
	patterns []Mapping
	bySource map[string]int
	names    map[string]struct{}
	folders  map[string]struct{}
}

func newPlanner() *planner {
	return &planner{
		bySource: make(map[string]int),
		names:    make(map[string]struct{}),
		folders:  make(map[string]struct{}),
	}
}

func (p *planner) addSingle(ref references.FileReference) {
	folder := layout.GeometryFolder(ref.Extension)
	if ref.Kind == references.KindTexture {
		folder = layout.TextureFolder(ref.Owner())
	}
	p.addFile(ref.RawValue, folder, ref.Extension, ref.RawValue, false)
}

func (p *planner) addGroup(group *sequence.Group) {
	folder := group.Subfolder
	if group.Class == references.ClassSequence {
		folder = p.claimFolder(folder)
		group.Subfolder = folder
	}
	for _, file := range group.Files {
		p.addFile(file, folder, group.Extension, "", true)
	}
	seen := make(map[string]struct{}, len(group.References))
	for _, ref := range group.References {
		if _, dup := seen[ref.RawValue]; dup {
			continue
		}
		seen[ref.RawValue] = struct{}{}
		p.patterns = append(p.patterns, Mapping{
			Original: ref.RawValue,
			Relative: path.Join(folder, filepath.Base(ref.RawValue)),
			Pattern:  true,
		})
	}
}

// addFile plans one copy. A source planned earlier is copied once and
// gains another original instead.
func (p *planner) addFile(source, folder, ext, original string, member bool) {
	if i, ok := p.bySource[source]; ok {
		if original != "" && !slices.Contains(p.jobs[i].originals, original) {
			p.jobs[i].originals = append(p.jobs[i].originals, original)
		}
		p.jobs[i].sequence = p.jobs[i].sequence || member
		return
	}
	relative := p.claimName(folder, filepath.Base(source), ext)
	job := copyJob{source: source, relative: relative, sequence: member}
	if original != "" {
		job.originals = []string{original}
	}
	p.bySource[source] = len(p.jobs)
	p.jobs = append(p.jobs, job)
}

// claimName returns folder/name, appending _N before the extension when
// the name is already taken.
func (p *planner) claimName(folder, name, ext string) string {
	candidate := path.Join(folder, name)
	if _, taken := p.names[candidate]; !taken {
		p.names[candidate] = struct{}{}
		return candidate
	}
	if ext == "" || !strings.HasSuffix(strings.ToLower(name), ext) {
		ext = filepath.Ext(name)
	}
	stem := name[:len(name)-len(ext)]
	for n := 1; ; n++ {
		candidate = path.Join(folder, stem+"_"+strconv.Itoa(n)+name[len(stem):])
		if _, taken := p.names[candidate]; !taken {
			p.names[candidate] = struct{}{}
			return candidate
		}
	}
}

// claimFolder reserves a sequence folder, appending _N when another
// sequence already uses it.
func (p *planner) claimFolder(folder string) string {
	candidate := folder
	for n := 1; ; n++ {
		if _, taken := p.folders[candidate]; !taken {
			p.folders[candidate] = struct{}{}
			return candidate
		}
		candidate = folder + "_" + strconv.Itoa(n)
	}
}
