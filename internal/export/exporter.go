package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"assetlib/internal/config"
	"assetlib/internal/host"
	"assetlib/internal/identity"
	"assetlib/internal/layout"
	"assetlib/internal/logging"
	"assetlib/internal/metadata"
	"assetlib/internal/notifications"
	"assetlib/internal/packager"
	"assetlib/internal/references"
	"assetlib/internal/registry"
	"assetlib/internal/remap"
	"assetlib/internal/sequence"
	"assetlib/internal/services"
	"assetlib/internal/services/ingest"
)

const lockRetryDelay = 100 * time.Millisecond

// Ingester publishes a committed record.
type Ingester interface {
	Ingest(ctx context.Context, m *metadata.Metadata, metadataPath string) (ingest.Outcome, error)
}

// Exporter runs exports against one library.
type Exporter struct {
	cfg       *config.Config
	store     *registry.Store
	allocator *identity.Allocator
	ingester  Ingester
	notifier  notifications.Service
	composer  *metadata.Composer
	rules     references.Rules
	logger    *slog.Logger
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithIngester overrides the ingestion client.
func WithIngester(ingester Ingester) Option {
	return func(e *Exporter) {
		e.ingester = ingester
	}
}

// WithNotifier overrides the ntfy notifier.
func WithNotifier(notifier notifications.Service) Option {
	return func(e *Exporter) {
		if notifier != nil {
			e.notifier = notifier
		}
	}
}

// WithAllocator overrides the identity allocator.
func WithAllocator(allocator *identity.Allocator) Option {
	return func(e *Exporter) {
		if allocator != nil {
			e.allocator = allocator
		}
	}
}

// WithClock overrides the metadata timestamp source.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		e.composer.WithClock(now)
	}
}

// New builds an exporter. Ingestion is wired from configuration when
// enabled.
func New(cfg *config.Config, store *registry.Store, logger *slog.Logger, opts ...Option) (*Exporter, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("exporter requires config and registry store")
	}
	logger = logging.NewComponentLogger(logger, "export")
	e := &Exporter{
		cfg:       cfg,
		store:     store,
		allocator: identity.NewAllocator(store, identity.WithLogger(logger)),
		notifier:  notifications.NewService(cfg),
		composer:  metadata.NewComposer(cfg),
		rules:     references.RulesFromConfig(cfg),
		logger:    logger,
	}
	if cfg.Ingestion.Enabled {
		e.ingester = ingest.NewFromConfig(cfg, logger)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e, nil
}

// Run performs one export. Fatal problems (validation, unknown lineage,
// collision, configuration) leave nothing on disk and return
// Success=false; per-file problems and ingestion failures are issues on a
// successful result.
func (e *Exporter) Run(ctx context.Context, req Request) *Result {
	result := e.run(ctx, req)
	e.notify(ctx, req, result)
	return result
}

func (e *Exporter) run(ctx context.Context, req Request) *Result {
	runID := uuid.NewString()
	ctx = services.WithRequestID(ctx, runID)
	result := &Result{RunID: runID}

	if err := req.normalize(e.cfg); err != nil {
		return result.fail("validate", err)
	}

	lock := flock.New(e.cfg.LockPath())
	if err := e.acquire(ctx, lock); err != nil {
		return result.fail("lock", err)
	}
	locked := true
	unlock := func() {
		if !locked {
			return
		}
		locked = false
		if err := lock.Unlock(); err != nil {
			e.logger.Warn("failed to release library lock", logging.Error(err))
		}
	}
	defer unlock()

	id, err := e.allocate(ctx, req)
	if err != nil {
		return result.fail("identity", err)
	}
	result.Identity = id
	result.AssetID = id.AssetID()
	ctx = services.WithAssetID(ctx, result.AssetID)

	assetDir := layout.AssetDir(e.cfg.Paths.LibraryDir, req.AssetType, req.Subcategory, result.AssetID)
	if err := packager.CheckDestination(assetDir); err != nil {
		return result.fail("package", err)
	}

	stageCtx, _ := e.stage(ctx, "scan")
	triples, err := req.Host.References(stageCtx)
	if err != nil {
		return result.fail("scan", services.Wrap(services.ErrValidation, "scan", "read host references", "", err))
	}
	scanner := references.NewScanner(e.rules, e.logger)
	scanned := scanner.Scan(stageCtx, triples)
	for _, w := range scanned.Warnings {
		result.addIssue(IssueReference, "scan", fmt.Sprintf("%s.%s: %s", w.OwnerID, w.Field, w.Reason), w.RawValue)
	}

	stageCtx, _ = e.stage(ctx, "resolve")
	resolver, err := sequence.NewResolver(e.cfg, e.rules, e.logger)
	if err != nil {
		return result.fail("resolve", services.Wrap(services.ErrConfiguration, "resolve", "create resolver", "", err))
	}
	resolved := resolver.Resolve(stageCtx, scanned.References)
	for _, w := range resolved.Warnings {
		result.addIssue(IssueUnresolved, "resolve", w.Reason, w.Pattern)
	}

	stageCtx, _ = e.stage(ctx, "package")
	packaged, err := packager.New(e.cfg, e.logger).Package(stageCtx, packager.Request{
		AssetDir:   assetDir,
		References: scanned.References,
		Groups:     resolved.Groups,
	})
	if err != nil {
		return result.fail("package", err)
	}
	result.AssetDir = assetDir
	result.FilesCopied = len(packaged.Files)
	for _, w := range packaged.Warnings {
		result.addIssue(IssueFileIO, "package", w.Reason, w.Path)
	}

	stageCtx, logger := e.stage(ctx, "remap")
	values := make([]string, 0, len(triples))
	for _, triple := range triples {
		values = append(values, triple.Value)
	}
	table, unmapped := remap.NewBuilder(e.rules, e.logger).Build(stageCtx, remap.Input{
		AssetDir: assetDir,
		Mappings: packaged.Mappings,
		Files:    packaged.Files,
		Values:   values,
	})
	for _, w := range unmapped {
		result.addIssue(IssueRemap, "remap", w.Reason, w.Value)
	}
	result.RemapCount = table.Len()
	result.PathsFile = layout.DataPath(assetDir, layout.PathsFile)
	if err := table.Write(result.PathsFile); err != nil {
		result.addIssue(IssueFileIO, "remap", err.Error(), result.PathsFile)
	}
	if writer, ok := req.Host.(host.ReferenceWriter); ok {
		applied, failures := remap.Apply(stageCtx, table, triples, writer)
		result.Rewritten = applied
		for _, w := range failures {
			result.addIssue(IssueRemap, "remap", "write back: "+w.Reason, w.Value)
		}
		logger.Info("host references rewritten", logging.Int("rewritten", applied))
	}
	if serializer, ok := req.Host.(host.SceneSerializer); ok {
		scenePath := layout.DataPath(assetDir, layout.SceneFile)
		if err := serializer.SerializeScene(stageCtx, scenePath); err != nil {
			result.addIssue(IssueFileIO, "remap", "serialize scene: "+err.Error(), scenePath)
		}
	}

	stageCtx, logger = e.stage(ctx, "metadata")
	result.FrameRange = sequence.DetectFrameRange(resolved.Groups, sequence.PolicyFromConfig(e.cfg))
	record := e.composer.Compose(metadata.Input{
		Identity:     id,
		Name:         req.Name,
		Description:  req.Description,
		Dimension:    req.Dimension,
		AssetType:    req.AssetType,
		Subcategory:  req.Subcategory,
		RenderEngine: req.RenderEngine,
		UserTags:     req.Tags,
		CreatedBy:    req.CreatedBy,
		AssetDir:     assetDir,
		FrameRange:   result.FrameRange,
		Files:        packaged.Files,
		RemapCount:   table.Len(),
	})
	metadataPath := filepath.Join(assetDir, layout.MetadataFile)
	writeErr := metadata.Write(record, metadataPath)

	// The directory exists from here on, so the version is registered even
	// without metadata; otherwise the next version-up reallocates it.
	if err := e.store.Register(stageCtx, registry.Record{
		AssetID:      result.AssetID,
		BaseUID:      id.BaseUID,
		VariantID:    id.VariantID,
		Version:      id.Version,
		Name:         record.Name,
		AssetType:    record.AssetType,
		Subcategory:  record.Subcategory,
		AssetDir:     assetDir,
		MetadataPath: metadataPath,
		CreatedAt:    record.CreatedAt,
	}); err != nil {
		result.addIssue(IssueInternal, "metadata", err.Error(), metadataPath)
	}
	if writeErr != nil {
		result.addIssue(IssueFileIO, "metadata", writeErr.Error(), metadataPath)
		result.Success = true
		result.Ingestion = ingest.Outcome{Status: ingest.StatusSkipped, Message: "metadata not written"}
		result.summarize()
		return result
	}
	result.MetadataPath = metadataPath
	logger.Info("asset committed", logging.Path(assetDir))
	unlock()

	result.Success = true
	result.Ingestion = e.ingest(ctx, req, record, metadataPath, result)
	result.summarize()
	e.logger.Info("export completed",
		logging.String(logging.FieldAssetID, result.AssetID),
		logging.String(logging.FieldEventType, "export_complete"),
		logging.Int("files", result.FilesCopied),
		logging.Int("remapped", result.RemapCount),
		logging.Int("issues", len(result.Issues)),
	)
	return result
}

func (e *Exporter) ingest(ctx context.Context, req Request, record *metadata.Metadata, metadataPath string, result *Result) ingest.Outcome {
	if e.ingester == nil || req.SkipIngest {
		return ingest.Outcome{Status: ingest.StatusSkipped}
	}
	stageCtx, logger := e.stage(ctx, "ingest")
	outcome, err := e.ingester.Ingest(stageCtx, record, metadataPath)
	if err != nil {
		result.addIssue(IssueIngestion, "ingest", err.Error(), metadataPath)
		return outcome
	}
	if err := e.store.MarkIngested(stageCtx, record.ID, outcome.ExternalID); err != nil {
		logger.Warn("failed to record ingestion", logging.Error(err))
	}
	return outcome
}

// notify is best effort; a failed notice never changes the result.
func (e *Exporter) notify(ctx context.Context, req Request, result *Result) {
	var err error
	switch {
	case !result.Success:
		reason := result.Status
		if len(result.Issues) > 0 {
			reason = result.Issues[0].Message
		}
		err = e.notifier.NotifyExportFailed(ctx, req.Name, errors.New(reason))
	default:
		err = e.notifier.NotifyExported(ctx, notifications.Export{
			AssetID:  result.AssetID,
			Name:     req.Name,
			Category: req.AssetType + "/" + req.Subcategory,
			Files:    result.FilesCopied,
			Issues:   len(result.Issues),
		})
		if err == nil && (result.Ingestion.Status == ingest.StatusFailed || result.Ingestion.Status == ingest.StatusRejected) {
			err = e.notifier.NotifyIngestionFailed(ctx, result.AssetID, result.Ingestion.Message)
		}
	}
	if err != nil {
		logging.WarnWithContext(e.logger, "export notification failed", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "export result is unaffected"),
		)
	}
}

func (e *Exporter) acquire(ctx context.Context, lock *flock.Flock) error {
	if err := e.cfg.EnsureDirectories(); err != nil {
		return services.Wrap(services.ErrConfiguration, "export", "prepare directories", "", err)
	}
	ok, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return services.Wrap(services.ErrTimeout, "export", "acquire library lock", lock.Path(), err)
	}
	if !ok {
		return services.Wrap(services.ErrTimeout, "export", "acquire library lock", lock.Path(), nil)
	}
	return nil
}

func (e *Exporter) allocate(ctx context.Context, req Request) (identity.Identity, error) {
	switch req.Mode {
	case ModeVersionUp:
		return e.allocator.AllocateVersionUp(ctx, req.BaseID)
	case ModeVariant:
		return e.allocator.AllocateVariant(ctx, req.BaseID)
	default:
		return e.allocator.AllocateNew(ctx)
	}
}

// stage returns a context and logger tagged with the stage name.
func (e *Exporter) stage(ctx context.Context, name string) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"), logging.String("stage_name", strings.ToLower(name)))
	return ctx, logger
}
