package logging

import (
	"context"
	"log/slog"

	"assetlib/internal/services"
)

const (
	// FieldComponent names the package emitting a record.
	FieldComponent = "component"
	// FieldAssetID is the 16-character asset identifier.
	FieldAssetID = "asset_id"
	// FieldStage is the export stage, such as "scan" or "remap".
	FieldStage = "stage"
	// FieldCorrelationID ties together the records of one export run.
	FieldCorrelationID = "correlation_id"
	// FieldEventType classifies a log line for filtering.
	FieldEventType = "event_type"
	// FieldErrorHint is the next step an operator should take.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldPath is the filesystem path a log line refers to.
	FieldPath = "path"
)

// contextFields pairs each log key with the services accessor that feeds it.
var contextFields = []struct {
	key string
	get func(context.Context) (string, bool)
}{
	{FieldAssetID, services.AssetIDFromContext},
	{FieldStage, services.StageFromContext},
	{FieldCorrelationID, services.RequestIDFromContext},
}

// ContextFields returns the asset, stage and correlation attributes carried
// by ctx, omitting any that are unset.
func ContextFields(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr
	for _, f := range contextFields {
		if v, ok := f.get(ctx); ok {
			attrs = append(attrs, slog.String(f.key, v))
		}
	}
	return attrs
}

// WithContext scopes logger to the export described by ctx.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if attrs := ContextFields(ctx); len(attrs) > 0 {
		return logger.With(args(attrs)...)
	}
	return logger
}
