package services

import "context"

// contextKey scopes values this package stores on a context.
type contextKey int

const (
	assetIDKey contextKey = iota
	stageKey
	requestIDKey
)

func withValue(ctx context.Context, key contextKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func lookup(ctx context.Context, key contextKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	v, _ := ctx.Value(key).(string)
	return v, v != ""
}

// WithAssetID tags ctx with the 16-character asset being exported.
func WithAssetID(ctx context.Context, id string) context.Context {
	return withValue(ctx, assetIDKey, id)
}

func AssetIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, assetIDKey) }

// WithStage tags ctx with the export stage currently running.
func WithStage(ctx context.Context, stage string) context.Context {
	return withValue(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) { return lookup(ctx, stageKey) }

// WithRequestID tags ctx with the correlation id shared by one export run.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) (string, bool) { return lookup(ctx, requestIDKey) }
