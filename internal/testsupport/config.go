package testsupport

import (
	"path/filepath"
	"testing"

	"assetlib/internal/config"
)

// ConfigOption adjusts a generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig returns defaults rooted in a fresh temp directory, with
// millisecond ingestion backoff so retry tests stay fast.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	root := t.TempDir()
	cfg := config.Default()
	cfg.Paths = config.Paths{
		LibraryDir: filepath.Join(root, "library"),
		StateDir:   filepath.Join(root, "state"),
		LogDir:     filepath.Join(root, "logs"),
	}
	cfg.Library.CreatedBy = "tester"
	cfg.Ingestion.RetryBaseDelayMS = 1
	cfg.Ingestion.RetryMaxDelayMS = 5

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithIngestion enables ingestion against baseURL with three attempts.
func WithIngestion(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Ingestion.Enabled = true
		cfg.Ingestion.BaseURL = baseURL
		cfg.Ingestion.MaxAttempts = 3
		cfg.Ingestion.TimeoutSeconds = 5
	}
}

func WithWorkers(n int) ConfigOption {
	return func(cfg *config.Config) { cfg.Packaging.Workers = n }
}

// BaseDir returns the temp root shared by the config's directories.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
