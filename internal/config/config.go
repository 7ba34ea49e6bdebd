package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDir string `toml:"library_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Library contains defaults applied to every exported asset.
type Library struct {
	DefaultDimension    string `toml:"default_dimension"`
	DefaultRenderEngine string `toml:"default_render_engine"`
	CreatedBy           string `toml:"created_by"`
}

// References controls how raw host values are classified.
type References struct {
	FrameTokens        []string `toml:"frame_tokens"`
	TileTokens         []string `toml:"tile_tokens"`
	OwnerTokens        []string `toml:"owner_tokens"`
	TextureExtensions  []string `toml:"texture_extensions"`
	GeometryExtensions []string `toml:"geometry_extensions"`
}

// Sequences controls sequence and tile discovery.
type Sequences struct {
	DefaultTile      string `toml:"default_tile"`
	ListingCacheSize int    `toml:"listing_cache_size"`
}

// FrameRange controls the frame range recorded in metadata.
type FrameRange struct {
	Floor     int `toml:"floor"`
	MinLength int `toml:"min_length"`
}

// Packaging controls the library copy step.
type Packaging struct {
	Workers      int  `toml:"workers"`
	VerifyCopies bool `toml:"verify_copies"`
}

// Tags controls keyword extraction from names and descriptions.
type Tags struct {
	MinWordLength int      `toml:"min_word_length"`
	Stopwords     []string `toml:"stopwords"`
}

// Ingestion contains configuration for the external asset index.
type Ingestion struct {
	Enabled          bool   `toml:"enabled"`
	BaseURL          string `toml:"base_url"`
	APIKey           string `toml:"api_key"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	MaxAttempts      int    `toml:"max_attempts"`
	RetryBaseDelayMS int    `toml:"retry_base_delay_ms"`
	RetryMaxDelayMS  int    `toml:"retry_max_delay_ms"`
}

// Notifications configures ntfy export notices. An empty topic disables them.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for assetlib.
//
// Configuration sections by subsystem:
//   - Paths: library root, local state (registry) and logs
//   - Library: hierarchy defaults and provenance
//   - References: placeholder tokens and extension classes
//   - Sequences: tile fallback and directory listing cache
//   - FrameRange: floor and minimum length policy
//   - Packaging: copy worker pool
//   - Tags: keyword extraction
//   - Ingestion: external index endpoint and retry policy
//   - Notifications: ntfy topic for export notices
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Library       Library       `toml:"library"`
	References    References    `toml:"references"`
	Sequences     Sequences     `toml:"sequences"`
	FrameRange    FrameRange    `toml:"frame_range"`
	Packaging     Packaging     `toml:"packaging"`
	Tags          Tags          `toml:"tags"`
	Ingestion     Ingestion     `toml:"ingestion"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the expanded per-user config location.
func DefaultConfigPath() (string, error) {
	return ExpandPath(defaultConfigPath)
}

// Load reads the config file chosen by resolveConfigPath, layers it over
// Default, then normalizes and validates the result. The resolved path and
// whether a file was found are returned for diagnostics.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	if err := toml.Unmarshal(raw, cfg); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return fmt.Errorf("parse config %s:%d:%d: %w", path, row, col, err)
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// resolveConfigPath picks, in order: the explicit path, $ASSETLIB_CONFIG,
// the per-user default, then ./assetlib.toml. A named file that does not
// exist yields exists=false so defaults apply.
func resolveConfigPath(path string) (string, bool, error) {
	named := strings.TrimSpace(path)
	if named == "" {
		named = strings.TrimSpace(os.Getenv("ASSETLIB_CONFIG"))
	}
	if named != "" {
		expanded, err := ExpandPath(named)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return expanded, false, nil
		case err != nil:
			return "", false, fmt.Errorf("stat config: %w", err)
		case info.IsDir():
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	userPath, err := ExpandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, "assetlib.toml"} {
		abs, err := filepath.Abs(candidate)
		if err != nil {
			return "", false, err
		}
		if info, err := os.Stat(abs); err == nil && !info.IsDir() {
			return abs, true, nil
		}
	}
	return userPath, false, nil
}

// EnsureDirectories creates the state and log directories. LibraryDir is
// created on a best-effort basis so commands that never touch the library
// keep working when shared storage is offline.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if c.Paths.LibraryDir != "" {
		_ = os.MkdirAll(c.Paths.LibraryDir, 0o755)
	}
	return nil
}

// RegistryPath returns the location of the local asset registry database.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.Paths.StateDir, registryFileName)
}

// LockPath returns the advisory lock file guarding allocation and packaging
// for the configured library root.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LibraryDir, lockFileName)
}

// IngestionTimeout returns the per-attempt HTTP timeout.
func (c *Config) IngestionTimeout() time.Duration {
	return time.Duration(c.Ingestion.TimeoutSeconds) * time.Second
}

// IngestionRetryDelays returns the base and maximum backoff delays.
func (c *Config) IngestionRetryDelays() (time.Duration, time.Duration) {
	return time.Duration(c.Ingestion.RetryBaseDelayMS) * time.Millisecond,
		time.Duration(c.Ingestion.RetryMaxDelayMS) * time.Millisecond
}

// ExpandPath resolves a leading "~" to the home directory and returns an
// absolute, cleaned path. Empty input stays empty.
func ExpandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") || strings.HasPrefix(p, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimLeft(p[1:], `/\`))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

func defaultStateDir() string {
	if base := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); base != "" {
		return filepath.Join(base, "assetlib")
	}
	return "~/.local/state/assetlib"
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
