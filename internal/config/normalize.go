package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLibrary()
	c.normalizeReferences()
	c.normalizeSequences()
	c.normalizeTags()
	c.normalizeIngestion()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		c.Paths.LibraryDir = defaultLibraryDir
	}
	if c.Paths.LibraryDir, err = ExpandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = ExpandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLibrary() {
	c.Library.DefaultDimension = strings.TrimSpace(c.Library.DefaultDimension)
	if c.Library.DefaultDimension == "" {
		c.Library.DefaultDimension = defaultDimension
	}
	c.Library.DefaultRenderEngine = strings.TrimSpace(c.Library.DefaultRenderEngine)
	if c.Library.DefaultRenderEngine == "" {
		c.Library.DefaultRenderEngine = defaultRenderEngine
	}
	c.Library.CreatedBy = strings.TrimSpace(c.Library.CreatedBy)
	if c.Library.CreatedBy == "" {
		if value, ok := os.LookupEnv("USER"); ok {
			c.Library.CreatedBy = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeReferences() {
	c.References.FrameTokens = normalizeTokens(c.References.FrameTokens, defaultFrameTokens)
	c.References.TileTokens = normalizeTokens(c.References.TileTokens, defaultTileTokens)
	c.References.OwnerTokens = normalizeTokens(c.References.OwnerTokens, defaultOwnerTokens)
	c.References.TextureExtensions = normalizeExtensions(c.References.TextureExtensions, defaultTextureExtensions)
	c.References.GeometryExtensions = normalizeExtensions(c.References.GeometryExtensions, defaultGeometryExtensions)
}

func (c *Config) normalizeSequences() {
	c.Sequences.DefaultTile = strings.TrimSpace(c.Sequences.DefaultTile)
	if c.Sequences.DefaultTile == "" {
		c.Sequences.DefaultTile = defaultDefaultTile
	}
	if c.Sequences.ListingCacheSize <= 0 {
		c.Sequences.ListingCacheSize = defaultListingCacheSize
	}
}

func (c *Config) normalizeTags() {
	if c.Tags.MinWordLength <= 0 {
		c.Tags.MinWordLength = defaultMinWordLength
	}
	words := make([]string, 0, len(c.Tags.Stopwords))
	seen := make(map[string]struct{}, len(c.Tags.Stopwords))
	for _, word := range c.Tags.Stopwords {
		normalized := strings.ToLower(strings.TrimSpace(word))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		words = append(words, normalized)
	}
	c.Tags.Stopwords = words
}

func (c *Config) normalizeIngestion() {
	c.Ingestion.BaseURL = strings.TrimRight(strings.TrimSpace(c.Ingestion.BaseURL), "/")
	if c.Ingestion.BaseURL == "" {
		if value, ok := os.LookupEnv("ASSETLIB_API_URL"); ok {
			c.Ingestion.BaseURL = strings.TrimRight(strings.TrimSpace(value), "/")
		}
	}
	c.Ingestion.APIKey = strings.TrimSpace(c.Ingestion.APIKey)
	if c.Ingestion.APIKey == "" {
		if value, ok := os.LookupEnv("ASSETLIB_API_KEY"); ok {
			c.Ingestion.APIKey = strings.TrimSpace(value)
		}
	}
	if c.Ingestion.TimeoutSeconds <= 0 {
		c.Ingestion.TimeoutSeconds = defaultIngestionTimeout
	}
	if c.Ingestion.MaxAttempts <= 0 {
		c.Ingestion.MaxAttempts = defaultIngestionAttempts
	}
	if c.Ingestion.RetryBaseDelayMS < 0 {
		c.Ingestion.RetryBaseDelayMS = defaultIngestionBaseDelay
	}
	if c.Ingestion.RetryMaxDelayMS < c.Ingestion.RetryBaseDelayMS {
		c.Ingestion.RetryMaxDelayMS = c.Ingestion.RetryBaseDelayMS
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeTokens(values, fallback []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		token := strings.TrimSpace(value)
		if token == "" {
			continue
		}
		if _, exists := seen[token]; exists {
			continue
		}
		seen[token] = struct{}{}
		out = append(out, token)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}

func normalizeExtensions(values, fallback []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, exists := seen[ext]; exists {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...)
	}
	return out
}
