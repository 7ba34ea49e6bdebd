package config

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateReferences(); err != nil {
		return err
	}
	if err := c.validateSequences(); err != nil {
		return err
	}
	if err := c.validateFrameRange(); err != nil {
		return err
	}
	if err := c.validatePackaging(); err != nil {
		return err
	}
	if err := c.validateIngestion(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateReferences() error {
	frame := make(map[string]struct{}, len(c.References.FrameTokens))
	for _, token := range c.References.FrameTokens {
		frame[token] = struct{}{}
	}
	for _, token := range c.References.TileTokens {
		if _, clash := frame[token]; clash {
			return fmt.Errorf("references.tile_tokens: %q is also a frame token", token)
		}
	}
	for _, ext := range c.References.TextureExtensions {
		for _, geo := range c.References.GeometryExtensions {
			if ext == geo {
				return fmt.Errorf("references: extension %q cannot be both texture and geometry", ext)
			}
		}
	}
	return nil
}

func (c *Config) validateSequences() error {
	tile := c.Sequences.DefaultTile
	if len(tile) != 4 || strings.Trim(tile, "0123456789") != "" {
		return errors.New("sequences.default_tile must be a 4-digit tile number")
	}
	return nil
}

func (c *Config) validateFrameRange() error {
	if c.FrameRange.Floor < 0 {
		return errors.New("frame_range.floor must be >= 0")
	}
	if c.FrameRange.MinLength < 1 {
		return errors.New("frame_range.min_length must be >= 1")
	}
	return nil
}

func (c *Config) validatePackaging() error {
	return ensurePositiveMap(map[string]int{
		"packaging.workers":            c.Packaging.Workers,
		"sequences.listing_cache_size": c.Sequences.ListingCacheSize,
		"tags.min_word_length":         c.Tags.MinWordLength,
	})
}

func (c *Config) validateIngestion() error {
	if err := ensurePositiveMap(map[string]int{
		"ingestion.timeout_seconds": c.Ingestion.TimeoutSeconds,
		"ingestion.max_attempts":    c.Ingestion.MaxAttempts,
	}); err != nil {
		return err
	}
	if !c.Ingestion.Enabled {
		return nil
	}
	if c.Ingestion.BaseURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("ingestion.base_url must be set when ingestion.enabled is true. Set ASSETLIB_API_URL or edit %s (create with 'assetlib config init')", defaultPath)
	}
	parsed, err := url.Parse(c.Ingestion.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("ingestion.base_url %q must be an absolute http(s) URL", c.Ingestion.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("ingestion.base_url %q must use http or https", c.Ingestion.BaseURL)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic %q must be a full topic URL, e.g. https://ntfy.sh/assets", c.Notifications.NtfyTopic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level)
	}
}

func ensurePositiveMap(values map[string]int) error {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if values[key] <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
