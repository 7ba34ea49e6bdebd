package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"assetlib/internal/config"
	"assetlib/internal/logging"
	"assetlib/internal/registry"
)

// commandContext lazily loads the config and logger shared by subcommands.
// Flags are read through pointers because cobra parses them after the
// command tree is built.
type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	config func() (*config.Config, error)
	logger func() (*slog.Logger, error)
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	c := &commandContext{configFlag: configFlag, logLevelFlag: logLevelFlag}
	c.config = sync.OnceValues(c.loadConfig)
	c.logger = sync.OnceValues(func() (*slog.Logger, error) {
		cfg, err := c.config()
		if err != nil {
			return nil, err
		}
		return logging.NewFromConfig(cfg)
	})
	return c
}

func flagValue(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

func (c *commandContext) loadConfig() (*config.Config, error) {
	cfg, _, _, err := config.Load(flagValue(c.configFlag))
	if err != nil {
		return nil, err
	}
	if level := flagValue(c.logLevelFlag); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *commandContext) ensureConfig() (*config.Config, error) { return c.config() }

func (c *commandContext) ensureLogger() (*slog.Logger, error) { return c.logger() }

// withStore opens the registry for the duration of fn.
func (c *commandContext) withStore(fn func(*registry.Store) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	store, err := registry.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
