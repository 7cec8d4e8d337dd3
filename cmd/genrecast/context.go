package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"genrecast/internal/config"
	"genrecast/internal/logging"
	"genrecast/internal/runlog"
)

type commandContext struct {
	configFlag *string
	stderr     io.Writer

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *logging.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger creates the process logger on first use and prunes log files
// past the retention window.
func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.NewFromConfig(cfg, c.stderr)
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
		logging.CleanupOldLogs(logger.Logger, cfg.Paths.LogDir, "*.log", cfg.Logging.RetentionDays, logger.Path())
	})
	if c.loggerErr != nil {
		return nil, c.loggerErr
	}
	return c.logger.Logger, nil
}

// withRunLog opens the run journal for the duration of fn.
func (c *commandContext) withRunLog(fn func(*runlog.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := runlog.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func (c *commandContext) close() {
	if c.logger != nil {
		_ = c.logger.Close()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
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
