package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"tapedeck/internal/cartridge"
	"tapedeck/internal/config"
	"tapedeck/internal/library"
	"tapedeck/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	logCloser  io.Closer
}

func newCommandContext() *commandContext {
	return &commandContext{configFlag: new(string)}
}

// close releases the log file opened by loggerFor. It is safe to call when
// no logger was built.
func (c *commandContext) close() error {
	if c.logCloser == nil {
		return nil
	}
	err := c.logCloser.Close()
	c.logCloser = nil
	return err
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

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

// loggerFor returns the per-invocation logger. Console records go to the
// command's stderr so stdout stays clean for JSON and image output.
func (c *commandContext) loggerFor(cmd *cobra.Command) *slog.Logger {
	c.loggerOnce.Do(func() {
		var w io.Writer = cmd.ErrOrStderr()
		logger, closer, err := logging.NewFromConfig(c.configValue(), w, uuid.NewString())
		if err != nil {
			logger = logging.NewNop()
		}
		c.logger = logger
		c.logCloser = closer
	})
	return c.logger
}

func (c *commandContext) openLibrary(cmd *cobra.Command) (*library.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return library.Open(cfg, library.WithLogger(c.loggerFor(cmd)))
}

// strictCRC resolves CRC verification from config, letting an explicit
// --strict flag win.
func (c *commandContext) strictCRC(cmd *cobra.Command, flag bool) bool {
	if cmd.Flags().Changed("strict") {
		return flag
	}
	if cfg := c.configValue(); cfg != nil {
		return cfg.Cartridge.StrictCRC
	}
	return flag
}

func (c *commandContext) readOptions(cmd *cobra.Command, flag bool) []cartridge.Option {
	return []cartridge.Option{cartridge.WithStrictCRC(c.strictCRC(cmd, flag))}
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
