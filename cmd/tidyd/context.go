package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/tidyd/internal/config"
	"github.com/fenilsonani/tidyd/internal/daemon"
	"github.com/fenilsonani/tidyd/internal/journal"
	"github.com/fenilsonani/tidyd/internal/logging"
)

type commandContext struct {
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbose:    verbose,
	}
}

// configPath is the --config value, or the default location
func (c *commandContext) configPath() (string, error) {
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			return config.ExpandPath(path)
		}
	}
	return config.GetConfigPath()
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		path, err := c.configPath()
		if err != nil {
			c.configErr = fmt.Errorf("determine config path: %w", err)
			return
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) isVerbose() bool {
	return c.verbose != nil && *c.verbose
}

// cliLogger logs one-shot commands to stderr so stdout stays clean for
// tables and encoded reports. Only warnings show unless --verbose is set.
func (c *commandContext) cliLogger(cmd *cobra.Command) (*logging.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if c.isVerbose() {
		level = "debug"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Stdout: cmd.ErrOrStderr(),
	})
}

func (c *commandContext) root(logger *slog.Logger) (string, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return "", err
	}
	return daemon.ResolveRoot(cfg, logger)
}

// openJournal opens the move journal, returning nil when it is disabled.
func (c *commandContext) openJournal() (*journal.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	return journal.Open(cfg.Journal.Path)
}

func closeJournal(store *journal.Store, out io.Writer) {
	if err := store.Close(); err != nil {
		fmt.Fprintf(out, "warning: closing journal: %v\n", err)
	}
}

var errJournalDisabled = errors.New("the move journal is disabled (journal.enabled: false)")

var errDaemonRunning = errors.New("the tidyd daemon is running and already files this folder (stop it or use --dry-run)")

// ensureDaemonIdle refuses to start a second mover while the daemon holds its lock
func ensureDaemonIdle(cfg *config.Config) error {
	running, err := daemon.Running(cfg)
	if err != nil {
		return fmt.Errorf("check daemon: %w", err)
	}
	if running {
		return errDaemonRunning
	}
	return nil
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
