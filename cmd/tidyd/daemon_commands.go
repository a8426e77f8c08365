package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/tidyd/internal/daemon"
	"github.com/fenilsonani/tidyd/internal/logging"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Watch the downloads folder in the foreground",
		Long: `Watches the downloads folder until interrupted. New files are filed once they
stop changing, and the archive sweep runs every minute.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg, ctx.isVerbose())
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			defer logger.Close()

			d, err := daemon.New(cfg, logger.Logger)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Organizing %s (Ctrl+C to stop)\n", d.Root())
			if err := d.Start(); err != nil {
				if errors.Is(err, daemon.ErrAlreadyRunning) {
					return fmt.Errorf("%w; stop the other instance first", err)
				}
				return err
			}
			return nil
		},
	}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether the daemon is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			running, err := daemon.Running(cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Running: %s\n", yesNo(running))
			if running && cfg.Daemon.PidFile != "" {
				if pid, err := daemon.ReadPid(cfg.Daemon.PidFile); err == nil {
					fmt.Fprintf(out, "PID:     %d\n", pid)
				}
			}

			root, err := daemon.ResolveRoot(cfg, nil)
			if err != nil {
				fmt.Fprintf(out, "Root:    invalid (%v)\n", err)
			} else {
				fmt.Fprintf(out, "Root:    %s\n", root)
			}
			if cfg.Journal.Enabled {
				fmt.Fprintf(out, "Journal: %s\n", cfg.Journal.Path)
			} else {
				fmt.Fprintln(out, "Journal: disabled")
			}
			if cfg.Report.Enabled {
				fmt.Fprintf(out, "Reports: %s (%s)\n", cfg.Report.Path, cfg.Report.Schedule)
			} else {
				fmt.Fprintln(out, "Reports: disabled")
			}
			return nil
		},
	}
}
