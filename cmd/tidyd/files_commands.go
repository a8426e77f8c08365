package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/tidyd/internal/category"
	"github.com/fenilsonani/tidyd/internal/daemon"
	"github.com/fenilsonani/tidyd/internal/ignore"
	"github.com/fenilsonani/tidyd/internal/journal"
	"github.com/fenilsonani/tidyd/internal/mover"
	"github.com/fenilsonani/tidyd/internal/sweep"
	"github.com/fenilsonani/tidyd/pkg/utils"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "File the loose files already in the downloads folder",
		Long: `Moves every file lying directly in the downloads folder into its category
folder once, without waiting for it to settle. In-progress downloads and ignored
names are left in place.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.cliLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			root, err := ctx.root(logger.Logger)
			if err != nil {
				return err
			}

			var store *journal.Store
			if !dryRun {
				if err := ensureDaemonIdle(cfg); err != nil {
					return err
				}
				if store, err = ctx.openJournal(); err != nil {
					return err
				}
				if store != nil {
					defer closeJournal(store, cmd.ErrOrStderr())
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rules := ignore.New(root, cfg.IgnorePatterns, cfg.IgnoreHidden)
			mv := daemon.NewMover(cfg, logger.Logger, store)
			res, err := daemon.Organize(runCtx, root, mv, rules, dryRun, logger.Logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(res.Files) == 0 && len(res.Errors) == 0 {
				fmt.Fprintf(out, "Nothing to organize in %s\n", root)
				return nil
			}

			rows := make([][]string, 0, len(res.Files))
			for _, f := range res.Files {
				rows = append(rows, []string{
					filepath.Base(f.Path),
					f.Category.String(),
					utils.FormatBytes(f.Size),
					relTo(root, f.Target),
				})
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable(
					[]string{"File", "Category", "Size", "Destination"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				))
			}

			if dryRun {
				fmt.Fprintf(out, "Dry run: %d file(s) would be moved\n", len(res.Files))
			} else {
				fmt.Fprintf(out, "Moved %d file(s)\n", res.Moved)
			}
			return reportErrors(cmd, res.Errors)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show where files would go without moving them")
	return cmd
}

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Archive files untouched for 30 days",
		Long: `Walks the downloads folder and moves every file whose modification time is
30 days or older into Unused/<Category>. The daemon runs this every minute.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.cliLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			root, err := ctx.root(logger.Logger)
			if err != nil {
				return err
			}

			var store *journal.Store
			if !dryRun {
				if err := ensureDaemonIdle(cfg); err != nil {
					return err
				}
				if store, err = ctx.openJournal(); err != nil {
					return err
				}
				if store != nil {
					defer closeJournal(store, cmd.ErrOrStderr())
				}
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			rules := ignore.New(root, cfg.IgnorePatterns, cfg.IgnoreHidden)
			sweeper := sweep.New(daemon.NewMover(cfg, logger.Logger, store), rules, logger.Logger)
			sweeper.DryRun = dryRun

			res, err := sweeper.Sweep(runCtx, root, sweep.ArchiveRoot(root), sweep.DefaultCutoff, time.Now())
			if err != nil {
				return err
			}
			printSweepResult(cmd, res, dryRun)
			return reportErrors(cmd, res.Errors)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List stale files without archiving them")
	return cmd
}

func printSweepResult(cmd *cobra.Command, res *sweep.Result, dryRun bool) {
	out := cmd.OutOrStdout()
	if len(res.Candidates) == 0 {
		fmt.Fprintf(out, "No files older than %d days (%d checked)\n", int(sweep.DefaultCutoff/(24*time.Hour)), res.Visited)
		return
	}

	groups := res.GroupByCategory()
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.Category.String(), strconv.Itoa(g.Count), utils.FormatBytes(g.Size)})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Category", "Files", "Size"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
	))

	if dryRun {
		fmt.Fprintf(out, "Dry run: %d file(s), %s would be archived\n", len(res.Candidates), utils.FormatBytes(res.TotalSize))
		return
	}
	fmt.Fprintf(out, "Archived %d file(s), %s in %s\n", res.Archived, utils.FormatBytes(res.TotalSize), res.Duration.Round(time.Millisecond))
}

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "classify <file>...",
		Short:       "Show the category folder for file names",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(args))
			for _, name := range args {
				label := category.ForPath(name).String()
				if category.IsTransient(name) {
					label = "(in progress, skipped)"
				}
				rows = append(rows, []string{name, label})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"File", "Category"}, rows, nil))
			return nil
		},
	}
}

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "categories [name]...",
		Short:       "List category folders and the extensions filed into them",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cats := category.All()
			if len(args) > 0 {
				cats = cats[:0:0]
				for _, name := range args {
					c, ok := category.Parse(name)
					if !ok {
						return fmt.Errorf("unknown category %q", name)
					}
					cats = append(cats, c)
				}
			}

			rows := make([][]string, 0, len(cats))
			for _, c := range cats {
				exts := category.Extensions(c)
				label := strings.Join(exts, ", ")
				if len(exts) == 0 {
					label = "(anything else)"
				}
				rows = append(rows, []string{c.String(), label})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Category", "Extensions"}, rows, nil))
			return nil
		},
	}
}

func reportErrors(cmd *cobra.Command, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	for _, err := range errs {
		var moveErr *mover.MoveError
		if errors.As(err, &moveErr) {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", moveErr.UserMessage())
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "  %v\n", err)
	}
	return fmt.Errorf("%d file(s) could not be moved", len(errs))
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
