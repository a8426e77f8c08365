package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fenilsonani/tidyd/internal/journal"
	"github.com/fenilsonani/tidyd/internal/reporter"
	"github.com/fenilsonani/tidyd/pkg/utils"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var formatFlag string
	var outputFile string
	var save bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the organized folder",
		Long: `Counts files and sizes per category in the live folders and in Unused, and
adds the moves the journal recorded over the last 7 days.

With --save the report is written to the configured report directory and the
week is marked as reported, exactly like the scheduled weekly job.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if formatFlag == "" {
				formatFlag = string(reporter.FormatTable)
				if save {
					formatFlag = cfg.Report.Format
				}
			}
			format, err := reporter.ParseFormat(strings.ToLower(formatFlag))
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
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			var moves reporter.MoveCounter
			if store != nil {
				defer closeJournal(store, cmd.ErrOrStderr())
				moves = store
			}

			out := cmd.OutOrStdout()
			if save {
				gen := &reporter.Generator{
					Root:   root,
					Dir:    cfg.Report.Path,
					Format: format,
					Moves:  moves,
					Logger: logger.Logger,
				}
				path, err := gen.Generate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Report saved to: %s\n", path)
				return nil
			}

			report, err := reporter.Collect(cmd.Context(), root, moves, time.Now())
			if err != nil {
				return fmt.Errorf("collect report: %w", err)
			}
			if outputFile != "" {
				if err := reporter.SaveToFile(report, outputFile, format); err != nil {
					return fmt.Errorf("failed to save report: %w", err)
				}
				fmt.Fprintf(out, "Report saved to: %s\n", outputFile)
				return nil
			}
			return reporter.New(out, format).Report(report)
		},
	}

	cmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format (table, json, yaml, html)")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the report to a file")
	cmd.Flags().BoolVar(&save, "save", false, "Write the weekly report into the report directory")
	cmd.MarkFlagsMutuallyExclusive("output", "save")
	return cmd
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent moves",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openJournal()
			if err != nil {
				return err
			}
			if store == nil {
				return errJournalDisabled
			}
			defer closeJournal(store, cmd.ErrOrStderr())

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				if entries == nil {
					entries = []journal.Entry{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No moves recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.MovedAt.Local().Format("2006-01-02 15:04:05"),
					e.Name,
					e.Category.String(),
					utils.FormatBytes(e.Size),
					e.To,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Moved", "File", "Category", "Size", "Destination"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of moves to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
