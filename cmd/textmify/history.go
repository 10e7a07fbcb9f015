// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/textmify/internal/ledger"
	"github.com/pdiddy/textmify/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history [FOLDER]",
	Short: "Show recorded conversion runs",
	Long: `History lists the runs recorded in the ledger kept in the output directory
(FOLDER/markdowns by default, or --output-dir). With --run it shows the
per-file outcomes of one run. --format yaml or json exports the runs with
their conversions.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	outputDir, _ := cmd.Flags().GetString("output-dir")
	if outputDir == "" {
		folder := "."
		if len(args) == 1 {
			folder = args[0]
		}
		outputDir = filepath.Join(folder, defaultOutputDir)
	}
	format, _ := cmd.Flags().GetString("format")
	runID, _ := cmd.Flags().GetInt64("run")
	limit, _ := cmd.Flags().GetInt("limit")

	return showHistory(cmd.Context(), cmd.OutOrStdout(), outputDir, format, runID, limit)
}

func showHistory(ctx context.Context, w io.Writer, outputDir, format string, runID int64, limit int) error {
	if !ledger.Exists(outputDir) {
		return fmt.Errorf("no run ledger in %s", outputDir)
	}
	store, err := ledger.Open(outputDir)
	if err != nil {
		return err
	}
	defer store.Close()

	switch format {
	case "yaml":
		return store.ExportYAML(ctx, w, runID)
	case "json":
		return store.ExportJSON(ctx, w, runID)
	case "table", "":
	default:
		return fmt.Errorf("unknown format %q: use table, yaml, or json", format)
	}

	if runID > 0 {
		if _, err := store.GetRun(ctx, runID); err != nil {
			return err
		}
		entries, err := store.Conversions(ctx, runID)
		if err != nil {
			return err
		}
		return report.RenderConversions(w, entries, colorEnabled())
	}

	runs, err := store.Runs(ctx, limit)
	if err != nil {
		return err
	}
	return report.RenderRuns(w, runs, colorEnabled())
}

func init() {
	historyCmd.Flags().String("output-dir", "", `output directory holding the ledger (default: "markdowns" inside FOLDER)`)
	historyCmd.Flags().String("format", "table", "output format: table, yaml, or json")
	historyCmd.Flags().Int64("run", 0, "show the conversions of one run")
	historyCmd.Flags().Int("limit", 20, "maximum runs to list in table format (0 for all)")

	rootCmd.AddCommand(historyCmd)
}
