// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tetralabs/mltrail/cmd/mltrail/internal/clierr"
	"github.com/tetralabs/mltrail/internal/ci"
	"github.com/tetralabs/mltrail/internal/render"
)

// NewRenderCommand returns `mltrail render`: re-derive the summary and
// chart from the ledger without touching it.
func NewRenderCommand() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the summary table and trend chart from the ledger history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = cfg.Summary.OutputDir
			}

			store, closeStore, err := newStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			snapshot, err := store.ReadAll(cmd.Context())
			if err != nil {
				// A corrupt ledger is a diagnostic, never something to
				// repair in place.
				return clierr.Wrap(1, "render: ledger unreadable", err)
			}

			ciCtx := ci.FromEnv()
			chartName := cfg.Summary.HighlightMetric + ".svg"
			summary := render.Render(snapshot, render.Options{
				HighlightMetric: cfg.Summary.HighlightMetric,
				MaxTableRows:    cfg.Summary.MaxTableRows,
				ChartRef:        chartName,
				CommitLinkBase:  ciCtx.CommitLinkBase(),
			})

			if err := os.MkdirAll(outputDir, 0o750); err != nil {
				return clierr.Wrap(1, "render: create output directory", err)
			}
			summaryPath := filepath.Join(outputDir, "summary.md")
			chartPath := filepath.Join(outputDir, chartName)
			if err := os.WriteFile(summaryPath, []byte(summary.Markdown), 0o600); err != nil {
				return clierr.Wrap(1, "render: write summary", err)
			}
			if err := os.WriteFile(chartPath, summary.ChartSVG, 0o600); err != nil {
				return clierr.Wrap(1, "render: write chart", err)
			}
			if err := ci.AppendStepSummary(summary.Markdown); err != nil {
				slog.Warn("appending step summary", "error", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "summary: %s\nchart: %s\n", summaryPath, chartPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outputDir, "output-dir", "", "where to write summary.md and the chart (default from config)")
	return cmd
}
