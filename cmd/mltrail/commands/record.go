// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tetralabs/mltrail/cmd/mltrail/internal/clierr"
	"github.com/tetralabs/mltrail/internal/ci"
	"github.com/tetralabs/mltrail/internal/gitio"
	"github.com/tetralabs/mltrail/internal/ledger"
	"github.com/tetralabs/mltrail/internal/metrics"
	"github.com/tetralabs/mltrail/internal/pipeline"
	"github.com/tetralabs/mltrail/internal/registry"
)

// NewRecordCommand returns `mltrail record`, the primary CI entrypoint.
func NewRecordCommand() *cobra.Command {
	var (
		repoPath    string
		baseRev     string
		headRev     string
		status      string
		metricsFile string
		artifactRef string
		stateDir    string
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Classify the commit, append it to the ledger, and render the summary",
		Long: `Record runs the full per-commit pipeline: classify the change cause from
the diff, extract training metrics, append a row to the shared ledger, render
the summary table and trend chart, and (when configured) publish the trained
artifact to the model registry.

A degraded ledger or registry never fails the run; the record attempt and its
diagnostics always surface.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ciCtx := ci.FromEnv()
			if status == "" {
				status = ciCtx.Status
			}

			repo, err := gitio.Open(repoPath)
			if err != nil {
				return clierr.Wrap(1, "record", err)
			}

			store, closeStore, err := newStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			var publisher registry.Publisher = registry.NopPublisher{}
			if cfg.PublishEnabled() {
				publisher = registry.NewHTTPPublisher(cfg.Registry.Endpoint, cfg.Registry.Token)
			}

			if stateDir == "" {
				stateDir = cfg.Summary.OutputDir + "/run"
			}

			p := pipeline.New(pipeline.Deps{
				Config:      cfg,
				Repo:        repo,
				Store:       store,
				Extractor:   metrics.ForRun(metricsFile),
				Publisher:   publisher,
				CI:          ciCtx,
				Log:         slog.Default(),
				BaseRev:     baseRev,
				HeadRev:     headRev,
				Status:      parseStatus(status),
				ArtifactRef: artifactRef,
			}, pipeline.NewStateStore(stateDir))

			out, err := p.Run(cmd.Context())
			if err != nil {
				return clierr.Wrap(1, "record", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "cause: %s\n", out.Classification.Cause)
			switch {
			case out.Degraded:
				fmt.Fprintln(w, "ledger: degraded (see warnings above)")
			case out.AppendResult == ledger.SkippedDuplicate:
				fmt.Fprintf(w, "ledger: %s already recorded, skipped\n", out.Record.ShortSHA())
			default:
				fmt.Fprintf(w, "ledger: appended %s\n", out.Record.ShortSHA())
			}
			if out.SummaryPath != "" {
				fmt.Fprintf(w, "summary: %s\n", out.SummaryPath)
				fmt.Fprintf(w, "chart: %s\n", out.ChartPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "path to the git repository")
	cmd.Flags().StringVar(&baseRev, "base", "", "base revision (default: first parent of head)")
	cmd.Flags().StringVar(&headRev, "head", "", "head revision (default: HEAD)")
	cmd.Flags().StringVar(&status, "status", "", "devops status for this commit: pass|fail|skipped (default: $MLTRAIL_STATUS)")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "flat JSON metrics file from the training step")
	cmd.Flags().StringVar(&artifactRef, "artifact", "", "trained model artifact reference for the registry")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "directory for per-stage run state (default: <output_dir>/run)")
	return cmd
}
