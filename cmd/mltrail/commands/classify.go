// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tetralabs/mltrail/cmd/mltrail/internal/clierr"
	"github.com/tetralabs/mltrail/internal/ci"
	"github.com/tetralabs/mltrail/internal/classify"
	"github.com/tetralabs/mltrail/internal/gitio"
)

// NewClassifyCommand returns `mltrail classify`: just the diff classifier,
// emitting the cause and relevance signals for downstream workflow steps.
func NewClassifyCommand() *cobra.Command {
	var (
		repoPath      string
		baseRev       string
		headRev       string
		dataPrefix    string
		scriptPattern string
	)

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify why an MLOps-relevant change occurred (Data, Script, Both, None)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if dataPrefix == "" {
				dataPrefix = cfg.Classifier.DataPrefix
			}
			if scriptPattern == "" {
				scriptPattern = cfg.Classifier.ScriptPattern
			}

			repo, err := gitio.Open(repoPath)
			if err != nil {
				return clierr.Wrap(1, "classify", err)
			}

			res := classify.Result{Cause: classify.CauseNone}
			changed, err := repo.ChangedPaths(baseRev, headRev)
			if err != nil {
				// Unresolvable history is a soft failure: emit None so the
				// pipeline still produces a record.
				slog.Warn("history not classifiable, defaulting to None", "error", err)
			} else {
				res = classify.Classify(changed, classify.NewRuleSet(dataPrefix, scriptPattern))
			}

			signals := map[string]string{
				"cause":    string(res.Cause),
				"relevant": strconv.FormatBool(res.Cause.Relevant()),
			}
			if err := ci.WriteOutputs(signals); err != nil {
				slog.Warn("writing CI outputs", "error", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "cause=%s\n", signals["cause"])
			fmt.Fprintf(w, "relevant=%s\n", signals["relevant"])
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "path to the git repository")
	cmd.Flags().StringVar(&baseRev, "base", "", "base revision (default: first parent of head)")
	cmd.Flags().StringVar(&headRev, "head", "", "head revision (default: HEAD)")
	cmd.Flags().StringVar(&dataPrefix, "data-prefix", "", "path prefix that marks data changes (default from config)")
	cmd.Flags().StringVar(&scriptPattern, "script-pattern", "", "path pattern that marks script changes (default from config)")
	return cmd
}
