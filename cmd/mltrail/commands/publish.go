// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tetralabs/mltrail/cmd/mltrail/internal/clierr"
	"github.com/tetralabs/mltrail/internal/ci"
	"github.com/tetralabs/mltrail/internal/gitio"
	"github.com/tetralabs/mltrail/internal/registry"
)

// NewPublishCommand returns `mltrail publish`: send a trained artifact
// reference to the model registry on its own, outside the record pipeline.
func NewPublishCommand() *cobra.Command {
	var (
		repoPath    string
		artifactRef string
		commitSHA   string
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a trained model artifact reference to the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.PublishEnabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "registry not configured, skipping")
				return nil
			}
			if artifactRef == "" {
				return clierr.New(2, "publish: --artifact is required")
			}

			if commitSHA == "" {
				commitSHA = ci.FromEnv().HeadSHA
			}
			if commitSHA == "" {
				repo, err := gitio.Open(repoPath)
				if err != nil {
					return clierr.Wrap(1, "publish: resolving commit", err)
				}
				head, err := repo.Head()
				if err != nil {
					return clierr.Wrap(1, "publish: resolving commit", err)
				}
				commitSHA = head.SHA
			}

			p := registry.NewHTTPPublisher(cfg.Registry.Endpoint, cfg.Registry.Token)
			mv := registry.ModelVersion{
				Name:        cfg.Registry.ModelName,
				CommitSHA:   commitSHA,
				ArtifactRef: artifactRef,
				Stage:       cfg.Registry.Stage,
			}
			if err := p.Publish(cmd.Context(), mv); err != nil {
				return clierr.Wrap(1, "publish", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s for commit %s\n", mv.Name, commitSHA)
			return nil
		},
	}

	cmd.Flags().StringVar(&repoPath, "repo", ".", "path to the git repository")
	cmd.Flags().StringVar(&artifactRef, "artifact", "", "artifact reference to register")
	cmd.Flags().StringVar(&commitSHA, "commit", "", "commit SHA to attach (default: $GITHUB_SHA, then HEAD)")
	return cmd
}
