// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands is the mltrail CLI: one cobra command per pipeline
// surface (record, classify, render, publish), invoked from CI once per
// commit.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd constructs the mltrail root command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("MLTRAIL_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "mltrail",
		Short:         "mltrail - commit provenance ledger for ML repositories",
		Long:          "mltrail records per-commit DevOps and MLOps signals into a shared append-only ledger and renders a summary and trend chart from its history.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "path to config file (default .mltrail.yaml)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")
	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of mltrail",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "mltrail version %s\n", version)
		},
	})

	cmd.AddCommand(NewRecordCommand())
	cmd.AddCommand(NewClassifyCommand())
	cmd.AddCommand(NewRenderCommand())
	cmd.AddCommand(NewPublishCommand())

	return cmd
}
