// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tetralabs/mltrail/cmd/mltrail/internal/clierr"
	"github.com/tetralabs/mltrail/internal/config"
	"github.com/tetralabs/mltrail/internal/ledger"
)

// loadConfig resolves the config flag and validates the required ledger
// configuration up front. Missing required configuration is a usage error
// (exit 2) surfaced before any classification work.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, clierr.Wrap(2, "reading config flag", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, clierr.Wrap(2, "loading configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, clierr.Wrap(2, "invalid configuration", err)
	}
	return cfg, nil
}

// newStore builds the ledger store for the configured backend. The returned
// closer is a no-op for local files.
func newStore(ctx context.Context, cfg config.Config) (ledger.Store, func(), error) {
	switch cfg.Ledger.Backend {
	case "gcs":
		s, err := ledger.NewGCSStore(ctx, cfg.Ledger.Bucket, cfg.Ledger.Object, cfg.Ledger.CredentialsFile, cfg.RetryPolicy())
		if err != nil {
			return nil, nil, clierr.Wrap(1, "connecting to ledger store", err)
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return ledger.NewFileStore(cfg.Ledger.Path, cfg.RetryPolicy()), func() {}, nil
	}
}

// parseStatus maps CI status spellings onto the ledger enum.
func parseStatus(s string) ledger.Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pass", "passed", "success", "ok":
		return ledger.StatusPass
	case "fail", "failed", "failure", "error":
		return ledger.StatusFail
	default:
		return ledger.StatusSkipped
	}
}
