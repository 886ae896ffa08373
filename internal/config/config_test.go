package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mltrail.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ledger:
  backend: gcs
  bucket: ml-history
  object: widgets/commit-history.csv
  retry:
    max_attempts: 3
    initial_interval: 100ms
    max_interval: 2s
classifier:
  data_prefix: datasets/
  script_pattern: src/train.py
summary:
  highlight_metric: val_loss
registry:
  enabled: true
  endpoint: https://registry.example.com/api
  model_name: DigitClassifier
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gcs", cfg.Ledger.Backend)
	assert.Equal(t, "ml-history", cfg.Ledger.Bucket)
	assert.Equal(t, "datasets/", cfg.Classifier.DataPrefix)
	assert.Equal(t, "val_loss", cfg.Summary.HighlightMetric)
	assert.Equal(t, 10, cfg.Summary.MaxTableRows, "unset fields keep defaults")
	assert.True(t, cfg.PublishEnabled())

	rp := cfg.RetryPolicy()
	assert.Equal(t, uint64(3), rp.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, rp.InitialInterval)
	assert.Equal(t, 2*time.Second, rp.MaxInterval)
}

func TestLoadMissingExplicitFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MLTRAIL_LEDGER_BACKEND", "gcs")
	t.Setenv("MLTRAIL_LEDGER_BUCKET", "env-bucket")
	t.Setenv("MLTRAIL_LEDGER_OBJECT", "env-object.csv")
	t.Setenv("MLTRAIL_REGISTRY_ENABLED", "true")
	t.Setenv("MLTRAIL_REGISTRY_ENDPOINT", "https://reg.example.com")
	t.Setenv("MLTRAIL_REGISTRY_MODEL", "M")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-bucket", cfg.Ledger.Bucket)
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.PublishEnabled())
}

func TestValidateNamesMissingKey(t *testing.T) {
	cfg := Default()
	cfg.Ledger.Backend = "gcs"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.bucket")

	cfg.Ledger.Bucket = "b"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger.object")
}

func TestPublishDisabledWhenIncomplete(t *testing.T) {
	cfg := Default()
	cfg.Registry.Enabled = true // no endpoint/model
	assert.False(t, cfg.PublishEnabled())
}

func TestDefaultsValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
