// Package config is the externally supplied configuration surface: ledger
// location and credentials, classifier rules, summary options, and the
// optional registry. The core consumes it but does not own it; CI injects
// overrides through the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tetralabs/mltrail/internal/ledger"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = ".mltrail.yaml"

// Duration is a time.Duration that unmarshals from YAML strings like "250ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Ledger     Ledger     `yaml:"ledger"`
	Classifier Classifier `yaml:"classifier"`
	Summary    Summary    `yaml:"summary"`
	Registry   Registry   `yaml:"registry"`
}

// Ledger locates the shared history resource. Backend "gcs" needs bucket
// and object; backend "file" needs path.
type Ledger struct {
	Backend         string `yaml:"backend"`
	Bucket          string `yaml:"bucket"`
	Object          string `yaml:"object"`
	CredentialsFile string `yaml:"credentials_file"`
	Path            string `yaml:"path"`
	Retry           Retry  `yaml:"retry"`
}

type Retry struct {
	MaxAttempts     uint64   `yaml:"max_attempts"`
	InitialInterval Duration `yaml:"initial_interval"`
	MaxInterval     Duration `yaml:"max_interval"`
}

type Classifier struct {
	DataPrefix    string `yaml:"data_prefix"`
	ScriptPattern string `yaml:"script_pattern"`
}

type Summary struct {
	HighlightMetric string `yaml:"highlight_metric"`
	MaxTableRows    int    `yaml:"max_table_rows"`
	OutputDir       string `yaml:"output_dir"`
}

// Registry is optional; when disabled or incomplete the publish stage is
// skipped, never fatal.
type Registry struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Token     string `yaml:"token"`
	ModelName string `yaml:"model_name"`
	Stage     string `yaml:"stage"`
}

// Default returns the baseline configuration before file and env overlays.
func Default() Config {
	return Config{
		Ledger: Ledger{
			Backend: "file",
			Path:    ".mltrail/commit-history.csv",
			Retry: Retry{
				MaxAttempts:     5,
				InitialInterval: Duration(250 * time.Millisecond),
				MaxInterval:     Duration(4 * time.Second),
			},
		},
		Classifier: Classifier{
			DataPrefix: "data/",
		},
		Summary: Summary{
			HighlightMetric: "val_accuracy",
			MaxTableRows:    10,
			OutputDir:       ".mltrail",
		},
		Registry: Registry{
			Stage: "Production",
		},
	}
}

// Load reads the config file (missing file at the default path is fine,
// a named file must exist), then applies environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err) && !explicit:
		// defaults + env only
	case err != nil:
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setIfEnv := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIfEnv(&c.Ledger.Backend, "MLTRAIL_LEDGER_BACKEND")
	setIfEnv(&c.Ledger.Bucket, "MLTRAIL_LEDGER_BUCKET")
	setIfEnv(&c.Ledger.Object, "MLTRAIL_LEDGER_OBJECT")
	setIfEnv(&c.Ledger.Path, "MLTRAIL_LEDGER_PATH")
	setIfEnv(&c.Ledger.CredentialsFile, "MLTRAIL_LEDGER_CREDENTIALS")
	setIfEnv(&c.Registry.Endpoint, "MLTRAIL_REGISTRY_ENDPOINT")
	setIfEnv(&c.Registry.Token, "MLTRAIL_REGISTRY_TOKEN")
	setIfEnv(&c.Registry.ModelName, "MLTRAIL_REGISTRY_MODEL")
	if os.Getenv("MLTRAIL_REGISTRY_ENABLED") == "true" {
		c.Registry.Enabled = true
	}
	setIfEnv(&c.Summary.HighlightMetric, "MLTRAIL_HIGHLIGHT_METRIC")
}

// Validate checks the required ledger configuration and names the missing
// key in its diagnostic. It runs before any classification work.
func (c Config) Validate() error {
	switch c.Ledger.Backend {
	case "gcs":
		if c.Ledger.Bucket == "" {
			return fmt.Errorf("missing required configuration: ledger.bucket")
		}
		if c.Ledger.Object == "" {
			return fmt.Errorf("missing required configuration: ledger.object")
		}
	case "file":
		if c.Ledger.Path == "" {
			return fmt.Errorf("missing required configuration: ledger.path")
		}
	case "":
		return fmt.Errorf("missing required configuration: ledger.backend")
	default:
		return fmt.Errorf("unknown ledger.backend %q (want gcs or file)", c.Ledger.Backend)
	}
	if c.Summary.HighlightMetric == "" {
		return fmt.Errorf("missing required configuration: summary.highlight_metric")
	}
	return nil
}

// PublishEnabled reports whether the registry stage should run at all.
// Enabled-but-incomplete configuration counts as disabled (fail soft).
func (c Config) PublishEnabled() bool {
	return c.Registry.Enabled && c.Registry.Endpoint != "" && c.Registry.ModelName != ""
}

// RetryPolicy converts the retry block for the ledger stores.
func (c Config) RetryPolicy() ledger.RetryPolicy {
	return ledger.RetryPolicy{
		MaxAttempts:     c.Ledger.Retry.MaxAttempts,
		InitialInterval: time.Duration(c.Ledger.Retry.InitialInterval),
		MaxInterval:     time.Duration(c.Ledger.Retry.MaxInterval),
	}
}
