// Package metrics is the collaborator boundary for training metrics. The
// core only sees a flat mapping of metric name to nullable numeric value;
// an empty mapping means no training happened this run.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Extractor supplies the metric mapping for the current run.
type Extractor interface {
	Extract(ctx context.Context) (map[string]*float64, error)
}

// FileExtractor reads a flat JSON object written by the training step,
// e.g. {"val_accuracy": 0.91, "loss": 0.42, "epochs": null}. A missing
// file means no training occurred and yields an empty mapping.
type FileExtractor struct {
	Path string
}

func (e FileExtractor) Extract(ctx context.Context) (map[string]*float64, error) {
	raw, err := os.ReadFile(e.Path)
	if os.IsNotExist(err) {
		return map[string]*float64{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading metrics file %s: %w", e.Path, err)
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parsing metrics file %s: %w", e.Path, err)
	}

	out := make(map[string]*float64, len(obj))
	for name, v := range obj {
		switch val := v.(type) {
		case nil:
			out[name] = nil
		case float64:
			f := val
			out[name] = &f
		case string:
			// Tolerate stringified numbers; anything else is a bad file.
			f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
			if err != nil {
				return nil, fmt.Errorf("metrics file %s: %s is not numeric: %q", e.Path, name, val)
			}
			out[name] = &f
		case bool:
			f := 0.0
			if val {
				f = 1.0
			}
			out[name] = &f
		default:
			return nil, fmt.Errorf("metrics file %s: %s has unsupported type %T", e.Path, name, v)
		}
	}
	return out, nil
}

// EnvPrefix is the variable prefix EnvExtractor scans for.
const EnvPrefix = "MLTRAIL_METRIC_"

// EnvExtractor reads MLTRAIL_METRIC_<name>=<value> variables, the way CI
// steps hand values forward without a shared filesystem. Empty values are
// null metrics; non-numeric values are skipped rather than failing the run.
type EnvExtractor struct{}

func (EnvExtractor) Extract(ctx context.Context) (map[string]*float64, error) {
	out := map[string]*float64{}
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(k, EnvPrefix) {
			continue
		}
		name := strings.ToLower(strings.TrimPrefix(k, EnvPrefix))
		if name == "" {
			continue
		}
		if strings.TrimSpace(v) == "" {
			out[name] = nil
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			continue
		}
		out[name] = &f
	}
	return out, nil
}

// ForRun picks the extractor for a run: the metrics file when a path is
// configured, the environment otherwise.
func ForRun(metricsFile string) Extractor {
	if metricsFile != "" {
		return FileExtractor{Path: metricsFile}
	}
	return EnvExtractor{}
}

// FormatValue renders a nullable metric for display: three decimals, blank
// when null.
func FormatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}

// FormatDelta renders a signed difference to three decimals, blank for nil.
func FormatDelta(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%+.3f", *v)
}
