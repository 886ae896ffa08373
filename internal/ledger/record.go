// Package ledger models the shared, append-only commit history: one row per
// CI run, a fixed set of provenance columns, and metric columns that widen
// over time but are never removed.
package ledger

import (
	"time"

	"github.com/tetralabs/mltrail/internal/classify"
)

// Status is the outcome of the non-ML build/test steps for a commit.
type Status string

const (
	StatusPass    Status = "Pass"
	StatusFail    Status = "Fail"
	StatusSkipped Status = "Skipped"
)

// TimeFormat is the ledger's timestamp representation. Append order is
// authoritative; the timestamp is informational.
const TimeFormat = "2006-01-02 15:04:05"

// Record is one ledger row. Metrics maps metric name to a nullable value;
// a nil entry (or a name absent from the map) renders as an empty cell.
type Record struct {
	CommitSHA string
	Timestamp time.Time
	Cause     classify.Cause
	DevOps    Status
	Metrics   map[string]*float64
}

// Metric returns the named metric value, or nil when absent or null.
func (r Record) Metric(name string) *float64 {
	if r.Metrics == nil {
		return nil
	}
	return r.Metrics[name]
}

// ShortSHA returns the 7-character display form of the commit SHA.
func (r Record) ShortSHA() string {
	if len(r.CommitSHA) < 7 {
		return r.CommitSHA
	}
	return r.CommitSHA[:7]
}
