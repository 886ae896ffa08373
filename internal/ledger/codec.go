package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/tetralabs/mltrail/internal/classify"
)

// ErrCorrupt marks an existing ledger that cannot be parsed. Callers must
// surface it as a diagnostic and never rewrite the resource to "fix" it.
var ErrCorrupt = errors.New("ledger is corrupt")

// Ledger is an in-memory snapshot: schema plus rows in append order.
type Ledger struct {
	Schema  Schema
	Records []Record
}

// New returns an empty ledger with the fixed schema.
func New() *Ledger {
	return &Ledger{Schema: NewSchema()}
}

// Contains reports whether a row for the commit SHA already exists.
func (l *Ledger) Contains(sha string) bool {
	for _, r := range l.Records {
		if r.CommitSHA == sha {
			return true
		}
	}
	return false
}

// Add widens the schema for any new metric names in the record and appends
// the row. It does not deduplicate; stores enforce the idempotency policy.
func (l *Ledger) Add(rec Record) {
	names := make([]string, 0, len(rec.Metrics))
	for name := range rec.Metrics {
		names = append(names, name)
	}
	l.Schema.Widen(names)
	l.Records = append(l.Records, rec)
}

// Decode parses a CSV ledger. Any malformed content is reported as
// ErrCorrupt; a partially valid ledger is never returned.
func Decode(r io.Reader) (*Ledger, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if len(rows) == 0 {
		return New(), nil
	}

	schema, err := ParseHeader(rows[0])
	if err != nil {
		return nil, err
	}
	metricCols := schema.MetricColumns()

	l := &Ledger{Schema: schema}
	for i, row := range rows[1:] {
		rec, err := decodeRow(row, metricCols)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		l.Records = append(l.Records, rec)
	}
	return l, nil
}

func decodeRow(row []string, metricCols []string) (Record, error) {
	if len(row) != len(fixedColumns)+len(metricCols) {
		return Record{}, fmt.Errorf("%w: row has %d cells, want %d", ErrCorrupt, len(row), len(fixedColumns)+len(metricCols))
	}
	if row[0] == "" {
		return Record{}, fmt.Errorf("%w: empty commit_sha", ErrCorrupt)
	}
	ts, err := time.Parse(TimeFormat, row[1])
	if err != nil {
		return Record{}, fmt.Errorf("%w: bad timestamp %q", ErrCorrupt, row[1])
	}

	rec := Record{
		CommitSHA: row[0],
		Timestamp: ts,
		Cause:     classify.Cause(row[2]),
		DevOps:    Status(row[3]),
		Metrics:   map[string]*float64{},
	}
	for i, name := range metricCols {
		cell := row[len(fixedColumns)+i]
		if cell == "" {
			rec.Metrics[name] = nil
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return Record{}, fmt.Errorf("%w: metric %s has non-numeric value %q", ErrCorrupt, name, cell)
		}
		rec.Metrics[name] = &v
	}
	return rec, nil
}

// Encode writes the full ledger as CSV: header row, then one row per record
// in append order. Absent metric values become empty cells, never dropped
// positions.
func (l *Ledger) Encode(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(l.Schema.Columns()); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	metricCols := l.Schema.MetricColumns()
	for _, rec := range l.Records {
		row := make([]string, 0, len(fixedColumns)+len(metricCols))
		row = append(row,
			rec.CommitSHA,
			rec.Timestamp.Format(TimeFormat),
			string(rec.Cause),
			string(rec.DevOps),
		)
		for _, name := range metricCols {
			row = append(row, formatCell(rec.Metric(name)))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing row for %s: %w", rec.ShortSHA(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// MetricSeries returns the (index, value) pairs of one metric across the
// whole history in append order, skipping rows where the value is null.
func (l *Ledger) MetricSeries(name string) (idx []float64, vals []float64) {
	for i, rec := range l.Records {
		if v := rec.Metric(name); v != nil {
			idx = append(idx, float64(i))
			vals = append(vals, *v)
		}
	}
	return idx, vals
}
