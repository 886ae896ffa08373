package ledger

import (
	"fmt"
	"sort"
)

// fixedColumns always lead the header, in this order. Everything after them
// is a metric column.
var fixedColumns = []string{"commit_sha", "timestamp", "cause", "devops_status"}

// Schema is the versioned, ordered column list of a ledger. Metric columns
// only ever grow (Widen); existing columns are never reordered or removed.
type Schema struct {
	metrics []string
	seen    map[string]bool
}

// NewSchema returns a schema with only the fixed columns.
func NewSchema() Schema {
	return Schema{seen: map[string]bool{}}
}

// ParseHeader validates a CSV header row and returns its schema.
func ParseHeader(header []string) (Schema, error) {
	if len(header) < len(fixedColumns) {
		return Schema{}, fmt.Errorf("%w: header has %d columns, want at least %d", ErrCorrupt, len(header), len(fixedColumns))
	}
	for i, want := range fixedColumns {
		if header[i] != want {
			return Schema{}, fmt.Errorf("%w: header column %d is %q, want %q", ErrCorrupt, i, header[i], want)
		}
	}
	s := NewSchema()
	for _, name := range header[len(fixedColumns):] {
		if name == "" || s.seen[name] {
			return Schema{}, fmt.Errorf("%w: empty or duplicate metric column %q", ErrCorrupt, name)
		}
		s.metrics = append(s.metrics, name)
		s.seen[name] = true
	}
	return s, nil
}

// Columns returns the full ordered header.
func (s Schema) Columns() []string {
	cols := make([]string, 0, len(fixedColumns)+len(s.metrics))
	cols = append(cols, fixedColumns...)
	cols = append(cols, s.metrics...)
	return cols
}

// MetricColumns returns the metric columns in header order.
func (s Schema) MetricColumns() []string {
	out := make([]string, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// Widen appends any unseen metric names to the schema and returns the names
// it added. New columns are inserted in sorted order among themselves so a
// given record widens deterministically; existing columns keep their slots.
func (s *Schema) Widen(names []string) []string {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	var added []string
	for _, name := range names {
		if name == "" || s.seen[name] {
			continue
		}
		added = append(added, name)
	}
	sort.Strings(added)
	for _, name := range added {
		s.metrics = append(s.metrics, name)
		s.seen[name] = true
	}
	return added
}
