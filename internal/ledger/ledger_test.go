package ledger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetralabs/mltrail/internal/classify"
)

func f(v float64) *float64 { return &v }

func rec(sha string, cause classify.Cause, metrics map[string]*float64) Record {
	return Record{
		CommitSHA: sha,
		Timestamp: time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
		Cause:     cause,
		DevOps:    StatusPass,
		Metrics:   metrics,
	}
}

func TestSchemaWidenIsMonotonic(t *testing.T) {
	s := NewSchema()
	added := s.Widen([]string{"val_accuracy", "loss"})
	assert.Equal(t, []string{"loss", "val_accuracy"}, added)

	// Re-widening with a superset only adds the new name and keeps order.
	added = s.Widen([]string{"loss", "accuracy", "val_accuracy"})
	assert.Equal(t, []string{"accuracy"}, added)
	assert.Equal(t, []string{"loss", "val_accuracy", "accuracy"}, s.MetricColumns())

	assert.Equal(t,
		[]string{"commit_sha", "timestamp", "cause", "devops_status", "loss", "val_accuracy", "accuracy"},
		s.Columns())
}

func TestParseHeaderRejectsWrongFixedColumns(t *testing.T) {
	_, err := ParseHeader([]string{"sha", "timestamp", "cause", "devops_status"})
	assert.ErrorIs(t, err, ErrCorrupt)

	_, err = ParseHeader([]string{"commit_sha", "timestamp"})
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestEncodeDecodePreservesRowsAndNulls(t *testing.T) {
	l := New()
	l.Add(rec("aaaaaaa1111", classify.CauseData, map[string]*float64{"val_accuracy": f(0.91), "loss": f(0.42)}))
	l.Add(rec("bbbbbbb2222", classify.CauseNone, map[string]*float64{}))

	var buf bytes.Buffer
	require.NoError(t, l.Encode(&buf))

	// The no-training row keeps empty cells for every metric column.
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "commit_sha,timestamp,cause,devops_status,loss,val_accuracy", lines[0])
	assert.True(t, strings.HasSuffix(lines[2], ",,"), "null metrics must stay as empty cells: %q", lines[2])

	got, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, got.Records, 2)
	assert.Equal(t, l.Schema.Columns(), got.Schema.Columns())
	assert.Equal(t, 0.91, *got.Records[0].Metric("val_accuracy"))
	assert.Nil(t, got.Records[1].Metric("val_accuracy"))
	assert.Equal(t, classify.CauseNone, got.Records[1].Cause)
}

func TestWideningBackfillsExistingRows(t *testing.T) {
	l := New()
	l.Add(rec("aaaaaaa1111", classify.CauseScript, map[string]*float64{"loss": f(1.5)}))
	l.Add(rec("bbbbbbb2222", classify.CauseBoth, map[string]*float64{"loss": f(1.2), "val_accuracy": f(0.8)}))

	var buf bytes.Buffer
	require.NoError(t, l.Encode(&buf))
	got, err := Decode(&buf)
	require.NoError(t, err)

	// Row one never saw val_accuracy; after widening it reads back null,
	// and its original loss value is untouched.
	assert.Nil(t, got.Records[0].Metric("val_accuracy"))
	assert.Equal(t, 1.5, *got.Records[0].Metric("loss"))
}

func TestDecodeRejectsCorruption(t *testing.T) {
	cases := map[string]string{
		"ragged row":       "commit_sha,timestamp,cause,devops_status\nabc,2026-08-25 12:00:00,Data\n",
		"bad timestamp":    "commit_sha,timestamp,cause,devops_status\nabc,not-a-time,Data,Pass\n",
		"empty sha":        "commit_sha,timestamp,cause,devops_status\n,2026-08-25 12:00:00,Data,Pass\n",
		"bad metric":       "commit_sha,timestamp,cause,devops_status,loss\nabc,2026-08-25 12:00:00,Data,Pass,oops\n",
		"wrong header":     "sha,when,why,status\n",
		"duplicate metric": "commit_sha,timestamp,cause,devops_status,loss,loss\n",
	}
	for name, raw := range cases {
		_, err := Decode(strings.NewReader(raw))
		assert.ErrorIs(t, err, ErrCorrupt, name)
	}
}

func TestDecodeEmptyInput(t *testing.T) {
	l, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, l.Records)
	assert.Equal(t, []string{"commit_sha", "timestamp", "cause", "devops_status"}, l.Schema.Columns())
}

func TestMetricSeriesSkipsNulls(t *testing.T) {
	l := New()
	l.Add(rec("a1", classify.CauseData, map[string]*float64{"val_accuracy": f(0.7)}))
	l.Add(rec("b2", classify.CauseNone, nil))
	l.Add(rec("c3", classify.CauseScript, map[string]*float64{"val_accuracy": f(0.8)}))

	idx, vals := l.MetricSeries("val_accuracy")
	assert.Equal(t, []float64{0, 2}, idx)
	assert.Equal(t, []float64{0.7, 0.8}, vals)
}
