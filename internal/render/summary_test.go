package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tetralabs/mltrail/internal/classify"
	"github.com/tetralabs/mltrail/internal/ledger"
	"github.com/tetralabs/mltrail/internal/testutil/golden"
)

func f(v float64) *float64 { return &v }

func testLedger() *ledger.Ledger {
	l := ledger.New()
	l.Add(ledger.Record{
		CommitSHA: "aaaaaaa1111",
		Timestamp: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Cause:     classify.CauseData,
		DevOps:    ledger.StatusPass,
		Metrics:   map[string]*float64{"val_accuracy": f(0.7), "loss": f(1.2)},
	})
	l.Add(ledger.Record{
		CommitSHA: "bbbbbbb2222",
		Timestamp: time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC),
		Cause:     classify.CauseNone,
		DevOps:    ledger.StatusPass,
	})
	l.Add(ledger.Record{
		CommitSHA: "ccccccc3333",
		Timestamp: time.Date(2026, 8, 22, 10, 0, 0, 0, time.UTC),
		Cause:     classify.CauseBoth,
		DevOps:    ledger.StatusFail,
		Metrics:   map[string]*float64{"val_accuracy": f(0.75)},
	})
	return l
}

func testOptions() Options {
	return Options{
		HighlightMetric: "val_accuracy",
		MaxTableRows:    2,
		ChartRef:        "val_accuracy.svg",
	}
}

func TestRenderSummaryMarkdown(t *testing.T) {
	got := Render(testLedger(), testOptions())
	golden.Assert(t, "summary_basic", got.Markdown)
}

func TestRenderIsIdempotent(t *testing.T) {
	a := Render(testLedger(), testOptions())
	b := Render(testLedger(), testOptions())
	assert.Equal(t, a.Markdown, b.Markdown)
	assert.Equal(t, a.ChartSVG, b.ChartSVG)
}

func TestRenderEmptyLedger(t *testing.T) {
	got := Render(ledger.New(), testOptions())
	assert.Contains(t, got.Markdown, "No runs recorded yet.")
	assert.Contains(t, string(got.ChartSVG), "<svg", "placeholder chart is still a valid artifact")
}

func TestChartWithEnoughPoints(t *testing.T) {
	svg := string(Chart(testLedger(), "val_accuracy"))
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "Model Performance")
}

func TestChartPlaceholderForSparseData(t *testing.T) {
	l := ledger.New()
	l.Add(ledger.Record{
		CommitSHA: "aaaaaaa1111",
		Timestamp: time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC),
		Cause:     classify.CauseData,
		DevOps:    ledger.StatusPass,
		Metrics:   map[string]*float64{"val_accuracy": f(0.7)},
	})
	svg := string(Chart(l, "val_accuracy"))
	assert.Contains(t, svg, "not enough val_accuracy data points yet (1)")
}

func TestCommitLinks(t *testing.T) {
	opts := testOptions()
	opts.CommitLinkBase = "https://github.com/acme/widgets/commit"
	got := Render(testLedger(), opts)
	assert.Contains(t, got.Markdown, "[ccccccc](https://github.com/acme/widgets/commit/ccccccc3333)")
}

func TestMovingAverage(t *testing.T) {
	got := movingAverage([]float64{1, 2, 3, 4, 5}, 3)
	require.Len(t, got, 5)
	assert.InDelta(t, 1.0, got[0], 1e-9)
	assert.InDelta(t, 1.5, got[1], 1e-9)
	assert.InDelta(t, 2.0, got[2], 1e-9)
	assert.InDelta(t, 3.0, got[3], 1e-9)
	assert.InDelta(t, 4.0, got[4], 1e-9)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{4, 1, 2, 3}))
}
