// Package render derives the human-readable outputs from a ledger snapshot:
// a markdown summary table and an SVG trend chart for the configured
// highlight metric. Rendering is pure; it never mutates the ledger and
// never fails for lack of data.
package render

import (
	"fmt"
	"strings"

	"github.com/tetralabs/mltrail/internal/ledger"
	"github.com/tetralabs/mltrail/internal/metrics"
)

// Options configures a render.
type Options struct {
	HighlightMetric string
	MaxTableRows    int
	// ChartRef is the image reference embedded in the markdown, typically
	// the chart's path relative to the summary file.
	ChartRef string
	// CommitLinkBase, when set, turns commit cells into links:
	// <base>/<sha>.
	CommitLinkBase string
}

// Summary is the rendered output for one run.
type Summary struct {
	Markdown string
	ChartSVG []byte
}

// Render derives the full summary from a ledger snapshot. It is idempotent:
// identical snapshots and options produce identical output.
func Render(l *ledger.Ledger, opts Options) Summary {
	if opts.MaxTableRows <= 0 {
		opts.MaxTableRows = 10
	}
	return Summary{
		Markdown: markdown(l, opts),
		ChartSVG: Chart(l, opts.HighlightMetric),
	}
}

func markdown(l *ledger.Ledger, opts Options) string {
	var b strings.Builder
	b.WriteString("# Pipeline Summary\n\n")

	if len(l.Records) == 0 {
		b.WriteString("No runs recorded yet.\n")
		return b.String()
	}

	deltas := highlightDeltas(l, opts.HighlightMetric)

	b.WriteString("## Latest Run\n\n")
	writeTableHeader(&b, opts.HighlightMetric)
	writeTableRow(&b, l.Records[len(l.Records)-1], deltas[len(l.Records)-1], opts)

	b.WriteString(fmt.Sprintf("\n## Commit History (last %d)\n\n", opts.MaxTableRows))
	writeTableHeader(&b, opts.HighlightMetric)
	start := len(l.Records) - opts.MaxTableRows
	if start < 0 {
		start = 0
	}
	for i := start; i < len(l.Records); i++ {
		writeTableRow(&b, l.Records[i], deltas[i], opts)
	}

	b.WriteString("\n## Trend\n\n")
	if opts.ChartRef != "" {
		b.WriteString(fmt.Sprintf("![%s](%s)\n", opts.HighlightMetric, opts.ChartRef))
	} else {
		b.WriteString("_No chart generated._\n")
	}
	return b.String()
}

func writeTableHeader(b *strings.Builder, highlight string) {
	if highlight == "" {
		highlight = "metric"
	}
	fmt.Fprintf(b, "| Commit | Timestamp | Cause | DevOps | %s | Δ%s |\n", highlight, highlight)
	b.WriteString("|---|---|---|---|---|---|\n")
}

func writeTableRow(b *strings.Builder, rec ledger.Record, delta *float64, opts Options) {
	commit := rec.ShortSHA()
	if opts.CommitLinkBase != "" {
		commit = fmt.Sprintf("[%s](%s/%s)", commit, strings.TrimSuffix(opts.CommitLinkBase, "/"), rec.CommitSHA)
	}
	fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
		commit,
		rec.Timestamp.Format(ledger.TimeFormat),
		rec.Cause,
		rec.DevOps,
		metrics.FormatValue(rec.Metric(opts.HighlightMetric)),
		metrics.FormatDelta(delta),
	)
}

// highlightDeltas computes, per row, the difference between the row's
// highlight value and the previous non-null highlight value in append
// order. Rows without a value, and the first valued row, get nil.
func highlightDeltas(l *ledger.Ledger, name string) []*float64 {
	deltas := make([]*float64, len(l.Records))
	var prev *float64
	for i, rec := range l.Records {
		v := rec.Metric(name)
		if v == nil {
			continue
		}
		if prev != nil {
			d := *v - *prev
			deltas[i] = &d
		}
		prev = v
	}
	return deltas
}
