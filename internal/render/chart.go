package render

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/wcharczuk/go-chart/v2"

	"github.com/tetralabs/mltrail/internal/ledger"
)

// Chart renders the highlight metric across the entire history as an SVG
// line chart: the raw series, a 3-run moving average, and a median
// reference line. Null rows are skipped, not interpolated. With fewer than
// two usable points it returns a placeholder SVG; it never fails.
func Chart(l *ledger.Ledger, metricName string) []byte {
	idx, vals := l.MetricSeries(metricName)
	if len(vals) < 2 {
		return placeholderSVG(metricName, len(vals))
	}

	med := median(vals)
	medLine := make([]float64, len(vals))
	for i := range medLine {
		medLine[i] = med
	}

	graph := chart.Chart{
		Title:  "Model Performance",
		Width:  900,
		Height: 420,
		XAxis:  chart.XAxis{Name: "run"},
		YAxis:  chart.YAxis{Name: metricName},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    metricName,
				XValues: idx,
				YValues: vals,
			},
			chart.ContinuousSeries{
				Name:    "3-run MA",
				XValues: idx,
				YValues: movingAverage(vals, 3),
				Style:   chart.Style{StrokeDashArray: []float64{2, 2}},
			},
			chart.ContinuousSeries{
				Name:    "median",
				XValues: idx,
				YValues: medLine,
				Style:   chart.Style{StrokeDashArray: []float64{6, 4}},
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.SVG, &buf); err != nil {
		// Chart rendering must never fail the pipeline.
		return placeholderSVG(metricName, len(vals))
	}
	return buf.Bytes()
}

func placeholderSVG(metricName string, points int) []byte {
	msg := fmt.Sprintf("not enough %s data points yet (%d)", metricName, points)
	if metricName == "" {
		msg = "no highlight metric configured"
	}
	return []byte(fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="900" height="120">`+
			`<rect width="100%%" height="100%%" fill="#f6f8fa"/>`+
			`<text x="20" y="65" font-family="sans-serif" font-size="16" fill="#57606a">%s</text>`+
			`</svg>`, msg))
}

// movingAverage computes a trailing window mean; positions before the
// window fills use the mean of what is available so the series stays the
// same length as the input.
func movingAverage(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	var sum float64
	for i, v := range vals {
		sum += v
		n := window
		if i+1 < window {
			n = i + 1
		} else if i >= window {
			sum -= vals[i-window]
		}
		out[i] = sum / float64(n)
	}
	return out
}

func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
