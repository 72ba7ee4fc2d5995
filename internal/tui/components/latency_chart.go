package components

import (
	"fmt"

	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/tui/styles"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

// minChartWidth keeps bars legible on narrow terminals.
const minChartWidth = 20

// LatencyChart renders one horizontal bar per check result, colored by
// reachability. Returns a muted placeholder when there is nothing to plot.
func LatencyChart(results []domain.CheckResult, width int) string {
	if len(results) == 0 {
		return styles.MutedText.Render("Latency: no data")
	}
	if width < minChartWidth {
		width = minChartWidth
	}

	data := LatencyBars(results)
	chart := barchart.New(width, len(data)*2,
		barchart.WithDataSet(data),
		barchart.WithHorizontalBars(),
		barchart.WithBarGap(1),
	)
	chart.Draw()

	lo, hi := latencyRange(results)
	summary := styles.MutedText.Render(fmt.Sprintf("  min: %dms  max: %dms", lo, hi))

	return lipgloss.JoinVertical(lipgloss.Left, styles.Label.Render("Latency"), chart.View(), summary)
}

// LatencyBars converts results into bar data labelled by check index so the
// chart lines up with the results table.
func LatencyBars(results []domain.CheckResult) []barchart.BarData {
	data := make([]barchart.BarData, 0, len(results))
	for i, r := range results {
		verdict := "unreachable"
		if r.IsSuccess {
			verdict = "reachable"
		}
		data = append(data, barchart.BarData{
			Label: fmt.Sprintf("%d", i+1),
			Values: []barchart.BarValue{{
				Name:  r.Name,
				Value: float64(r.LatencyMs),
				Style: styles.StatusStyle(verdict),
			}},
		})
	}
	return data
}

func latencyRange(results []domain.CheckResult) (int64, int64) {
	lo, hi := results[0].LatencyMs, results[0].LatencyMs
	for _, r := range results[1:] {
		lo = min(lo, r.LatencyMs)
		hi = max(hi, r.LatencyMs)
	}
	return lo, hi
}
