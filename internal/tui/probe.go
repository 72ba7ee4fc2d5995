package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/probe"
	"nathanbeddoewebdev/gcpm/internal/tui/components"
	"nathanbeddoewebdev/gcpm/internal/tui/styles"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// ProbeWithSpinner runs fn behind a spinner on stderr.
func ProbeWithSpinner(fn func(ctx context.Context) ([]domain.CheckResult, error)) ([]domain.CheckResult, error) {
	accessible := os.Getenv("ACCESSIBLE") != ""

	var results []domain.CheckResult
	err := spinner.New().
		Title("Probing Google Cloud endpoints...").
		Accessible(accessible).
		Output(os.Stderr).
		ActionWithErr(func(ctx context.Context) error {
			var err error
			results, err = fn(ctx)
			return err
		}).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) || errors.Is(err, context.Canceled) {
			return nil, ErrAborted
		}
		return nil, err
	}
	return results, nil
}

// probe table column widths in cells
const (
	colIndex   = 3
	colName    = 22
	colStatus  = 26
	colLatency = 9
	colVerdict = 13
)

// RenderProbeResults renders the results table, a latency chart and the
// summary line for a terminal of the given width.
func RenderProbeResults(results []domain.CheckResult, width int) string {
	if len(results) == 0 {
		return styles.MutedText.Render("No checks configured.")
	}

	rows := []string{probeRow("#", "CHECK", "STATUS", "LATENCY", "RESULT", styles.TableHeader, styles.TableHeader)}
	for i, r := range results {
		verdict := "unreachable"
		if r.IsSuccess {
			verdict = "reachable"
		}
		rows = append(rows, probeRow(
			fmt.Sprintf("%d", i+1),
			r.Name,
			statusLabel(r),
			fmt.Sprintf("%dms", r.LatencyMs),
			verdict,
			styles.TableCell,
			styles.StatusStyle(verdict).Padding(0, 1),
		))
	}

	chartWidth := min(max(width-4, 20), 80)
	s := probe.Summarize(results)
	summary := fmt.Sprintf("%d of %d reachable, average latency %dms", s.Reachable, s.Total, s.AverageLatencyMs)
	summaryStyle := styles.SuccessText
	if s.Unreachable > 0 {
		summaryStyle = styles.WarningText
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		strings.Join(rows, "\n"),
		"",
		components.LatencyChart(results, chartWidth),
		"",
		summaryStyle.Render(summary),
	)
}

func probeRow(index, name, status, latency, verdict string, cell, verdictStyle lipgloss.Style) string {
	return cell.Width(colIndex+2).Render(index) +
		cell.Width(colName+2).Render(ansi.Truncate(name, colName, "…")) +
		cell.Width(colStatus+2).Render(ansi.Truncate(status, colStatus, "…")) +
		cell.Width(colLatency+2).Align(lipgloss.Right).Render(latency) +
		verdictStyle.Width(colVerdict+2).Render(verdict)
}

func statusLabel(r domain.CheckResult) string {
	if r.StatusCode == 0 {
		return r.StatusText
	}
	return fmt.Sprintf("%d %s", r.StatusCode, r.StatusText)
}
