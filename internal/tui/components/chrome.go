// Package components provides render-only building blocks shared by the gcpm
// TUI models: the header and footer bars, the status line and the latency
// chart.
package components

import (
	"strings"

	"nathanbeddoewebdev/gcpm/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// KeyBinding is one key hint in the footer.
type KeyBinding struct {
	Key  string
	Desc string
}

// Header renders "gcpm > breadcrumb" on the left and detail on the right,
// above a rule. The detail is cut from the left when space runs out, so the
// tail of a long path stays visible.
func Header(width int, breadcrumb, detail string) string {
	if width < 10 {
		return ""
	}

	left := styles.Title.Foreground(styles.Blue).Render("gcpm")
	if breadcrumb != "" {
		left += styles.MutedText.Render(" > ") + styles.Title.Render(breadcrumb)
	}

	inner := width - 4
	room := inner - lipgloss.Width(left) - 1
	right := ""
	if detail != "" && room > 1 {
		if ansi.StringWidth(detail) > room {
			detail = ansi.TruncateLeft(detail, ansi.StringWidth(detail)-room+1, "…")
		}
		right = styles.Subtitle.Render(detail)
	}

	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return bar(width, lipgloss.Border{Bottom: "─"}, false).Render(left + strings.Repeat(" ", gap) + right)
}

// Footer renders key hints below a rule. Hints that do not fit are dropped
// from the end.
func Footer(width int, bindings []KeyBinding) string {
	if width < 10 || len(bindings) == 0 {
		return ""
	}

	sep := styles.KeySepStyle.Render("  ")
	inner := width - 4
	var content string
	for i, b := range bindings {
		hint := styles.FormatKeyBinding(b.Key, b.Desc)
		next := hint
		if i > 0 {
			next = content + sep + hint
		}
		if lipgloss.Width(next) > inner {
			break
		}
		content = next
	}
	return bar(width, lipgloss.Border{Top: "─"}, true).Render(content)
}

// StatusBar renders a one-line message, or nothing when message is empty.
func StatusBar(width int, message string, isError bool) string {
	if message == "" {
		return ""
	}
	style := styles.MutedText
	if isError {
		style = styles.ErrorText
	}
	if width > 5 {
		message = ansi.Truncate(message, width-4, "…")
	}
	return lipgloss.NewStyle().Width(width).Padding(0, 2).Render(style.Render(message))
}

// Layout stacks header, body, status and footer to fill height. body
// receives the rows left for it, at least one.
func Layout(height int, header, status, footer string, body func(rows int) string) string {
	rows := height - lipgloss.Height(header) - lipgloss.Height(footer)
	if status != "" {
		rows -= lipgloss.Height(status)
	}

	parts := []string{header, body(max(rows, 1))}
	if status != "" {
		parts = append(parts, status)
	}
	parts = append(parts, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func bar(width int, border lipgloss.Border, top bool) lipgloss.Style {
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderStyle(border).
		BorderTop(top).
		BorderBottom(!top).
		BorderForeground(styles.DimGray)
}
