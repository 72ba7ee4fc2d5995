// Package styles holds the palette and lipgloss styles shared by the gcpm
// TUI views.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	White   = lipgloss.Color("#E2E2E2")
	Gray    = lipgloss.Color("#888888")
	Muted   = lipgloss.Color("#555555")
	DimGray = lipgloss.Color("#444444")
	Blue    = lipgloss.Color("#5FAFFF")
	Green   = lipgloss.Color("#5FD787")
	Yellow  = lipgloss.Color("#FFD787")
	Red     = lipgloss.Color("#FF8787")
)

var (
	Title    = lipgloss.NewStyle().Bold(true).Foreground(White)
	Subtitle = lipgloss.NewStyle().Foreground(Gray)

	// Label and Value render "field: value" pairs.
	Label = lipgloss.NewStyle().Bold(true).Foreground(Gray)
	Value = lipgloss.NewStyle().Foreground(White)

	MutedText   = lipgloss.NewStyle().Foreground(Muted)
	ErrorText   = lipgloss.NewStyle().Bold(true).Foreground(Red)
	SuccessText = lipgloss.NewStyle().Bold(true).Foreground(Green)
	WarningText = lipgloss.NewStyle().Bold(true).Foreground(Yellow)

	Card = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(DimGray).
		Padding(1, 2)

	TableHeader = lipgloss.NewStyle().Bold(true).Foreground(Gray).Padding(0, 1)
	TableCell   = lipgloss.NewStyle().Foreground(White).Padding(0, 1)

	KeySepStyle = lipgloss.NewStyle().Foreground(DimGray)
	keyStyle    = lipgloss.NewStyle().Bold(true).Foreground(Blue)
	keyDesc     = lipgloss.NewStyle().Foreground(Muted)
)

// tones maps stage statuses, check verdicts and log levels to a color.
// Anything missing renders gray.
var tones = map[string]lipgloss.Color{
	"success":     Green,
	"reachable":   Green,
	"running":     Yellow,
	"failed":      Red,
	"unreachable": Red,
	"error":       Red,
}

// StatusStyle returns the bold style for a stage status or check verdict.
func StatusStyle(status string) lipgloss.Style {
	if c, ok := tones[status]; ok {
		return lipgloss.NewStyle().Bold(true).Foreground(c)
	}
	return lipgloss.NewStyle().Foreground(Gray)
}

var stageGlyphs = map[string]string{
	"success": "✓",
	"failed":  "✗",
}

// StageIcon returns the glyph shown next to a stage. Running stages show a
// spinner instead, so they get the pending glyph here.
func StageIcon(status string) string {
	glyph, ok := stageGlyphs[status]
	if !ok {
		glyph = "○"
	}
	return StatusStyle(status).Render(glyph)
}

// LogLineStyle returns the style for a run log line of the given level.
// Info lines stay white rather than gray.
func LogLineStyle(level string) lipgloss.Style {
	if level == "success" || level == "error" {
		return lipgloss.NewStyle().Foreground(tones[level])
	}
	return lipgloss.NewStyle().Foreground(White)
}

// FormatKeyBinding renders one footer hint, e.g. "q quit".
func FormatKeyBinding(key, desc string) string {
	return keyStyle.Render(key) + " " + keyDesc.Render(desc)
}
