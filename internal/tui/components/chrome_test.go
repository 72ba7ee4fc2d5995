package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

func TestHeader(t *testing.T) {
	got := ansi.Strip(Header(60, "provision", "Simulated"))
	if !strings.Contains(got, "gcpm > provision") || !strings.Contains(got, "Simulated") {
		t.Errorf("unexpected header %q", got)
	}
	if Header(5, "x", "y") != "" {
		t.Error("expected empty header for narrow width")
	}
}

func TestHeader_KeepsTailOfLongDetail(t *testing.T) {
	path := "/home/someone/.config/" + strings.Repeat("nested/", 10) + "config.json"
	got := ansi.Strip(Header(50, "config", path))

	firstLine := strings.Split(got, "\n")[0]
	if w := ansi.StringWidth(firstLine); w > 50 {
		t.Errorf("header wider than terminal: %d", w)
	}
	if !strings.Contains(firstLine, "…") || !strings.Contains(firstLine, "config.json") {
		t.Errorf("expected left-truncated path, got %q", firstLine)
	}
}

func TestFooter_DropsHintsThatDoNotFit(t *testing.T) {
	bindings := []KeyBinding{
		{Key: "j/k", Desc: "navigate"},
		{Key: "e", Desc: "edit"},
		{Key: "x", Desc: "unset"},
		{Key: "q", Desc: "quit"},
	}

	wide := ansi.Strip(Footer(80, bindings))
	if !strings.Contains(wide, "q quit") {
		t.Errorf("expected all hints on a wide footer, got %q", wide)
	}

	narrow := ansi.Strip(Footer(24, bindings))
	if !strings.Contains(narrow, "j/k navigate") || strings.Contains(narrow, "q quit") {
		t.Errorf("expected trailing hints dropped, got %q", narrow)
	}
}

func TestStatusBar(t *testing.T) {
	if StatusBar(40, "", true) != "" {
		t.Error("expected empty status for empty message")
	}
	got := ansi.Strip(StatusBar(20, strings.Repeat("x", 50), false))
	if !strings.Contains(got, "…") {
		t.Errorf("expected truncated status, got %q", got)
	}
}

func TestLayout_FillsHeight(t *testing.T) {
	header := Header(40, "probe", "")
	footer := Footer(40, []KeyBinding{{Key: "q", Desc: "quit"}})

	var gotRows int
	out := Layout(20, header, "", footer, func(rows int) string {
		gotRows = rows
		return lipgloss.NewStyle().Height(rows).Render("body")
	})

	if gotRows != 20-lipgloss.Height(header)-lipgloss.Height(footer) {
		t.Errorf("unexpected body rows %d", gotRows)
	}
	if h := lipgloss.Height(out); h != 20 {
		t.Errorf("expected layout height 20, got %d", h)
	}

	Layout(2, header, "status", footer, func(rows int) string {
		gotRows = rows
		return ""
	})
	if gotRows != 1 {
		t.Errorf("expected body rows clamped to 1, got %d", gotRows)
	}
}
