package tui

import (
	"strings"
	"testing"

	"nathanbeddoewebdev/gcpm/internal/domain"

	"github.com/charmbracelet/x/ansi"
)

func TestStatusLabel(t *testing.T) {
	tests := []struct {
		name   string
		result domain.CheckResult
		want   string
	}{
		{"http status", domain.CheckResult{StatusCode: 403, StatusText: "Forbidden"}, "403 Forbidden"},
		{"transport failure", domain.CheckResult{StatusText: "Network Error"}, "Network Error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusLabel(tt.result); got != tt.want {
				t.Errorf("statusLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderProbeResults(t *testing.T) {
	results := []domain.CheckResult{
		{Name: "Resource Manager", StatusCode: 200, StatusText: "OK", LatencyMs: 100, IsSuccess: true},
		{Name: "Firestore", StatusText: "Network Error", LatencyMs: 300},
	}

	out := ansi.Strip(RenderProbeResults(results, 100))

	for _, want := range []string{"CHECK", "Resource Manager", "200 OK", "Network Error", "unreachable", "1 of 2 reachable, average latency 200ms"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderProbeResults_Empty(t *testing.T) {
	if got := ansi.Strip(RenderProbeResults(nil, 80)); got != "No checks configured." {
		t.Errorf("unexpected output %q", got)
	}
}
