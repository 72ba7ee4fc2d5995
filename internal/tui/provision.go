package tui

import (
	"context"
	"fmt"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/pipeline"
	"nathanbeddoewebdev/gcpm/internal/tui/components"
	"nathanbeddoewebdev/gcpm/internal/tui/styles"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// ProvisionRunner starts a provisioning run and reports progress to obs.
type ProvisionRunner func(ctx context.Context, obs pipeline.Observer) (*domain.Run, error)

// --- Messages ---

type stageMsg struct {
	stage domain.Stage
}

type logMsg struct {
	entry domain.LogEntry
}

type runDoneMsg struct {
	run *domain.Run
	err error
}

// --- Provision model ---

type provisionModel struct {
	req    pipeline.Request
	mode   domain.Mode
	cancel context.CancelFunc

	stages []domain.Stage
	log    []domain.LogEntry

	spinner spinner.Model

	done       bool
	cancelling bool
	run        *domain.Run
	err        error

	width  int
	height int
}

func newProvisionModel(req pipeline.Request, mode domain.Mode, cancel context.CancelFunc) provisionModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.StatusStyle(string(domain.StageStatusRunning))

	return provisionModel{
		req:     req,
		mode:    mode,
		cancel:  cancel,
		stages:  domain.PendingStages(),
		spinner: s,
	}
}

// RunProvisionView shows live stage progress and the run log while run
// executes. ctrl+c cancels the run; the view stays open on the outcome until
// the user quits.
func RunProvisionView(req pipeline.Request, mode domain.Mode, run ProvisionRunner) (*domain.Run, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := newProvisionModel(req, mode, cancel)
	p := tea.NewProgram(m, tea.WithAltScreen())

	type outcome struct {
		run *domain.Run
		err error
	}
	finished := make(chan outcome, 1)

	go func() {
		obs := pipeline.ObserverFuncs{
			Log:   func(e domain.LogEntry) { p.Send(logMsg{entry: e}) },
			Stage: func(s domain.Stage) { p.Send(stageMsg{stage: s}) },
		}
		r, err := run(ctx, obs)
		finished <- outcome{run: r, err: err}
		p.Send(runDoneMsg{run: r, err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-finished
		return nil, fmt.Errorf("failed to run provision view: %w", err)
	}

	cancel()
	out := <-finished
	return out.run, out.err
}

func (m provisionModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m provisionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stageMsg:
		for i := range m.stages {
			if m.stages[i].Key == msg.stage.Key {
				m.stages[i] = msg.stage
			}
		}
		return m, nil

	case logMsg:
		m.log = append(m.log, msg.entry)
		return m, nil

	case runDoneMsg:
		m.done = true
		m.run = msg.run
		m.err = msg.err
		if msg.run != nil {
			m.stages = append([]domain.Stage(nil), msg.run.Stages...)
		}
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m provisionModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.done {
			return m, tea.Quit
		}
		if !m.cancelling {
			m.cancelling = true
			if m.cancel != nil {
				m.cancel()
			}
		}
		return m, nil
	case "q", "esc", "enter":
		if m.done {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m provisionModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "provision", modeLabel(m.mode))

	var bindings []components.KeyBinding
	if m.done {
		bindings = []components.KeyBinding{{Key: "q", Desc: "quit"}}
	} else {
		bindings = []components.KeyBinding{{Key: "ctrl+c", Desc: "cancel run"}}
	}
	footer := components.Footer(m.width, bindings)

	message, isError := m.statusMessage()
	status := components.StatusBar(m.width, message, isError)

	return components.Layout(m.height, header, status, footer, m.renderContent)
}

func (m provisionModel) statusMessage() (string, bool) {
	switch {
	case !m.done && m.cancelling:
		return "Cancelling...", false
	case !m.done:
		return "", false
	case m.err != nil:
		return m.err.Error(), true
	default:
		return "Provisioning complete.", false
	}
}

func (m provisionModel) renderContent(height int) string {
	target := styles.Title.Render(m.req.DisplayName) + styles.MutedText.Render("  "+m.req.TargetID)
	stages := renderStages(m.stages, m.spinner.View())

	used := lipgloss.Height(target) + lipgloss.Height(stages) + 3
	logHeight := max(height-used, 1)
	logLines := renderLog(m.log, m.width-4, logHeight)

	body := lipgloss.JoinVertical(lipgloss.Left,
		target,
		"",
		stages,
		"",
		styles.Label.Render("Log"),
		strings.Join(logLines, "\n"),
	)
	return lipgloss.NewStyle().Padding(0, 2).Height(height).Render(body)
}

// renderStages renders one line per stage. Running stages show spin.
func renderStages(stages []domain.Stage, spin string) string {
	lines := make([]string, 0, len(stages))
	for _, s := range stages {
		icon := styles.StageIcon(string(s.Status))
		if s.Status == domain.StageStatusRunning {
			icon = spin
		}
		line := icon + " " + styles.Value.Render(s.Title)
		if s.Message != "" {
			line += styles.MutedText.Render("  " + s.Message)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// renderLog returns the last height log lines, each cut to width cells.
func renderLog(entries []domain.LogEntry, width, height int) []string {
	if height <= 0 {
		return nil
	}
	if len(entries) > height {
		entries = entries[len(entries)-height:]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		text := e.String()
		if width > 1 {
			text = ansi.Truncate(text, width, "…")
		}
		lines = append(lines, styles.LogLineStyle(string(e.Level)).Render(text))
	}
	return lines
}
