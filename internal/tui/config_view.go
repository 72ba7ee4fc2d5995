package tui

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/config"
	"nathanbeddoewebdev/gcpm/internal/tui/components"
	"nathanbeddoewebdev/gcpm/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

type configSavedMsg struct {
	key string
}

type configSaveErrorMsg struct {
	err error
}

type configViewModel struct {
	cfg  *config.Config
	keys []config.KeySpec
	path string

	cursor  int
	editing bool
	editor  textinput.Model

	width  int
	height int

	status  string
	isError bool
}

func newConfigView(cfg *config.Config, path string) configViewModel {
	return configViewModel{cfg: cfg, keys: config.Keys, path: path}
}

// RunConfigView opens the config editor on the current config file.
func RunConfigView() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	path, err := config.Path()
	if err != nil {
		return err
	}

	p := tea.NewProgram(newConfigView(cfg, path), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func (m configViewModel) Init() tea.Cmd {
	return nil
}

func (m configViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.editing {
			return m.handleEditKey(msg)
		}
		return m.handleKey(msg)

	case configSavedMsg:
		m.editing = false
		m.status, m.isError = "Saved "+msg.key, false
		return m, nil

	case configSaveErrorMsg:
		m.status, m.isError = "Error: "+msg.err.Error(), true
		return m, nil
	}

	if m.editing {
		var cmd tea.Cmd
		m.editor, cmd = m.editor.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m configViewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit
	case "up", "k":
		m.cursor = max(m.cursor-1, 0)
	case "down", "j":
		m.cursor = min(m.cursor+1, len(m.keys)-1)
	case "x", "delete":
		spec := m.keys[m.cursor]
		if spec.Get(m.cfg) == "" {
			return m, nil
		}
		spec.Set(m.cfg, "")
		return m, m.save(spec.Name)
	case "enter", "e":
		m.editor = newValueEditor(m.keys[m.cursor], m.cfg)
		m.editing = true
		m.status = ""
		return m, textinput.Blink
	}
	return m, nil
}

func newValueEditor(spec config.KeySpec, cfg *config.Config) textinput.Model {
	ti := textinput.New()
	ti.SetValue(spec.Get(cfg))
	ti.Placeholder = spec.Default
	if len(spec.Suggestions) > 0 {
		ti.ShowSuggestions = true
		ti.SetSuggestions(spec.Suggestions)
	}
	ti.Width = 40
	ti.Focus()
	return ti
}

func (m configViewModel) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editing = false
		return m, nil
	case "enter":
		spec := m.keys[m.cursor]
		value := strings.TrimSpace(m.editor.Value())
		if spec.Validate != nil && value != "" {
			if err := spec.Validate(value); err != nil {
				m.status, m.isError = "Error: "+err.Error(), true
				return m, nil
			}
		}
		spec.Set(m.cfg, value)
		return m, m.save(spec.Name)
	}

	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	return m, cmd
}

func (m configViewModel) save(key string) tea.Cmd {
	cfg := *m.cfg
	return func() tea.Msg {
		if err := cfg.Save(); err != nil {
			return configSaveErrorMsg{err: err}
		}
		return configSavedMsg{key: key}
	}
}

func (m configViewModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "config", m.path)

	bindings := []components.KeyBinding{
		{Key: "j/k", Desc: "navigate"},
		{Key: "e", Desc: "edit"},
		{Key: "x", Desc: "unset"},
		{Key: "q", Desc: "quit"},
	}
	if m.editing {
		bindings = []components.KeyBinding{
			{Key: "tab", Desc: "complete"},
			{Key: "enter", Desc: "save"},
			{Key: "esc", Desc: "cancel"},
		}
	}
	footer := components.Footer(m.width, bindings)
	status := components.StatusBar(m.width, m.status, m.isError)

	return components.Layout(m.height, header, status, footer, m.renderContent)
}

func (m configViewModel) renderContent(height int) string {
	if len(m.keys) == 0 {
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("No configuration keys defined."))
	}

	rows := make([][]string, len(m.keys))
	for i, spec := range m.keys {
		value := valueCell(spec, m.cfg)
		if m.editing && i == m.cursor {
			value = m.editor.View()
		}
		rows[i] = []string{spec.Name, value}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.DimGray)).
		BorderColumn(false).
		Headers("KEY", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styles.TableHeader
			case row == m.cursor:
				return styles.TableCell.Foreground(styles.Blue).Bold(true)
			case row >= 0 && row < len(m.keys) && m.keys[row].Get(m.cfg) == "":
				return styles.TableCell.Foreground(styles.Muted)
			default:
				return styles.TableCell
			}
		})

	desc := styles.MutedText.Italic(true).Render(m.keys[m.cursor].Description)
	body := lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Configuration"), "", t.Render(), "", desc)
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, body)
}

// valueCell is the stored value, the default it falls back to, or a marker.
func valueCell(spec config.KeySpec, cfg *config.Config) string {
	if spec.Get != nil {
		if v := spec.Get(cfg); v != "" {
			return v
		}
	}
	if spec.Default != "" {
		return spec.Default + " (default)"
	}
	return "(not set)"
}
