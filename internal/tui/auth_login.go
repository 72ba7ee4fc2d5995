package tui

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/services/auth"
	"nathanbeddoewebdev/gcpm/internal/tui/components"
	"nathanbeddoewebdev/gcpm/internal/tui/styles"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type secretPromptModel struct {
	name  string
	input textinput.Model

	width  int
	height int

	err       error
	secret    string
	cancelled bool
}

func newSecretPrompt(name string) secretPromptModel {
	ti := textinput.New()
	ti.Placeholder = "paste the " + name + " here"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'
	ti.Width = 50
	ti.Focus()

	return secretPromptModel{name: name, input: ti}
}

// PromptSecret asks for the named credential with a masked input. It returns
// ErrAborted when the user cancels.
func PromptSecret(name string) (string, error) {
	p := tea.NewProgram(newSecretPrompt(name), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("failed to run secret prompt: %w", err)
	}

	final := result.(secretPromptModel)
	if final.cancelled {
		return "", ErrAborted
	}
	return final.secret, nil
}

// ValidateSecret rejects values that cannot be a credential of the given kind.
func ValidateSecret(name, secret string) error {
	secret = strings.TrimSpace(secret)
	switch {
	case secret == "":
		return fmt.Errorf("%s cannot be empty", name)
	case strings.ContainsAny(secret, " \t\r\n"):
		return fmt.Errorf("%s cannot contain whitespace", name)
	case name == auth.AccessToken && strings.HasPrefix(secret, "{"):
		return fmt.Errorf("%s looks like a service account key file; use --adc instead", name)
	}
	return nil
}

func (m secretPromptModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m secretPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			value := strings.TrimSpace(m.input.Value())
			if err := ValidateSecret(m.name, value); err != nil {
				m.err = err
				return m, nil
			}
			m.secret = value
			return m, tea.Quit
		}
		m.err = nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m secretPromptModel) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	header := components.Header(m.width, "auth login", m.name)
	footer := components.Footer(m.width, []components.KeyBinding{
		{Key: "enter", Desc: "save"},
		{Key: "esc", Desc: "cancel"},
	})
	return components.Layout(m.height, header, "", footer, func(rows int) string {
		lines := []string{
			styles.Title.Render(credentialTitle(m.name)),
			styles.MutedText.Render("Used by " + credentialUse(m.name) + ". Kept in the OS keychain, never in config."),
			"",
			m.input.View(),
		}
		if m.err != nil {
			lines = append(lines, "", styles.ErrorText.Render(m.err.Error()))
		}
		return lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Left, lines...))
	})
}

func credentialTitle(name string) string {
	switch name {
	case auth.AccessToken:
		return "OAuth Access Token"
	case auth.APIKey:
		return "Google Cloud API Key"
	}
	return name
}
