package tui

import (
	"strings"

	"nathanbeddoewebdev/gcpm/internal/services/auth"
	"nathanbeddoewebdev/gcpm/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

// CredentialStatus reports whether one credential is present in the store.
type CredentialStatus struct {
	Name   string
	Stored bool
	Err    error
}

// State is the short word shown for the credential.
func (c CredentialStatus) State() string {
	switch {
	case c.Err != nil:
		return "error (" + c.Err.Error() + ")"
	case c.Stored:
		return "stored"
	default:
		return "not stored"
	}
}

// CredentialStatuses checks every credential gcpm knows about.
func CredentialStatuses(store auth.Store) []CredentialStatus {
	names := auth.Names()
	out := make([]CredentialStatus, 0, len(names))
	for _, name := range names {
		ok, err := auth.Stored(store, name)
		out = append(out, CredentialStatus{Name: name, Stored: ok, Err: err})
	}
	return out
}

// RenderCredentialStatus draws the credential list as a card with what each
// credential unlocks.
func RenderCredentialStatus(statuses []CredentialStatus, width int) string {
	if len(statuses) == 0 {
		return styles.MutedText.Render("No credentials known.")
	}

	labelWidth := 0
	for _, s := range statuses {
		labelWidth = max(labelWidth, lipgloss.Width(credentialTitle(s.Name)))
	}

	rows := make([]string, 0, len(statuses)*2)
	for _, s := range statuses {
		state := styles.MutedText.Render(s.State())
		switch {
		case s.Err != nil:
			state = styles.ErrorText.Render(s.State())
		case s.Stored:
			state = styles.SuccessText.Render(s.State())
		}
		rows = append(rows,
			styles.Label.Width(labelWidth+2).Render(credentialTitle(s.Name))+state,
			styles.MutedText.Render("  "+credentialUse(s.Name)),
		)
	}

	cardWidth := min(max(width-4, 40), 72)
	card := styles.Card.Width(cardWidth).Render(strings.Join(rows, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, styles.Title.Render("Stored Credentials"), card)
}

func credentialUse(name string) string {
	switch name {
	case auth.AccessToken:
		return "gcpm provision --live"
	case auth.APIKey:
		return "gcpm probe"
	}
	return ""
}
