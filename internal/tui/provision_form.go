package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/pipeline"
	"nathanbeddoewebdev/gcpm/internal/util"

	"github.com/charmbracelet/huh"
)

// ErrAborted is returned when a user cancels the interactive flow.
var ErrAborted = errors.New("aborted by user")

// ProvisionInput is what the provisioning form collects.
type ProvisionInput struct {
	Request pipeline.Request
	Mode    domain.Mode
}

// ProvisionForm runs an interactive wizard that collects the project ID,
// display name, database location and execution mode. Fields already set in
// prefill are offered as defaults.
func ProvisionForm(prefill ProvisionInput) (*ProvisionInput, error) {
	accessible := os.Getenv("ACCESSIBLE") != ""

	in := prefill
	if in.Request.Location == "" {
		in.Request.Location = pipeline.DefaultLocation
	}
	if in.Mode == "" {
		in.Mode = domain.ModeSimulated
	}

	locationOpts, locationLabels := buildLocationOptions(in.Request.Location)

	projectField := huh.NewInput().
		Title("Project ID").
		Description("6-30 lowercase letters, digits or hyphens").
		Value(&in.Request.TargetID).
		Validate(func(value string) error {
			return util.ValidateProjectID(strings.TrimSpace(value))
		})

	nameField := huh.NewInput().
		Title("Display name").
		Value(&in.Request.DisplayName).
		Validate(func(value string) error {
			return util.ValidateDisplayName(strings.TrimSpace(value))
		})

	locationField := huh.NewSelect[string]().
		Title("Database location").
		Options(locationOpts...).
		Value(&in.Request.Location).
		Height(selectHeight(len(locationOpts), 10))

	modeField := huh.NewSelect[domain.Mode]().
		Title("Mode").
		Options(
			huh.NewOption("Simulated (no API calls)", domain.ModeSimulated),
			huh.NewOption("Live (calls Google Cloud)", domain.ModeLive),
		).
		Value(&in.Mode)

	confirm := false
	summaryNote := huh.NewNote().
		Title("Summary").
		DescriptionFunc(func() string {
			return buildSummary(in, locationLabels)
		}, &in)

	confirmField := huh.NewConfirm().
		Title("Start provisioning?").
		Value(&confirm)

	if err := runForm(accessible,
		huh.NewGroup(projectField, nameField),
		huh.NewGroup(locationField),
		huh.NewGroup(modeField),
		huh.NewGroup(summaryNote, confirmField),
	); err != nil {
		return nil, err
	}

	if !confirm {
		return nil, ErrAborted
	}

	in.Request.TargetID = strings.TrimSpace(in.Request.TargetID)
	in.Request.DisplayName = strings.TrimSpace(in.Request.DisplayName)
	return &in, nil
}

// runForm creates and runs a huh.Form, translating ErrUserAborted to ErrAborted.
func runForm(accessible bool, groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrAborted
		}
		return err
	}
	return nil
}

// --- Option builders ---

func buildLocationOptions(selected string) ([]huh.Option[string], map[string]string) {
	options := make([]huh.Option[string], 0, len(pipeline.Locations)+1)
	labels := make(map[string]string, len(pipeline.Locations)+1)

	for _, loc := range pipeline.Locations {
		label := loc.ID + " - " + loc.Label
		options = append(options, huh.NewOption(label, loc.ID))
		labels[loc.ID] = label
	}

	if selected != "" {
		options = ensureOption(options, labels, selected, "Custom: "+selected)
	}

	return options, labels
}

func ensureOption(options []huh.Option[string], labels map[string]string, value string, label string) []huh.Option[string] {
	if value == "" {
		return options
	}
	if _, ok := labels[value]; ok {
		return options
	}
	options = append(options, huh.NewOption(label, value))
	labels[value] = label
	return options
}

// --- Summary ---

func buildSummary(in ProvisionInput, locationLabels map[string]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Project ID: %s\n", strings.TrimSpace(in.Request.TargetID))
	fmt.Fprintf(&b, "Display name: %s\n", strings.TrimSpace(in.Request.DisplayName))
	fmt.Fprintf(&b, "Location: %s\n", labelFor(locationLabels, in.Request.Location, pipeline.DefaultLocation))
	fmt.Fprintf(&b, "Mode: %s\n", modeLabel(in.Mode))

	return strings.TrimSpace(b.String())
}

// --- Label helpers ---

func modeLabel(mode domain.Mode) string {
	if mode == domain.ModeLive {
		return "Live"
	}
	return "Simulated"
}

func labelFor(labels map[string]string, value string, emptyLabel string) string {
	if value == "" {
		return emptyLabel
	}
	if label, ok := labels[value]; ok {
		return label
	}
	return value
}

func selectHeight(optionCount, max int) int {
	if optionCount < max {
		return optionCount
	}
	return max
}
