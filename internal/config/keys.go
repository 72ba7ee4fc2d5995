package config

import (
	"fmt"
	"net"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/pipeline"
	"nathanbeddoewebdev/gcpm/internal/util"

	"go.uber.org/zap/zapcore"
)

// KeySpec describes a single configuration key.
type KeySpec struct {
	// Name is the CLI-facing key name (e.g. "project-id").
	Name string

	// Description is a short human-readable explanation shown in help text.
	Description string

	// Get returns the current value for this key from a loaded Config.
	Get func(cfg *Config) string

	// Set applies a value for this key to the given Config (in memory only;
	// the caller is responsible for calling Save).
	Set func(cfg *Config, value string)

	// Validate rejects values the key cannot hold. Nil accepts anything.
	Validate func(value string) error

	// Default is the value used when the key is unset, shown in help and
	// the config editor. Empty means no default.
	Default string

	// Suggestions are common values offered for completion.
	Suggestions []string
}

// Keys is the authoritative list of all supported configuration keys.
// To add a new option: add a field to Config and append a KeySpec here.
var Keys = []KeySpec{
	{
		Name:        "project-id",
		Description: "Project ID used when --project-id is not specified",
		Get:         func(cfg *Config) string { return cfg.ProjectID },
		Set:         func(cfg *Config, v string) { cfg.ProjectID = v },
		Validate:    validation(util.ValidateProjectID),
	},
	{
		Name:        "location",
		Description: "Firestore location used when --location is not specified",
		Get:         func(cfg *Config) string { return cfg.Location },
		Set:         func(cfg *Config, v string) { cfg.Location = strings.ToLower(v) },
		Validate: validation(func(v string) error {
			if strings.ContainsAny(v, " /?&") {
				return fmt.Errorf("location %q is not a location ID", v)
			}
			return nil
		}),
		Default:     pipeline.DefaultLocation,
		Suggestions: pipeline.LocationIDs(),
	},
	{
		Name:        "mode",
		Description: "Default provisioning mode: simulated or live",
		Get:         func(cfg *Config) string { return cfg.Mode },
		Set: func(cfg *Config, v string) {
			if m, err := domain.ParseMode(v); err == nil {
				v = string(m)
			}
			cfg.Mode = v
		},
		Validate: func(v string) error {
			_, err := domain.ParseMode(v)
			return err
		},
		Default:     string(domain.ModeSimulated),
		Suggestions: []string{string(domain.ModeSimulated), string(domain.ModeLive)},
	},
	{
		Name:        "catalog-file",
		Description: "YAML file replacing the built-in endpoint catalog",
		Get:         func(cfg *Config) string { return cfg.CatalogFile },
		Set:         func(cfg *Config, v string) { cfg.CatalogFile = v },
	},
	{
		Name:        "log-level",
		Description: "Diagnostic log level: debug, info, warn or error",
		Get:         func(cfg *Config) string { return cfg.LogLevel },
		Set:         func(cfg *Config, v string) { cfg.LogLevel = strings.ToLower(v) },
		Validate: validation(func(v string) error {
			_, err := zapcore.ParseLevel(v)
			return err
		}),
		Default:     "warn",
		Suggestions: []string{"debug", "info", "warn", "error"},
	},
	{
		Name:        "serve-addr",
		Description: "Listen address for gcpm serve",
		Get:         func(cfg *Config) string { return cfg.ServeAddr },
		Set:         func(cfg *Config, v string) { cfg.ServeAddr = v },
		Validate: validation(func(v string) error {
			_, _, err := net.SplitHostPort(v)
			return err
		}),
		Default: ":8080",
	},
}

// validation tags a validator's errors as domain.ErrValidation.
func validation(fn func(string) error) func(string) error {
	return func(v string) error {
		if err := fn(v); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		return nil
	}
}

// Lookup returns the KeySpec for the given name, or nil if not found.
// The name is matched case-insensitively after trimming whitespace.
func Lookup(name string) *KeySpec {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for i := range Keys {
		if Keys[i].Name == normalized {
			return &Keys[i]
		}
	}
	return nil
}

// KeyNames returns the names of all registered keys.
func KeyNames() []string {
	names := make([]string, len(Keys))
	for i, k := range Keys {
		names[i] = k.Name
	}
	return names
}

// KeysHelp builds a formatted block listing all available keys and their
// descriptions, suitable for inclusion in Cobra Long help text.
func KeysHelp() string {
	if len(Keys) == 0 {
		return ""
	}

	maxLen := 0
	for _, k := range Keys {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}

	var b strings.Builder
	b.WriteString("Available keys:\n")
	for _, k := range Keys {
		desc := k.Description
		if k.Default != "" {
			desc += " (default " + k.Default + ")"
		}
		fmt.Fprintf(&b, "  %-*s   %s\n", maxLen, k.Name, desc)
	}
	return b.String()
}
