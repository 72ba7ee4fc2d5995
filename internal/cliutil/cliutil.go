// Package cliutil holds helpers shared by the gcpm subcommands: the logger
// attached by the root command, catalog resolution and output helpers.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/catalog"
	"nathanbeddoewebdev/gcpm/internal/config"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// CatalogFlag is the persistent root flag naming a catalog file.
const CatalogFlag = "catalog"

// Logger returns the diagnostic logger attached to the command context.
func Logger(cmd *cobra.Command) logr.Logger {
	return logr.FromContextOrDiscard(cmd.Context())
}

// LoadCatalog resolves the endpoint catalog: the --catalog flag, then the
// catalog-file config key, then the embedded default.
func LoadCatalog(cmd *cobra.Command, cfg *config.Config) (*catalog.Catalog, error) {
	path := ""
	if f := cmd.Flags().Lookup(CatalogFlag); f != nil {
		path = strings.TrimSpace(f.Value.String())
	}
	if path == "" && cfg != nil {
		path = strings.TrimSpace(cfg.CatalogFile)
	}
	if path == "" {
		return catalog.Default(), nil
	}

	cat, err := catalog.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	Logger(cmd).V(1).Info("loaded catalog", "path", path)
	return cat, nil
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of w, or fallback when it is not a terminal.
func TerminalWidth(w io.Writer, fallback int) int {
	f, ok := w.(*os.File)
	if !ok {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// PrintJSON encodes v as indented JSON to the command's stdout.
func PrintJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// CheckOutput rejects output formats outside allowed.
func CheckOutput(output string, allowed ...string) error {
	for _, a := range allowed {
		if output == a {
			return nil
		}
	}
	return fmt.Errorf("unsupported output format %q (valid: %s)", output, strings.Join(allowed, ", "))
}
