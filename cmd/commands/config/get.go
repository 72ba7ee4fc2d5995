package config

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"nathanbeddoewebdev/gcpm/internal/cliutil"
	"nathanbeddoewebdev/gcpm/internal/config"
	"nathanbeddoewebdev/gcpm/internal/tui"

	"github.com/spf13/cobra"
)

// GetCommand returns the "config get" command.
func GetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show configuration values",
		Long: "Show persistent configuration values.\n\n" +
			"Without --key in a terminal, opens an editor listing every setting.\n" +
			"Otherwise prints all keys, or the single value for --key.\n\n" +
			config.KeysHelp() +
			"\nExamples:\n" +
			"  gcpm config get                  # interactive editor\n" +
			"  gcpm config get --key project-id # print a single value\n" +
			"  gcpm config get -o json          # all values as JSON",
		Args:         cobra.NoArgs,
		RunE:         runGet,
		SilenceUsage: true,
	}

	cmd.Flags().String("key", "", "Configuration key to fetch (prints a single value)")
	cmd.Flags().StringP("output", "o", "text", "Output format: text or json")

	return cmd
}

func runGet(cmd *cobra.Command, args []string) error {
	keyFlag, _ := cmd.Flags().GetString("key")
	output, _ := cmd.Flags().GetString("output")
	if err := cliutil.CheckOutput(output, "text", "json"); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if strings.TrimSpace(keyFlag) != "" {
		spec := config.Lookup(keyFlag)
		if spec == nil {
			return unknownKey(keyFlag)
		}
		value := spec.Get(cfg)
		if output == "json" {
			return cliutil.PrintJSON(cmd, map[string]string{spec.Name: value})
		}
		if value == "" {
			value = "not set"
		}
		fmt.Fprintln(cmd.OutOrStdout(), value)
		return nil
	}

	if output == "json" {
		values := make(map[string]string, len(config.Keys))
		for _, spec := range config.Keys {
			values[spec.Name] = spec.Get(cfg)
		}
		return cliutil.PrintJSON(cmd, values)
	}

	if cliutil.IsTerminal(cmd.OutOrStdout()) {
		if err := tui.RunConfigView(); err != nil {
			return fmt.Errorf("config view failed: %w", err)
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 1, ' ', 0)
	for _, spec := range config.Keys {
		value := spec.Get(cfg)
		if value == "" {
			value = "(not set)"
		}
		fmt.Fprintf(w, "%s:\t%s\n", spec.Name, value)
	}
	return w.Flush()
}

func unknownKey(key string) error {
	return fmt.Errorf("unknown configuration key %q (valid: %s)", key, strings.Join(config.KeyNames(), ", "))
}
