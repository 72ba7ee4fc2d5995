package config

import (
	"nathanbeddoewebdev/gcpm/internal/config"

	"github.com/spf13/cobra"
)

// NewCommand returns the "config" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage gcpm configuration",
		Long: "View and modify persistent gcpm settings.\n\n" +
			"Configuration is stored at ~/.config/gcpm/config.json.\n" +
			"Credentials are never stored here; use 'gcpm auth login'.\n\n" +
			config.KeysHelp(),
	}

	cmd.AddCommand(SetCommand())
	cmd.AddCommand(GetCommand())

	return cmd
}
