package audit

import "github.com/spf13/cobra"

// NewCommand returns the "audit" parent command.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "View and manage the local run history",
		Long: "Every provision, probe and configuration command is recorded in a local\n" +
			"audit trail with its mode, target project and outcome. Secrets passed as\n" +
			"flags are redacted before they are stored.\n\n" +
			"History is kept in ~/.config/gcpm/gcpm.db.",
		SilenceUsage: true,
	}

	cmd.AddCommand(ListCommand())
	cmd.AddCommand(PruneCommand())

	return cmd
}
