package auth

import (
	"fmt"

	"nathanbeddoewebdev/gcpm/internal/cliutil"
	"nathanbeddoewebdev/gcpm/internal/tui"

	"github.com/spf13/cobra"
)

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show which credentials are stored",
		Long: `Show which credentials are stored in the keychain and which
commands use them.

Example:
  gcpm auth status`,
		Args:         cobra.NoArgs,
		RunE:         runStatus,
		SilenceUsage: true,
	}

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	statuses := tui.CredentialStatuses(defaultStore())
	out := cmd.OutOrStdout()

	if cliutil.IsTerminal(out) {
		fmt.Fprintln(out, tui.RenderCredentialStatus(statuses, cliutil.TerminalWidth(out, 80)))
		return nil
	}

	for _, s := range statuses {
		fmt.Fprintf(out, "%s: %s\n", s.Name, s.State())
	}
	return nil
}
