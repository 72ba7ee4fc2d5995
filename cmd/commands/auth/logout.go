package auth

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/gcpm/internal/services/auth"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout <access-token|api-key>",
		Short: "Remove a stored credential",
		Long: `Remove a credential from the keychain.

Example:
  gcpm auth logout access-token`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := credentialName(args[0])
			if err != nil {
				return err
			}
			if err := defaultStore().Delete(name); err != nil {
				if errors.Is(err, auth.ErrNotStored) {
					fmt.Fprintf(cmd.OutOrStdout(), "%s was not stored\n", name)
					return nil
				}
				return fmt.Errorf("failed to remove %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name)
			return nil
		},
		SilenceUsage: true,
	}

	return cmd
}
