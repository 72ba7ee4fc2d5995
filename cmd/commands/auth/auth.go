package auth

import (
	"fmt"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/services/auth"

	"github.com/spf13/cobra"
)

// defaultStore is swapped by tests.
var defaultStore = auth.DefaultStore

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored Google Cloud credentials",
		Long: `Manage stored Google Cloud credentials.

Credentials live in the OS keychain under the service name "` + auth.ServiceName + `":
  access-token   OAuth 2.0 access token for live provisioning
  api-key        API key for the connectivity probe`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(StatusCommand())
	cmd.AddCommand(LogoutCommand())

	return cmd
}

// credentialName validates and normalizes a credential name argument.
func credentialName(arg string) (string, error) {
	name := auth.CanonicalName(arg)
	if !auth.IsKnown(name) {
		return "", fmt.Errorf("unknown credential %q (valid: %s)", arg, strings.Join(auth.Names(), ", "))
	}
	return name, nil
}
