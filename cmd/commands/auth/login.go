package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"nathanbeddoewebdev/gcpm/internal/cliutil"
	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/tui"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login <access-token|api-key>",
		Short: "Store a credential in the local keychain",
		Long: `Store a credential in the local keychain.

Without --token, the value is read from a prompt.

Examples:
  gcpm auth login access-token
  gcpm auth login api-key --token AIza...
  gcloud auth print-access-token | gcpm auth login access-token`,
		Args:         cobra.ExactArgs(1),
		RunE:         runLogin,
		SilenceUsage: true,
	}

	cmd.Flags().String("token", "", "Credential value (optional, overrides prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	name, err := credentialName(args[0])
	if err != nil {
		return err
	}

	secret, _ := cmd.Flags().GetString("token")
	secret = strings.TrimSpace(secret)

	if secret == "" {
		secret, err = promptSecret(cmd, name)
		if errors.Is(err, tui.ErrAborted) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Login cancelled.")
			return nil
		}
		if err != nil {
			return err
		}
	}
	if err := tui.ValidateSecret(name, secret); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrValidation, err)
	}

	if err := defaultStore().Put(name, secret); err != nil {
		return fmt.Errorf("failed to store %s: %w", name, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", name)
	return nil
}

func promptSecret(cmd *cobra.Command, name string) (string, error) {
	if cliutil.IsTerminal(cmd.OutOrStdout()) {
		return tui.PromptSecret(name)
	}
	return readSecret(cmd, name)
}

// readSecret reads a value without echo from a terminal stdin, or a single
// line from piped stdin.
func readSecret(cmd *cobra.Command, name string) (string, error) {
	if f, ok := cmd.InOrStdin().(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s: ", name)
		bytes, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytes)), nil
	}

	var line string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s from stdin: %w", name, err)
	}
	return strings.TrimSpace(line), nil
}
