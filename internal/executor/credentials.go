package executor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nathanbeddoewebdev/gcpm/internal/domain"
	"nathanbeddoewebdev/gcpm/internal/retry"
	"nathanbeddoewebdev/gcpm/internal/services/auth"

	"github.com/go-logr/logr"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// cloudPlatformScope is the OAuth scope requested from Application Default
// Credentials.
const cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// findDefaultCredentials is swapped out in tests.
var findDefaultCredentials = google.FindDefaultCredentials

// CredentialOptions describes where a live-mode access token may come from.
// Sources are tried in field order.
type CredentialOptions struct {
	// Token is an explicit OAuth 2.0 access token (e.g. from --token).
	Token string

	// Store is consulted for a saved auth.AccessToken when Token is empty.
	Store auth.Store

	// UseADC falls back to Google Application Default Credentials.
	UseADC bool
}

// ResolveTokenSource returns a token source for live mode. It fails with
// domain.ErrValidation when no source yields a credential.
func ResolveTokenSource(ctx context.Context, opts CredentialOptions) (oauth2.TokenSource, error) {
	if token := strings.TrimSpace(opts.Token); token != "" {
		return staticToken(token), nil
	}

	if opts.Store != nil {
		token, err := opts.Store.Get(auth.AccessToken)
		switch {
		case err == nil && strings.TrimSpace(token) != "":
			return staticToken(strings.TrimSpace(token)), nil
		case err != nil && !errors.Is(err, auth.ErrNotStored):
			return nil, fmt.Errorf("failed to read stored access token: %w", err)
		}
	}

	if opts.UseADC {
		// Only the credential lookup is retried; provisioning calls never are.
		log := logr.FromContextOrDiscard(ctx).WithName("credentials")
		policy := retry.CredentialPolicy()
		policy.OnRetry = func(attempt int, err error, wait time.Duration) {
			log.V(1).Info("retrying default credential lookup", "attempt", attempt, "wait", wait, "error", err.Error())
		}
		creds, err := retry.Get(ctx, policy, func(ctx context.Context) (*google.Credentials, error) {
			return findDefaultCredentials(ctx, cloudPlatformScope)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: application default credentials: %w", domain.ErrValidation, err)
		}
		return creds.TokenSource, nil
	}

	return nil, fmt.Errorf("%w: live mode requires an access token (use --token, 'gcpm auth login %s', or --adc)",
		domain.ErrValidation, auth.AccessToken)
}

func staticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}
