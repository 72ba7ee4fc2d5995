// Package auth stores the secrets gcpm needs outside the config file: the
// OAuth access token used by live provisioning and the API key used by the
// connectivity probe.
package auth

import (
	"errors"
	"slices"
	"strings"
)

// ServiceName namespaces gcpm entries in the OS keychain.
const ServiceName = "gcpm"

// Credential names under which secrets are stored.
const (
	// AccessToken is an OAuth 2.0 access token used for live provisioning.
	AccessToken = "access-token"

	// APIKey is a Google Cloud API key used by the connectivity probe.
	APIKey = "api-key"
)

// ErrNotStored is returned when no secret is stored under a name.
var ErrNotStored = errors.New("credential not stored")

// Store persists secrets by credential name.
type Store interface {
	Put(name, secret string) error
	Get(name string) (string, error)
	Delete(name string) error
}

// DefaultStore returns the store backed by the OS keychain.
func DefaultStore() Store {
	return NewKeyringStore(ServiceName)
}

// Names lists the credential names gcpm knows how to store.
func Names() []string {
	return []string{AccessToken, APIKey}
}

// IsKnown reports whether name is one of Names.
func IsKnown(name string) bool {
	return slices.Contains(Names(), CanonicalName(name))
}

// CanonicalName lowercases and trims a credential name.
func CanonicalName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Stored reports whether store holds a secret under name. Errors other than
// ErrNotStored are returned as-is.
func Stored(store Store, name string) (bool, error) {
	_, err := store.Get(name)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrNotStored):
		return false, nil
	default:
		return false, err
	}
}
