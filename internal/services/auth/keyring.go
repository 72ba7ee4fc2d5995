package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringStore keeps secrets in the OS keychain (macOS Keychain, Secret
// Service on Linux, Windows Credential Manager).
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a store writing under service. An empty service
// means ServiceName.
func NewKeyringStore(service string) *KeyringStore {
	if service == "" {
		service = ServiceName
	}
	return &KeyringStore{service: service}
}

func (k *KeyringStore) Put(name, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("auth: refusing to store an empty %s", CanonicalName(name))
	}
	if err := keyring.Set(k.service, CanonicalName(name), secret); err != nil {
		return fmt.Errorf("auth: keychain write failed: %w", err)
	}
	return nil
}

func (k *KeyringStore) Get(name string) (string, error) {
	secret, err := keyring.Get(k.service, CanonicalName(name))
	switch {
	case err == nil:
		return secret, nil
	case errors.Is(err, keyring.ErrNotFound):
		return "", ErrNotStored
	default:
		return "", fmt.Errorf("auth: keychain read failed: %w", err)
	}
}

func (k *KeyringStore) Delete(name string) error {
	err := keyring.Delete(k.service, CanonicalName(name))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotStored
	default:
		return fmt.Errorf("auth: keychain delete failed: %w", err)
	}
}
