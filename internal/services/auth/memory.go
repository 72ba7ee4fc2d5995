package auth

import (
	"fmt"
	"strings"
	"sync"
)

// MemoryStore is an in-process Store, used in tests and by callers that must
// not touch the keychain.
type MemoryStore struct {
	mu      sync.Mutex
	secrets map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string]string)}
}

func (m *MemoryStore) Put(name, secret string) error {
	if strings.TrimSpace(secret) == "" {
		return fmt.Errorf("auth: refusing to store an empty %s", CanonicalName(name))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[CanonicalName(name)] = secret
	return nil
}

func (m *MemoryStore) Get(name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	secret, ok := m.secrets[CanonicalName(name)]
	if !ok {
		return "", ErrNotStored
	}
	return secret, nil
}

func (m *MemoryStore) Delete(name string) error {
	key := CanonicalName(name)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.secrets[key]; !ok {
		return ErrNotStored
	}
	delete(m.secrets, key)
	return nil
}
