package core

import "fmt"

// SessionKey is the single well-known key holding the authentication token.
const SessionKey = "token"

// Credential is the one accessor for the persisted token.
// The store and the API client share an instance so they never read different keys.
type Credential struct {
	storage KeyValueStore
	key     string
}

// NewCredential returns a Credential backed by storage under SessionKey.
func NewCredential(storage KeyValueStore) *Credential {
	return &Credential{storage: storage, key: SessionKey}
}

// Token returns the persisted token, or "" when none is stored.
func (c *Credential) Token() (string, error) {
	v, ok, err := c.storage.Get(c.key)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", c.key, err)
	}
	if !ok {
		return "", nil
	}
	return v, nil
}

// Save persists token. An empty token removes the stored value.
func (c *Credential) Save(token string) error {
	if token == "" {
		return c.Clear()
	}
	if err := c.storage.Set(c.key, token); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.key, err)
	}
	return nil
}

// Clear removes the persisted token.
func (c *Credential) Clear() error {
	if err := c.storage.Remove(c.key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", c.key, err)
	}
	return nil
}
