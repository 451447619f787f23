// Package session stores the Instagram session credential used by the
// authenticated scrape backend. Storage prefers the system keychain,
// falls back to an encrypted file, and reads environment variables as a
// last resort.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

var (
	ErrNotFound         = errors.New("session credential not found")
	ErrInvalidAccount   = errors.New("invalid session credential")
	ErrStoreUnavailable = errors.New("credential store unavailable")
)

// Account carries the cookies of a logged-in Instagram browser session
type Account struct {
	Username     string    `json:"username"`
	SessionID    string    `json:"session_id"`
	CSRFToken    string    `json:"csrf_token"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the interface for persisting the session credential
type Store interface {
	Store(account *Account) error
	Retrieve() (*Account, error)
	Delete() error
}

// Manager tries a chain of stores in order
type Manager struct {
	stores []Store
}

// NewManager creates a credential manager with the default store chain.
func NewManager() (*Manager, error) {
	var stores []Store

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := configDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config directory: %w", err)
	}
	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "session.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore)
	stores = append(stores, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a manager over an explicit store chain.
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Store saves the credential using the first store that accepts it
func (m *Manager) Store(account *Account) error {
	if account == nil || account.SessionID == "" {
		return ErrInvalidAccount
	}
	account.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		if err := store.Store(account); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}
	if lastErr != nil {
		return fmt.Errorf("failed to store credential: %w", lastErr)
	}
	return ErrStoreUnavailable
}

// Retrieve gets the credential from the first store that has it
func (m *Manager) Retrieve() (*Account, error) {
	for _, store := range m.stores {
		if account, err := store.Retrieve(); err == nil && account != nil {
			return account, nil
		}
	}
	return nil, ErrNotFound
}

// Delete removes the credential from every store that holds it
func (m *Manager) Delete() error {
	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(); err == nil {
			deleted = true
		} else if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrStoreUnavailable) {
			lastErr = err
		}
	}
	if deleted {
		return nil
	}
	if lastErr != nil {
		return fmt.Errorf("failed to delete credential: %w", lastErr)
	}
	return ErrNotFound
}

func configDir() (string, error) {
	if dir := os.Getenv("IGXDOWN_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "igxdown"), nil
}
