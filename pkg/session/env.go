package session

import (
	"os"
	"time"
)

// EnvironmentStore reads the credential from environment variables. It
// exists for compatibility with the INSTAGRAM_SESSIONID deployments and
// is read-only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates an environment-based store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(account *Account) error {
	return ErrStoreUnavailable
}

// Retrieve gets the credential from environment variables
func (e *EnvironmentStore) Retrieve() (*Account, error) {
	sessionID := os.Getenv("INSTAGRAM_SESSIONID")
	if sessionID == "" {
		sessionID = os.Getenv("IGXDOWN_SESSION_ID")
	}
	if sessionID == "" {
		return nil, ErrNotFound
	}

	return &Account{
		Username:     "default",
		SessionID:    sessionID,
		CSRFToken:    os.Getenv("IGXDOWN_CSRF_TOKEN"),
		UserAgent:    os.Getenv("IGXDOWN_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete() error {
	return ErrStoreUnavailable
}
