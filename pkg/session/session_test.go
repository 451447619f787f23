package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerFallback(t *testing.T) {
	failing := &MockStore{FailStore: true}
	working := NewMockStore()
	m := NewManagerWithStores(failing, working)

	account := &Account{Username: "tester", SessionID: "sid", CSRFToken: "csrf"}
	require.NoError(t, m.Store(account))

	got, err := m.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "sid", got.SessionID)
	assert.False(t, got.LastModified.IsZero())
}

func TestManagerRejectsEmptySession(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())
	assert.ErrorIs(t, m.Store(&Account{Username: "tester"}), ErrInvalidAccount)
}

func TestManagerRetrieveNotFound(t *testing.T) {
	m := NewManagerWithStores(NewMockStore())
	_, err := m.Retrieve()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerDelete(t *testing.T) {
	store := NewMockStore()
	m := NewManagerWithStores(store)

	require.NoError(t, m.Store(&Account{SessionID: "sid"}))
	require.NoError(t, m.Delete())
	_, err := m.Retrieve()
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, m.Delete(), ErrNotFound)
}

func TestEncryptedFileStoreRoundtrip(t *testing.T) {
	t.Setenv("IGXDOWN_STORE_KEY", "test-passphrase")

	path := filepath.Join(t.TempDir(), "nested", "session.enc")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)

	account := &Account{Username: "tester", SessionID: "secret-session", CSRFToken: "csrf"}
	require.NoError(t, store.Store(account))

	// File on disk must not leak the session id in plaintext
	assert.FileExists(t, path)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-session")

	got, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "secret-session", got.SessionID)
	assert.Equal(t, "tester", got.Username)

	require.NoError(t, store.Delete())
	_, err = store.Retrieve()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEncryptedFileStoreWrongKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")

	t.Setenv("IGXDOWN_STORE_KEY", "first-key")
	store, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Store(&Account{SessionID: "sid"}))

	t.Setenv("IGXDOWN_STORE_KEY", "other-key")
	other, err := NewEncryptedFileStore(path)
	require.NoError(t, err)
	_, err = other.Retrieve()
	assert.Error(t, err)
}

func TestEnvironmentStore(t *testing.T) {
	store := NewEnvironmentStore()

	_, err := store.Retrieve()
	assert.ErrorIs(t, err, ErrNotFound)

	t.Setenv("INSTAGRAM_SESSIONID", "env-session")
	got, err := store.Retrieve()
	require.NoError(t, err)
	assert.Equal(t, "env-session", got.SessionID)

	assert.ErrorIs(t, store.Store(&Account{SessionID: "x"}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete(), ErrStoreUnavailable)
}
