package lang

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yasarefe-official/igxdown/pkg/errors"
	"github.com/yasarefe-official/igxdown/pkg/logger"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lang.db")
	store, err := NewStore(path, "en", logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStoreDefaultsForUnknownUser(t *testing.T) {
	store := newStore(t)
	assert.Equal(t, "en", store.Get(42))
}

func TestStoreSetAndGet(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Set(42, "tr"))
	assert.Equal(t, "tr", store.Get(42))

	// overwrite
	require.NoError(t, store.Set(42, "en"))
	assert.Equal(t, "en", store.Get(42))
}

func TestStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lang.db")

	store, err := NewStore(path, "en", logger.Nop())
	require.NoError(t, err)
	require.NoError(t, store.Set(7, "tr"))
	require.NoError(t, store.Close())

	reopened, err := NewStore(path, "en", logger.Nop())
	require.NoError(t, err)
	defer reopened.Close()
	assert.Equal(t, "tr", reopened.Get(7))
}

func TestStoreRejectsUnknownCode(t *testing.T) {
	store := newStore(t)
	assert.Error(t, store.Set(42, "xx"))
	assert.Equal(t, "en", store.Get(42))
}

func TestCatalogFallsBackToEnglish(t *testing.T) {
	assert.Equal(t, T("en", KeyProgress), T("xx", KeyProgress))
	assert.NotEmpty(t, T("tr", KeyStart))
	assert.NotEqual(t, T("en", KeyStart), T("tr", KeyStart))
}

func TestLocalizerFailureTexts(t *testing.T) {
	store := newStore(t)
	loc := NewLocalizer(store)

	require.NoError(t, store.Set(1, "tr"))

	kinds := []errors.Kind{
		errors.KindInvalidURL,
		errors.KindLoginRequired,
		errors.KindPrivateContent,
		errors.KindUnsupported,
		errors.KindRateLimited,
		errors.KindTimeout,
		errors.KindFileTooLarge,
		errors.KindExhausted,
		errors.KindUnknown,
	}
	for _, kind := range kinds {
		en := loc.Failure(2, kind)
		tr := loc.Failure(1, kind)
		assert.NotEmpty(t, en, "missing english text for %s", kind)
		assert.NotEmpty(t, tr, "missing turkish text for %s", kind)
		assert.NotEqual(t, en, tr, "kind %s not translated", kind)
	}
}

func TestLocalizerProgressAndTooFast(t *testing.T) {
	store := newStore(t)
	loc := NewLocalizer(store)

	assert.Equal(t, T("en", KeyProgress), loc.Progress(5))
	assert.Equal(t, T("en", KeyTooFast), loc.TooFast(5))
}
