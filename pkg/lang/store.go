package lang

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/yasarefe-official/igxdown/pkg/logger"
)

// Store persists each user's language choice in SQLite so the
// preference survives restarts.
type Store struct {
	db       *sql.DB
	fallback string
	mu       sync.RWMutex
	cache    map[int64]string
	logger   logger.Logger
}

// NewStore opens (and if needed creates) the preference database at
// path. fallback is the code served for users who never chose.
func NewStore(path, fallback string, log logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	if fallback == "" {
		fallback = "en"
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open language database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS users (
		user_id INTEGER PRIMARY KEY,
		language_code TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create users table: %w", err)
	}

	return &Store{
		db:       db,
		fallback: fallback,
		cache:    make(map[int64]string),
		logger:   log,
	}, nil
}

// Get returns the user's language code, falling back to the default
// for unknown users or codes the catalog does not carry.
func (s *Store) Get(userID int64) string {
	s.mu.RLock()
	code, ok := s.cache[userID]
	s.mu.RUnlock()
	if ok {
		return code
	}

	err := s.db.QueryRow("SELECT language_code FROM users WHERE user_id = ?", userID).Scan(&code)
	switch {
	case err == sql.ErrNoRows:
		return s.fallback
	case err != nil:
		s.logger.WithError(err).Warn("language lookup failed")
		return s.fallback
	}

	if !Supported(code) {
		return s.fallback
	}

	s.mu.Lock()
	s.cache[userID] = code
	s.mu.Unlock()
	return code
}

// Set stores the user's language choice
func (s *Store) Set(userID int64, code string) error {
	if !Supported(code) {
		return fmt.Errorf("unsupported language code %q", code)
	}

	_, err := s.db.Exec(`INSERT INTO users (user_id, language_code) VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET language_code = excluded.language_code,
		updated_at = CURRENT_TIMESTAMP`, userID, code)
	if err != nil {
		return fmt.Errorf("failed to store language choice: %w", err)
	}

	s.mu.Lock()
	s.cache[userID] = code
	s.mu.Unlock()
	return nil
}

// Close releases the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}
