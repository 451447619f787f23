package session

import "sync"

// MockStore is an in-memory store for tests
type MockStore struct {
	mu      sync.Mutex
	account *Account
	// FailStore forces Store to report unavailability
	FailStore bool
}

// NewMockStore creates an empty in-memory store
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Store(account *Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailStore {
		return ErrStoreUnavailable
	}
	if account == nil || account.SessionID == "" {
		return ErrInvalidAccount
	}
	copied := *account
	m.account = &copied
	return nil
}

func (m *MockStore) Retrieve() (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		return nil, ErrNotFound
	}
	copied := *m.account
	return &copied, nil
}

func (m *MockStore) Delete() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		return ErrNotFound
	}
	m.account = nil
	return nil
}
