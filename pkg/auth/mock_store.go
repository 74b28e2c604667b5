package auth

import (
	"sort"
	"sync"
)

// MockStore keeps Flickr accounts in memory. Setting one of the error
// fields makes the matching call fail, which the Manager tests use to check
// fall-through between keyring, vault and environment.
type MockStore struct {
	mu       sync.RWMutex
	accounts map[string]Account

	StoreError    error
	RetrieveError error
	ListError     error
	DeleteError   error
}

// NewMockStore returns an empty store
func NewMockStore() *MockStore {
	return &MockStore{accounts: make(map[string]Account)}
}

// Store saves a copy of account; an account without a name or API key is
// rejected like the real stores do.
func (m *MockStore) Store(account *Account) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if account == nil || account.Name == "" || account.APIKey == "" {
		return ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Name] = *account
	return nil
}

func (m *MockStore) Retrieve(name string) (*Account, error) {
	if m.RetrieveError != nil {
		return nil, m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if account, ok := m.accounts[name]; ok {
		return &account, nil
	}
	return nil, ErrCredentialsNotFound
}

// List returns copies sorted by account name
func (m *MockStore) List() ([]*Account, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	names := make([]string, 0, len(m.accounts))
	for name := range m.accounts {
		names = append(names, name)
	}
	sort.Strings(names)

	accounts := make([]*Account, len(names))
	for i, name := range names {
		account := m.accounts[name]
		accounts[i] = &account
	}
	m.mu.RUnlock()
	return accounts, nil
}

func (m *MockStore) Delete(name string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.accounts, name)
	return nil
}

func (m *MockStore) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[name]
	return ok
}

// Count is the number of accounts held
func (m *MockStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.accounts)
}

// NewMockManager returns a Manager whose only store is a fresh MockStore
func NewMockManager() (*Manager, *MockStore) {
	store := NewMockStore()
	return NewManagerWithStores(store), store
}
