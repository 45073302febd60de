package accounts

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repository for tests and local runs.
// It is not intended for production use.
type MemoryRepo struct {
	mu       sync.Mutex
	accounts map[string]Account
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{accounts: map[string]Account{}}
}

func (m *MemoryRepo) Create(ctx context.Context, a Account) error {
	if a.Name == "" || a.ID == "" {
		return ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[a.Name]; ok {
		return ErrAlreadyExists
	}
	m.accounts[a.Name] = a
	return nil
}

func (m *MemoryRepo) WithAccount(ctx context.Context, name string, fn func(a *Account) error) error {
	if fn == nil {
		return ErrNilMutator
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[name]
	if !ok {
		return ErrNotFound
	}
	if err := fn(&a); err != nil {
		return err
	}
	m.accounts[name] = a
	return nil
}

// Get returns a snapshot of the named account.
func (m *MemoryRepo) Get(name string) (Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[name]
	return a, ok
}
