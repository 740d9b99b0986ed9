package account

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. The email index and records are updated
// under one lock so uniqueness holds under concurrent writes.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	emails   map[string]string
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		accounts: map[string]*Account{},
		emails:   map[string]string{},
	}
}

func (m *Memory) Insert(_ context.Context, acc *Account) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.emails[acc.Email]; ok {
		return nil, ErrEmailExists
	}

	cp := *acc
	cp.ID = uuid.NewString()
	now := time.Now().UTC()
	cp.CreatedAt = now
	cp.UpdatedAt = now

	m.accounts[cp.ID] = &cp
	m.emails[cp.Email] = cp.ID

	out := cp
	return &out, nil
}

func (m *Memory) FindByID(_ context.Context, id string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *acc
	return &cp, nil
}

func (m *Memory) FindByEmail(_ context.Context, email string) (*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.emails[email]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *m.accounts[id]
	return &cp, nil
}

func (m *Memory) Update(_ context.Context, id string, changes Changes) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}

	if changes.Email != nil && *changes.Email != acc.Email {
		if _, taken := m.emails[*changes.Email]; taken {
			return nil, ErrEmailExists
		}
		delete(m.emails, acc.Email)
		m.emails[*changes.Email] = id
	}

	changes.Apply(acc)
	acc.UpdatedAt = time.Now().UTC()

	cp := *acc
	return &cp, nil
}

func (m *Memory) ListExcluding(_ context.Context, id string) ([]*Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	accounts := make([]*Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		if acc.ID == id {
			continue
		}
		cp := *acc
		accounts = append(accounts, &cp)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}
