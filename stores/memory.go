// Package stores provides in-memory implementations of the authpage store
// interfaces, used by tests and by the default console configuration.
// Durable backends live in the fs, gae and gorm subpackages.
package stores

import (
	"context"
	"sort"
	"sync"

	ap "github.com/panyam/authpage"
)

// MemoryProfileStore keeps profile documents in a map keyed by path
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]ap.ProfileRecord
	writes   int
}

var (
	_ ap.ProfileStore  = (*MemoryProfileStore)(nil)
	_ ap.ProfileReader = (*MemoryProfileStore)(nil)
)

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[string]ap.ProfileRecord)}
}

func (s *MemoryProfileStore) WriteProfile(ctx context.Context, path ap.ProfilePath, record ap.ProfileRecord) error {
	if err := path.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[path.String()] = record
	s.writes++
	return nil
}

func (s *MemoryProfileStore) ReadProfile(ctx context.Context, path ap.ProfilePath) (*ap.ProfileRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.profiles[path.String()]
	if !ok {
		return nil, ap.ErrProfileNotFound
	}
	return &record, nil
}

// Paths returns the stored document paths in sorted order
func (s *MemoryProfileStore) Paths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.profiles))
	for p := range s.profiles {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Writes returns how many successful writes the store has seen
func (s *MemoryProfileStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// MemoryAccountStore keeps local accounts in a map keyed by email
type MemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]ap.Account
}

var _ ap.AccountStore = (*MemoryAccountStore)(nil)

func NewMemoryAccountStore() *MemoryAccountStore {
	return &MemoryAccountStore{accounts: make(map[string]ap.Account)}
}

func (s *MemoryAccountStore) GetAccount(ctx context.Context, email string) (*ap.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[email]
	if !ok {
		return nil, ap.ErrAccountNotFound
	}
	return &account, nil
}

func (s *MemoryAccountStore) CreateAccount(ctx context.Context, account *ap.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.Email]; ok {
		return ap.ErrAccountExists
	}
	s.accounts[account.Email] = *account
	return nil
}
