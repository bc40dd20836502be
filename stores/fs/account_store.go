package fs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	ap "github.com/panyam/authpage"
)

// AccountStore stores local accounts as JSON files
type AccountStore struct {
	StoragePath string

	// serializes the exists-check and write in CreateAccount
	mu sync.Mutex
}

var _ ap.AccountStore = (*AccountStore)(nil)

func NewAccountStore(storagePath string) *AccountStore {
	return &AccountStore{StoragePath: storagePath}
}

func (s *AccountStore) getAccountPath(email string) string {
	sum := sha256.Sum256([]byte(email))
	return filepath.Join(s.StoragePath, "accounts", hex.EncodeToString(sum[:])+".json")
}

func (s *AccountStore) GetAccount(ctx context.Context, email string) (*ap.Account, error) {
	data, err := os.ReadFile(s.getAccountPath(email))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ap.ErrAccountNotFound
		}
		return nil, err
	}

	var account ap.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, fmt.Errorf("failed to parse account: %w", err)
	}
	return &account, nil
}

func (s *AccountStore) CreateAccount(ctx context.Context, account *ap.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.getAccountPath(account.Email)
	if _, err := os.Stat(path); err == nil {
		return ap.ErrAccountExists
	} else if !os.IsNotExist(err) {
		return err
	}

	data, err := json.MarshalIndent(account, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}
