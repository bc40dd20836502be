//go:build !wasm
// +build !wasm

package gorm

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	ap "github.com/panyam/authpage"
)

// AutoMigrate runs database migrations for the authpage tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&ProfileModel{},
		&AccountModel{},
	)
}

// =============================================================================
// ProfileStore
// =============================================================================

// ProfileStore implements ap.ProfileStore using GORM
type ProfileStore struct {
	db *gorm.DB
}

var (
	_ ap.ProfileStore  = (*ProfileStore)(nil)
	_ ap.ProfileReader = (*ProfileStore)(nil)
)

func NewProfileStore(db *gorm.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// WriteProfile upserts on the (app_id, uid) primary key
func (s *ProfileStore) WriteProfile(ctx context.Context, path ap.ProfilePath, record ap.ProfileRecord) error {
	if err := path.Validate(); err != nil {
		return err
	}
	model := RecordToModel(path, record)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
}

func (s *ProfileStore) ReadProfile(ctx context.Context, path ap.ProfilePath) (*ap.ProfileRecord, error) {
	var model ProfileModel
	err := s.db.WithContext(ctx).
		First(&model, "app_id = ? AND uid = ?", path.AppID, path.UID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ap.ErrProfileNotFound
		}
		return nil, err
	}
	return model.ToRecord(), nil
}

// =============================================================================
// AccountStore
// =============================================================================

// AccountStore implements ap.AccountStore using GORM
type AccountStore struct {
	db *gorm.DB
}

var _ ap.AccountStore = (*AccountStore)(nil)

func NewAccountStore(db *gorm.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) GetAccount(ctx context.Context, email string) (*ap.Account, error) {
	var model AccountModel
	if err := s.db.WithContext(ctx).First(&model, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ap.ErrAccountNotFound
		}
		return nil, err
	}
	return model.ToAccount(), nil
}

// CreateAccount relies on the primary key for uniqueness. Duplicate keys are
// reported as ap.ErrAccountExists when the DB was opened with TranslateError;
// otherwise a failed insert is checked against the existing rows.
func (s *AccountStore) CreateAccount(ctx context.Context, account *ap.Account) error {
	err := s.db.WithContext(ctx).Create(AccountToModel(account)).Error
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ap.ErrAccountExists
	}
	var count int64
	if cerr := s.db.WithContext(ctx).Model(&AccountModel{}).Where("email = ?", account.Email).Count(&count).Error; cerr == nil && count > 0 {
		return ap.ErrAccountExists
	}
	return err
}
