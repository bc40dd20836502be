//go:build !wasm
// +build !wasm

package gorm

import (
	"time"

	ap "github.com/panyam/authpage"
)

// ProfileModel is the GORM model for profile documents
type ProfileModel struct {
	AppID string `gorm:"primaryKey;size:128"`
	UID   string `gorm:"primaryKey;size:64"`
	Email string `gorm:"size:255"`

	// RecordCreatedAt is the ISO-8601 string from the record, kept verbatim
	RecordCreatedAt string    `gorm:"column:record_created_at;size:40"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (ProfileModel) TableName() string {
	return "profiles"
}

func (m *ProfileModel) ToRecord() *ap.ProfileRecord {
	return &ap.ProfileRecord{
		Email:     m.Email,
		CreatedAt: m.RecordCreatedAt,
	}
}

func RecordToModel(path ap.ProfilePath, r ap.ProfileRecord) *ProfileModel {
	return &ProfileModel{
		AppID:           path.AppID,
		UID:             path.UID,
		Email:           r.Email,
		RecordCreatedAt: r.CreatedAt,
	}
}

// AccountModel is the GORM model for local accounts
type AccountModel struct {
	Email        string    `gorm:"primaryKey;size:255"`
	UID          string    `gorm:"size:64;uniqueIndex"`
	PasswordHash string    `gorm:"size:128"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (AccountModel) TableName() string {
	return "accounts"
}

func (m *AccountModel) ToAccount() *ap.Account {
	return &ap.Account{
		UID:          m.UID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func AccountToModel(a *ap.Account) *AccountModel {
	return &AccountModel{
		Email:        a.Email,
		UID:          a.UID,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
