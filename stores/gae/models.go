//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"

	ap "github.com/panyam/authpage"
)

// ProfileEntity is the Datastore entity for profile documents
type ProfileEntity struct {
	Key       *datastore.Key `datastore:"__key__"`
	Email     string         `datastore:"email"`
	CreatedAt string         `datastore:"createdAt"`
	UpdatedAt time.Time      `datastore:"updated_at"`
}

func (e *ProfileEntity) ToRecord() *ap.ProfileRecord {
	return &ap.ProfileRecord{
		Email:     e.Email,
		CreatedAt: e.CreatedAt,
	}
}

func RecordToEntity(r ap.ProfileRecord, key *datastore.Key) *ProfileEntity {
	return &ProfileEntity{
		Key:       key,
		Email:     r.Email,
		CreatedAt: r.CreatedAt,
		UpdatedAt: time.Now(),
	}
}

// AccountEntity is the Datastore entity for local accounts
// Key is the normalized email
type AccountEntity struct {
	Key          *datastore.Key `datastore:"__key__"`
	UID          string         `datastore:"uid"`
	PasswordHash string         `datastore:"password_hash,noindex"`
	CreatedAt    time.Time      `datastore:"created_at"`
	UpdatedAt    time.Time      `datastore:"updated_at"`
}

func (e *AccountEntity) ToAccount() *ap.Account {
	return &ap.Account{
		UID:          e.UID,
		Email:        e.Key.Name,
		PasswordHash: e.PasswordHash,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func AccountToEntity(a *ap.Account, key *datastore.Key) *AccountEntity {
	return &AccountEntity{
		Key:          key,
		UID:          a.UID,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
