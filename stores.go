package authpage

import (
	"context"
	"fmt"
	"time"
)

// Session is an identity granted by the identity provider
type Session struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"` // empty for anonymous/guest sessions
}

// IsAnonymous returns true for guest sessions that carry no email
func (s *Session) IsAnonymous() bool {
	return s.Email == ""
}

// Equal reports whether two sessions (either may be nil) describe the same identity
func (s *Session) Equal(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.UID == other.UID && s.Email == other.Email
}

// ProfileRecord is the per-user document written once at sign-up
type ProfileRecord struct {
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"` // RFC 3339, UTC, millisecond precision
}

// ProfileTimeFormat is the layout used for ProfileRecord.CreatedAt
const ProfileTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// NewProfileRecord builds the record for a freshly created session
func NewProfileRecord(email string, now time.Time) ProfileRecord {
	return ProfileRecord{
		Email:     email,
		CreatedAt: now.UTC().Format(ProfileTimeFormat),
	}
}

// ProfilePath addresses a user's profile document
type ProfilePath struct {
	AppID string
	UID   string
}

// ProfileDocID is the document name under a user's profile collection
const ProfileDocID = "data"

// String returns artifacts/{appID}/users/{uid}/profile/data
func (p ProfilePath) String() string {
	return fmt.Sprintf("artifacts/%s/users/%s/profile/%s", p.AppID, p.UID, ProfileDocID)
}

// Validate checks that both path components are present
func (p ProfilePath) Validate() error {
	if p.AppID == "" {
		return fmt.Errorf("profile path: app id required")
	}
	if p.UID == "" {
		return fmt.Errorf("profile path: uid required")
	}
	return nil
}

// ProfileStore is the document store the sign-up flow writes to
type ProfileStore interface {
	// WriteProfile creates or replaces the profile document (upsert)
	WriteProfile(ctx context.Context, path ProfilePath, record ProfileRecord) error
}

// ProfileReader is implemented by stores that can read profiles back
type ProfileReader interface {
	// ReadProfile returns ErrProfileNotFound when the document does not exist
	ReadProfile(ctx context.Context, path ProfilePath) (*ProfileRecord, error)
}

// Account is a registered email/password identity held by a local provider
type Account struct {
	UID          string    `json:"uid"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccountStore manages local accounts keyed by normalized email
type AccountStore interface {
	// GetAccount returns ErrAccountNotFound if no account has this email
	GetAccount(ctx context.Context, email string) (*Account, error)

	// CreateAccount stores a new account, returning ErrAccountExists on duplicates
	CreateAccount(ctx context.Context, account *Account) error
}
