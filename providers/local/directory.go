// Package local provides an in-process identity provider.
//
// A Directory holds the account rules (email format, bcrypt password hashes,
// random UUID uids, JWT custom tokens) on top of an authpage.AccountStore.
// A Provider wraps a Directory with a single signed-in session and publishes
// every change to its subscribers, which is what the auth page reconciler
// consumes.
//
//	accounts := stores.NewMemoryAccountStore()
//	dir := local.NewDirectory(accounts, local.WithSecret(secret))
//	provider := local.NewProvider(dir)
//	defer provider.Subscribe(func(s *authpage.Session) { ... }).Unsubscribe()
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	ap "github.com/panyam/authpage"
)

// DirectoryOption configures a Directory
type DirectoryOption func(*Directory)

// WithSecret sets the HMAC key used to sign and verify custom tokens
func WithSecret(secret []byte) DirectoryOption {
	return func(d *Directory) {
		d.secret = secret
	}
}

// WithIssuer sets the iss claim of minted tokens
func WithIssuer(issuer string) DirectoryOption {
	return func(d *Directory) {
		d.issuer = issuer
	}
}

// WithBcryptCost overrides bcrypt.DefaultCost, mainly to speed up tests
func WithBcryptCost(cost int) DirectoryOption {
	return func(d *Directory) {
		d.bcryptCost = cost
	}
}

// WithLogger sets the directory logger
func WithLogger(logger *slog.Logger) DirectoryOption {
	return func(d *Directory) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Directory performs stateless account operations
type Directory struct {
	accounts   ap.AccountStore
	secret     []byte
	issuer     string
	bcryptCost int
	logger     *slog.Logger
	now        func() time.Time
}

// NewDirectory creates a Directory over accounts
func NewDirectory(accounts ap.AccountStore, opts ...DirectoryOption) *Directory {
	d := &Directory{
		accounts:   accounts,
		issuer:     DefaultIssuer,
		bcryptCost: bcrypt.DefaultCost,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register creates a new email/password account
func (d *Directory) Register(ctx context.Context, email, password string) (*ap.Session, error) {
	email = ap.NormalizeEmail(email)
	if !ap.ValidEmail(email) {
		return nil, ap.NewAuthError(ap.KindInvalidEmail, "invalid email format")
	}

	if _, err := d.accounts.GetAccount(ctx, email); err == nil {
		return nil, ap.NewAuthError(ap.KindEmailInUse, "email already registered")
	} else if !errors.Is(err, ap.ErrAccountNotFound) {
		return nil, ap.WrapAuthError(ap.KindUnavailable, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), d.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := d.now()
	account := &ap.Account{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := d.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, ap.ErrAccountExists) {
			return nil, ap.NewAuthError(ap.KindEmailInUse, "email already registered")
		}
		return nil, ap.WrapAuthError(ap.KindUnavailable, err)
	}

	d.logger.Info("created local account", "uid", account.UID)
	return &ap.Session{UID: account.UID, Email: account.Email}, nil
}

// Verify checks email/password and returns the account's session
func (d *Directory) Verify(ctx context.Context, email, password string) (*ap.Session, error) {
	email = ap.NormalizeEmail(email)
	account, err := d.accounts.GetAccount(ctx, email)
	if err != nil {
		if errors.Is(err, ap.ErrAccountNotFound) {
			return nil, ap.NewAuthError(ap.KindNotFound, "user not found")
		}
		return nil, ap.WrapAuthError(ap.KindUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ap.NewAuthError(ap.KindWrongCredential, "invalid credentials")
	}

	return &ap.Session{UID: account.UID, Email: account.Email}, nil
}

// Anonymous returns a fresh guest session. Guests are not persisted.
func (d *Directory) Anonymous(ctx context.Context) (*ap.Session, error) {
	return &ap.Session{UID: uuid.NewString()}, nil
}
