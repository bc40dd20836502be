package authpage

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigMissing is returned when the provider configuration is absent
	ErrConfigMissing = errors.New("identity provider configuration missing")

	// ErrAlreadyInitialized is returned by a second call to Initialize
	ErrAlreadyInitialized = errors.New("reconciler already initialized")

	// ErrAccountNotFound is returned by account stores for unknown emails
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists is returned by account stores on duplicate emails
	ErrAccountExists = errors.New("account already exists")

	// ErrProfileNotFound is returned by profile readers for missing documents
	ErrProfileNotFound = errors.New("profile not found")
)

// FailureKind is the closed set of failures an identity provider reports
type FailureKind int

const (
	KindOther FailureKind = iota
	KindEmailInUse
	KindInvalidEmail
	KindNotFound
	KindWrongCredential
	KindInvalidToken
	KindUnavailable
)

func (k FailureKind) String() string {
	switch k {
	case KindEmailInUse:
		return "email-already-in-use"
	case KindInvalidEmail:
		return "invalid-email"
	case KindNotFound:
		return "user-not-found"
	case KindWrongCredential:
		return "wrong-credential"
	case KindInvalidToken:
		return "invalid-token"
	case KindUnavailable:
		return "unavailable"
	default:
		return "other"
	}
}

// Terminal reports whether the kind is final by business meaning
func (k FailureKind) Terminal() bool {
	switch k {
	case KindEmailInUse, KindInvalidEmail, KindNotFound, KindWrongCredential, KindInvalidToken:
		return true
	}
	return false
}

// AuthError is a classified failure from an identity provider
type AuthError struct {
	Kind    FailureKind
	Message string
	Err     error
}

// NewAuthError creates an AuthError with a message
func NewAuthError(kind FailureKind, message string) *AuthError {
	return &AuthError{Kind: kind, Message: message}
}

// WrapAuthError classifies an underlying error
func WrapAuthError(kind FailureKind, err error) *AuthError {
	return &AuthError{Kind: kind, Err: err}
}

func (e *AuthError) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// KindOf extracts the FailureKind of err, KindOther if it is not an AuthError
func KindOf(err error) FailureKind {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindOther
}

// IsRetryable is false for failures that are final by business meaning
// (duplicate email, bad credentials, validation) and true otherwise.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return false
	}
	if errors.Is(err, ErrConfigMissing) {
		return false
	}
	return !KindOf(err).Terminal()
}

// ValidationError is a local rejection raised before any remote call
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
