package authpage

import (
	"fmt"
	"regexp"
	"strings"
)

// MinPasswordLength is the shortest password accepted at sign-up
const MinPasswordLength = 6

// Credentials holds what the user typed into the form for one submit
type Credentials struct {
	Email    string
	Password string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether email looks like an address
func ValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// NormalizeEmail trims and lower-cases an address for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validation messages shown to the user
const (
	MsgMissingFields    = "Please enter both email and password."
	MsgPasswordTooShort = "Password must be at least 6 characters long."
	MsgPasswordMismatch = "Passwords do not match."
)

// ValidateLogin checks that both fields are present
func (c Credentials) ValidateLogin() error {
	if c.Email == "" {
		return NewValidationError("email", MsgMissingFields)
	}
	if c.Password == "" {
		return NewValidationError("password", MsgMissingFields)
	}
	return nil
}

// ValidateSignup checks presence and minimum password length
func (c Credentials) ValidateSignup() error {
	if err := c.ValidateLogin(); err != nil {
		return err
	}
	if len(c.Password) < MinPasswordLength {
		return NewValidationError("password", MsgPasswordTooShort)
	}
	return nil
}

// ValidateConfirmation compares the password with its confirmation by value
func (c Credentials) ValidateConfirmation(confirm string) error {
	if c.Password != confirm {
		return NewValidationError("confirm_password", MsgPasswordMismatch)
	}
	return nil
}

// String never includes the password
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{Email: %q}", c.Email)
}
