package authpage

import "context"

// IdentityProvider is the hosted identity service the page delegates to.
//
// Failures are reported as *AuthError so callers can branch on the
// FailureKind without knowing the provider's own error vocabulary.
type IdentityProvider interface {
	// CreateAccount registers a new email/password account and signs it in.
	// Fails with KindEmailInUse, KindInvalidEmail or a retryable kind.
	CreateAccount(ctx context.Context, email, password string) (*Session, error)

	// Authenticate signs in with email/password.
	// Fails with KindNotFound, KindWrongCredential or a retryable kind.
	Authenticate(ctx context.Context, email, password string) (*Session, error)

	// AuthenticateAnonymous starts a guest session
	AuthenticateAnonymous(ctx context.Context) (*Session, error)

	// RedeemToken signs in with a pre-issued session token
	RedeemToken(ctx context.Context, token string) (*Session, error)

	// SignOut ends the current session
	SignOut(ctx context.Context) error

	// Subscribe registers handler for session changes. The handler is called
	// once immediately with the current session.
	Subscribe(handler SessionHandler) Subscription
}
