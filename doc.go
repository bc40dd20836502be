// Package authpage drives an authentication page from the session state an
// identity provider pushes to it.
//
// A Reconciler owns one page. It signs in on Initialize (with a custom token
// when one is configured, otherwise as a guest), follows the provider's
// session notifications, and runs the sign-up, login and logout intents
// through a retrying invoker from the retry package.
//
// # Collaborators
//
// IdentityProvider: creates accounts, authenticates, redeems custom tokens
// and signs out. Failures are *AuthError values carrying a FailureKind, so
// the reconciler maps them to messages without knowing the provider's own
// error vocabulary. providers/local runs in-process; providers/httpidp talks
// to an identityd server.
//
// ProfileStore: receives the profile record written after a successful
// sign-up, at artifacts/{appID}/users/{uid}/profile/data. Backends live
// under stores/.
//
// Renderer: draws the View derived from the current session, transient
// notices and the enabled state of the form controls. The console package
// provides a terminal renderer.
//
// # Basic Usage
//
//	dir := local.NewDirectory(stores.NewMemoryAccountStore(), local.WithSecret(secret))
//	rec := authpage.NewReconciler(authpage.Options{
//	    AppID:    "shop",
//	    Provider: local.NewProvider(dir),
//	    Profiles: stores.NewMemoryProfileStore(),
//	    Renderer: console.NewRenderer(os.Stdout),
//	})
//	defer rec.Close()
//
//	if err := rec.Initialize(ctx); err != nil {
//	    // already rendered; the page stays usable unless err is ErrConfigMissing
//	}
//	err := rec.SignUp(ctx, "new@example.com", "longenough")
//
// # Errors
//
// Local validation failures are *ValidationError and never reach the
// provider. IsRetryable separates transient failures, which the invoker
// retries, from ones that are final by meaning (email in use, wrong
// credential, invalid token). A missing provider configuration puts the
// reconciler in StateConfigError and every action returns ErrConfigMissing.
package authpage
