package authpage

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/panyam/authpage/retry"
)

// DefaultAppID is used when no application id is configured
const DefaultAppID = "default-app-id"

// User-facing notices
const (
	MsgSignUpSuccess = "Sign up successful! Welcome to your new account."
	MsgLoginSuccess  = "Login successful! Redirecting..."
	MsgLogoutSuccess = "Successfully logged out. You can sign in again."

	MsgEmailInUse         = "This email is already in use. Please log in instead."
	MsgInvalidEmail       = "The email address is not valid."
	MsgInvalidEmailOrPass = "Invalid email or password."

	prefixSignUpFailed = "Sign Up Failed: "
	prefixLoginFailed  = "Login Failed: "
	prefixLogoutFailed = "Logout Failed: "
	prefixInitFailed   = "Initialization failed: "
)

// Options configures a Reconciler. Provider and Profiles are nil when the
// provider configuration is missing, which Initialize reports as a
// terminal configuration error.
type Options struct {
	AppID        string
	InitialToken string
	Provider     IdentityProvider
	Profiles     ProfileStore
	Renderer     Renderer
	Policy       retry.Policy
	RetryOptions []retry.Option
	Logger       *slog.Logger
	Now          func() time.Time
}

// Reconciler maps provider session notifications onto the rendered surface
// and runs the sign-up, login and logout intents through a retrying invoker.
type Reconciler struct {
	appID        string
	initialToken string
	provider     IdentityProvider
	profiles     ProfileStore
	renderer     Renderer
	invoker      *retry.Invoker
	logger       *slog.Logger
	now          func() time.Time

	mu          sync.Mutex
	initialized bool
	view        View
	sub         Subscription
}

// NewReconciler builds a reconciler in the Unauthenticated state
func NewReconciler(opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	appID := opts.AppID
	if appID == "" {
		appID = DefaultAppID
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	policy := opts.Policy
	if policy == (retry.Policy{}) {
		policy = retry.DefaultPolicy()
	}
	renderer := opts.Renderer
	if renderer == nil {
		renderer = nopRenderer{}
	}

	retryOpts := append([]retry.Option{
		retry.WithRetryIf(IsRetryable),
		retry.WithLogger(logger),
	}, opts.RetryOptions...)

	return &Reconciler{
		appID:        appID,
		initialToken: opts.InitialToken,
		provider:     opts.Provider,
		profiles:     opts.Profiles,
		renderer:     renderer,
		invoker:      retry.New(policy, retryOpts...),
		logger:       logger,
		now:          now,
		view:         ViewForSession(nil),
	}
}

// View returns the last rendered view
func (r *Reconciler) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// State returns the current UI state
func (r *Reconciler) State() State {
	return r.View().State
}

// Initialize establishes a session and starts following provider
// notifications. A missing provider is terminal; any other failure is
// rendered and returned but leaves the page usable.
func (r *Reconciler) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.initialized {
		r.mu.Unlock()
		return ErrAlreadyInitialized
	}
	r.initialized = true
	if r.provider == nil || r.profiles == nil {
		r.setViewLocked(configErrorView())
		r.mu.Unlock()
		r.logger.Error("identity provider configuration is missing")
		return ErrConfigMissing
	}
	r.mu.Unlock()

	var err error
	if r.initialToken != "" {
		_, err = retry.Call(ctx, r.invoker, func(ctx context.Context) (*Session, error) {
			return r.provider.RedeemToken(ctx, r.initialToken)
		})
	} else {
		_, err = retry.Call(ctx, r.invoker, func(ctx context.Context) (*Session, error) {
			return r.provider.AuthenticateAnonymous(ctx)
		})
	}
	if err != nil {
		r.logger.Error("error initializing provider or signing in", "error", err)
		r.mu.Lock()
		r.setViewLocked(initFailedView(err))
		r.mu.Unlock()
		r.notice(NoticeError, prefixInitFailed+err.Error())
		return err
	}

	sub := r.provider.Subscribe(r.Notify)
	r.mu.Lock()
	r.sub = sub
	r.mu.Unlock()
	r.logger.Info("auth page initialized", "app_id", r.appID, "custom_token", r.initialToken != "")
	return nil
}

// Notify renders a session change pushed by the provider. It only updates
// the rendered surface; delivering the same value twice renders the same view.
func (r *Reconciler) Notify(session *Session) {
	view := ViewForSession(session)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.view.State == StateConfigError {
		return
	}
	r.setViewLocked(view)
}

// SignUp validates the form, creates the account and writes its profile
func (r *Reconciler) SignUp(ctx context.Context, email, password string) error {
	return r.signUp(ctx, Credentials{Email: email, Password: password}, nil)
}

// SignUpConfirmed is SignUp for forms that also ask for a confirmation
// password; a mismatch is a validation error.
func (r *Reconciler) SignUpConfirmed(ctx context.Context, email, password, confirm string) error {
	return r.signUp(ctx, Credentials{Email: email, Password: password}, &confirm)
}

func (r *Reconciler) signUp(ctx context.Context, creds Credentials, confirm *string) error {
	if err := r.checkConfigured(prefixSignUpFailed); err != nil {
		return err
	}
	if err := creds.ValidateSignup(); err != nil {
		r.notice(NoticeError, err.Error())
		return err
	}
	if confirm != nil {
		if err := creds.ValidateConfirmation(*confirm); err != nil {
			r.notice(NoticeError, err.Error())
			return err
		}
	}

	r.setControlsEnabled(false)
	defer r.setControlsEnabled(true)

	err := r.createAccountWithProfile(ctx, creds)
	if err != nil {
		r.logger.Error("sign up error", "error", err)
		r.notice(NoticeError, prefixSignUpFailed+signUpMessage(err))
		return err
	}

	r.notice(NoticeSuccess, MsgSignUpSuccess)
	return nil
}

// createAccountWithProfile writes the profile only after the account exists
func (r *Reconciler) createAccountWithProfile(ctx context.Context, creds Credentials) error {
	session, err := retry.Call(ctx, r.invoker, func(ctx context.Context) (*Session, error) {
		return r.provider.CreateAccount(ctx, creds.Email, creds.Password)
	})
	if err != nil {
		return err
	}
	if session == nil {
		return errors.New("identity provider returned no session")
	}

	path := ProfilePath{AppID: r.appID, UID: session.UID}
	record := NewProfileRecord(session.Email, r.now())
	if err := r.invoker.Do(ctx, func(ctx context.Context) error {
		return r.profiles.WriteProfile(ctx, path, record)
	}); err != nil {
		r.logger.Error("profile write failed", "profile", path.String(), "error", err)
		return err
	}

	r.logger.Info("account created", "uid", session.UID, "profile", path.String())
	return nil
}

// Login validates the form and signs in with email/password
func (r *Reconciler) Login(ctx context.Context, email, password string) error {
	if err := r.checkConfigured(prefixLoginFailed); err != nil {
		return err
	}
	creds := Credentials{Email: email, Password: password}
	if err := creds.ValidateLogin(); err != nil {
		r.notice(NoticeError, err.Error())
		return err
	}

	r.setControlsEnabled(false)
	defer r.setControlsEnabled(true)

	_, err := retry.Call(ctx, r.invoker, func(ctx context.Context) (*Session, error) {
		return r.provider.Authenticate(ctx, creds.Email, creds.Password)
	})
	if err != nil {
		r.logger.Error("login error", "error", err)
		r.notice(NoticeError, prefixLoginFailed+loginMessage(err))
		return err
	}

	r.notice(NoticeSuccess, MsgLoginSuccess)
	return nil
}

// Logout signs out of the current session. It leaves the form controls alone.
func (r *Reconciler) Logout(ctx context.Context) error {
	if err := r.checkConfigured(prefixLogoutFailed); err != nil {
		return err
	}

	err := r.invoker.Do(ctx, func(ctx context.Context) error {
		return r.provider.SignOut(ctx)
	})
	if err != nil {
		r.logger.Error("logout error", "error", err)
		r.notice(NoticeError, prefixLogoutFailed+err.Error())
		return err
	}

	r.notice(NoticeSuccess, MsgLogoutSuccess)
	return nil
}

// Close stops following provider notifications
func (r *Reconciler) Close() error {
	r.mu.Lock()
	sub := r.sub
	r.sub = nil
	r.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	return nil
}

func (r *Reconciler) checkConfigured(prefix string) error {
	r.mu.Lock()
	state := r.view.State
	r.mu.Unlock()

	if state == StateConfigError || r.provider == nil || r.profiles == nil {
		r.notice(NoticeError, prefix+ErrConfigMissing.Error())
		return ErrConfigMissing
	}
	return nil
}

func (r *Reconciler) setViewLocked(view View) {
	r.view = view
	r.renderer.Render(view)
}

func (r *Reconciler) setControlsEnabled(enabled bool) {
	r.renderer.SetControlsEnabled(enabled)
}

func (r *Reconciler) notice(kind NoticeKind, text string) {
	r.renderer.Notice(Notice{Kind: kind, Text: text})
}

func signUpMessage(err error) string {
	switch KindOf(err) {
	case KindEmailInUse:
		return MsgEmailInUse
	case KindInvalidEmail:
		return MsgInvalidEmail
	}
	return err.Error()
}

func loginMessage(err error) string {
	switch KindOf(err) {
	case KindNotFound, KindWrongCredential:
		return MsgInvalidEmailOrPass
	}
	return err.Error()
}

type nopRenderer struct{}

func (nopRenderer) Render(View)             {}
func (nopRenderer) Notice(Notice)           {}
func (nopRenderer) SetControlsEnabled(bool) {}
