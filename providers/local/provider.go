package local

import (
	"context"

	ap "github.com/panyam/authpage"
)

// Provider is an authpage.IdentityProvider holding one signed-in session
type Provider struct {
	dir      *Directory
	notifier *ap.Notifier
}

var _ ap.IdentityProvider = (*Provider)(nil)

// NewProvider creates a signed-out provider over dir
func NewProvider(dir *Directory) *Provider {
	return &Provider{
		dir:      dir,
		notifier: ap.NewNotifier(),
	}
}

// Directory returns the underlying account directory
func (p *Provider) Directory() *Directory {
	return p.dir
}

// CurrentSession returns the signed-in session, nil when signed out
func (p *Provider) CurrentSession() *ap.Session {
	return p.notifier.Current()
}

func (p *Provider) CreateAccount(ctx context.Context, email, password string) (*ap.Session, error) {
	return p.signIn(p.dir.Register(ctx, email, password))
}

func (p *Provider) Authenticate(ctx context.Context, email, password string) (*ap.Session, error) {
	return p.signIn(p.dir.Verify(ctx, email, password))
}

func (p *Provider) AuthenticateAnonymous(ctx context.Context) (*ap.Session, error) {
	return p.signIn(p.dir.Anonymous(ctx))
}

func (p *Provider) RedeemToken(ctx context.Context, token string) (*ap.Session, error) {
	return p.signIn(p.dir.ParseToken(token))
}

func (p *Provider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return ap.WrapAuthError(ap.KindUnavailable, err)
	}
	p.notifier.Publish(nil)
	return nil
}

func (p *Provider) Subscribe(handler ap.SessionHandler) ap.Subscription {
	return p.notifier.Subscribe(handler)
}

func (p *Provider) signIn(session *ap.Session, err error) (*ap.Session, error) {
	if err != nil {
		return nil, err
	}
	p.notifier.Publish(session)
	return session, nil
}
