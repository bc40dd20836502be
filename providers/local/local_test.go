package local

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	ap "github.com/panyam/authpage"
	"github.com/panyam/authpage/stores"
)

func newTestProvider(t *testing.T) (*Provider, *stores.MemoryAccountStore) {
	t.Helper()
	accounts := stores.NewMemoryAccountStore()
	dir := NewDirectory(accounts,
		WithSecret([]byte("local-test-secret")),
		WithBcryptCost(bcrypt.MinCost))
	return NewProvider(dir), accounts
}

func TestProvider_CreateAccount(t *testing.T) {
	p, accounts := newTestProvider(t)
	ctx := context.Background()

	session, err := p.CreateAccount(ctx, "  User@Example.COM ", "longenough")
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if session.Email != "user@example.com" {
		t.Errorf("Email = %q, want normalized address", session.Email)
	}
	if session.IsAnonymous() {
		t.Errorf("email session reported as anonymous")
	}

	account, err := accounts.GetAccount(ctx, "user@example.com")
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if account.PasswordHash == "longenough" {
		t.Errorf("password stored in plain text")
	}
	if !p.CurrentSession().Equal(session) {
		t.Errorf("CurrentSession() = %+v, want %+v", p.CurrentSession(), session)
	}
}

func TestProvider_CreateAccountFailures(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	if _, err := p.CreateAccount(ctx, "dup@example.com", "longenough"); err != nil {
		t.Fatalf("first CreateAccount() error = %v", err)
	}

	tests := []struct {
		name  string
		email string
		want  ap.FailureKind
	}{
		{name: "duplicate email", email: "dup@example.com", want: ap.KindEmailInUse},
		{name: "duplicate email different case", email: "DUP@example.com", want: ap.KindEmailInUse},
		{name: "malformed email", email: "not-an-email", want: ap.KindInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.CreateAccount(ctx, tt.email, "longenough")
			if got := ap.KindOf(err); got != tt.want {
				t.Errorf("KindOf(err) = %v, want %v (err = %v)", got, tt.want, err)
			}
			if ap.IsRetryable(err) {
				t.Errorf("business failure %v should not be retryable", err)
			}
		})
	}
}

func TestProvider_Authenticate(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	created, err := p.CreateAccount(ctx, "login@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	session, err := p.Authenticate(ctx, "login@example.com", "correct-horse")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if session.UID != created.UID {
		t.Errorf("UID = %q, want %q", session.UID, created.UID)
	}

	if _, err := p.Authenticate(ctx, "login@example.com", "wrong"); ap.KindOf(err) != ap.KindWrongCredential {
		t.Errorf("wrong password kind = %v, want %v", ap.KindOf(err), ap.KindWrongCredential)
	}
	if _, err := p.Authenticate(ctx, "missing@example.com", "x"); ap.KindOf(err) != ap.KindNotFound {
		t.Errorf("unknown user kind = %v, want %v", ap.KindOf(err), ap.KindNotFound)
	}
}

func TestProvider_SubscribeDeliversChanges(t *testing.T) {
	p, _ := newTestProvider(t)
	ctx := context.Background()

	var seen []*ap.Session
	sub := p.Subscribe(func(s *ap.Session) { seen = append(seen, s) })

	guest, err := p.AuthenticateAnonymous(ctx)
	if err != nil {
		t.Fatalf("AuthenticateAnonymous() error = %v", err)
	}
	if !guest.IsAnonymous() {
		t.Errorf("guest session has email %q", guest.Email)
	}
	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	if _, err := p.AuthenticateAnonymous(ctx); err != nil {
		t.Fatalf("AuthenticateAnonymous() error = %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("got %d notifications, want 3 (initial, guest, signed out)", len(seen))
	}
	if seen[0] != nil || seen[2] != nil {
		t.Errorf("expected nil initial and signed-out notifications, got %+v / %+v", seen[0], seen[2])
	}
	if seen[1].UID != guest.UID {
		t.Errorf("guest notification uid = %q, want %q", seen[1].UID, guest.UID)
	}
}

func TestDirectory_Tokens(t *testing.T) {
	p, _ := newTestProvider(t)
	dir := p.Directory()
	ctx := context.Background()

	token, err := dir.MintToken(&ap.Session{UID: "abc", Email: "t@example.com"}, time.Minute)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}

	session, err := p.RedeemToken(ctx, token)
	if err != nil {
		t.Fatalf("RedeemToken() error = %v", err)
	}
	if session.UID != "abc" || session.Email != "t@example.com" {
		t.Errorf("RedeemToken() = %+v", session)
	}

	other := NewDirectory(stores.NewMemoryAccountStore(), WithSecret([]byte("different")))
	if _, err := other.ParseToken(token); ap.KindOf(err) != ap.KindInvalidToken {
		t.Errorf("foreign secret kind = %v, want %v", ap.KindOf(err), ap.KindInvalidToken)
	}

	expired := NewDirectory(stores.NewMemoryAccountStore(), WithSecret([]byte("local-test-secret")))
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := expired.MintToken(&ap.Session{UID: "abc"}, time.Minute)
	if err != nil {
		t.Fatalf("MintToken() error = %v", err)
	}
	if _, err := dir.ParseToken(old); ap.KindOf(err) != ap.KindInvalidToken {
		t.Errorf("expired token kind = %v, want %v", ap.KindOf(err), ap.KindInvalidToken)
	}

	noSecret := NewDirectory(stores.NewMemoryAccountStore())
	if _, err := noSecret.MintToken(&ap.Session{UID: "abc"}, time.Minute); err == nil {
		t.Errorf("MintToken() without secret should fail")
	}
}

type failingAccounts struct{}

func (failingAccounts) GetAccount(ctx context.Context, email string) (*ap.Account, error) {
	return nil, errors.New("backend down")
}

func (failingAccounts) CreateAccount(ctx context.Context, account *ap.Account) error {
	return errors.New("backend down")
}

func TestDirectory_StoreFailuresAreRetryable(t *testing.T) {
	dir := NewDirectory(failingAccounts{})
	_, err := dir.Register(context.Background(), "a@example.com", "longenough")
	if ap.KindOf(err) != ap.KindUnavailable || !ap.IsRetryable(err) {
		t.Errorf("Register() err = %v, want retryable unavailable", err)
	}
	_, err = dir.Verify(context.Background(), "a@example.com", "longenough")
	if ap.KindOf(err) != ap.KindUnavailable {
		t.Errorf("Verify() kind = %v, want unavailable", ap.KindOf(err))
	}
}
