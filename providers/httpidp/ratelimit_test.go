package httpidp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	ap "github.com/panyam/authpage"
	"github.com/panyam/authpage/providers/local"
	"github.com/panyam/authpage/stores"
)

func TestKeyedLimiter(t *testing.T) {
	l := NewKeyedLimiter(60, 2)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys have separate buckets")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"), "one token refills per second at 60/min")

	now = now.Add(time.Hour)
	assert.True(t, l.Allow("c"))
	assert.Equal(t, 1, l.Len(), "idle buckets are dropped")
}

func TestServer_RateLimitsCredentialRoutes(t *testing.T) {
	dir := local.NewDirectory(stores.NewMemoryAccountStore(),
		local.WithSecret(testSecret),
		local.WithBcryptCost(bcrypt.MinCost))
	srv := httptest.NewServer(NewServer(dir, WithRateLimiter(NewKeyedLimiter(1, 2))))
	defer srv.Close()

	client := NewClient(srv.URL)
	ctx := context.Background()

	_, err := client.CreateAccount(ctx, "r@example.com", "longenough")
	require.NoError(t, err)
	_, err = client.Authenticate(ctx, "R@example.com", "wrong-password")
	assert.Equal(t, ap.KindWrongCredential, ap.KindOf(err))

	_, err = client.Authenticate(ctx, "r@example.com", "longenough")
	require.Error(t, err)
	assert.Equal(t, ap.KindUnavailable, ap.KindOf(err))
	assert.Contains(t, err.Error(), "Too many attempts")

	// guest sessions are not limited
	_, err = client.AuthenticateAnonymous(ctx)
	assert.NoError(t, err)
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", getClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", getClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	assert.Equal(t, "203.0.113.9", getClientIP(r))
}
