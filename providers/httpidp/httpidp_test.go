package httpidp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	ap "github.com/panyam/authpage"
	"github.com/panyam/authpage/providers/local"
	"github.com/panyam/authpage/stores"
)

var testSecret = []byte("test-secret-key-for-httpidp")

func setupServer(t *testing.T) (*httptest.Server, *local.Directory) {
	t.Helper()
	dir := local.NewDirectory(stores.NewMemoryAccountStore(),
		local.WithSecret(testSecret),
		local.WithBcryptCost(bcrypt.MinCost))
	srv := httptest.NewServer(NewServer(dir))
	t.Cleanup(srv.Close)
	return srv, dir
}

func TestClient_SignUpLoginLogout(t *testing.T) {
	srv, _ := setupServer(t)
	client := NewClient(srv.URL)
	ctx := context.Background()

	var seen []*ap.Session
	sub := client.Subscribe(func(s *ap.Session) { seen = append(seen, s) })
	defer sub.Unsubscribe()

	session, err := client.CreateAccount(ctx, "New@Example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", session.Email)
	assert.NotEmpty(t, session.UID)

	_, err = client.CreateAccount(ctx, "new@example.com", "longenough")
	assert.Equal(t, ap.KindEmailInUse, ap.KindOf(err))

	got, err := client.Authenticate(ctx, "new@example.com", "longenough")
	require.NoError(t, err)
	assert.Equal(t, session.UID, got.UID)

	_, err = client.Authenticate(ctx, "new@example.com", "wrong-password")
	assert.Equal(t, ap.KindWrongCredential, ap.KindOf(err))

	_, err = client.Authenticate(ctx, "nobody@example.com", "whatever")
	assert.Equal(t, ap.KindNotFound, ap.KindOf(err))

	require.NoError(t, client.SignOut(ctx))
	assert.Nil(t, client.CurrentSession())

	// initial nil, sign-up, login, sign-out
	require.Len(t, seen, 4)
	assert.Nil(t, seen[0])
	assert.Equal(t, session.UID, seen[1].UID)
	assert.Nil(t, seen[3])
}

func TestClient_InvalidEmail(t *testing.T) {
	srv, _ := setupServer(t)
	client := NewClient(srv.URL)

	_, err := client.CreateAccount(context.Background(), "not-an-email", "longenough")
	require.Error(t, err)
	assert.Equal(t, ap.KindInvalidEmail, ap.KindOf(err))
	assert.False(t, ap.IsRetryable(err))
}

func TestClient_AnonymousAndToken(t *testing.T) {
	srv, dir := setupServer(t)
	client := NewClient(srv.URL)
	ctx := context.Background()

	guest, err := client.AuthenticateAnonymous(ctx)
	require.NoError(t, err)
	assert.True(t, guest.IsAnonymous())

	token, err := dir.MintToken(&ap.Session{UID: "custom-uid", Email: "c@example.com"}, time.Minute)
	require.NoError(t, err)

	redeemed, err := client.RedeemToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, &ap.Session{UID: "custom-uid", Email: "c@example.com"}, redeemed)

	_, err = client.RedeemToken(ctx, "garbage")
	assert.Equal(t, ap.KindInvalidToken, ap.KindOf(err))
}

func TestClient_ServerErrorsAreRetryable(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(errorResponse{Error: "unavailable"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.AuthenticateAnonymous(context.Background())
	require.Error(t, err)
	assert.Equal(t, ap.KindUnavailable, ap.KindOf(err))
	assert.True(t, ap.IsRetryable(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, WithTimeout(time.Second))
	_, err := client.Authenticate(context.Background(), "a@b.com", "secret1")
	require.Error(t, err)
	assert.Equal(t, ap.KindUnavailable, ap.KindOf(err))
	assert.Contains(t, err.Error(), "failed to connect")
}

func TestServer_SignOutRequiresBearer(t *testing.T) {
	srv, _ := setupServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+PathSessions, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, CodeInvalidToken, body.Error)
}

func TestServer_BadBody(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Post(srv.URL+PathAccounts, "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_Health(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Get(srv.URL + PathHealth)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv, _ := setupServer(t)

	resp, err := http.Get(srv.URL + PathAccounts)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
