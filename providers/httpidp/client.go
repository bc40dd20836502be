package httpidp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	ap "github.com/panyam/authpage"
)

// DefaultTimeout bounds each request so a hung server cannot stall an action
const DefaultTimeout = 10 * time.Second

// ClientOption configures a Client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (for TLS config, transports, etc.)
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// Client is an authpage.IdentityProvider talking to a Server over HTTP.
// It holds the signed-in session and its id token locally.
type Client struct {
	serverURL  string
	httpClient *http.Client
	notifier   *ap.Notifier

	mu      sync.Mutex
	idToken string
}

var _ ap.IdentityProvider = (*Client)(nil)

// NewClient creates a signed-out client for the server at serverURL
func NewClient(serverURL string, opts ...ClientOption) *Client {
	// Normalize server URL
	u, err := url.Parse(serverURL)
	if err == nil && u.Scheme != "" && u.Host != "" {
		serverURL = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
	}

	c := &Client{
		serverURL:  serverURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		notifier:   ap.NewNotifier(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ServerURL returns the server URL this client is configured for
func (c *Client) ServerURL() string {
	return c.serverURL
}

// CurrentSession returns the signed-in session, nil when signed out
func (c *Client) CurrentSession() *ap.Session {
	return c.notifier.Current()
}

func (c *Client) CreateAccount(ctx context.Context, email, password string) (*ap.Session, error) {
	return c.signIn(ctx, PathAccounts, credentialsRequest{Email: email, Password: password})
}

func (c *Client) Authenticate(ctx context.Context, email, password string) (*ap.Session, error) {
	return c.signIn(ctx, PathSessions, credentialsRequest{Email: email, Password: password})
}

func (c *Client) AuthenticateAnonymous(ctx context.Context) (*ap.Session, error) {
	return c.signIn(ctx, PathAnonymousSessions, struct{}{})
}

func (c *Client) RedeemToken(ctx context.Context, token string) (*ap.Session, error) {
	return c.signIn(ctx, PathTokenSessions, tokenRequest{Token: token})
}

// SignOut tells the server and clears the local session. A token the server
// no longer accepts is treated as already signed out.
func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.idToken
	c.mu.Unlock()

	if token != "" {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.serverURL+PathSessions, nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return ap.WrapAuthError(ap.KindUnavailable, fmt.Errorf("failed to connect to server: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
			if err := decodeError(resp); ap.KindOf(err) != ap.KindInvalidToken {
				return err
			}
		}
	}

	c.mu.Lock()
	c.idToken = ""
	c.mu.Unlock()
	c.notifier.Publish(nil)
	return nil
}

func (c *Client) Subscribe(handler ap.SessionHandler) ap.Subscription {
	return c.notifier.Subscribe(handler)
}

func (c *Client) signIn(ctx context.Context, path string, body any) (*ap.Session, error) {
	resp, err := c.post(ctx, path, body)
	if err != nil {
		return nil, err
	}
	if resp.Session == nil || resp.Session.UID == "" {
		return nil, ap.NewAuthError(ap.KindOther, "invalid response from server: missing session")
	}

	c.mu.Lock()
	c.idToken = resp.IDToken
	c.mu.Unlock()
	c.notifier.Publish(resp.Session)
	return resp.Session, nil
}

// post makes a JSON request and decodes a sessionResponse
func (c *Client) post(ctx context.Context, path string, body any) (*sessionResponse, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ap.WrapAuthError(ap.KindUnavailable, fmt.Errorf("failed to connect to server: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, ap.WrapAuthError(ap.KindUnavailable, fmt.Errorf("invalid response from server: %w", err))
	}
	return &out, nil
}

// decodeError turns a non-success response into an *ap.AuthError
func decodeError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return ap.WrapAuthError(ap.KindUnavailable, fmt.Errorf("failed to read response: %w", err))
	}

	var errResp errorResponse
	_ = json.Unmarshal(body, &errResp)

	kind := kindForResponse(resp.StatusCode, errResp.Error)
	switch {
	case errResp.ErrorDesc != "":
		return ap.NewAuthError(kind, errResp.ErrorDesc)
	case errResp.Error != "":
		return ap.NewAuthError(kind, errResp.Error)
	}
	return ap.NewAuthError(kind, fmt.Sprintf("request failed: HTTP %d", resp.StatusCode))
}
