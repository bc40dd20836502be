package httpidp

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	ap "github.com/panyam/authpage"
	"github.com/panyam/authpage/providers/local"
)

// ServerOption configures a Server
type ServerOption func(*Server)

// WithServerLogger sets the request logger
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithTokenTTL sets the lifetime of issued id tokens
func WithTokenTTL(ttl time.Duration) ServerOption {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

// WithRateLimiter limits account creation and password sign-in attempts
func WithRateLimiter(limiter RateLimiter) ServerOption {
	return func(s *Server) {
		s.limiter = limiter
	}
}

// Server serves the identity routes for a Directory. The directory must be
// configured with a signing secret so id tokens can be issued.
type Server struct {
	dir      *local.Directory
	router   *mux.Router
	logger   *slog.Logger
	tokenTTL time.Duration
	limiter  RateLimiter
}

// NewServer creates a server and registers its routes
func NewServer(dir *local.Directory, opts ...ServerOption) *Server {
	s := &Server{
		dir:      dir,
		router:   mux.NewRouter(),
		logger:   slog.Default(),
		tokenTTL: local.DefaultTokenExpiry,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(s.logRequests)
	s.router.HandleFunc(PathHealth, s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc(PathAccounts, s.handleCreateAccount).Methods(http.MethodPost)
	s.router.HandleFunc(PathAnonymousSessions, s.handleAnonymous).Methods(http.MethodPost)
	s.router.HandleFunc(PathTokenSessions, s.handleRedeemToken).Methods(http.MethodPost)
	s.router.HandleFunc(PathSessions, s.handleAuthenticate).Methods(http.MethodPost)
	s.router.HandleFunc(PathSessions, s.handleSignOut).Methods(http.MethodDelete)
	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) || !s.allow(w, r, req.Email) {
		return
	}
	session, err := s.dir.Register(r.Context(), req.Email, req.Password)
	s.respondSession(w, http.StatusCreated, session, err)
}

func (s *Server) handleAuthenticate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !s.decode(w, r, &req) || !s.allow(w, r, req.Email) {
		return
	}
	session, err := s.dir.Verify(r.Context(), req.Email, req.Password)
	s.respondSession(w, http.StatusOK, session, err)
}

func (s *Server) handleAnonymous(w http.ResponseWriter, r *http.Request) {
	session, err := s.dir.Anonymous(r.Context())
	s.respondSession(w, http.StatusOK, session, err)
}

func (s *Server) handleRedeemToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Token == "" {
		s.errorResponse(w, CodeInvalidRequest, "token required", http.StatusBadRequest)
		return
	}
	session, err := s.dir.ParseToken(req.Token)
	s.respondSession(w, http.StatusOK, session, err)
}

// handleSignOut only validates the bearer token; id tokens are stateless
// and simply age out.
func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok || token == "" {
		s.errorResponse(w, CodeInvalidToken, "bearer token required", http.StatusUnauthorized)
		return
	}
	if _, err := s.dir.ParseToken(token); err != nil {
		s.failure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.errorResponse(w, CodeInvalidRequest, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// allow applies the rate limiter to a credential request
func (s *Server) allow(w http.ResponseWriter, r *http.Request, email string) bool {
	if s.limiter == nil {
		return true
	}
	key := getClientIP(r) + ":" + ap.NormalizeEmail(email)
	if !s.limiter.Allow(key) {
		s.logger.Warn("rate limit exceeded", "key", key)
		s.errorResponse(w, CodeRateLimited, "Too many attempts", http.StatusTooManyRequests)
		return false
	}
	return true
}

func (s *Server) respondSession(w http.ResponseWriter, status int, session *ap.Session, err error) {
	if err != nil {
		s.failure(w, err)
		return
	}

	idToken, err := s.dir.MintToken(session, s.tokenTTL)
	if err != nil {
		s.logger.Error("failed to mint id token", "error", err)
		s.errorResponse(w, CodeServerError, "failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(sessionResponse{Session: session, IDToken: idToken})
}

func (s *Server) failure(w http.ResponseWriter, err error) {
	var ae *ap.AuthError
	if !errors.As(err, &ae) {
		s.logger.Error("identity request failed", "error", err)
		s.errorResponse(w, CodeServerError, "internal error", http.StatusInternalServerError)
		return
	}
	code, status := codeForKind(ae.Kind)
	if status >= 500 {
		s.logger.Error("identity request failed", "kind", ae.Kind.String(), "error", err)
	}
	s.errorResponse(w, code, ae.Error(), status)
}

func (s *Server) errorResponse(w http.ResponseWriter, code, desc string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: code, ErrorDesc: desc})
}

// statusRecorder captures the status code for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start))
	})
}
