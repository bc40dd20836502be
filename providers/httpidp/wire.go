// Package httpidp exposes a local.Directory as a JSON identity service and
// provides a client that implements authpage.IdentityProvider against it.
//
// Routes:
//
//	POST   /v1/accounts            {email,password} -> 201 {session,id_token}
//	POST   /v1/sessions            {email,password} -> 200 {session,id_token}
//	POST   /v1/sessions/anonymous                   -> 200 {session,id_token}
//	POST   /v1/sessions/token      {token}          -> 200 {session,id_token}
//	DELETE /v1/sessions            Bearer id_token  -> 204
//	GET    /healthz                                 -> 200
//
// Failures carry {"error": code, "error_description": message}. Credential
// routes answer 429 once a RateLimiter refuses the client.
package httpidp

import (
	"net/http"

	ap "github.com/panyam/authpage"
)

// Route paths
const (
	PathAccounts          = "/v1/accounts"
	PathSessions          = "/v1/sessions"
	PathAnonymousSessions = "/v1/sessions/anonymous"
	PathTokenSessions     = "/v1/sessions/token"
	PathHealth            = "/healthz"
)

// Error codes carried in errorResponse.Error
const (
	CodeEmailInUse      = "email_in_use"
	CodeInvalidEmail    = "invalid_email"
	CodeUserNotFound    = "user_not_found"
	CodeWrongCredential = "wrong_credential"
	CodeInvalidToken    = "invalid_token"
	CodeInvalidRequest  = "invalid_request"
	CodeServerError     = "server_error"
	CodeRateLimited     = "rate_limit_exceeded"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type sessionResponse struct {
	Session *ap.Session `json:"session"`
	IDToken string      `json:"id_token"`
}

type errorResponse struct {
	Error     string `json:"error"`
	ErrorDesc string `json:"error_description,omitempty"`
}

// codeForKind maps a failure kind to its wire code and HTTP status
func codeForKind(kind ap.FailureKind) (string, int) {
	switch kind {
	case ap.KindEmailInUse:
		return CodeEmailInUse, http.StatusConflict
	case ap.KindInvalidEmail:
		return CodeInvalidEmail, http.StatusBadRequest
	case ap.KindNotFound:
		return CodeUserNotFound, http.StatusNotFound
	case ap.KindWrongCredential:
		return CodeWrongCredential, http.StatusUnauthorized
	case ap.KindInvalidToken:
		return CodeInvalidToken, http.StatusUnauthorized
	}
	return CodeServerError, http.StatusInternalServerError
}

// kindForResponse maps a wire error back to a failure kind
func kindForResponse(status int, code string) ap.FailureKind {
	switch code {
	case CodeEmailInUse:
		return ap.KindEmailInUse
	case CodeInvalidEmail:
		return ap.KindInvalidEmail
	case CodeUserNotFound:
		return ap.KindNotFound
	case CodeWrongCredential:
		return ap.KindWrongCredential
	case CodeInvalidToken:
		return ap.KindInvalidToken
	}
	if status >= 500 || status == http.StatusTooManyRequests || status == http.StatusRequestTimeout {
		return ap.KindUnavailable
	}
	return ap.KindOther
}
