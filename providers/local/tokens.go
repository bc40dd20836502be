package local

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	ap "github.com/panyam/authpage"
)

// DefaultIssuer is the iss claim used when none is configured
const DefaultIssuer = "authpage"

// DefaultTokenExpiry is how long minted custom tokens stay redeemable
const DefaultTokenExpiry = 1 * time.Hour

// tokenTypeCustom marks tokens minted for RedeemToken
const tokenTypeCustom = "custom"

// MintToken signs a custom token for session that RedeemToken accepts
func (d *Directory) MintToken(session *ap.Session, ttl time.Duration) (string, error) {
	if len(d.secret) == 0 {
		return "", fmt.Errorf("token signing secret not configured")
	}
	if session == nil || session.UID == "" {
		return "", fmt.Errorf("session uid required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenExpiry
	}

	now := d.now()
	claims := jwt.MapClaims{
		"sub":  session.UID,
		"type": tokenTypeCustom,
		"iss":  d.issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	if session.Email != "" {
		claims["email"] = session.Email
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(d.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a custom token and returns the session it carries
func (d *Directory) ParseToken(tokenString string) (*ap.Session, error) {
	if len(d.secret) == 0 {
		return nil, ap.NewAuthError(ap.KindInvalidToken, "token redemption not configured")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return d.secret, nil
	}, jwt.WithIssuer(d.issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, &ap.AuthError{Kind: ap.KindInvalidToken, Message: "invalid token", Err: err}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ap.NewAuthError(ap.KindInvalidToken, "invalid claims")
	}
	if tokenType, ok := claims["type"].(string); !ok || tokenType != tokenTypeCustom {
		return nil, ap.NewAuthError(ap.KindInvalidToken, "invalid token type")
	}

	uid, ok := claims["sub"].(string)
	if !ok || uid == "" {
		return nil, ap.NewAuthError(ap.KindInvalidToken, "missing subject")
	}
	email, _ := claims["email"].(string)

	return &ap.Session{UID: uid, Email: email}, nil
}
