package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Purpose distinguishes what a signed token may be used for. A confirmation
// token presented as a session token (or vice versa) is rejected at Verify.
type Purpose string

const (
	PurposeSession      Purpose = "session"
	PurposeEmailConfirm Purpose = "email_confirm"
)

// ErrInvalidToken covers every verification failure: bad signature, malformed
// structure, expiry, and purpose mismatch. Callers get no partial trust.
var ErrInvalidToken = errors.New("invalid token")

// Claims holds the JWT payload fields.
type Claims struct {
	UserID  string  `json:"user_id"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// Provider signs and verifies HS256 JWTs using a process-wide secret
// supplied at construction.
type Provider struct {
	secret []byte
	ttls   map[Purpose]time.Duration
}

func NewProvider(secret string, sessionTTL, confirmTTL time.Duration) (*Provider, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	return &Provider{
		secret: []byte(secret),
		ttls: map[Purpose]time.Duration{
			PurposeSession:      sessionTTL,
			PurposeEmailConfirm: confirmTTL,
		},
	}, nil
}

// Sign issues a token for userID bound to the given purpose, expiring after
// the purpose's configured TTL.
func (p *Provider) Sign(userID string, purpose Purpose) (string, error) {
	ttl, ok := p.ttls[purpose]
	if !ok {
		return "", fmt.Errorf("unknown token purpose %q", purpose)
	}
	now := time.Now()
	claims := Claims{
		UserID:  userID,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// Verify checks signature integrity, expiry and purpose, and returns the
// claims only when all three pass.
func (p *Provider) Verify(tokenStr string, expected Purpose) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Purpose != expected {
		return nil, fmt.Errorf("%w: purpose mismatch", ErrInvalidToken)
	}
	return claims, nil
}
