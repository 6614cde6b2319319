package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default lifetimes, overridden through config.
const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token types carried in the "typ" claim. An access token presented where a
// refresh token is expected fails even if both secrets were set the same.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	errMissingSubject = errors.New("jwtx: missing subject")
	errMissingRole    = errors.New("jwtx: missing role")
	errWrongType      = errors.New("jwtx: wrong token type")
)

// AccessClaims are the claims of a short lived access token.
type AccessClaims struct {
	jwt.RegisteredClaims

	Role string `json:"role"`
	Type string `json:"typ"`
}

// Validate is called by the jwt parser after the registered claims pass.
func (c AccessClaims) Validate() error {
	if c.Subject == "" {
		return errMissingSubject
	}
	if c.Role == "" {
		return errMissingRole
	}
	if c.Type != TypeAccess {
		return errWrongType
	}
	return nil
}

// RefreshClaims are the claims of a refresh token. They deliberately carry no
// role: the role is re-read from the store on every rotation.
type RefreshClaims struct {
	jwt.RegisteredClaims

	Type string `json:"typ"`
}

func (c RefreshClaims) Validate() error {
	if c.Subject == "" {
		return errMissingSubject
	}
	if c.Type != TypeRefresh {
		return errWrongType
	}
	return nil
}

// NewAccessClaims builds access claims expiring ttl after now.
func NewAccessClaims(subject, role, issuer string, ttl time.Duration, now time.Time) AccessClaims {
	return AccessClaims{
		RegisteredClaims: registered(subject, issuer, ttl, now),
		Role:             role,
		Type:             TypeAccess,
	}
}

// NewRefreshClaims builds refresh claims expiring ttl after now.
func NewRefreshClaims(subject, issuer string, ttl time.Duration, now time.Time) RefreshClaims {
	return RefreshClaims{
		RegisteredClaims: registered(subject, issuer, ttl, now),
		Type:             TypeRefresh,
	}
}

func registered(subject, issuer string, ttl time.Duration, now time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        NewJTI(),
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. Two
// tokens for the same user minted in the same second still differ because
// of it.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
