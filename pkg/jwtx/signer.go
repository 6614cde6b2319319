package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// MinSecretLength is the smallest HMAC secret accepted in strict mode.
const MinSecretLength = 32

var ErrWeakSecret = errors.New("jwtx: secret too short")

// Signer is our interface for anything that can sign JWTs.
type Signer interface {
	Alg() string
	Sign(claims jwt.Claims) (string, error)
}

// HS256Signer signs tokens with a shared HMAC-SHA256 secret. Access and
// refresh tokens each get their own signer and secret.
type HS256Signer struct {
	secret []byte
}

// NewSignerHS256 creates an HS256 signer. With strict set, secrets shorter
// than MinSecretLength are rejected.
func NewSignerHS256(secret []byte, strict bool) (*HS256Signer, error) {
	if err := checkSecret(secret, strict); err != nil {
		return nil, err
	}
	return &HS256Signer{secret: secret}, nil
}

func (s *HS256Signer) Alg() string { return jwt.SigningMethodHS256.Alg() }

// Sign takes your claims and turns them into a signed JWT string.
func (s *HS256Signer) Sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func checkSecret(secret []byte, strict bool) error {
	if len(secret) == 0 {
		return errors.New("jwtx: empty secret")
	}
	if strict && len(secret) < MinSecretLength {
		return ErrWeakSecret
	}
	return nil
}
