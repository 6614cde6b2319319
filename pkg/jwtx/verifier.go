package jwtx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid covers bad signatures, malformed tokens, the wrong
	// algorithm and claims that fail validation.
	ErrTokenInvalid = errors.New("jwtx: token invalid")
	ErrTokenExpired = errors.New("jwtx: token expired")
)

// Verifier validates a JWT and decodes it into claims if it's legit.
type Verifier interface {
	Verify(token string, claims jwt.Claims) error
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Leeway allows small clock skew when validating exp/nbf/iat.
	Leeway time.Duration
}

// HS256Verifier validates tokens signed by an HS256Signer with the same
// secret.
type HS256Verifier struct {
	secret []byte
	parser *jwt.Parser
}

// NewVerifierHS256 creates a verifier for the given secret.
func NewVerifierHS256(secret []byte, strict bool, opts VerifyOptions) (*HS256Verifier, error) {
	if err := checkSecret(secret, strict); err != nil {
		return nil, err
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(opts.Leeway),
	}
	if opts.Issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(opts.Issuer))
	}

	return &HS256Verifier{
		secret: secret,
		parser: jwt.NewParser(parserOpts...),
	}, nil
}

// Verify parses tokenStr into claims, which must be a pointer. Every failure
// maps onto ErrTokenExpired or ErrTokenInvalid, the wrapped cause is kept for
// logging only.
func (v *HS256Verifier) Verify(tokenStr string, claims jwt.Claims) error {
	if tokenStr == "" {
		return ErrTokenInvalid
	}

	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case err != nil:
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	case !token.Valid:
		return ErrTokenInvalid
	}

	return nil
}
