package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// SecretTokenBytes is the entropy of one-time secrets such as password
// reset tokens: 256 bits, 43 characters once encoded.
const SecretTokenBytes = 32

// GenerateToken returns n random bytes, base64url encoded without padding.
func GenerateToken(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", n)
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewSecretToken returns a fresh one-time secret and the fingerprint to
// persist in its place. Only the fingerprint should reach storage.
func NewSecretToken() (token, fingerprint string, err error) {
	token, err = GenerateToken(SecretTokenBytes)
	if err != nil {
		return "", "", err
	}
	return token, FingerprintToken(token), nil
}

// FingerprintToken is the SHA-256 of token, base64url encoded. Lookups
// against stored fingerprints stay exact-match.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
