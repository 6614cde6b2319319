package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte(strings.Repeat("a", 32))
	refreshSecret = []byte(strings.Repeat("r", 32))
)

func newPair(t *testing.T, secret []byte, issuer string) (*jwtx.HS256Signer, *jwtx.HS256Verifier) {
	t.Helper()

	s, err := jwtx.NewSignerHS256(secret, true)
	require.NoError(t, err)
	v, err := jwtx.NewVerifierHS256(secret, true, jwtx.VerifyOptions{Issuer: issuer})
	require.NoError(t, err)
	return s, v
}

func TestHS256_RoundTrip(t *testing.T) {
	t.Parallel()
	s, v := newPair(t, accessSecret, "taskboard")
	require.Equal(t, "HS256", s.Alg())

	tok, err := s.Sign(jwtx.NewAccessClaims("user-1", "user", "taskboard", time.Minute, time.Now()))
	require.NoError(t, err)

	var got jwtx.AccessClaims
	require.NoError(t, v.Verify(tok, &got))
	require.Equal(t, "user-1", got.Subject)
	require.Equal(t, "user", got.Role)
}

func TestHS256_Expired(t *testing.T) {
	t.Parallel()
	s, v := newPair(t, accessSecret, "")

	past := time.Now().Add(-2 * time.Hour)
	tok, err := s.Sign(jwtx.NewAccessClaims("user-1", "user", "", time.Hour, past))
	require.NoError(t, err)

	var got jwtx.AccessClaims
	require.ErrorIs(t, v.Verify(tok, &got), jwtx.ErrTokenExpired)
}

func TestHS256_WrongSecret(t *testing.T) {
	t.Parallel()
	s, _ := newPair(t, accessSecret, "")
	_, v := newPair(t, refreshSecret, "")

	tok, err := s.Sign(jwtx.NewRefreshClaims("user-1", "", time.Minute, time.Now()))
	require.NoError(t, err)

	var got jwtx.RefreshClaims
	require.ErrorIs(t, v.Verify(tok, &got), jwtx.ErrTokenInvalid)
}

func TestHS256_TypeConfusion(t *testing.T) {
	t.Parallel()

	// Same secret on both sides, the typ claim still keeps them apart
	s, v := newPair(t, accessSecret, "")

	access, err := s.Sign(jwtx.NewAccessClaims("user-1", "user", "", time.Minute, time.Now()))
	require.NoError(t, err)

	var rc jwtx.RefreshClaims
	require.ErrorIs(t, v.Verify(access, &rc), jwtx.ErrTokenInvalid)
}

func TestHS256_IssuerMismatch(t *testing.T) {
	t.Parallel()
	s, _ := newPair(t, accessSecret, "")
	_, v := newPair(t, accessSecret, "taskboard")

	tok, err := s.Sign(jwtx.NewAccessClaims("user-1", "user", "someone-else", time.Minute, time.Now()))
	require.NoError(t, err)

	var got jwtx.AccessClaims
	require.ErrorIs(t, v.Verify(tok, &got), jwtx.ErrTokenInvalid)
}

func TestHS256_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()
	_, v := newPair(t, accessSecret, "")

	claims := jwtx.NewAccessClaims("user-1", "admin", "", time.Minute, time.Now())
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(accessSecret)
	require.NoError(t, err)

	for _, tok := range []string{none, hs512, "", "garbage", "a.b.c"} {
		var got jwtx.AccessClaims
		require.ErrorIs(t, v.Verify(tok, &got), jwtx.ErrTokenInvalid)
	}
}

func TestHS256_SecretStrength(t *testing.T) {
	t.Parallel()

	_, err := jwtx.NewSignerHS256(nil, false)
	require.Error(t, err)

	_, err = jwtx.NewSignerHS256([]byte("short"), true)
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)

	_, err = jwtx.NewSignerHS256([]byte("short"), false)
	require.NoError(t, err)

	_, err = jwtx.NewVerifierHS256([]byte("short"), true, jwtx.VerifyOptions{})
	require.ErrorIs(t, err, jwtx.ErrWeakSecret)
}
