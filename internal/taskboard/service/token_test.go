package service

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestTokenService_AccessRoundTrip(t *testing.T) {
	tokens := newTokenService(t)

	token, exp, err := tokens.IssueAccessToken("user-1", domain.RoleAdmin)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(jwtx.DefaultAccessTokenTTL), exp, 5*time.Second)

	claims, err := tokens.VerifyAccessToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, string(domain.RoleAdmin), claims.Role)
	require.Equal(t, jwtx.TypeAccess, claims.Type)
	require.Equal(t, "taskboard-test", claims.Issuer)
}

func TestTokenService_RefreshRoundTrip(t *testing.T) {
	tokens := newTokenService(t)

	token, exp, err := tokens.IssueRefreshToken("user-1")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(jwtx.DefaultRefreshTokenTTL), exp, 5*time.Second)

	claims, err := tokens.VerifyRefreshToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
}

func TestTokenService_PairTokensDiffer(t *testing.T) {
	tokens := newTokenService(t)

	a, err := tokens.IssuePair("user-1", domain.RoleUser)
	require.NoError(t, err)
	b, err := tokens.IssuePair("user-1", domain.RoleUser)
	require.NoError(t, err)

	require.NotEqual(t, a.RefreshToken, b.RefreshToken)
	require.NotEqual(t, a.AccessToken, b.AccessToken)
}

func TestTokenService_Expired(t *testing.T) {
	tokens := newTokenService(t)
	tokens.Now = func() time.Time { return time.Now().Add(-25 * time.Hour) }

	token, _, err := tokens.IssueAccessToken("user-1", domain.RoleUser)
	require.NoError(t, err)

	_, err = tokens.VerifyAccessToken(token)
	require.ErrorIs(t, err, jwtx.ErrTokenExpired)
}

func TestTokenService_SecretsAreNotInterchangeable(t *testing.T) {
	tokens := newTokenService(t)

	access, _, err := tokens.IssueAccessToken("user-1", domain.RoleUser)
	require.NoError(t, err)
	refresh, _, err := tokens.IssueRefreshToken("user-1")
	require.NoError(t, err)

	_, err = tokens.VerifyRefreshToken(access)
	require.ErrorIs(t, err, jwtx.ErrTokenInvalid)

	_, err = tokens.VerifyAccessToken(refresh)
	require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
}

func TestTokenService_RejectsUnknownRole(t *testing.T) {
	tokens := newTokenService(t)

	token, _, err := tokens.IssueAccessToken("user-1", domain.Role("root"))
	require.NoError(t, err)

	_, err = tokens.VerifyAccessToken(token)
	require.ErrorIs(t, err, jwtx.ErrTokenInvalid)
}

func TestNewTokenService_Config(t *testing.T) {
	t.Run("equal secrets", func(t *testing.T) {
		_, err := NewTokenService(TokenConfig{
			AccessSecret:  []byte(testAccessSecret),
			RefreshSecret: []byte(testAccessSecret),
		})
		require.Error(t, err)
	})

	t.Run("weak secret in strict mode", func(t *testing.T) {
		_, err := NewTokenService(TokenConfig{
			AccessSecret:  []byte("short"),
			RefreshSecret: []byte(testRefreshSecret),
			Strict:        true,
		})
		require.ErrorIs(t, err, jwtx.ErrWeakSecret)
	})

	t.Run("weak secret allowed outside strict mode", func(t *testing.T) {
		tokens, err := NewTokenService(TokenConfig{
			AccessSecret:  []byte("short-a"),
			RefreshSecret: []byte("short-r"),
		})
		require.NoError(t, err)
		require.Equal(t, jwtx.DefaultAccessTokenTTL, tokens.AccessTTL)
		require.Equal(t, jwtx.DefaultRefreshTokenTTL, tokens.RefreshTTL)
	})

	t.Run("missing secret", func(t *testing.T) {
		_, err := NewTokenService(TokenConfig{RefreshSecret: []byte(testRefreshSecret)})
		require.Error(t, err)
	})
}
