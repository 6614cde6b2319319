package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestNewAccessClaims(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	c := jwtx.NewAccessClaims("user-1", "admin", "taskboard", time.Hour, now)

	require.Equal(t, "user-1", c.Subject)
	require.Equal(t, "admin", c.Role)
	require.Equal(t, jwtx.TypeAccess, c.Type)
	require.Equal(t, "taskboard", c.Issuer)
	require.Equal(t, now.Add(time.Hour), c.ExpiresAt.Time)
	require.NotEmpty(t, c.ID)
	require.NoError(t, c.Validate())
}

func TestClaimsValidate(t *testing.T) {
	t.Run("access needs subject", func(t *testing.T) {
		c := jwtx.AccessClaims{Role: "user", Type: jwtx.TypeAccess}
		require.Error(t, c.Validate())
	})

	t.Run("access needs role", func(t *testing.T) {
		c := jwtx.AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}, Type: jwtx.TypeAccess}
		require.Error(t, c.Validate())
	})

	t.Run("access rejects refresh type", func(t *testing.T) {
		c := jwtx.AccessClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}, Role: "user", Type: jwtx.TypeRefresh}
		require.Error(t, c.Validate())
	})

	t.Run("refresh rejects access type", func(t *testing.T) {
		c := jwtx.RefreshClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u"}, Type: jwtx.TypeAccess}
		require.Error(t, c.Validate())
	})

	t.Run("refresh ok", func(t *testing.T) {
		c := jwtx.NewRefreshClaims("u", "", time.Minute, time.Now())
		require.NoError(t, c.Validate())
	})
}

func TestNewJTI_Unique(t *testing.T) {
	seen := make(map[string]struct{}, 100)
	for range 100 {
		jti := jwtx.NewJTI()
		require.NotContains(t, seen, jti)
		seen[jti] = struct{}{}
	}
}
