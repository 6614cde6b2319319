package http_test

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	live, err := s.client.GetLiveness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := s.client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Empty(t, ready.Checks.Redis)
}

func TestReadinessReportsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	s := newTestServer(t, withLockoutOn(t, mr, 5))

	ready, err := s.client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Redis)

	// Redis going away degrades but does not fail readiness.
	mr.Close()
	ready, err = s.client.GetReadiness(t.Context())
	require.NoError(t, err)
	require.Equal(t, "degraded", ready.Status)
	require.Contains(t, ready.Checks.Redis, "error")
}
