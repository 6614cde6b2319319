package taskboard_test

import (
	"net/http"
	"testing"

	"github.com/aussiebroadwan/taskboard/pkg/tasksdk"
	"github.com/stretchr/testify/require"
)

// TestRateLimitLoginEndpoint verifies the strict profile (burst of 5) on login.
func TestRateLimitLoginEndpoint(t *testing.T) {
	baseURL, cleanup := setupContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := tasksdk.NewSDKClient(baseURL)
	ctx := t.Context()

	for i := range 5 {
		_, err := client.LoginTokens(ctx, "nobody@example.com", "WrongPass1!")
		require.Error(t, err)
		require.NotEqual(t, http.StatusTooManyRequests, tasksdk.StatusCode(err),
			"Should not be rate limited yet (request %d)", i+1)
	}

	_, err := client.LoginTokens(ctx, "nobody@example.com", "WrongPass1!")
	assertStatus(t, err, http.StatusTooManyRequests, "Sixth login attempt")
}

func TestRateLimitHealthIsLenient(t *testing.T) {
	baseURL, cleanup := setupContainerWithDefaultRateLimits(t)
	defer cleanup()

	client := tasksdk.NewSDKClient(baseURL)

	for range 20 {
		health, err := client.GetLiveness(t.Context())
		assertHealthy(t, health, err)
	}
}
