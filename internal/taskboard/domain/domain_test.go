package domain_test

import (
	"testing"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/stretchr/testify/require"
)

func TestCallerCanAccess(t *testing.T) {
	t.Parallel()

	owner := domain.Caller{UserID: "u1", Role: domain.RoleUser}
	other := domain.Caller{UserID: "u2", Role: domain.RoleUser}
	admin := domain.Caller{UserID: "a1", Role: domain.RoleAdmin}

	require.True(t, owner.CanAccess("u1"))
	require.False(t, other.CanAccess("u1"))
	require.True(t, admin.CanAccess("u1"))
	require.False(t, domain.Caller{}.CanAccess(""))
}

// TestCallerMatchesOwnershipMiddleware keeps the service-side check and the
// route-level check in agreement.
func TestCallerMatchesOwnershipMiddleware(t *testing.T) {
	t.Parallel()

	callers := []domain.Caller{
		{UserID: "u1", Role: domain.RoleUser},
		{UserID: "u2", Role: domain.RoleUser},
		{UserID: "a1", Role: domain.RoleAdmin},
		{},
	}
	for _, c := range callers {
		for _, owner := range []string{"u1", "a1", ""} {
			allowed := httpx.CheckOwnership(c.Identity(), owner, string(domain.RoleAdmin)) == nil
			require.Equal(t, allowed, c.CanAccess(owner), "caller %+v owner %q", c, owner)
		}
	}
}

func TestEnumsValid(t *testing.T) {
	t.Parallel()

	require.True(t, domain.RoleAdmin.Valid())
	require.False(t, domain.Role("root").Valid())
	require.True(t, domain.StatusInProgress.Valid())
	require.False(t, domain.TaskStatus("done").Valid())
	require.True(t, domain.PriorityHigh.Valid())
	require.False(t, domain.TaskPriority("urgent").Valid())
}

func TestPublicUserDropsCredentials(t *testing.T) {
	t.Parallel()

	u := domain.User{
		ID:               "u1",
		Email:            "jane@example.com",
		PasswordHash:     "$argon2id$...",
		RefreshTokenHash: "fp",
	}
	pub := u.Public()
	require.Equal(t, "u1", pub.ID)
	require.Equal(t, "jane@example.com", pub.Email)
}
