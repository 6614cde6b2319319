package service

import (
	"context"
	"testing"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/stretchr/testify/require"
)

func TestUserService(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	aliceUser := f.register(t, "alice", "")
	alice := caller(aliceUser)
	bob := caller(f.register(t, "bob", ""))
	admin := caller(f.register(t, "admin", domain.RoleAdmin))

	t.Run("profile", func(t *testing.T) {
		u, err := f.users.Profile(ctx, alice)
		require.NoError(t, err)
		require.Equal(t, aliceUser.Email, u.Email)
	})

	t.Run("get self or admin only", func(t *testing.T) {
		_, err := f.users.Get(ctx, alice, alice.UserID)
		require.NoError(t, err)

		_, err = f.users.Get(ctx, bob, alice.UserID)
		require.ErrorIs(t, err, ErrForbidden)

		_, err = f.users.Get(ctx, admin, alice.UserID)
		require.NoError(t, err)

		_, err = f.users.Get(ctx, admin, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list is admin only", func(t *testing.T) {
		_, _, err := f.users.List(ctx, alice, 10, 0)
		require.ErrorIs(t, err, ErrForbidden)

		users, total, err := f.users.List(ctx, admin, 2, 0)
		require.NoError(t, err)
		require.Equal(t, 3, total)
		require.Len(t, users, 2)
	})

	t.Run("update role", func(t *testing.T) {
		_, err := f.users.UpdateRole(ctx, alice, bob.UserID, domain.RoleAdmin)
		require.ErrorIs(t, err, ErrForbidden)

		_, err = f.users.UpdateRole(ctx, admin, bob.UserID, "root")
		requireFieldError(t, err, "role")

		_, err = f.users.UpdateRole(ctx, admin, bob.UserID, "")
		requireFieldError(t, err, "role")

		_, err = f.users.UpdateRole(ctx, admin, "missing", domain.RoleAdmin)
		require.ErrorIs(t, err, ErrNotFound)

		u, err := f.users.UpdateRole(ctx, admin, bob.UserID, domain.RoleAdmin)
		require.NoError(t, err)
		require.Equal(t, domain.RoleAdmin, u.Role)
	})

	t.Run("delete cascades tasks", func(t *testing.T) {
		task, err := f.tasks.Create(ctx, alice, CreateTaskInput{Title: "mine"})
		require.NoError(t, err)

		require.ErrorIs(t, f.users.Delete(ctx, alice, alice.UserID), ErrForbidden)
		require.NoError(t, f.users.Delete(ctx, admin, alice.UserID))
		require.ErrorIs(t, f.users.Delete(ctx, admin, alice.UserID), ErrNotFound)

		_, err = f.tasks.Get(ctx, admin, task.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}
