// Package storetest is a conformance suite every store driver runs against
// itself.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store"
	"github.com/aussiebroadwan/taskboard/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty, migrated store. It is called once per subtest.
type Factory func(t *testing.T) store.Store

// Run executes the suite.
func Run(t *testing.T, newStore Factory) {
	t.Run("users/create and get", func(t *testing.T) { testCreateAndGetUser(t, newStore(t)) })
	t.Run("users/duplicates", func(t *testing.T) { testDuplicateUser(t, newStore(t)) })
	t.Run("users/list", func(t *testing.T) { testListUsers(t, newStore(t)) })
	t.Run("users/role and delete", func(t *testing.T) { testRoleAndDelete(t, newStore(t)) })
	t.Run("users/refresh rotation", func(t *testing.T) { testRefreshRotation(t, newStore(t)) })
	t.Run("users/concurrent rotation", func(t *testing.T) { testConcurrentRotation(t, newStore(t)) })
	t.Run("users/password update", func(t *testing.T) { testUpdatePassword(t, newStore(t)) })
	t.Run("users/password reset", func(t *testing.T) { testPasswordReset(t, newStore(t)) })
	t.Run("tasks/crud", func(t *testing.T) { testTaskCRUD(t, newStore(t)) })
	t.Run("tasks/list and stats", func(t *testing.T) { testTaskListAndStats(t, newStore(t)) })
	t.Run("tx/rollback", func(t *testing.T) { testTxRollback(t, newStore(t)) })
}

var base = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

// NewUser returns a user that can be inserted as is.
func NewUser(name string) domain.User {
	return domain.User{
		ID:           idx.New().String(),
		FullName:     "Test " + name,
		Email:        name + "@example.com",
		Username:     name,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         domain.RoleUser,
		CreatedAt:    base,
		UpdatedAt:    base,
	}
}

func mustCreateUser(t *testing.T, s store.Store, name string) domain.User {
	t.Helper()
	u := NewUser(name)
	require.NoError(t, s.Users().CreateUser(context.Background(), u))
	return u
}

func testCreateAndGetUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "jane")

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.Equal(t, u.Username, got.Username)
	require.Equal(t, domain.RoleUser, got.Role)
	require.Empty(t, got.RefreshTokenHash)
	require.Nil(t, got.LastLogin)
	require.True(t, base.Equal(got.CreatedAt))

	byEmail, err := s.Users().GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	_, err = s.Users().GetUserByID(ctx, idx.New().String())
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Users().GetUserByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testDuplicateUser(t *testing.T, s store.Store) {
	ctx := context.Background()
	mustCreateUser(t, s, "jane")

	sameEmail := NewUser("other")
	sameEmail.Email = "jane@example.com"
	require.ErrorIs(t, s.Users().CreateUser(ctx, sameEmail), store.ErrAlreadyExists)

	sameUsername := NewUser("other2")
	sameUsername.Username = "jane"
	require.ErrorIs(t, s.Users().CreateUser(ctx, sameUsername), store.ErrAlreadyExists)
}

func testListUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	for i := range 5 {
		u := NewUser(fmt.Sprintf("user%d", i))
		u.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Users().CreateUser(ctx, u))
	}

	page, total, err := s.Users().ListUsers(ctx, 2, 0)
	require.NoError(t, err)
	require.Equal(t, 5, total)
	require.Len(t, page, 2)
	require.Equal(t, "user4", page[0].Username, "newest first")

	page, _, err = s.Users().ListUsers(ctx, 10, 4)
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "user0", page[0].Username)

	oldest, err := s.Users().OldestUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "user0", oldest.Username)
}

func testRoleAndDelete(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.Users().OldestUser(ctx)
	require.ErrorIs(t, err, store.ErrNotFound)

	u := mustCreateUser(t, s, "jane")
	mustCreateUser(t, s, "john")

	n, err := s.Users().CountUsersByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, s.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin, base.Add(time.Hour)))
	n, err = s.Users().CountUsersByRole(ctx, domain.RoleAdmin)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RoleAdmin, got.Role)
	require.True(t, base.Add(time.Hour).Equal(got.UpdatedAt))

	require.ErrorIs(t, s.Users().UpdateRole(ctx, "missing", domain.RoleAdmin, base), store.ErrNotFound)

	task := NewTask(u.ID, "cascade me")
	require.NoError(t, s.Tasks().CreateTask(ctx, task))

	require.NoError(t, s.Users().DeleteUser(ctx, u.ID))
	require.ErrorIs(t, s.Users().DeleteUser(ctx, u.ID), store.ErrNotFound)

	_, err = s.Tasks().GetTaskByID(ctx, task.ID)
	require.ErrorIs(t, err, store.ErrNotFound, "tasks go with their owner")
}

func testRefreshRotation(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "jane")
	users := s.Users()

	require.NoError(t, users.StartSession(ctx, u.ID, "fp-1", base))
	got, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "fp-1", got.RefreshTokenHash)
	require.NotNil(t, got.LastLogin)

	require.NoError(t, users.RotateRefreshToken(ctx, u.ID, "fp-1", "fp-2", base.Add(time.Minute)))

	// Replaying the old value fails and leaves the new one in place
	require.ErrorIs(t, users.RotateRefreshToken(ctx, u.ID, "fp-1", "fp-3", base), store.ErrConflict)
	got, err = users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "fp-2", got.RefreshTokenHash)

	// Unknown users never match
	require.ErrorIs(t, users.RotateRefreshToken(ctx, "missing", "fp-2", "fp-3", base), store.ErrConflict)

	require.NoError(t, users.ClearRefreshToken(ctx, u.ID, base))
	require.NoError(t, users.ClearRefreshToken(ctx, u.ID, base), "logout is idempotent")
	require.NoError(t, users.ClearRefreshToken(ctx, "missing", base))
	require.ErrorIs(t, users.RotateRefreshToken(ctx, u.ID, "fp-2", "fp-3", base), store.ErrConflict)

	require.ErrorIs(t, users.StartSession(ctx, "missing", "fp", base), store.ErrNotFound)
}

func testConcurrentRotation(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "jane")
	require.NoError(t, s.Users().StartSession(ctx, u.ID, "fp-0", base))

	const n = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		wins     int
		failures []error
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Users().RotateRefreshToken(ctx, u.ID, "fp-0", fmt.Sprintf("fp-new-%d", i), base)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case !errors.Is(err, store.ErrConflict):
				failures = append(failures, err)
			}
		}()
	}
	wg.Wait()

	require.Empty(t, failures)
	require.Equal(t, 1, wins, "exactly one rotation may win")
}

func testUpdatePassword(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "jane")
	require.NoError(t, s.Users().StartSession(ctx, u.ID, "fp-1", base))

	later := base.Add(time.Hour)
	require.NoError(t, s.Users().UpdatePassword(ctx, u.ID, "new-hash", later))

	got, err := s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Empty(t, got.RefreshTokenHash)
	require.NotNil(t, got.LastLogin)
	require.True(t, later.Equal(*got.LastLogin))

	require.ErrorIs(t, s.Users().UpdatePassword(ctx, "missing", "h", later), store.ErrNotFound)
}

func testPasswordReset(t *testing.T, s store.Store) {
	ctx := context.Background()
	users := s.Users()
	u := mustCreateUser(t, s, "jane")
	require.NoError(t, users.StartSession(ctx, u.ID, "fp-1", base))

	expires := base.Add(10 * time.Minute)
	require.NoError(t, users.SetPasswordReset(ctx, u.ID, "reset-1", expires, base))

	// Wrong hash, then expired
	_, err := users.ConsumePasswordReset(ctx, "reset-x", "h", base)
	require.ErrorIs(t, err, store.ErrConflict)
	_, err = users.ConsumePasswordReset(ctx, "reset-1", "h", expires)
	require.ErrorIs(t, err, store.ErrConflict)

	id, err := users.ConsumePasswordReset(ctx, "reset-1", "new-hash", base.Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, u.ID, id)

	got, err := users.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "new-hash", got.PasswordHash)
	require.Empty(t, got.PasswordResetHash)
	require.Nil(t, got.PasswordResetExpiresAt)
	require.Empty(t, got.RefreshTokenHash, "reset logs the user out")

	// Single use
	_, err = users.ConsumePasswordReset(ctx, "reset-1", "again", base.Add(2*time.Minute))
	require.ErrorIs(t, err, store.ErrConflict)

	// A second request replaces the first, housekeeping clears expired ones
	require.NoError(t, users.SetPasswordReset(ctx, u.ID, "reset-2", expires, base))
	require.NoError(t, users.SetPasswordReset(ctx, u.ID, "reset-3", expires, base))
	_, err = users.ConsumePasswordReset(ctx, "reset-2", "h", base)
	require.ErrorIs(t, err, store.ErrConflict)

	n, err := users.ClearExpiredPasswordResets(ctx, base)
	require.NoError(t, err)
	require.Zero(t, n)
	n, err = users.ClearExpiredPasswordResets(ctx, expires.Add(time.Second))
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.ErrorIs(t, users.SetPasswordReset(ctx, "missing", "r", expires, base), store.ErrNotFound)
}

// NewTask returns a pending, medium priority task owned by userID.
func NewTask(userID, title string) domain.Task {
	return domain.Task{
		ID:          idx.New().String(),
		Title:       title,
		Description: "",
		Status:      domain.StatusPending,
		Priority:    domain.PriorityMedium,
		UserID:      userID,
		CreatedAt:   base,
		UpdatedAt:   base,
	}
}

func testTaskCRUD(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := mustCreateUser(t, s, "jane")

	task := NewTask(u.ID, "write tests")
	task.Description = "all of them"
	require.NoError(t, s.Tasks().CreateTask(ctx, task))

	got, err := s.Tasks().GetTaskByID(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, task.Title, got.Title)
	require.Equal(t, "all of them", got.Description)
	require.Equal(t, u.ID, got.UserID)

	// Unknown owner violates the foreign key
	require.ErrorIs(t, s.Tasks().CreateTask(ctx, NewTask("missing", "orphan")), store.ErrNotFound)

	title := "write more tests"
	status := domain.StatusInProgress
	updated, err := s.Tasks().UpdateTask(ctx, task.ID, domain.TaskPatch{Title: &title, Status: &status}, base.Add(time.Hour))
	require.NoError(t, err)
	require.Equal(t, title, updated.Title)
	require.Equal(t, domain.StatusInProgress, updated.Status)
	require.Equal(t, domain.PriorityMedium, updated.Priority)
	require.Equal(t, "all of them", updated.Description)
	require.True(t, base.Add(time.Hour).Equal(updated.UpdatedAt))

	_, err = s.Tasks().UpdateTask(ctx, "missing", domain.TaskPatch{Title: &title}, base)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Tasks().DeleteTask(ctx, task.ID))
	require.ErrorIs(t, s.Tasks().DeleteTask(ctx, task.ID), store.ErrNotFound)
	_, err = s.Tasks().GetTaskByID(ctx, task.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTaskListAndStats(t *testing.T, s store.Store) {
	ctx := context.Background()
	jane := mustCreateUser(t, s, "jane")
	bob := mustCreateUser(t, s, "bob")

	statuses := []domain.TaskStatus{domain.StatusPending, domain.StatusPending, domain.StatusInProgress, domain.StatusCompleted}
	for i, st := range statuses {
		task := NewTask(jane.ID, fmt.Sprintf("jane-%d", i))
		task.Status = st
		task.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, s.Tasks().CreateTask(ctx, task))
	}
	bobTask := NewTask(bob.ID, "bob-0")
	bobTask.Priority = domain.PriorityHigh
	require.NoError(t, s.Tasks().CreateTask(ctx, bobTask))

	list, total, err := s.Tasks().ListTasks(ctx, domain.TaskFilter{UserID: jane.ID, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Len(t, list, 2)
	require.Equal(t, "jane-3", list[0].Title)

	list, total, err = s.Tasks().ListTasks(ctx, domain.TaskFilter{UserID: jane.ID, Status: domain.StatusPending, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, list, 2)

	list, total, err = s.Tasks().ListTasks(ctx, domain.TaskFilter{Priority: domain.PriorityHigh, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, bob.ID, list[0].UserID)

	_, total, err = s.Tasks().ListTasks(ctx, domain.TaskFilter{Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 5, total)

	stats, err := s.Tasks().TaskStats(ctx, jane.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskStats{Total: 4, Pending: 2, InProgress: 1, Completed: 1}, stats)

	all, err := s.Tasks().TaskStats(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 5, all.Total)
	require.Equal(t, 3, all.Pending)

	none, err := s.Tasks().TaskStats(ctx, idx.New().String())
	require.NoError(t, err)
	require.Equal(t, domain.TaskStats{}, none)
}

func testTxRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	u := NewUser("jane")

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.Users().CreateUser(ctx, u))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().GetUserByID(ctx, u.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	}))
	_, err = s.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, s.Ping(ctx))
}
