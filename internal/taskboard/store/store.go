package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrConflict is returned by conditional updates whose condition no
	// longer holds, e.g. a refresh token that was rotated by someone else.
	ErrConflict = errors.New("store: conditional update matched no rows")
)

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so nobody accidentally starts a transaction inside a
// transaction.
type Store interface {
	Users() Users
	Tasks() Tasks

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail looks up by the normalised (lower-case) email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user, ErrAlreadyExists on a duplicate email
	// or username.
	CreateUser(ctx context.Context, u domain.User) error

	// ListUsers returns a page of users, newest first, and the total count.
	ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error)

	// OldestUser returns the earliest registered user, ErrNotFound when there
	// are none.
	OldestUser(ctx context.Context) (domain.User, error)

	CountUsersByRole(ctx context.Context, role domain.Role) (int, error)

	UpdateRole(ctx context.Context, userID string, role domain.Role, now time.Time) error

	// DeleteUser removes the user and, by cascade, their tasks.
	DeleteUser(ctx context.Context, userID string) error

	// StartSession stores the fingerprint of a freshly issued refresh token
	// and records the login time. Any previous refresh token stops working.
	StartSession(ctx context.Context, userID, refreshHash string, now time.Time) error

	// RotateRefreshToken swaps oldHash for newHash only if oldHash is still
	// the stored value. Returns ErrConflict otherwise, including when the
	// user no longer exists.
	RotateRefreshToken(ctx context.Context, userID, oldHash, newHash string, now time.Time) error

	// ClearRefreshToken logs the user out everywhere. Unknown users are not
	// an error.
	ClearRefreshToken(ctx context.Context, userID string, now time.Time) error

	// UpdatePassword replaces the password hash, clears the refresh token and
	// records now as the last login, in one statement.
	UpdatePassword(ctx context.Context, userID, passwordHash string, now time.Time) error

	// SetPasswordReset stores a reset token fingerprint and its expiry,
	// replacing any earlier one.
	SetPasswordReset(ctx context.Context, userID, resetHash string, expiresAt, now time.Time) error

	// ConsumePasswordReset sets a new password hash for the user holding the
	// unexpired reset fingerprint, clearing the reset fields and the refresh
	// token. Returns the user id, or ErrConflict if no such reset exists.
	ConsumePasswordReset(ctx context.Context, resetHash, passwordHash string, now time.Time) (string, error)

	// ClearExpiredPasswordResets is housekeeping, returns rows touched.
	ClearExpiredPasswordResets(ctx context.Context, now time.Time) (int64, error)
}

type Tasks interface {
	CreateTask(ctx context.Context, t domain.Task) error
	GetTaskByID(ctx context.Context, id string) (domain.Task, error)

	// ListTasks returns a page matching the filter, newest first, and the
	// total number of matches.
	ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, int, error)

	// UpdateTask applies the patch and returns the updated task.
	UpdateTask(ctx context.Context, id string, p domain.TaskPatch, now time.Time) (domain.Task, error)

	DeleteTask(ctx context.Context, id string) error

	// TaskStats counts tasks by status. An empty userID counts everyone's.
	TaskStats(ctx context.Context, userID string) (domain.TaskStats, error)
}
