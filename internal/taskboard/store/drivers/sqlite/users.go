package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, full_name, email, username, password_hash, role,
	refresh_token_hash, last_login, password_reset_hash, password_reset_expires_at,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u                         domain.User
		role                      string
		refreshHash, resetHash    sql.NullString
		lastLogin, resetExpiresAt sql.NullInt64
		createdAt, updatedAt      int64
	)

	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.Username, &u.PasswordHash, &role,
		&refreshHash, &lastLogin, &resetHash, &resetExpiresAt,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.Role = domain.Role(role)
	u.RefreshTokenHash = mapNullString(refreshHash)
	u.LastLogin = fromNullMillis(lastLogin)
	u.PasswordResetHash = mapNullString(resetHash)
	u.PasswordResetExpiresAt = fromNullMillis(resetExpiresAt)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, full_name, email, username, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.FullName, u.Email, u.Username, u.PasswordHash, string(u.Role),
		toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := make([]domain.User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	return users, total, rows.Err()
}

func (r *usersRepo) OldestUser(ctx context.Context) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC LIMIT 1`))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CountUsersByRole(ctx context.Context, role domain.Role) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = ?`, string(role)).Scan(&n)
	return n, err
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		string(role), toMillis(now), userID)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrNotFound)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrNotFound)
}

func (r *usersRepo) StartSession(ctx context.Context, userID, refreshHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = ?, last_login = ?, updated_at = ? WHERE id = ?`,
		refreshHash, toMillis(now), toMillis(now), userID)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrNotFound)
}

func (r *usersRepo) RotateRefreshToken(
	ctx context.Context,
	userID, oldHash, newHash string,
	now time.Time,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET refresh_token_hash = ?, last_login = ?, updated_at = ?
		WHERE id = ? AND refresh_token_hash = ?`,
		newHash, toMillis(now), toMillis(now), userID, oldHash)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrConflict)
}

func (r *usersRepo) ClearRefreshToken(ctx context.Context, userID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = NULL, updated_at = ? WHERE id = ?`,
		toMillis(now), userID)
	return err
}

func (r *usersRepo) UpdatePassword(ctx context.Context, userID, passwordHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = ?, refresh_token_hash = NULL, last_login = ?, updated_at = ?
		WHERE id = ?`,
		passwordHash, toMillis(now), toMillis(now), userID)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrNotFound)
}

func (r *usersRepo) SetPasswordReset(
	ctx context.Context,
	userID, resetHash string,
	expiresAt, now time.Time,
) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_reset_hash = ?, password_reset_expires_at = ?, updated_at = ?
		WHERE id = ?`,
		resetHash, toMillis(expiresAt), toMillis(now), userID)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrNotFound)
}

func (r *usersRepo) ConsumePasswordReset(
	ctx context.Context,
	resetHash, passwordHash string,
	now time.Time,
) (string, error) {
	var userID string
	err := r.db.QueryRowContext(ctx, `
		UPDATE users
		SET password_hash = ?,
		    password_reset_hash = NULL,
		    password_reset_expires_at = NULL,
		    refresh_token_hash = NULL,
		    updated_at = ?
		WHERE password_reset_hash = ? AND password_reset_expires_at > ?
		RETURNING id`,
		passwordHash, toMillis(now), resetHash, toMillis(now),
	).Scan(&userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", store.ErrConflict
		}
		return "", err
	}
	return userID, nil
}

func (r *usersRepo) ClearExpiredPasswordResets(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_reset_hash = NULL, password_reset_expires_at = NULL
		WHERE password_reset_expires_at IS NOT NULL AND password_reset_expires_at <= ?`,
		toMillis(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
