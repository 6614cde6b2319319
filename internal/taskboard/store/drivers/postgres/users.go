package postgres

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
		lastLogin, resetExpiresAt sql.NullTime
	)

	err := row.Scan(
		&u.ID, &u.FullName, &u.Email, &u.Username, &u.PasswordHash, &role,
		&refreshHash, &lastLogin, &resetHash, &resetExpiresAt,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.Role = domain.Role(role)
	u.RefreshTokenHash = mapNullString(refreshHash)
	u.LastLogin = fromNullTime(lastLogin)
	u.PasswordResetHash = mapNullString(resetHash)
	u.PasswordResetExpiresAt = fromNullTime(resetExpiresAt)
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return u, nil
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, full_name, email, username, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.FullName, u.Email, u.Username, u.PasswordHash, string(u.Role),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *usersRepo) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`,
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
		`SELECT COUNT(*) FROM users WHERE role = $1`, string(role)).Scan(&n)
	return n, err
}

func (r *usersRepo) UpdateRole(ctx context.Context, userID string, role domain.Role, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET role = $1, updated_at = $2 WHERE id = $3`,
		string(role), now.UTC(), userID)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrNotFound)
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrNotFound)
}

func (r *usersRepo) StartSession(ctx context.Context, userID, refreshHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = $1, last_login = $2, updated_at = $2 WHERE id = $3`,
		refreshHash, now.UTC(), userID)
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
		SET refresh_token_hash = $1, last_login = $2, updated_at = $2
		WHERE id = $3 AND refresh_token_hash = $4`,
		newHash, now.UTC(), userID, oldHash)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrConflict)
}

func (r *usersRepo) ClearRefreshToken(ctx context.Context, userID string, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = NULL, updated_at = $1 WHERE id = $2`,
		now.UTC(), userID)
	return err
}

func (r *usersRepo) UpdatePassword(ctx context.Context, userID, passwordHash string, now time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET password_hash = $1, refresh_token_hash = NULL, last_login = $2, updated_at = $2
		WHERE id = $3`,
		passwordHash, now.UTC(), userID)
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
		SET password_reset_hash = $1, password_reset_expires_at = $2, updated_at = $3
		WHERE id = $4`,
		resetHash, expiresAt.UTC(), now.UTC(), userID)
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
		SET password_hash = $1,
		    password_reset_hash = NULL,
		    password_reset_expires_at = NULL,
		    refresh_token_hash = NULL,
		    updated_at = $2
		WHERE password_reset_hash = $3 AND password_reset_expires_at > $2
		RETURNING id`,
		passwordHash, now.UTC(), resetHash,
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
		WHERE password_reset_expires_at IS NOT NULL AND password_reset_expires_at <= $1`,
		now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
