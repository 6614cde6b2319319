package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/aussiebroadwan/taskboard/pkg/idx"
	"github.com/aussiebroadwan/taskboard/pkg/lockout"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

// LoginLimiter tracks failed logins per account. *lockout.Limiter
// implements it.
type LoginLimiter interface {
	Check(ctx context.Context, identifier string) error
	Fail(ctx context.Context, identifier string) error
	Reset(ctx context.Context, identifier string) error
}

// SessionService runs the login/refresh/logout lifecycle. A user holds at
// most one valid refresh token; its fingerprint lives on the user record and
// every refresh swaps it for a new one.
type SessionService struct {
	Store  store.Store
	Tokens *TokenService

	// Lockout is optional. When nil, failed logins are not counted.
	Lockout LoginLimiter

	Now func() time.Time
}

type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
	Role     domain.Role
}

// LoginResult is the outcome of a successful login or refresh.
type LoginResult struct {
	User   domain.User
	Tokens domain.TokenPair
}

func (s *SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Register creates a user account. Email and username are stored lower-cased;
// a blank full name defaults to the username.
func (s *SessionService) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	l := slogx.FromContext(ctx)

	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = normalizeUsername(in.Username)
	in.Email = normalizeEmail(in.Email)
	if in.Role == "" {
		in.Role = domain.RoleUser
	}

	errs := make(map[string]string)
	validateFullName(errs, in.FullName)
	validateUsername(errs, in.Username)
	validateEmail(errs, "email", in.Email)
	validatePassword(errs, "password", in.Password)
	validateRole(errs, in.Role)
	if err := invalid(errs); err != nil {
		return domain.User{}, err
	}
	if in.FullName == "" {
		in.FullName = in.Username
	}

	if _, err := s.Store.Users().GetUserByEmail(ctx, in.Email); err == nil {
		l.Info("registration rejected, email taken")
		return domain.User{}, fmt.Errorf("%w: email already registered", ErrConflict)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		FullName:     in.FullName,
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, fmt.Errorf("%w: email or username already registered", ErrConflict)
		}
		return domain.User{}, err
	}

	l.Info("user registered", slog.String("user_id", u.ID), slog.String("role", string(u.Role)))
	return u, nil
}

// Login checks the credentials and starts a new session, replacing any
// refresh token the user held before. Unknown email and wrong password both
// return ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	l := slogx.FromContext(ctx)
	email = normalizeEmail(email)

	errs := make(map[string]string)
	if email == "" {
		errs["email"] = reasonRequired
	}
	if password == "" {
		errs["password"] = reasonRequired
	}
	if err := invalid(errs); err != nil {
		return LoginResult{}, err
	}

	if err := s.checkLockout(ctx, email); err != nil {
		return LoginResult{}, err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			cryptox.EqualizeTiming(password)
			s.recordFailure(ctx, email)
			l.Info("login failed", slog.String("reason", "unknown_email"))
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if err := cryptox.VerifyPassword(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			s.recordFailure(ctx, email)
			l.Info("login failed", slog.String("reason", "bad_password"), slog.String("user_id", u.ID))
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("verify password for %s: %w", u.ID, err)
	}

	pair, err := s.Tokens.IssuePair(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now().UTC()
	if err := s.Store.Users().StartSession(ctx, u.ID, cryptox.FingerprintToken(pair.RefreshToken), now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}

	if s.Lockout != nil {
		if err := s.Lockout.Reset(ctx, email); err != nil {
			l.Warn("failed to reset login counter", slog.Any("error", err))
		}
	}

	u.LastLogin = &now
	u.UpdatedAt = now
	l.Info("user logged in", slog.String("user_id", u.ID))

	return LoginResult{User: u, Tokens: pair}, nil
}

// checkLockout fails open when the limiter is unreachable.
func (s *SessionService) checkLockout(ctx context.Context, email string) error {
	if s.Lockout == nil {
		return nil
	}

	err := s.Lockout.Check(ctx, email)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, lockout.ErrLocked):
		slogx.FromContext(ctx).Warn("login rejected, account locked out")
		return ErrTooManyAttempts
	default:
		slogx.FromContext(ctx).Warn("login lockout unavailable", slog.Any("error", err))
		return nil
	}
}

func (s *SessionService) recordFailure(ctx context.Context, email string) {
	if s.Lockout == nil {
		return
	}

	err := s.Lockout.Fail(ctx, email)
	if err != nil && !errors.Is(err, lockout.ErrLocked) {
		slogx.FromContext(ctx).Warn("failed to record login failure", slog.Any("error", err))
	}
}

// Refresh exchanges a refresh token for a new pair. The stored fingerprint
// is swapped with a conditional update, so of several concurrent refreshes
// with the same token exactly one succeeds and a rotated-out token never
// works again.
func (s *SessionService) Refresh(ctx context.Context, refreshToken string) (LoginResult, error) {
	l := slogx.FromContext(ctx)

	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return LoginResult{}, ErrUnauthorized
	}

	claims, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		l.Info("refresh rejected", slog.Any("error", err))
		return LoginResult{}, ErrUnauthorized
	}

	u, err := s.Store.Users().GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, err
	}

	oldFP := cryptox.FingerprintToken(refreshToken)
	if u.RefreshTokenHash != oldFP {
		l.Warn("refresh token reuse detected", slog.String("user_id", u.ID))
		return LoginResult{}, ErrUnauthorized
	}

	pair, err := s.Tokens.IssuePair(u.ID, u.Role)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now().UTC()
	err = s.Store.Users().RotateRefreshToken(ctx, u.ID, oldFP, cryptox.FingerprintToken(pair.RefreshToken), now)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			l.Warn("refresh lost rotation race", slog.String("user_id", u.ID))
			return LoginResult{}, ErrUnauthorized
		}
		return LoginResult{}, err
	}

	u.LastLogin = &now
	u.UpdatedAt = now
	return LoginResult{User: u, Tokens: pair}, nil
}

// Logout forgets the user's refresh token. Calling it again is harmless.
func (s *SessionService) Logout(ctx context.Context, userID string) error {
	if err := s.Store.Users().ClearRefreshToken(ctx, userID, s.now().UTC()); err != nil {
		return err
	}
	slogx.FromContext(ctx).Info("user logged out", slog.String("user_id", userID))
	return nil
}

// ChangePassword replaces the password after checking the current one and
// ends every session of the user.
func (s *SessionService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	errs := make(map[string]string)
	if oldPassword == "" {
		errs["oldPassword"] = reasonRequired
	}
	validatePassword(errs, "newPassword", newPassword)
	if _, bad := errs["newPassword"]; !bad && oldPassword != "" && oldPassword == newPassword {
		errs["newPassword"] = "must differ from the old password"
	}
	if err := invalid(errs); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if err := cryptox.VerifyPassword(oldPassword, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrPasswordMismatch) {
			return fieldError("oldPassword", "is incorrect")
		}
		return fmt.Errorf("verify password for %s: %w", u.ID, err)
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.Store.Users().UpdatePassword(ctx, u.ID, hash, s.now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("password changed", slog.String("user_id", u.ID))
	return nil
}
