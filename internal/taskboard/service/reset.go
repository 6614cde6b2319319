package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/store"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/aussiebroadwan/taskboard/pkg/notify"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

const DefaultResetTTL = 10 * time.Minute

// ResetService issues and redeems one-time password reset tokens. Only the
// token's fingerprint is stored; the plaintext goes out once, inside the
// reset URL handed to the Notifier.
type ResetService struct {
	Store       store.Store
	Notifier    notify.Notifier
	FrontendURL string
	TTL         time.Duration

	Now func() time.Time
}

func (s *ResetService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ResetService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultResetTTL
	}
	return s.TTL
}

// ResetURL builds the link the user follows to pick a new password.
func (s *ResetService) ResetURL(token string) string {
	return strings.TrimRight(s.FrontendURL, "/") + "/reset-password/" + token
}

// RequestReset starts a reset for email. An unknown email is not an error so
// the caller can answer the same way whether the account exists or not. A
// new request replaces any reset token issued before. Delivery failures are
// logged only, for the same reason.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	l := slogx.FromContext(ctx)
	email = normalizeEmail(email)

	errs := make(map[string]string)
	validateEmail(errs, "email", email)
	if err := invalid(errs); err != nil {
		return err
	}

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			l.Info("password reset requested for unknown email")
			return nil
		}
		return err
	}

	token, fingerprint, err := cryptox.NewSecretToken()
	if err != nil {
		return err
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.ttl())
	if err := s.Store.Users().SetPasswordReset(ctx, u.ID, fingerprint, expiresAt, now); err != nil {
		return err
	}

	notice := notify.ResetNotice{
		UserID:    u.ID,
		Email:     u.Email,
		FullName:  u.FullName,
		ResetURL:  s.ResetURL(token),
		ExpiresAt: expiresAt,
	}
	if err := s.Notifier.NotifyPasswordReset(ctx, notice); err != nil {
		l.Error("failed to deliver password reset", slog.String("user_id", u.ID), slog.Any("error", err))
		return nil
	}

	l.Info("password reset issued", slog.String("user_id", u.ID), slog.Time("expires_at", expiresAt))
	return nil
}

// CompleteReset sets a new password using a reset token. The token is
// consumed atomically with the password change and only while unexpired;
// the user's refresh token is cleared as well.
func (s *ResetService) CompleteReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)

	errs := make(map[string]string)
	if token == "" {
		errs["token"] = reasonRequired
	}
	validatePassword(errs, "newPassword", newPassword)
	if err := invalid(errs); err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.Store.Users().ConsumePasswordReset(ctx, cryptox.FingerprintToken(token), hash, s.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrInvalidResetToken
		}
		return err
	}

	slogx.FromContext(ctx).Info("password reset completed", slog.String("user_id", userID))
	return nil
}
