package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

var (
	ErrBootstrapDisabled     = errors.New("bootstrap not enabled")
	ErrBootstrapAlready      = errors.New("system already bootstrapped")
	ErrBootstrapUnauthorized = errors.New("unauthorized bootstrap attempt")
)

// BootstrapService hands out the first admin role. It only works while no
// admin exists and the caller presents the configured token.
type BootstrapService struct {
	Store store.Store
	Token string // Pre-configured bootstrap token, empty disables bootstrap

	Now func() time.Time
}

func (s *BootstrapService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *BootstrapService) Enabled() bool {
	return s.Token != ""
}

// IsBootstrapped reports whether any admin account exists.
func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	n, err := s.Store.Users().CountUsersByRole(ctx, domain.RoleAdmin)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Bootstrap promotes a registered user to admin. With an empty email the
// earliest registered user is promoted. The admin check and the promotion
// run in one transaction. The new role shows up in tokens issued from the
// next login or refresh.
func (s *BootstrapService) Bootstrap(ctx context.Context, token, email string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	// 1. Check if enabled
	if !s.Enabled() {
		return domain.User{}, ErrBootstrapDisabled
	}

	// 2. Validate provided token
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return domain.User{}, ErrBootstrapUnauthorized
	}

	email = normalizeEmail(email)
	if email != "" {
		errs := make(map[string]string)
		validateEmail(errs, "email", email)
		if err := invalid(errs); err != nil {
			return domain.User{}, err
		}
	}

	// 3. Pick and promote the user in a transaction
	var admin domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		n, err := tx.Users().CountUsersByRole(ctx, domain.RoleAdmin)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrBootstrapAlready
		}

		var u domain.User
		if email != "" {
			u, err = tx.Users().GetUserByEmail(ctx, email)
		} else {
			u, err = tx.Users().OldestUser(ctx)
		}
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: no user to promote", ErrNotFound)
		}
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if err := tx.Users().UpdateRole(ctx, u.ID, domain.RoleAdmin, now); err != nil {
			return err
		}

		u.Role = domain.RoleAdmin
		u.UpdatedAt = now
		admin = u
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrBootstrapAlready) {
			l.Warn("attempted bootstrap on already-bootstrapped system")
		}
		return domain.User{}, err
	}

	l.Info("successfully bootstrapped system", slog.String("admin_user_id", admin.ID))
	return admin, nil
}
