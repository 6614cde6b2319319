package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

type UserService struct {
	Store store.Store
	Now   func() time.Time
}

func (s *UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return u, nil
}

// Profile returns the caller's own record.
func (s *UserService) Profile(ctx context.Context, caller domain.Caller) (domain.User, error) {
	return s.GetUserByID(ctx, caller.UserID)
}

// Get returns a user the caller may see: themselves, or anyone for admins.
func (s *UserService) Get(ctx context.Context, caller domain.Caller, userID string) (domain.User, error) {
	if !caller.CanAccess(userID) {
		return domain.User{}, ErrForbidden
	}
	return s.GetUserByID(ctx, userID)
}

// List returns a page of users, newest first. Admin only.
func (s *UserService) List(ctx context.Context, caller domain.Caller, limit, offset int) ([]domain.User, int, error) {
	if !caller.IsAdmin() {
		return nil, 0, ErrForbidden
	}
	limit, offset = Page(limit, offset)
	return s.Store.Users().ListUsers(ctx, limit, offset)
}

// UpdateRole changes a user's role. Tokens already issued keep the old role
// until they are refreshed. Admin only.
func (s *UserService) UpdateRole(ctx context.Context, caller domain.Caller, userID string, role domain.Role) (domain.User, error) {
	if !caller.IsAdmin() {
		return domain.User{}, ErrForbidden
	}

	errs := make(map[string]string)
	if role == "" {
		errs["role"] = reasonRequired
	} else {
		validateRole(errs, role)
	}
	if err := invalid(errs); err != nil {
		return domain.User{}, err
	}

	if err := s.Store.Users().UpdateRole(ctx, userID, role, s.now().UTC()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}

	slogx.FromContext(ctx).Info("user role changed",
		slog.String("user_id", userID),
		slog.String("role", string(role)),
		slog.String("changed_by", caller.UserID),
	)
	return s.GetUserByID(ctx, userID)
}

// Delete removes a user and, through the foreign key, all of their tasks.
// Admin only.
func (s *UserService) Delete(ctx context.Context, caller domain.Caller, userID string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}

	if err := s.Store.Users().DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	slogx.FromContext(ctx).Info("user deleted",
		slog.String("user_id", userID),
		slog.String("deleted_by", caller.UserID),
	)
	return nil
}
