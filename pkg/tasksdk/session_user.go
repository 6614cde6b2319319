package tasksdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Profile returns the session's own user record.
func (s *Session) Profile(ctx context.Context) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/users/profile", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeEnvelope(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches a user by id. Non-admins may only fetch themselves.
func (s *Session) GetUser(ctx context.Context, id string) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/users/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeEnvelope(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// ============================================================================
// Admin operations
// ============================================================================

// ListUsers returns a page of users. Requires the admin role.
func (s *Session) ListUsers(ctx context.Context, limit, offset int) (*Page[User], error) {
	v := url.Values{}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		v.Set("offset", strconv.Itoa(offset))
	}
	path := "/users"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var page Page[User]
	if err := decodeEnvelope(resp, &page, http.StatusOK); err != nil {
		return nil, err
	}
	return &page, nil
}

// UpdateUserRole changes a user's role. Requires the admin role.
func (s *Session) UpdateUserRole(ctx context.Context, id string, role Role) (*User, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/users/"+url.PathEscape(id)+"/role", UpdateRoleRequest{Role: role})
	if err != nil {
		return nil, err
	}

	var user User
	if err := decodeEnvelope(resp, &user, http.StatusOK); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes a user and their tasks. Requires the admin role.
func (s *Session) DeleteUser(ctx context.Context, id string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, nil, http.StatusOK)
}
