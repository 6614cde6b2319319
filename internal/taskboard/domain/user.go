package domain

import (
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is a user credential record. The refresh and reset fields hold
// fingerprints, never the tokens themselves.
type User struct {
	ID           string
	FullName     string
	Email        string
	Username     string
	PasswordHash string
	Role         Role

	// RefreshTokenHash is the fingerprint of the one refresh token that is
	// currently valid for this user. Empty means logged out.
	RefreshTokenHash string
	LastLogin        *time.Time

	PasswordResetHash      string
	PasswordResetExpiresAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the sanitized view of a User returned to clients.
type PublicUser struct {
	ID        string     `json:"id"`
	FullName  string     `json:"fullName"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	Role      Role       `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Public strips credentials from u.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Caller is the authenticated principal a service call is made on behalf of.
type Caller struct {
	UserID string
	Role   Role
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }

// Identity is the caller as the HTTP layer sees it.
func (c Caller) Identity() httpx.Identity {
	return httpx.Identity{UserID: c.UserID, Role: string(c.Role)}
}

// CanAccess reports whether the caller may act on a resource owned by
// ownerID. It is the same rule RequireOwnership applies to path parameters;
// admins may act on anything.
func (c Caller) CanAccess(ownerID string) bool {
	return httpx.CheckOwnership(c.Identity(), ownerID, string(RoleAdmin)) == nil
}
