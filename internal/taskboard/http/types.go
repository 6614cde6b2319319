package http

import (
	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

// Request and response bodies. The envelopes exist for the API docs; the
// handlers write httpx.Envelope directly.

type RegisterRequest struct {
	FullName string `json:"fullName,omitempty" example:"Alice Example"`
	Username string `json:"username" example:"alice"`
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"Abcd1234"`
	Role     string `json:"role,omitempty" enums:"user,admin"`
}

type LoginRequest struct {
	Email    string `json:"email" example:"alice@example.com"`
	Password string `json:"password" example:"Abcd1234"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" example:"alice@example.com"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// SessionResponse is returned by login and refresh.
type SessionResponse struct {
	User         domain.PublicUser `json:"user"`
	AccessToken  string            `json:"accessToken"`
	RefreshToken string            `json:"refreshToken"`
}

type CreateTaskRequest struct {
	Title       string `json:"title" example:"Write report"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty" enums:"pending,in_progress,completed"`
	Priority    string `json:"priority,omitempty" enums:"low,medium,high"`
}

// UpdateTaskRequest is a partial update; omitted fields are left unchanged.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty" enums:"pending,in_progress,completed"`
	Priority    *string `json:"priority,omitempty" enums:"low,medium,high"`
}

// BootstrapRequest names the user to promote. Empty means the earliest
// registered user.
type BootstrapRequest struct {
	Email string `json:"email,omitempty" example:"alice@example.com"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" enums:"user,admin"`
}

// Page is a slice of results plus paging information.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type HealthChecks struct {
	Database string `json:"database"`
	Redis    string `json:"redis,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// ErrorResponse documents the failure envelope.
type ErrorResponse struct {
	Success bool               `json:"success" example:"false"`
	Message string             `json:"message"`
	Errors  []httpx.FieldError `json:"errors,omitempty"`
}

// UserResponse documents a success envelope carrying a user.
type UserResponse struct {
	Success bool              `json:"success" example:"true"`
	Message string            `json:"message"`
	Data    domain.PublicUser `json:"data"`
}

type SessionEnvelope struct {
	Success bool            `json:"success" example:"true"`
	Message string          `json:"message"`
	Data    SessionResponse `json:"data"`
}

type TaskResponse struct {
	Success bool        `json:"success" example:"true"`
	Message string      `json:"message"`
	Data    domain.Task `json:"data"`
}

type TaskPageResponse struct {
	Success bool              `json:"success" example:"true"`
	Message string            `json:"message"`
	Data    Page[domain.Task] `json:"data"`
}

type UserPageResponse struct {
	Success bool                    `json:"success" example:"true"`
	Message string                  `json:"message"`
	Data    Page[domain.PublicUser] `json:"data"`
}

type StatsResponse struct {
	Success bool             `json:"success" example:"true"`
	Message string           `json:"message"`
	Data    domain.TaskStats `json:"data"`
}

type MessageResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message"`
}
