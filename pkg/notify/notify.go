// Package notify delivers password reset links to users. Actual email
// delivery is somebody else's job: notifiers either log the link or publish
// it for a mailer to pick up.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// ResetNotice is everything a mailer needs to send a reset email.
type ResetNotice struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier hands a reset notice to whatever delivers it.
type Notifier interface {
	NotifyPasswordReset(ctx context.Context, n ResetNotice) error
}

// LogNotifier writes notices to the log. The URL is a live credential, so it
// is only included when IncludeURL is set (local development).
type LogNotifier struct {
	Logger     *slog.Logger
	IncludeURL bool
}

func (n *LogNotifier) NotifyPasswordReset(ctx context.Context, notice ResetNotice) error {
	args := []any{
		"user_id", notice.UserID,
		"expires_at", notice.ExpiresAt,
	}
	if n.IncludeURL {
		args = append(args, "reset_url", notice.ResetURL)
	}

	n.Logger.InfoContext(ctx, "password reset requested", args...)
	return nil
}
