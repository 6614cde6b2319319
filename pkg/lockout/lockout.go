// Package lockout counts failed logins per account in Redis and locks the
// account out for a cooldown once the budget is spent.
//
// Counters use fixed windows: INCR, with EXPIRE set on the first hit only.
// A successful login deletes the counter.
package lockout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrLocked      = errors.New("lockout: too many failed attempts")
	ErrUnavailable = errors.New("lockout: redis unavailable")
)

const keyPrefix = "tb:login:"

type Config struct {
	MaxAttempts int
	Cooldown    time.Duration
}

// Limiter tracks failed logins. The zero Config is replaced with 5 attempts
// per 15 minutes.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
}

func New(client redis.UniversalClient, cfg Config) *Limiter {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Minute
	}
	return &Limiter{redis: client, config: cfg}
}

// Check returns ErrLocked if identifier has used up its attempts.
func (l *Limiter) Check(ctx context.Context, identifier string) error {
	count, err := l.redis.Get(ctx, key(identifier)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrLocked
	}
	return nil
}

// Fail records a failed attempt and returns ErrLocked once this attempt
// exhausts the budget.
func (l *Limiter) Fail(ctx context.Context, identifier string) error {
	k := key(identifier)

	count, err := l.redis.Incr(ctx, k).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, k, l.config.Cooldown).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	if count >= int64(l.config.MaxAttempts) {
		return ErrLocked
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *Limiter) Reset(ctx context.Context, identifier string) error {
	if err := l.redis.Del(ctx, key(identifier)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (l *Limiter) Ping(ctx context.Context) error {
	if err := l.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func key(identifier string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(identifier))
}
