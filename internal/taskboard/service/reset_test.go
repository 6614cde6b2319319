package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const resetPrefix = "http://localhost:3000/reset-password/"

func tokenFromURL(t *testing.T, url string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(url, resetPrefix), "unexpected reset url %q", url)
	return strings.TrimPrefix(url, resetPrefix)
}

func TestRequestReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "")

	before := time.Now()
	require.NoError(t, f.resets.RequestReset(ctx, "ALICE@example.com"))

	notice := f.notifier.last(t)
	require.Equal(t, alice.ID, notice.UserID)
	require.Equal(t, "alice@example.com", notice.Email)
	require.WithinDuration(t, before.Add(DefaultResetTTL), notice.ExpiresAt, 5*time.Second)

	token := tokenFromURL(t, notice.ResetURL)
	require.Len(t, token, 43)

	stored, err := f.store.Users().GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Equal(t, cryptox.FingerprintToken(token), stored.PasswordResetHash)
	require.NotEqual(t, token, stored.PasswordResetHash)
	require.NotNil(t, stored.PasswordResetExpiresAt)
}

func TestRequestReset_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.resets.RequestReset(context.Background(), "ghost@example.com"))
	require.Empty(t, f.notifier.notices)
}

func TestRequestReset_Validation(t *testing.T) {
	f := newFixture(t)

	requireFieldError(t, f.resets.RequestReset(context.Background(), ""), "email")
	requireFieldError(t, f.resets.RequestReset(context.Background(), "nope"), "email")
}

func TestRequestReset_NotifierFailureIsSilent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "")
	f.notifier.err = errors.New("broker down")

	require.NoError(t, f.resets.RequestReset(ctx, "alice@example.com"))
	require.NoError(t, f.resets.RequestReset(ctx, "ghost@example.com"))

	stored, err := f.store.Users().GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stored.PasswordResetHash, "the token is stored even if delivery failed")
}

func TestCompleteReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "")
	session := f.login(t, "alice")

	require.NoError(t, f.resets.RequestReset(ctx, "alice@example.com"))
	token := tokenFromURL(t, f.notifier.last(t).ResetURL)

	requireFieldError(t, f.resets.CompleteReset(ctx, token, "weak"), "newPassword")
	requireFieldError(t, f.resets.CompleteReset(ctx, "", "NewPass123"), "token")

	require.ErrorIs(t, f.resets.CompleteReset(ctx, "wrong-token", "NewPass123"), ErrInvalidResetToken)

	require.NoError(t, f.resets.CompleteReset(ctx, token, "NewPass123"))

	// Single use.
	require.ErrorIs(t, f.resets.CompleteReset(ctx, token, "Other1234"), ErrInvalidResetToken)

	// The old session is gone.
	_, err := f.sessions.Refresh(ctx, session.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.sessions.Login(ctx, "alice@example.com", "NewPass123")
	require.NoError(t, err)

	stored, err := f.store.Users().GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, stored.PasswordResetHash)
	require.Nil(t, stored.PasswordResetExpiresAt)
}

func TestCompleteReset_Expired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "")

	require.NoError(t, f.resets.RequestReset(ctx, "alice@example.com"))
	token := tokenFromURL(t, f.notifier.last(t).ResetURL)

	f.resets.Now = func() time.Time { return time.Now().Add(DefaultResetTTL + time.Minute) }
	require.ErrorIs(t, f.resets.CompleteReset(ctx, token, "NewPass123"), ErrInvalidResetToken)
}

func TestCompleteReset_NewRequestReplacesOld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "alice", "")

	require.NoError(t, f.resets.RequestReset(ctx, "alice@example.com"))
	first := tokenFromURL(t, f.notifier.last(t).ResetURL)
	require.NoError(t, f.resets.RequestReset(ctx, "alice@example.com"))
	second := tokenFromURL(t, f.notifier.last(t).ResetURL)
	require.NotEqual(t, first, second)

	require.ErrorIs(t, f.resets.CompleteReset(ctx, first, "NewPass123"), ErrInvalidResetToken)
	require.NoError(t, f.resets.CompleteReset(ctx, second, "NewPass123"))
}

func TestHousekeeping_ClearsExpiredResets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.register(t, "alice", "")
	f.register(t, "bob", "")

	require.NoError(t, f.resets.RequestReset(ctx, "alice@example.com"))
	require.NoError(t, f.resets.RequestReset(ctx, "bob@example.com"))

	hk := NewHousekeepingService(f.store, discardLogger(), time.Hour)
	require.Equal(t, int64(0), hk.Cleanup(ctx))

	hk.Now = func() time.Time { return time.Now().Add(DefaultResetTTL + time.Minute) }
	require.Equal(t, int64(2), hk.Cleanup(ctx))

	stored, err := f.store.Users().GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	require.Empty(t, stored.PasswordResetHash)
}

func TestHousekeeping_StartStop(t *testing.T) {
	f := newFixture(t)

	hk := NewHousekeepingService(f.store, discardLogger(), 10*time.Millisecond)
	hk.Start()
	time.Sleep(30 * time.Millisecond)
	hk.Stop()
}
