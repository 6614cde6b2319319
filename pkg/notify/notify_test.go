package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var notice = ResetNotice{
	UserID:    "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV",
	Email:     "jane@example.com",
	FullName:  "Jane Doe",
	ResetURL:  "http://localhost:3000/reset-password/secret-token",
	ExpiresAt: time.Unix(1700000600, 0).UTC(),
}

func TestKafkaNotifier_Publishes(t *testing.T) {
	fw := &fakeWriter{}
	k := &KafkaNotifier{writer: fw, topic: DefaultResetTopic}

	require.NoError(t, k.NotifyPasswordReset(context.Background(), notice))
	require.Len(t, fw.msgs, 1)
	require.Equal(t, notice.UserID, string(fw.msgs[0].Key))

	var ev resetEvent
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &ev))
	require.Equal(t, "password_reset_requested", ev.Type)
	require.Equal(t, notice, ev.Payload)

	require.NoError(t, k.Close())
	require.True(t, fw.closed)
}

func TestKafkaNotifier_WrapsWriteError(t *testing.T) {
	boom := errors.New("broker down")
	k := &KafkaNotifier{writer: &fakeWriter{err: boom}, topic: "t"}

	err := k.NotifyPasswordReset(context.Background(), notice)
	require.ErrorIs(t, err, boom)
}

func TestNewKafkaNotifier_DefaultTopic(t *testing.T) {
	k := NewKafkaNotifier([]string{"localhost:9092"}, "")
	require.Equal(t, DefaultResetTopic, k.topic)
	require.NoError(t, k.Close())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	t.Run("hides url by default", func(t *testing.T) {
		buf.Reset()
		n := &LogNotifier{Logger: logger}
		require.NoError(t, n.NotifyPasswordReset(context.Background(), notice))
		require.Contains(t, buf.String(), notice.UserID)
		require.NotContains(t, buf.String(), "secret-token")
	})

	t.Run("includes url when asked", func(t *testing.T) {
		buf.Reset()
		n := &LogNotifier{Logger: logger, IncludeURL: true}
		require.NoError(t, n.NotifyPasswordReset(context.Background(), notice))
		require.Contains(t, buf.String(), "secret-token")
	})
}
