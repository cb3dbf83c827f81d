package daemon

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSender struct {
	sent []Notification
	err  error
}

func (s *fakeSender) Send(n Notification) error {
	s.sent = append(s.sent, n)
	return s.err
}

func TestNotifier_RateLimit(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, testLogger())
	n.SetMinInterval(10 * time.Second)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }

	n.NotifySpawnFailed(errors.New("exec: not found"))
	n.NotifySpawnFailed(errors.New("exec: not found"))
	n.NotifyConfigError(errors.New("bad combo"))
	require.Len(t, sender.sent, 2, "same key is rate-limited, other keys are not")

	assert.Equal(t, NotificationLevelError, sender.sent[0].Level)
	assert.Contains(t, sender.sent[0].Body, "exec: not found")
	assert.Equal(t, NotificationLevelWarning, sender.sent[1].Level)

	now = now.Add(10 * time.Second)
	n.NotifySpawnFailed(errors.New("again"))
	assert.Len(t, sender.sent, 3)
}

func TestNotifier_SendErrorIsSwallowed(t *testing.T) {
	sender := &fakeSender{err: errors.New("no notification server")}
	n := NewNotifier(sender, testLogger())
	assert.NotPanics(t, func() { n.Notify("k", Notification{Summary: "s"}) })
	assert.Len(t, sender.sent, 1)
}

func TestNotifier_Disabled(t *testing.T) {
	var nilNotifier *Notifier
	assert.NotPanics(t, func() { nilNotifier.NotifyConfigError(errors.New("x")) })

	n := NewNotifier(nil, nil)
	assert.NotPanics(t, func() { n.NotifySpawnFailed(errors.New("x")) })
}
