package daemon

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"
)

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = "/org/freedesktop/Notifications"
	notificationsIface = "org.freedesktop.Notifications"
)

// NotificationLevel indicates the severity of a daemon notification.
type NotificationLevel int

const (
	// NotificationLevelInfo is for informational messages (low urgency).
	NotificationLevelInfo NotificationLevel = iota
	// NotificationLevelWarning is for warning messages (normal urgency).
	NotificationLevelWarning
	// NotificationLevelError is for error messages (critical urgency).
	NotificationLevelError
)

// Notification is one desktop notification.
type Notification struct {
	Summary string
	Body    string
	Level   NotificationLevel
}

// Sender delivers notifications.
type Sender interface {
	Send(n Notification) error
}

// DBusSender sends notifications to the session's notification server.
type DBusSender struct {
	conn *godbus.Conn
}

// NewDBusSender connects to the session bus.
func NewDBusSender() (*DBusSender, error) {
	conn, err := godbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return &DBusSender{conn: conn}, nil
}

// Send calls org.freedesktop.Notifications.Notify.
func (s *DBusSender) Send(n Notification) error {
	urgency := byte(1)
	icon := "dialog-warning"
	switch n.Level {
	case NotificationLevelInfo:
		urgency, icon = 0, "dialog-information"
	case NotificationLevelError:
		urgency, icon = 2, "dialog-error"
	}

	hints := map[string]godbus.Variant{
		"urgency":   godbus.MakeVariant(urgency),
		"category":  godbus.MakeVariant("device"),
		"transient": godbus.MakeVariant(true),
	}
	obj := s.conn.Object(notificationsDest, notificationsPath)
	call := obj.Call(notificationsIface+".Notify", 0,
		"mosoverlayd", uint32(0), icon, n.Summary, n.Body,
		[]string{}, hints, int32(5000))
	return call.Err
}

// Close closes the bus connection.
func (s *DBusSender) Close() error {
	return s.conn.Close()
}

// Notifier rate-limits daemon notifications per key.
type Notifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	sender Sender
	now    func() time.Time

	lastNotifyTime map[string]time.Time
	minInterval    time.Duration
}

// NewNotifier creates a notifier. A nil sender makes every Notify a
// no-op, which is how notifications are disabled.
func NewNotifier(sender Sender, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		logger:         logger,
		sender:         sender,
		now:            time.Now,
		lastNotifyTime: make(map[string]time.Time),
		minInterval:    30 * time.Second,
	}
}

// SetMinInterval sets the minimum interval between notifications that
// share a key.
func (n *Notifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless one with the same key went out
// within the minimum interval.
func (n *Notifier) Notify(key string, msg Notification) {
	if n == nil || n.sender == nil {
		return
	}

	n.mu.Lock()
	now := n.now()
	if last, ok := n.lastNotifyTime[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("notification rate-limited", "key", key, "summary", msg.Summary)
		return
	}
	n.lastNotifyTime[key] = now
	n.mu.Unlock()

	if err := n.sender.Send(msg); err != nil {
		n.logger.Debug("failed to send notification", "key", key, "error", err)
	}
}

// NotifySpawnFailed reports that the overlay could not be started.
func (n *Notifier) NotifySpawnFailed(err error) {
	n.Notify("spawn", Notification{
		Summary: "Quick settings unavailable",
		Body:    fmt.Sprintf("Failed to start the overlay: %v", err),
		Level:   NotificationLevelError,
	})
}

// NotifyConfigError reports a rejected configuration reload.
func (n *Notifier) NotifyConfigError(err error) {
	n.Notify("config", Notification{
		Summary: "Configuration error",
		Body:    fmt.Sprintf("Keeping the previous combos: %v", err),
		Level:   NotificationLevelWarning,
	})
}
