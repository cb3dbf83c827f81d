// Package ipc implements the toggle protocol between the combo daemon
// and a running overlay over a local stream socket.
//
// The protocol is a single message per connection: any payload that
// contains the token "toggle" toggles the overlay. No reply is sent.
package ipc

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"time"
)

const (
	// DefaultSocketPath is where the overlay listens.
	DefaultSocketPath = "/tmp/mos_overlay.sock"

	// ToggleToken is the substring that marks a toggle request.
	ToggleToken = "toggle"

	// MaxPayload is the largest request the server reads.
	MaxPayload = 1024

	dialTimeout  = 500 * time.Millisecond
	writeTimeout = 500 * time.Millisecond
)

var (
	// ErrNotRunning is returned by the client when no overlay accepts
	// connections on the socket.
	ErrNotRunning = errors.New("overlay is not running")

	// ErrAlreadyRunning is returned by Listen when another process is
	// already serving the socket.
	ErrAlreadyRunning = errors.New("overlay is already running")
)

// IsToggle reports whether payload is a toggle request.
func IsToggle(payload []byte) bool {
	return bytes.Contains(payload, []byte(ToggleToken))
}

// SendToggle asks the overlay listening at path to toggle its visibility.
// Connection failures wrap ErrNotRunning so callers can fall back to
// starting a new overlay.
func SendToggle(path string) error {
	if path == "" {
		path = DefaultSocketPath
	}

	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write([]byte(ToggleToken + "\n")); err != nil {
		return fmt.Errorf("failed to send toggle: %w", err)
	}
	return nil
}

// Probe reports whether something accepts connections at path.
func Probe(path string) bool {
	if path == "" {
		path = DefaultSocketPath
	}
	conn, err := net.DialTimeout("unix", path, dialTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
