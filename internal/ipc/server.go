package ipc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"
)

const (
	acceptTimeout = 100 * time.Millisecond
	readTimeout   = 100 * time.Millisecond
)

// Server is the overlay's end of the toggle socket. It does not run its
// own loop: the multiplexer polls Fd and calls AcceptOne when it is
// readable.
type Server struct {
	path     string
	listener *net.UnixListener
	fd       int
	logger   *slog.Logger
}

// Listen binds the socket at path. A stale socket file left by a dead
// overlay is removed first; a live one yields ErrAlreadyRunning.
// The socket is made world-writable so a root daemon and a user
// session can both reach it.
func Listen(path string, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		path = DefaultSocketPath
	}

	if _, err := os.Lstat(path); err == nil {
		if Probe(path) {
			return nil, ErrAlreadyRunning
		}
		logger.Debug("removing stale socket", "path", path)
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", path, err)
	}
	l.SetUnlinkOnClose(true)

	if err := os.Chmod(path, 0o666); err != nil {
		logger.Warn("failed to chmod socket", "path", path, "error", err)
	}

	fd := -1
	raw, err := l.SyscallConn()
	if err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to access socket descriptor: %w", err)
	}
	if err := raw.Control(func(s uintptr) { fd = int(s) }); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to access socket descriptor: %w", err)
	}

	logger.Info("toggle socket listening", "path", path)
	return &Server{path: path, listener: l, fd: fd, logger: logger}, nil
}

// Path returns the socket path.
func (s *Server) Path() string { return s.path }

// Fd returns the listening descriptor for readiness polling.
func (s *Server) Fd() int { return s.fd }

// AcceptOne accepts a single pending connection and returns what one read
// of at most MaxPayload bytes yields. It neither waits for the client to
// close nor blocks longer than a short deadline. A client that closes
// without writing yields an empty payload.
func (s *Server) AcceptOne() ([]byte, error) {
	_ = s.listener.SetDeadline(time.Now().Add(acceptTimeout))
	conn, err := s.listener.AcceptUnix()
	if err != nil {
		return nil, fmt.Errorf("failed to accept: %w", err)
	}
	defer func() { _ = conn.Close() }()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	buf := make([]byte, MaxPayload)
	n, err := conn.Read(buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read request: %w", err)
	}
	return buf[:n], nil
}

// Close stops listening and removes the socket file.
func (s *Server) Close() error {
	return s.listener.Close()
}
