// Package store manages the small files the overlay shares with other
// processes on the appliance: the open-apps list read by the close-apps
// script, and marker files whose presence encodes a toggle state.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	// DefaultOpenAppsPath is read by the external close-apps script.
	DefaultOpenAppsPath = "/tmp/open_apps"
	// DefaultNightLightMarker exists while the night light is on.
	DefaultNightLightMarker = "/tmp/nightlight_state"
)

// AppRegistry appends launched application identifiers to a file so an
// external cleanup script can close them later.
type AppRegistry struct {
	mu   sync.Mutex
	path string
}

// NewAppRegistry creates a registry backed by path.
func NewAppRegistry(path string) *AppRegistry {
	if path == "" {
		path = DefaultOpenAppsPath
	}
	return &AppRegistry{path: path}
}

// Path returns the backing file.
func (r *AppRegistry) Path() string { return r.path }

// Register appends id as one line, creating the file if needed.
func (r *AppRegistry) Register(id string) error {
	id = strings.TrimSpace(id)
	if id == "" || strings.ContainsAny(id, "\r\n") {
		return fmt.Errorf("invalid app id %q", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return fmt.Errorf("failed to create open-apps directory: %w", err)
	}
	f, err := os.OpenFile(r.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", r.path, err)
	}
	if _, err := f.WriteString(id + "\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to register app: %w", err)
	}
	return f.Close()
}

// Apps returns the registered identifiers in order. A missing file
// yields an empty list.
func (r *AppRegistry) Apps() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var apps []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			apps = append(apps, line)
		}
	}
	return apps, scanner.Err()
}

// Marker is a file whose existence is the state.
type Marker struct {
	Path string
}

// Exists reports whether the marker is present. Any stat error counts
// as absent.
func (m Marker) Exists() bool {
	_, err := os.Stat(m.Path)
	return err == nil
}

// Set creates or removes the marker.
func (m Marker) Set(on bool) error {
	if !on {
		if err := os.Remove(m.Path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove marker: %w", err)
		}
		return nil
	}
	f, err := os.OpenFile(m.Path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create marker: %w", err)
	}
	return f.Close()
}
