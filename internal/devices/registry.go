// Package devices discovers, classifies and tracks the input devices
// the multiplexer listens to.
package devices

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/jmylchreest/mosoverlay/internal/evdev"
)

// ErrUnsupported is returned by Probe for devices that are neither
// keyboards nor gamepads.
var ErrUnsupported = errors.New("device is neither keyboard nor gamepad")

// Device is an open input device.
type Device interface {
	Path() string
	Name() string
	Fd() int
	KeyCapabilities() (evdev.CodeSet, error)
	ReadEvents() ([]evdev.Event, error)
	Grab(grab bool) error
	Close() error
}

// Source enumerates and opens devices.
type Source interface {
	Paths() ([]string, error)
	Open(path string) (Device, error)
}

// EvdevSource opens real /dev/input event nodes.
type EvdevSource struct {
	Pattern string
}

// Paths lists the event nodes matching the source pattern.
func (s EvdevSource) Paths() ([]string, error) {
	return evdev.ListPaths(s.Pattern)
}

// Open opens one event node.
func (s EvdevSource) Open(path string) (Device, error) {
	d, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// Entry is a registered, classified device.
type Entry struct {
	Device Device
	Class  Class
}

// Path returns the device node path.
func (e Entry) Path() string { return e.Device.Path() }

// Name returns the device name.
func (e Entry) Name() string { return e.Device.Name() }

// Probe opens path and classifies it. Devices of ClassOther are closed
// and reported as ErrUnsupported.
func Probe(src Source, path string) (Entry, error) {
	dev, err := src.Open(path)
	if err != nil {
		return Entry{}, err
	}
	caps, err := dev.KeyCapabilities()
	if err != nil {
		_ = dev.Close()
		return Entry{}, err
	}
	class := Classify(caps)
	if class == ClassOther {
		_ = dev.Close()
		return Entry{}, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}
	return Entry{Device: dev, Class: class}, nil
}

// Options configures a Registry.
type Options struct {
	Source Source
	// Grab requests exclusive access to every registered device.
	Grab   bool
	Logger *slog.Logger
}

// Registry owns the set of open devices, keyed by path.
type Registry struct {
	mu      sync.Mutex
	source  Source
	grab    bool
	logger  *slog.Logger
	entries map[string]Entry
}

// NewRegistry creates an empty registry.
func NewRegistry(opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Source == nil {
		opts.Source = EvdevSource{}
	}
	return &Registry{
		source:  opts.Source,
		grab:    opts.Grab,
		logger:  opts.Logger,
		entries: make(map[string]Entry),
	}
}

// Scan enumerates attached devices and returns the keyboards and gamepads
// among them that are not yet registered. Nothing is registered.
func (r *Registry) Scan() []Entry {
	paths, err := r.source.Paths()
	if err != nil {
		r.logger.Warn("device scan failed", "error", err)
		return nil
	}

	var found []Entry
	for _, path := range paths {
		if r.has(path) {
			continue
		}
		e, err := Probe(r.source, path)
		if err != nil {
			if !errors.Is(err, ErrUnsupported) {
				r.logger.Debug("skipping device", "path", path, "error", err)
			}
			continue
		}
		found = append(found, e)
	}
	return found
}

// Register adds e. Registering a path twice is a no-op that closes the
// duplicate handle and returns false.
func (r *Registry) Register(e Entry) bool {
	path := e.Path()

	r.mu.Lock()
	existing, ok := r.entries[path]
	if ok {
		r.mu.Unlock()
		if existing.Device != e.Device {
			_ = e.Device.Close()
		}
		return false
	}
	r.entries[path] = e
	r.mu.Unlock()

	if r.grab {
		if err := e.Device.Grab(true); err != nil {
			r.logger.Warn("failed to grab device", "path", path, "error", err)
		}
	}
	r.logger.Info("device registered", "name", e.Name(), "path", path, "class", e.Class)
	return true
}

// Rescan scans and registers every new device, returning how many were added.
func (r *Registry) Rescan() int {
	added := 0
	for _, e := range r.Scan() {
		if r.Register(e) {
			added++
		}
	}
	return added
}

// Unregister closes and forgets the device at path.
func (r *Registry) Unregister(path string) bool {
	r.mu.Lock()
	e, ok := r.entries[path]
	delete(r.entries, path)
	r.mu.Unlock()

	if !ok {
		return false
	}
	if err := e.Device.Close(); err != nil {
		r.logger.Debug("error closing device", "path", path, "error", err)
	}
	r.logger.Info("device removed", "name", e.Name(), "path", path)
	return true
}

// Entries returns the registered devices ordered by path.
func (r *Registry) Entries() []Entry {
	r.mu.Lock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path() < out[j].Path() })
	return out
}

// Len returns the number of registered devices.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Close unregisters every device.
func (r *Registry) Close() {
	for _, e := range r.Entries() {
		r.Unregister(e.Path())
	}
}

func (r *Registry) has(path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[path]
	return ok
}

// Info describes one device for diagnostics.
type Info struct {
	Path  string `json:"path" yaml:"path"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Class Class  `json:"class" yaml:"class"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Inventory opens, classifies and closes every device the source lists.
// Unlike Scan it reports unsupported and unreadable devices too.
func Inventory(src Source) ([]Info, error) {
	paths, err := src.Paths()
	if err != nil {
		return nil, err
	}

	infos := make([]Info, 0, len(paths))
	for _, path := range paths {
		info := Info{Path: path}
		dev, err := src.Open(path)
		if err != nil {
			info.Error = err.Error()
			infos = append(infos, info)
			continue
		}
		info.Name = dev.Name()
		caps, err := dev.KeyCapabilities()
		if err != nil {
			info.Error = err.Error()
		} else {
			info.Class = Classify(caps)
		}
		_ = dev.Close()
		infos = append(infos, info)
	}
	return infos, nil
}
