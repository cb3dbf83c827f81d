// Package evdev provides read-only access to Linux input event devices.
package evdev

import (
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultGlob matches the kernel's event device nodes.
const DefaultGlob = "/dev/input/event*"

// ErrClosed is returned when reading from a closed device.
var ErrClosed = errors.New("evdev: device closed")

// Event is a decoded input_event.
type Event struct {
	Time  time.Time
	Type  uint16
	Code  uint16
	Value int32
}

// IsKey reports whether the event is a key or button transition.
func (e Event) IsKey() bool {
	return e.Type == EvKey
}

// rawEvent mirrors struct input_event for the running architecture.
type rawEvent struct {
	Time  unix.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

var (
	eventSize   = int(unsafe.Sizeof(rawEvent{}))
	timevalSize = int(unsafe.Sizeof(unix.Timeval{}))
)

// ioctl request encoding from <asm-generic/ioctl.h>.
const (
	iocWrite = 1
	iocRead  = 2
)

func ioc(dir, typ, nr, size uintptr) uintptr {
	return dir<<30 | size<<16 | typ<<8 | nr
}

func eviocgname(size int) uintptr {
	return ioc(iocRead, 'E', 0x06, uintptr(size))
}

func eviocgbit(ev uint16, size int) uintptr {
	return ioc(iocRead, 'E', 0x20+uintptr(ev), uintptr(size))
}

var eviocgrab = ioc(iocWrite, 'E', 0x90, unsafe.Sizeof(int32(0)))

// Device is an open event device.
type Device struct {
	path string
	name string
	fd   int
	buf  []byte
}

// Open opens path read-only and non-blocking and reads its name.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	d := &Device{
		path: path,
		fd:   fd,
		buf:  make([]byte, eventSize*64),
	}

	name := make([]byte, 256)
	if err := ioctl(fd, eviocgname(len(name)), unsafe.Pointer(&name[0])); err != nil {
		d.name = filepath.Base(path)
	} else {
		d.name = cString(name)
	}

	return d, nil
}

// Path returns the device node path.
func (d *Device) Path() string { return d.path }

// Name returns the kernel-reported device name.
func (d *Device) Name() string { return d.name }

// Fd returns the underlying descriptor, or -1 once closed.
func (d *Device) Fd() int { return d.fd }

// KeyCapabilities returns the EV_KEY codes the device can emit.
func (d *Device) KeyCapabilities() (CodeSet, error) {
	if d.fd < 0 {
		return nil, ErrClosed
	}
	bits := make([]byte, int(KeyMax)/8+1)
	if err := ioctl(d.fd, eviocgbit(EvKey, len(bits)), unsafe.Pointer(&bits[0])); err != nil {
		return nil, fmt.Errorf("failed to query key capabilities of %s: %w", d.path, err)
	}

	caps := make(CodeSet)
	for i, b := range bits {
		if b == 0 {
			continue
		}
		for j := 0; j < 8; j++ {
			if b&(1<<uint(j)) != 0 {
				caps[uint16(i*8+j)] = struct{}{}
			}
		}
	}
	return caps, nil
}

// ReadEvents drains all events currently queued on the device.
// It returns an empty slice when nothing is pending. Any other read
// failure, including ENODEV after an unplug, is returned as an error.
func (d *Device) ReadEvents() ([]Event, error) {
	if d.fd < 0 {
		return nil, ErrClosed
	}

	var events []Event
	for {
		n, err := unix.Read(d.fd, d.buf)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
				return events, nil
			}
			return events, fmt.Errorf("failed to read %s: %w", d.path, err)
		}
		if n == 0 {
			return events, fmt.Errorf("failed to read %s: %w", d.path, unix.ENODEV)
		}
		events = append(events, DecodeEvents(d.buf[:n])...)
		if n < len(d.buf) {
			return events, nil
		}
	}
}

// Grab requests or releases exclusive access to the device.
func (d *Device) Grab(grab bool) error {
	if d.fd < 0 {
		return ErrClosed
	}
	var flag uintptr
	if grab {
		flag = 1
	}
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(d.fd), eviocgrab, flag); errno != 0 {
		return fmt.Errorf("failed to grab %s: %w", d.path, errno)
	}
	return nil
}

// Close releases the descriptor. Calling Close twice is a no-op.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

// DecodeEvents decodes a buffer of whole input_event records.
// Trailing partial records are ignored.
func DecodeEvents(buf []byte) []Event {
	events := make([]Event, 0, len(buf)/eventSize)
	for off := 0; off+eventSize <= len(buf); off += eventSize {
		events = append(events, decodeEvent(buf[off:off+eventSize]))
	}
	return events
}

// EventSize is the size in bytes of one input_event on this architecture.
func EventSize() int { return eventSize }

// EncodeEvent is the inverse of DecodeEvents for a single event.
func EncodeEvent(e Event) []byte {
	buf := make([]byte, eventSize)
	half := timevalSize / 2
	sec := e.Time.Unix()
	usec := int64(e.Time.Nanosecond() / 1000)
	if half == 8 {
		binary.NativeEndian.PutUint64(buf[0:], uint64(sec))
		binary.NativeEndian.PutUint64(buf[8:], uint64(usec))
	} else {
		binary.NativeEndian.PutUint32(buf[0:], uint32(sec))
		binary.NativeEndian.PutUint32(buf[4:], uint32(usec))
	}
	binary.NativeEndian.PutUint16(buf[timevalSize:], e.Type)
	binary.NativeEndian.PutUint16(buf[timevalSize+2:], e.Code)
	binary.NativeEndian.PutUint32(buf[timevalSize+4:], uint32(e.Value))
	return buf
}

func decodeEvent(b []byte) Event {
	half := timevalSize / 2
	var sec, usec int64
	if half == 8 {
		sec = int64(binary.NativeEndian.Uint64(b[0:]))
		usec = int64(binary.NativeEndian.Uint64(b[8:]))
	} else {
		sec = int64(int32(binary.NativeEndian.Uint32(b[0:])))
		usec = int64(int32(binary.NativeEndian.Uint32(b[4:])))
	}
	return Event{
		Time:  time.Unix(sec, usec*1000),
		Type:  binary.NativeEndian.Uint16(b[timevalSize:]),
		Code:  binary.NativeEndian.Uint16(b[timevalSize+2:]),
		Value: int32(binary.NativeEndian.Uint32(b[timevalSize+4:])),
	}
}

// ListPaths returns the event device nodes matching pattern in natural order.
func ListPaths(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = DefaultGlob
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list input devices: %w", err)
	}
	sort.Slice(paths, func(i, j int) bool {
		if len(paths[i]) != len(paths[j]) {
			return len(paths[i]) < len(paths[j])
		}
		return paths[i] < paths[j]
	})
	return paths, nil
}

func ioctl(fd int, req uintptr, arg unsafe.Pointer) error {
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(arg)); errno != 0 {
		return errno
	}
	return nil
}

func cString(b []byte) string {
	if i := strings.IndexByte(string(b), 0); i >= 0 {
		b = b[:i]
	}
	return strings.TrimSpace(string(b))
}
