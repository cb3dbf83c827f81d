// Package status reads the system state shown in menu descriptions:
// volume, brightness, Wi-Fi, Bluetooth and the night-light marker.
// Every read is bounded by a timeout and degrades to fixed text.
package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmylchreest/mosoverlay/internal/process"
	"github.com/jmylchreest/mosoverlay/internal/store"
)

// DefaultTimeout bounds each external read.
const DefaultTimeout = time.Second

// Fallback texts shown when a reader cannot produce a value.
const (
	VolumeUnknown      = "Volume: --"
	VolumeUnavailable  = "Volume: N/A"
	BrightnessUnknown  = "Brightness: --"
	BrightnessFallback = "Brightness level"
	WiFiDisconnected   = "Wi-Fi: Disconnected"
	WiFiUnavailable    = "Wi-Fi: No data"
	BluetoothOn        = "Bluetooth: On"
	BluetoothOff       = "Bluetooth: Off"
	BluetoothUnknown   = "Bluetooth: N/A"
)

// WiFiScript lists the active Wi-Fi connection. It is the only reader
// that goes through a shell.
const WiFiScript = "nmcli -t -f active,ssid dev wifi | grep '^yes'"

var errNoPercent = errors.New("no percentage in output")

// Execer runs a command and returns its trimmed stdout.
type Execer interface {
	Output(ctx context.Context, c process.Command) (string, error)
}

// BluetoothProbe reports whether the default adapter is powered.
type BluetoothProbe interface {
	Powered(ctx context.Context) (bool, error)
}

// DefaultPulseServer is the per-user PulseAudio socket.
func DefaultPulseServer() string {
	return fmt.Sprintf("unix:/run/user/%d/pulse/native", os.Getuid())
}

// Options configures Readers.
type Options struct {
	Exec        Execer
	Bluetooth   BluetoothProbe
	Timeout     time.Duration
	NightMarker string
	PulseServer string
	Logger      *slog.Logger
}

// Readers produces description text for status items. All methods may
// block for up to the timeout and must not run on the UI thread.
type Readers struct {
	exec        Execer
	bluetooth   BluetoothProbe
	timeout     time.Duration
	night       store.Marker
	pulseServer string
	logger      *slog.Logger
}

// NewReaders creates readers. A nil Bluetooth probe uses BlueZ on the
// system bus.
func NewReaders(opts Options) *Readers {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Exec == nil {
		opts.Exec = process.NewRunner(opts.Logger)
	}
	if opts.Bluetooth == nil {
		opts.Bluetooth = BlueZ{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.NightMarker == "" {
		opts.NightMarker = store.DefaultNightLightMarker
	}
	if opts.PulseServer == "" {
		opts.PulseServer = DefaultPulseServer()
	}
	return &Readers{
		exec:        opts.Exec,
		bluetooth:   opts.Bluetooth,
		timeout:     opts.Timeout,
		night:       store.Marker{Path: opts.NightMarker},
		pulseServer: opts.PulseServer,
		logger:      opts.Logger,
	}
}

// PulseServer returns the pactl server argument.
func (r *Readers) PulseServer() string { return r.pulseServer }

// NightMarker returns the night-light marker path.
func (r *Readers) NightMarker() string { return r.night.Path }

func (r *Readers) output(c process.Command) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	return r.exec.Output(ctx, c)
}

// Volume returns e.g. "Volume: 45%".
func (r *Readers) Volume() string {
	out, err := r.output(process.Cmd("pactl", "--server", r.pulseServer, "get-sink-volume", "@DEFAULT_SINK@"))
	if err != nil {
		r.logger.Debug("volume read failed", "error", err)
		return VolumeUnavailable
	}
	pct, err := ParseVolume(out)
	if err != nil {
		return VolumeUnknown
	}
	return "Volume: " + pct
}

// Brightness returns e.g. "Brightness: 60%", trying brightnessctl and
// then light.
func (r *Readers) Brightness() string {
	pct, err := r.brightnessctl()
	if err == nil {
		return fmt.Sprintf("Brightness: %d%%", pct)
	}
	if errors.Is(err, errZeroMax) {
		return BrightnessUnknown
	}
	r.logger.Debug("brightnessctl read failed", "error", err)

	out, err := r.output(process.Cmd("light", "-G"))
	if err != nil {
		r.logger.Debug("light read failed", "error", err)
		return BrightnessFallback
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return BrightnessFallback
	}
	return fmt.Sprintf("Brightness: %d%%", int(v))
}

var errZeroMax = errors.New("maximum brightness is zero")

func (r *Readers) brightnessctl() (int, error) {
	cur, err := r.output(process.Cmd("brightnessctl", "g"))
	if err != nil {
		return 0, err
	}
	peak, err := r.output(process.Cmd("brightnessctl", "m"))
	if err != nil {
		return 0, err
	}
	return ParseBrightness(cur, peak)
}

// WiFi returns the connected SSID or a disconnected notice.
func (r *Readers) WiFi() string {
	out, err := r.output(process.Shell(WiFiScript))
	if err != nil {
		r.logger.Debug("wifi read failed", "error", err)
		return WiFiUnavailable
	}
	if ssid := ParseWiFi(out); ssid != "" {
		return "Connected to: " + ssid
	}
	return WiFiDisconnected
}

// Bluetooth reports the adapter power state from BlueZ, falling back to
// bluetoothctl when the bus is unreachable.
func (r *Readers) Bluetooth() string {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	powered, err := r.bluetooth.Powered(ctx)
	if err != nil {
		r.logger.Debug("bluez read failed, trying bluetoothctl", "error", err)
		out, cerr := r.output(process.Cmd("bluetoothctl", "show"))
		if cerr != nil {
			r.logger.Debug("bluetoothctl read failed", "error", cerr)
			return BluetoothUnknown
		}
		powered = ParseBluetoothctl(out)
	}
	if powered {
		return BluetoothOn
	}
	return BluetoothOff
}

// NightLight reports whether the night-light marker exists.
func (r *Readers) NightLight() bool {
	return r.night.Exists()
}

// Report is a one-shot reading of every status source.
type Report struct {
	Volume     string `json:"volume"`
	Brightness string `json:"brightness"`
	WiFi       string `json:"wifi"`
	Bluetooth  string `json:"bluetooth"`
	NightLight bool   `json:"night_light"`
}

// ReadAll reads every source sequentially.
func (r *Readers) ReadAll() Report {
	return Report{
		Volume:     r.Volume(),
		Brightness: r.Brightness(),
		WiFi:       r.WiFi(),
		Bluetooth:  r.Bluetooth(),
		NightLight: r.NightLight(),
	}
}

// ParseVolume returns the first "NN%" token of pactl output such as
// "Volume: front-left: 29491 /  45% / -20.81 dB,   front-right: ...".
func ParseVolume(out string) (string, error) {
	fields := strings.Fields(strings.NewReplacer("/", " ", ",", " ").Replace(out))
	for _, f := range fields {
		num, ok := strings.CutSuffix(f, "%")
		if !ok || num == "" {
			continue
		}
		if _, err := strconv.ParseUint(num, 10, 32); err == nil {
			return f, nil
		}
	}
	return "", errNoPercent
}

// ParseBrightness converts brightnessctl's current and maximum raw
// values into a truncated percentage.
func ParseBrightness(cur, peak string) (int, error) {
	c, err := strconv.Atoi(strings.TrimSpace(cur))
	if err != nil {
		return 0, fmt.Errorf("invalid current brightness: %w", err)
	}
	m, err := strconv.Atoi(strings.TrimSpace(peak))
	if err != nil {
		return 0, fmt.Errorf("invalid maximum brightness: %w", err)
	}
	if m == 0 {
		return 0, errZeroMax
	}
	return c * 100 / m, nil
}

// ParseWiFi extracts the SSID from nmcli terse output ("yes:MyNet").
// nmcli escapes colons inside the SSID as "\:".
func ParseWiFi(out string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(out), "\n")
	_, ssid, ok := strings.Cut(line, ":")
	if !ok {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(ssid, `\:`, ":"))
}

// ParseBluetoothctl reports whether "bluetoothctl show" lists the
// controller as powered.
func ParseBluetoothctl(out string) bool {
	return strings.Contains(out, "Powered: yes")
}
