package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/mosoverlay/internal/devices"
)

func testDevices() []devices.Info {
	return []devices.Info{
		{Path: "/dev/input/event3", Name: "AT Translated Set 2 keyboard", Class: devices.ClassKeyboard},
		{Path: "/dev/input/event12", Name: "Xbox Wireless Controller", Class: devices.ClassGamepad},
		{Path: "/dev/input/event4", Name: "Power Button", Class: devices.ClassOther},
		{Path: "/dev/input/event7", Error: "permission denied"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    FormatType
		wantErr bool
	}{
		{"plain", FormatPlain, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"dmenu", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewFormatter(t *testing.T) {
	opts := DefaultFormatterOptions()
	assert.IsType(t, &PlainFormatter{}, NewFormatter(FormatPlain, opts))
	assert.IsType(t, &JSONFormatter{}, NewFormatter(FormatJSON, opts))
	assert.IsType(t, &YAMLFormatter{}, NewFormatter(FormatYAML, opts))
	assert.IsType(t, &PlainFormatter{}, NewFormatter("bogus", opts))
}

func TestPlainFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPlainFormatter(DefaultFormatterOptions()).Format(&buf, testDevices()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)

	assert.Contains(t, lines[0], "keyboard")
	assert.Contains(t, lines[0], "AT Translated Set 2 keyboard")
	assert.Contains(t, lines[1], "gamepad")
	assert.Contains(t, lines[3], "error")
	assert.Contains(t, lines[3], "permission denied")
	assert.Equal(t, "4 devices: 1 keyboard, 1 gamepad, 1 unreadable", lines[4])

	// Paths are padded to the same width.
	assert.Equal(t, strings.Index(lines[0], "keyboard"), strings.Index(lines[1], "gamepad"))
}

func TestPlainFormatter_OnlyUsable(t *testing.T) {
	var buf bytes.Buffer
	opts := FormatterOptions{OnlyUsable: true, ShowSummary: true}
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testDevices()))

	out := buf.String()
	assert.NotContains(t, out, "Power Button")
	assert.NotContains(t, out, "permission denied")
	assert.Contains(t, out, "2 devices: 1 keyboard, 1 gamepad")
}

func TestPlainFormatter_CustomTemplate(t *testing.T) {
	var buf bytes.Buffer
	opts := FormatterOptions{Template: "{{.Index}}: {{.Device.Name}} ({{.Device.Class}})"}
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testDevices()[:2]))

	assert.Equal(t, "1: AT Translated Set 2 keyboard (keyboard)\n2: Xbox Wireless Controller (gamepad)\n", buf.String())
}

func TestPlainFormatter_InvalidTemplateFallsBack(t *testing.T) {
	var buf bytes.Buffer
	opts := FormatterOptions{Template: "{{.Broken"}
	require.NoError(t, NewPlainFormatter(opts).Format(&buf, testDevices()[:1]))
	assert.Contains(t, buf.String(), "/dev/input/event3")
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(FormatterOptions{}).Format(&buf, testDevices()))

	var got []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 4)
	assert.Equal(t, "keyboard", got[0]["class"])
	assert.Equal(t, "gamepad", got[1]["class"])
	assert.Equal(t, "permission denied", got[3]["error"])
	assert.NotContains(t, got[0], "error")
}

func TestJSONFormatter_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter(FormatterOptions{}).Format(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewYAMLFormatter(FormatterOptions{OnlyUsable: true}).Format(&buf, testDevices()))

	var got []map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "/dev/input/event3", got[0]["path"])
	assert.Equal(t, "keyboard", got[0]["class"])
	assert.Equal(t, "Xbox Wireless Controller", got[1]["name"])
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name  string
		infos []devices.Info
		want  string
	}{
		{"empty", nil, "0 devices: 0 keyboards, 0 gamepads"},
		{"single", testDevices()[:1], "1 device: 1 keyboard, 0 gamepads"},
		{"all", testDevices(), "4 devices: 1 keyboard, 1 gamepad, 1 unreadable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summary(tt.infos))
		})
	}
}
