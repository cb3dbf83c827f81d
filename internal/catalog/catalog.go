// Package catalog defines the default quick-settings menu.
package catalog

import (
	"github.com/jmylchreest/mosoverlay/internal/menu"
	"github.com/jmylchreest/mosoverlay/internal/process"
	"github.com/jmylchreest/mosoverlay/internal/store"
)

// Refresh tags shared by items that display the same state.
const (
	TagVolume = "volume"
	TagNight  = "night"
)

// NightLightTemperature is the colour temperature applied by the
// blue-light filter, in kelvin.
const NightLightTemperature = "3500"

// Status supplies the live descriptions. Implementations may block.
type Status interface {
	Volume() string
	WiFi() string
	Bluetooth() string
	NightLight() bool
}

// Options configures the default menu.
type Options struct {
	Status          Status
	NightMarker     string
	CloseAppsScript string
	SettingsHelper  string
	PulseServer     string
}

// Build returns the default menu table.
func Build(opts Options) []menu.Item {
	return []menu.Item{
		menu.Header("APPLICATIONS"),
		menu.Action("Back to main menu", backToMain(opts.CloseAppsScript),
			menu.WithDescription("Close applications and return to the menu"),
			menu.WithIcon("\U000f051f", "🏠")),
		menu.Action("File explorer", launchRegistered("dolphin", process.Cmd("flatpak", "run", "org.kde.dolphin")),
			menu.WithDescription("Manage files"),
			menu.WithIcon("\U000f024b", "📁")),
		menu.Action("Discord", launch(process.Cmd("flatpak", "run", "--branch=stable", "--arch=x86_64", "com.discordapp.Discord")),
			menu.WithDescription("Open voice chat"),
			menu.WithIcon("\U000f066f", "💬")),

		menu.Header("SYSTEM"),
		menu.Action("Leave menu", func() menu.Effect { return menu.Hide{} },
			menu.WithDescription("Hide the menu"),
			menu.WithIcon("\U000f02b4", "🎮")),
		menu.Action("Volume up", volume(opts.PulseServer, "+5%"),
			menu.WithDescriber(opts.Status.Volume),
			menu.WithTag(TagVolume),
			menu.WithIcon("\U000f057e", "🔊")),
		menu.Action("Volume down", volume(opts.PulseServer, "-5%"),
			menu.WithDescriber(opts.Status.Volume),
			menu.WithTag(TagVolume),
			menu.WithIcon("\U000f057f", "🔉")),
		menu.Action("Blue light filter", nightLight(opts.NightMarker),
			menu.WithDescription("Easier on the eyes"),
			menu.WithTag(TagNight),
			menu.WithValue(opts.Status.NightLight),
			menu.WithIcon("\U000f06e8", "🌙")),
		menu.Action("Wi-Fi", settings(opts.SettingsHelper, "wifi"),
			menu.WithDescriber(opts.Status.WiFi),
			menu.WithIcon("\U000f05a9", "📶")),
		menu.Action("Bluetooth", settings(opts.SettingsHelper, "bluetooth"),
			menu.WithDescriber(opts.Status.Bluetooth),
			menu.WithIcon("\U000f00af", "📡")),

		menu.Header("POWER"),
		menu.Action("Reboot", confirm("Reboot the system?", process.Cmd("systemctl", "reboot")),
			menu.WithDescription("Restart the system"),
			menu.Dangerous(),
			menu.WithIcon("\U000f0709", "♻")),
		menu.Action("Power off", confirm("Power off the system?", process.Cmd("systemctl", "poweroff")),
			menu.WithDescription("Shut down the system"),
			menu.Dangerous(),
			menu.WithIcon("\U000f0425", "⏻")),
	}
}

func backToMain(closeApps string) func() menu.Effect {
	return func() menu.Effect {
		return menu.Sequence{Effects: []menu.Effect{
			menu.RunDetached{Commands: []process.Command{
				process.Cmd(closeApps),
				process.Cmd("es-de", "--force-kiosk", "--no-splash", "--no-update-check"),
			}},
			menu.Exit{},
		}}
	}
}

func launch(c process.Command) func() menu.Effect {
	return func() menu.Effect {
		return menu.Sequence{Effects: []menu.Effect{
			menu.RunDetached{Commands: []process.Command{c}},
			menu.Exit{},
		}}
	}
}

func launchRegistered(id string, c process.Command) func() menu.Effect {
	return func() menu.Effect {
		return menu.Sequence{Effects: []menu.Effect{
			menu.RegisterApp{ID: id},
			menu.RunDetached{Commands: []process.Command{c}},
			menu.Exit{},
		}}
	}
}

func volume(server, step string) func() menu.Effect {
	return func() menu.Effect {
		return menu.RunSequenceAsync{
			Commands:   []process.Command{process.Cmd("pactl", "--server", server, "set-sink-volume", "@DEFAULT_SINK@", step)},
			RefreshTag: TagVolume,
		}
	}
}

// nightLight decides between enabling and disabling from the marker
// at activation time.
func nightLight(marker string) func() menu.Effect {
	return func() menu.Effect {
		var cmds []process.Command
		if (store.Marker{Path: marker}).Exists() {
			cmds = []process.Command{
				process.Cmd("gammastep", "-x"),
				process.Cmd("rm", "-f", marker),
			}
		} else {
			cmds = []process.Command{
				process.Cmd("gammastep", "-O", NightLightTemperature),
				process.Cmd("touch", marker),
			}
		}
		return menu.RunSequenceAsync{Commands: cmds, RefreshTag: TagNight}
	}
}

func settings(helper, page string) func() menu.Effect {
	return func() menu.Effect {
		return menu.SuspendForChild{Command: process.Cmd(helper, page)}
	}
}

func confirm(message string, c process.Command) func() menu.Effect {
	return func() menu.Effect {
		return menu.ConfirmThen{Message: message, Command: c}
	}
}
