package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/mosoverlay/internal/adapter/output"
	"github.com/jmylchreest/mosoverlay/internal/devices"
	"github.com/jmylchreest/mosoverlay/internal/evdev"
)

var devicesOpts struct {
	format   string
	pattern  string
	usable   bool
	template string
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List input devices and how they are classified",
	Long: `List every input event node with the class the combo daemon assigns it.

Devices of class "other" are ignored by mosoverlayd. An "error" entry
usually means the current user lacks read access to the node; adding the
user to the "input" group fixes that on most distributions.

Examples:
  mosoverlay devices
  mosoverlay devices --usable --format json
  mosoverlay devices --template '{{.Device.Path}} {{.Device.Class}}'`,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)

	devicesCmd.Flags().StringVarP(&devicesOpts.format, "format", "f", "plain",
		"Output format (plain, json, yaml)")
	devicesCmd.Flags().StringVar(&devicesOpts.pattern, "glob", evdev.DefaultGlob,
		"Device node pattern")
	devicesCmd.Flags().BoolVar(&devicesOpts.usable, "usable", false,
		"Only list readable keyboards and gamepads")
	devicesCmd.Flags().StringVar(&devicesOpts.template, "template", "",
		"Go template for each device in plain format")
}

func runDevices(cmd *cobra.Command, args []string) error {
	format, err := output.ParseFormat(devicesOpts.format)
	if err != nil {
		return err
	}

	infos, err := devices.Inventory(devices.EvdevSource{Pattern: devicesOpts.pattern})
	if err != nil {
		return err
	}

	opts := output.DefaultFormatterOptions()
	opts.OnlyUsable = devicesOpts.usable
	opts.Template = devicesOpts.template
	return output.NewFormatter(format, opts).Format(os.Stdout, infos)
}
