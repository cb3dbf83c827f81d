package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/mosoverlay/internal/ipc"
	"github.com/jmylchreest/mosoverlay/internal/status"
)

var statusOpts struct {
	json  bool
	probe bool
}

// Status is the machine-readable form of the status command.
type Status struct {
	Running bool           `json:"running"`
	Socket  string         `json:"socket"`
	Since   string         `json:"since,omitempty"`
	Readers *status.Report `json:"readers,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether an overlay is listening",
	Long: `Report whether an overlay accepts toggle requests on the configured
socket and how long ago it was created.

With --probe, also read every status source the menu shows (volume,
brightness, Wi-Fi, Bluetooth and night light).`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.json, "json", false,
		"Output JSON")
	statusCmd.Flags().BoolVar(&statusOpts.probe, "probe", false,
		"Also read the menu's status sources")
}

func runStatus(cmd *cobra.Command, args []string) error {
	st := Status{
		Running: ipc.Probe(cfg.Socket.Path),
		Socket:  cfg.Socket.Path,
	}
	if st.Running {
		if info, err := os.Stat(cfg.Socket.Path); err == nil {
			st.Since = humanize.Time(info.ModTime())
		}
	}

	if statusOpts.probe {
		readers := status.NewReaders(status.Options{
			Timeout:     cfg.Menu.StatusTimeout.Duration(),
			NightMarker: cfg.Paths.NightLightMarker,
			PulseServer: cfg.Paths.PulseServer,
			Logger:      logger,
		})
		report := readers.ReadAll()
		st.Readers = &report
	}

	if statusOpts.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}

	if st.Running {
		fmt.Printf("overlay: running on %s", st.Socket)
		if st.Since != "" {
			fmt.Printf(" (started %s)", st.Since)
		}
		fmt.Println()
	} else {
		fmt.Printf("overlay: not running (%s)\n", st.Socket)
	}

	if r := st.Readers; r != nil {
		night := "off"
		if r.NightLight {
			night = "on"
		}
		fmt.Printf("volume:      %s\n", r.Volume)
		fmt.Printf("brightness:  %s\n", r.Brightness)
		fmt.Printf("wifi:        %s\n", r.WiFi)
		fmt.Printf("bluetooth:   %s\n", r.Bluetooth)
		fmt.Printf("night light: %s\n", night)
	}
	return nil
}
