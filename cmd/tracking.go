// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/spf13/cobra"
)

var trackingCmd = &cobra.Command{
	Use:   "tracking [MODE]",
	Short: "Get or set the tracking mode",
	Long: `Without arguments, print the tracking mode. With MODE, set it.

MODE is a number or one of: off, altaz, eq-north, eq-south.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTracking,
}

func init() {
	rootCmd.AddCommand(trackingCmd)
}

// parseTrackingMode accepts a mode name or its raw byte value
func parseTrackingMode(s string) (nexstar.TrackingMode, error) {
	switch strings.ToLower(s) {
	case "off":
		return nexstar.TrackingOff, nil
	case "altaz", "alt-az":
		return nexstar.TrackingAltAz, nil
	case "eq-north", "north":
		return nexstar.TrackingEQNorth, nil
	case "eq-south", "south":
		return nexstar.TrackingEQSouth, nil
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid tracking mode %q", s)
	}
	return nexstar.TrackingMode(v), nil
}

func runTracking(cmd *cobra.Command, args []string) error {
	var mode nexstar.TrackingMode
	if len(args) == 1 {
		var err error
		if mode, err = parseTrackingMode(args[0]); err != nil {
			return err
		}
	}

	return withMount(func(m *mountSession) error {
		if len(args) == 1 {
			if err := m.SetTrackingMode(mode); err != nil {
				return err
			}
		}

		current, err := m.TrackingMode()
		if err != nil {
			return err
		}
		fmt.Printf("Tracking mode: %s (%d)\n", current, current)
		return nil
	})
}
