// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/spf13/cobra"
)

var (
	timeSetNow bool
	timeSet    string
)

var locationCmd = &cobra.Command{
	Use:   "location [LAT LON]",
	Short: "Get or set the observing site (signed degrees, north/east positive)",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected no arguments or LAT LON")
		}
		return nil
	},
	RunE: runLocation,
}

var timeCmd = &cobra.Command{
	Use:   "time",
	Short: "Get or set the mount clock",
	Long: `Print the mount clock, or set it with --now (host clock, local zone)
or --set "2006/01/02 15:04:05" (interpreted in the local zone).`,
	Args: cobra.NoArgs,
	RunE: runTime,
}

func init() {
	rootCmd.AddCommand(locationCmd, timeCmd)
	timeCmd.Flags().BoolVar(&timeSetNow, "now", false, "Set the mount clock from the host clock")
	timeCmd.Flags().StringVar(&timeSet, "set", "", "Set the mount clock to this local time")
}

func runLocation(cmd *cobra.Command, args []string) error {
	var loc nexstar.Location
	if len(args) == 2 {
		lat, lon, err := parseDegreePair(args)
		if err != nil {
			return err
		}
		loc = nexstar.Location{Latitude: lat, Longitude: lon}
	}

	return withMount(func(m *mountSession) error {
		if len(args) == 2 {
			if err := m.SetLocation(loc); err != nil {
				return err
			}
		}

		current, err := m.Location()
		if err != nil {
			return err
		}
		fmt.Printf("Location: lat %+.4f°  lon %+.4f°\n", current.Latitude, current.Longitude)
		return nil
	})
}

func runTime(cmd *cobra.Command, args []string) error {
	var target time.Time
	switch {
	case timeSetNow && timeSet != "":
		return fmt.Errorf("--now and --set are mutually exclusive")
	case timeSetNow:
		target = time.Now()
	case timeSet != "":
		t, err := time.ParseInLocation("2006/01/02 15:04:05", timeSet, time.Local)
		if err != nil {
			return fmt.Errorf("invalid time %q: %w", timeSet, err)
		}
		target = t
	}

	return withMount(func(m *mountSession) error {
		if !target.IsZero() {
			if err := m.SetTime(target); err != nil {
				return err
			}
		}

		t, err := m.Time()
		if err != nil {
			return err
		}
		fmt.Printf("Mount time: %s\n", t.Format("2006/01/02 15:04:05 -07:00"))
		return nil
	})
}
