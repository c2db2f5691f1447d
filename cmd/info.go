// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show firmware, model and mount status",
	Long: `Query the hand controller and motor controllers for identification and status.

Prints the controller firmware version, model and variant, the RA and Dec
motor controller firmware versions (via passthrough), alignment and tracking
mode.`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

// withMount opens the mount for the duration of fn
func withMount(fn func(m *mountSession) error) error {
	m, err := OpenMount()
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func runInfo(cmd *cobra.Command, args []string) error {
	return withMount(func(m *mountSession) error {
		fmt.Printf("Connection: %s\n\n", m.info)

		version, err := m.Version()
		if err != nil {
			return fmt.Errorf("version: %w", err)
		}
		fmt.Printf("Version:       %s\n", version)

		model, err := m.Model()
		if err != nil {
			return fmt.Errorf("model: %w", err)
		}
		fmt.Printf("Model:         %d\n", model)

		variant, err := m.Variant()
		if err != nil {
			return fmt.Errorf("variant: %w", err)
		}
		fmt.Printf("Variant:       0x%02X\n", variant)

		for _, dev := range []nexstar.DeviceID{nexstar.DevRA, nexstar.DevDec} {
			v, err := m.DeviceVersion(dev)
			if err != nil {
				return fmt.Errorf("%s version: %w", dev, err)
			}
			fmt.Printf("%-4s version:  %s\n", dev, v)
		}

		aligned, err := m.IsAligned()
		if err != nil {
			return fmt.Errorf("alignment: %w", err)
		}
		fmt.Printf("Aligned:       %t\n", aligned)

		mode, err := m.TrackingMode()
		if err != nil {
			return fmt.Errorf("tracking mode: %w", err)
		}
		fmt.Printf("Tracking:      %s (%d)\n", mode, mode)

		return nil
	})
}
