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
	slewAxis     string
	slewRate     uint8
	slewReverse  bool
	slewDuration time.Duration
)

var slewCmd = &cobra.Command{
	Use:   "slew",
	Short: "Drive an axis motor at a fixed rate",
	Long: `Drive the RA or Dec motor controller at a fixed rate (0-9) through a
passthrough frame. Rate 0 stops the axis.

With --for the axis is stopped again after the given duration; otherwise it
keeps moving until another slew command stops it.

Examples:
  nexstar slew --axis ra --rate 9 --for 3s
  nexstar slew --axis dec --rate 4 --reverse
  nexstar slew --axis dec --rate 0`,
	Args: cobra.NoArgs,
	RunE: runSlew,
}

func init() {
	rootCmd.AddCommand(slewCmd)
	slewCmd.Flags().StringVar(&slewAxis, "axis", "ra", "Axis to drive (ra, dec)")
	slewCmd.Flags().Uint8Var(&slewRate, "rate", 0, "Fixed slew rate (0 stops)")
	slewCmd.Flags().BoolVar(&slewReverse, "reverse", false, "Drive in the negative direction")
	slewCmd.Flags().DurationVar(&slewDuration, "for", 0, "Stop the axis after this long")
}

func runSlew(cmd *cobra.Command, args []string) error {
	dev, ok := nexstar.ParseDeviceID(slewAxis)
	if !ok || (dev != nexstar.DevRA && dev != nexstar.DevDec) {
		return fmt.Errorf("invalid axis %q (use ra or dec)", slewAxis)
	}
	if slewRate > 9 {
		return fmt.Errorf("invalid rate %d (0-9)", slewRate)
	}

	return withMount(func(m *mountSession) error {
		if err := m.SlewAxis(dev, slewRate, slewReverse); err != nil {
			return err
		}
		fmt.Printf("%s axis: rate %d reverse=%t\n", dev, slewRate, slewReverse)

		if slewDuration > 0 && slewRate > 0 {
			time.Sleep(slewDuration)
			if err := m.SlewAxis(dev, 0, slewReverse); err != nil {
				return fmt.Errorf("failed to stop %s axis: %w", dev, err)
			}
			fmt.Printf("%s axis stopped after %v\n", dev, slewDuration)
		}
		return nil
	})
}
