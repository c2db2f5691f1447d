// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/spf13/cobra"
)

var (
	coordsHorizontal bool
	gotoWait         bool
	gotoPollInterval time.Duration
)

var coordsCmd = &cobra.Command{
	Use:   "coords",
	Short: "Print the current pointing position",
	Long: `Read the mount's current position in degrees.

Equatorial (RA/Dec) by default, horizontal (Az/Alt) with --az. Use --precise
for the 32-bit encoding.`,
	Args: cobra.NoArgs,
	RunE: runCoords,
}

var syncCmd = &cobra.Command{
	Use:   "sync RA DEC",
	Short: "Tell the mount it is pointing at RA/DEC (degrees)",
	Args:  cobra.ExactArgs(2),
	RunE:  runSync,
}

var gotoCmd = &cobra.Command{
	Use:   "goto RA DEC",
	Short: "Slew to RA/DEC (degrees)",
	Long: `Start a goto to the given equatorial position in degrees.

Negative declinations are accepted and wrapped the way the mount expects.
With --wait the command polls the slew status and prints the position until
the goto completes.`,
	Args: cobra.ExactArgs(2),
	RunE: runGoto,
}

var cancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Abort a goto in progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMount(func(m *mountSession) error {
			if err := m.CancelGoto(); err != nil {
				return err
			}
			fmt.Println("Goto cancelled")
			return nil
		})
	},
}

var slewingCmd = &cobra.Command{
	Use:   "slewing",
	Short: "Report whether a goto is in progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMount(func(m *mountSession) error {
			slewing, err := m.IsSlewing()
			if err != nil {
				return err
			}
			fmt.Printf("Slewing: %t\n", slewing)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(coordsCmd, syncCmd, gotoCmd, cancelCmd, slewingCmd)
	coordsCmd.Flags().BoolVar(&coordsHorizontal, "az", false, "Report azimuth/altitude instead of RA/Dec")
	gotoCmd.Flags().BoolVar(&gotoWait, "wait", false, "Wait for the goto to finish")
	gotoCmd.Flags().DurationVar(&gotoPollInterval, "interval", time.Second, "Poll interval with --wait")
}

// parseDegreePair parses two angles in decimal degrees
func parseDegreePair(args []string) (float64, float64, error) {
	a, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid angle %q: %w", args[0], err)
	}
	b, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid angle %q: %w", args[1], err)
	}
	return a, b, nil
}

// formatEq renders RA as hours and degrees, Dec signed
func formatEq(ra, dec float64) string {
	return fmt.Sprintf("RA %9.4f° (%s)  Dec %+9.4f°", ra, formatHours(ra), nexstar.SignedDegrees(dec))
}

// formatHours renders an angle as hh:mm:ss.s
func formatHours(deg float64) string {
	// Tenths of a second of time, wrapped at 24h
	t := int(math.Round(nexstar.NormalizeDegrees(deg)/15*36000)) % 864000
	h := t / 36000
	m := t % 36000 / 600
	s := float64(t%600) / 10
	return fmt.Sprintf("%02dh%02dm%04.1fs", h, m, s)
}

func runCoords(cmd *cobra.Command, args []string) error {
	return withMount(func(m *mountSession) error {
		if coordsHorizontal {
			az, alt, err := m.AzCoords(precision())
			if err != nil {
				return err
			}
			fmt.Printf("Az %9.4f°  Alt %+9.4f°\n", az, nexstar.SignedDegrees(alt))
			return nil
		}

		ra, dec, err := m.EqCoords(precision())
		if err != nil {
			return err
		}
		fmt.Println(formatEq(ra, dec))
		return nil
	})
}

func runSync(cmd *cobra.Command, args []string) error {
	ra, dec, err := parseDegreePair(args)
	if err != nil {
		return err
	}

	return withMount(func(m *mountSession) error {
		if err := m.SetEqCoords(ra, dec, precision()); err != nil {
			return err
		}
		fmt.Printf("Synced to %s\n", formatEq(ra, dec))
		return nil
	})
}

func runGoto(cmd *cobra.Command, args []string) error {
	ra, dec, err := parseDegreePair(args)
	if err != nil {
		return err
	}

	return withMount(func(m *mountSession) error {
		if err := m.GotoEqCoords(ra, dec, precision()); err != nil {
			return err
		}
		fmt.Printf("Goto started: %s\n", formatEq(ra, dec))

		if !gotoWait {
			return nil
		}

		for {
			slewing, err := m.IsSlewing()
			if err != nil {
				return err
			}
			if !slewing {
				break
			}

			time.Sleep(gotoPollInterval)

			cra, cdec, err := m.EqCoords(precision())
			if err != nil {
				return err
			}
			fmt.Printf("  %s\n", formatEq(cra, cdec))
		}

		cra, cdec, err := m.EqCoords(precision())
		if err != nil {
			return err
		}
		fmt.Printf("Goto complete: %s\n", formatEq(cra, cdec))
		return nil
	})
}
