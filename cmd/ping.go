// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/spf13/cobra"
)

var (
	pingCount    int
	pingInterval time.Duration
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Test the link with echo commands",
	Long: `Send ECHO commands to the mount and check that each byte comes back.

This is useful for verifying:
  - The serial port (or WebSocket bridge) is configured correctly
  - The mount interface has finished booting
  - Replies arrive within the timeout

Exit codes:
  0 - All echoes successful
  1 - One or more echoes failed or timed out
  2 - Connection error`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
	pingCmd.Flags().IntVar(&pingCount, "count", 5, "Number of echoes to send")
	pingCmd.Flags().DurationVar(&pingInterval, "interval", 100*time.Millisecond, "Delay between echoes")
}

// echoOnce sends one echo byte and checks it comes back unchanged
func echoOnce(c *nexstar.Codec, b byte) (time.Duration, error) {
	start := time.Now()
	got, err := c.Echo(b)
	rtt := time.Since(start)
	if err != nil {
		return rtt, err
	}
	if got != b {
		return rtt, fmt.Errorf("%w: sent 0x%02X, got 0x%02X", nexstar.ErrMismatch, b, got)
	}
	return rtt, nil
}

func runPing(cmd *cobra.Command, args []string) error {
	m, err := OpenMount()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer m.Close()

	fmt.Printf("nexstar - Echo Test\n")
	fmt.Printf("Connection: %s\n", m.info)
	fmt.Printf("Count: %d echoes\n\n", pingCount)

	stats := nexstar.NewStatistics()

	for i := 1; i <= pingCount; i++ {
		fmt.Printf("Echo %d/%d: ", i, pingCount)

		// Cycle through printable bytes so a stale reply cannot pass
		b := byte('A' + (i-1)%26)
		rtt, err := echoOnce(m.Codec, b)
		stats.Update(rtt, err)

		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
		} else {
			fmt.Printf("'%c' ok, rtt=%v\n", b, rtt.Round(time.Millisecond))
		}

		if i < pingCount {
			time.Sleep(pingInterval)
		}
	}

	fmt.Printf("\n%s", stats)

	if stats.Errors() > 0 {
		m.Close()
		os.Exit(1)
	}
	return nil
}
