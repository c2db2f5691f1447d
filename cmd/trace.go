// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"

	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/spf13/cobra"
)

var traceErrorsOnly bool

var traceCmd = &cobra.Command{
	Use:   "trace FILE",
	Short: "Display a recorded exchange trace in human-readable format",
	Long: `Decode a trace written with --trace and print each exchange with its
timestamp, command name, request and reply bytes.

ASCII commands (coordinates) are shown as quoted strings, binary commands as
hex.`,
	Args: cobra.ExactArgs(1),
	// No mount connection is needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE:              runTrace,
}

func init() {
	rootCmd.AddCommand(traceCmd)
	traceCmd.Flags().BoolVar(&traceErrorsOnly, "errors", false, "Only show failed exchanges")
}

func runTrace(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	exchanges, err := nexstar.ReadTrace(f)
	if err != nil {
		// Print what was decoded before the damaged record
		defer fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	failed := 0
	for _, ex := range exchanges {
		if ex.Err != "" {
			failed++
		} else if traceErrorsOnly {
			continue
		}
		fmt.Print(nexstar.FormatExchange(ex))
	}

	fmt.Printf("\n%d exchanges, %d failed\n", len(exchanges), failed)
	return nil
}
