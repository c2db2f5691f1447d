// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"time"

	"github.com/Thermoquad/nexstar/pkg/config"
	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Link timing
	readTimeout time.Duration
	settleDelay time.Duration

	// Diagnostics
	configPath string
	logLevel   string
	logFile    string
	traceFile  string

	precise bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "nexstar",
	Short: "NexStar telescope mount command-line client",
	Long: `nexstar - A CLI tool for querying and commanding NexStar-protocol telescope mounts.

Reads firmware and model identifiers, reads and sets equatorial coordinates,
starts and cancels gotos, drives the motor controllers through passthrough
frames, and manages tracking mode, site location and mount time.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

The mount interface is given --settle (default 2s) to finish its reset cycle
after the serial port opens.

For WebSocket authentication, the password is read from the NEXSTAR_PASSWORD
environment variable, or prompted interactively if not set.

Settings may also come from a YAML profile (--config). Flags given on the
command line take precedence over the profile.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	// Serial connection flags
	rootCmd.PersistentFlags().StringVarP(&portName, "port", "p", "", "Serial port device")
	rootCmd.PersistentFlags().IntVarP(&baudRate, "baud", "b", nexstar.BaudRate, "Baud rate (serial only)")

	// WebSocket connection flags
	rootCmd.PersistentFlags().StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	rootCmd.PersistentFlags().StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	rootCmd.PersistentFlags().BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	rootCmd.PersistentFlags().DurationVar(&readTimeout, "timeout", nexstar.DefaultReadTimeout, "Reply timeout")
	rootCmd.PersistentFlags().DurationVar(&settleDelay, "settle", nexstar.DefaultSettleDelay, "Delay after opening the serial port")
	rootCmd.PersistentFlags().BoolVar(&precise, "precise", false, "Use 32-bit coordinate encoding")

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML profile")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Also write logs to this file (rotated)")
	rootCmd.PersistentFlags().StringVar(&traceFile, "trace", "", "Record every exchange to this CBOR file")
}

// setup merges the profile into unset flags and builds the logger
func setup(cmd *cobra.Command, args []string) error {
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		applyConfig(cmd, cfg)
	}

	l, err := newLogger(logLevel, logFile, logMaxSizeMB, logMaxBackups)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = l
	return nil
}

// applyConfig copies profile values into flags the user did not set
func applyConfig(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	set := func(name string, apply func()) {
		if !flags.Changed(name) {
			apply()
		}
	}

	conn := cfg.Connection
	if !flags.Changed("port") && !flags.Changed("url") {
		portName = conn.Port
		wsURL = conn.URL
	}
	set("baud", func() { baudRate = conn.BaudRate })
	set("username", func() { wsUsername = conn.Username })
	set("no-ssl-verify", func() { wsNoSSLVerify = conn.NoSSLVerify })
	set("timeout", func() { readTimeout = conn.Timeout() })
	set("settle", func() { settleDelay = conn.Settle() })
	set("precise", func() { precise = conn.Precise })

	set("log-level", func() { logLevel = cfg.Logging.Level })
	set("log-file", func() { logFile = cfg.Logging.File })
	set("trace", func() { traceFile = cfg.Logging.Trace })

	if cfg.Logging.MaxSizeMB > 0 {
		logMaxSizeMB = cfg.Logging.MaxSizeMB
	}
	if cfg.Logging.MaxBackups > 0 {
		logMaxBackups = cfg.Logging.MaxBackups
	}
}

// precision returns the encoding selected by --precise
func precision() nexstar.Precision {
	if precise {
		return nexstar.Precise
	}
	return nexstar.Standard
}

// Execute runs the root command
func Execute() error {
	defer func() { _ = logger.Sync() }()
	return rootCmd.Execute()
}
