// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"testing"
	"time"

	"github.com/Thermoquad/nexstar/pkg/config"
	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseTrackingMode(t *testing.T) {
	tests := []struct {
		in   string
		want nexstar.TrackingMode
	}{
		{"off", nexstar.TrackingOff},
		{"ALTAZ", nexstar.TrackingAltAz},
		{"alt-az", nexstar.TrackingAltAz},
		{"north", nexstar.TrackingEQNorth},
		{"eq-south", nexstar.TrackingEQSouth},
		{"2", nexstar.TrackingEQNorth},
		{"0x03", nexstar.TrackingEQSouth},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTrackingMode(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := parseTrackingMode("sideways")
	assert.Error(t, err)
	_, err = parseTrackingMode("256")
	assert.Error(t, err)
}

func TestParseDevice(t *testing.T) {
	dev, err := parseDevice("ra")
	require.NoError(t, err)
	assert.Equal(t, nexstar.DevRA, dev)

	dev, err = parseDevice("0x11")
	require.NoError(t, err)
	assert.Equal(t, nexstar.DevDec, dev)

	dev, err = parseDevice("176")
	require.NoError(t, err)
	assert.Equal(t, nexstar.DevGPS, dev)

	_, err = parseDevice("focuser")
	assert.Error(t, err)
}

func TestParseBytes(t *testing.T) {
	got, err := parseBytes([]string{"0x24", "9", "0377"})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x24, 9, 0xFF}, got)

	_, err = parseBytes([]string{"0x100"})
	assert.Error(t, err)
	_, err = parseBytes([]string{"ab"})
	assert.Error(t, err)
}

func TestParseDegreePair(t *testing.T) {
	ra, dec, err := parseDegreePair([]string{"83.82", "-5.39"})
	require.NoError(t, err)
	assert.InDelta(t, 83.82, ra, 1e-9)
	assert.InDelta(t, -5.39, dec, 1e-9)

	_, _, err = parseDegreePair([]string{"83.82", "south"})
	assert.Error(t, err)
}

func TestParseGotoTarget(t *testing.T) {
	ra, dec, err := parseGotoTarget(" 10.5, 20 ")
	require.NoError(t, err)
	assert.Equal(t, 10.5, ra)
	assert.Equal(t, 20.0, dec)

	_, _, err = parseGotoTarget("10.5")
	assert.Error(t, err)
}

func TestFormatHours(t *testing.T) {
	assert.Equal(t, "00h00m00.0s", formatHours(0))
	assert.Equal(t, "06h00m00.0s", formatHours(90))
	assert.Equal(t, "05h35m00.0s", formatHours(83.75))
	assert.Equal(t, "23h00m00.0s", formatHours(-15))
	assert.Equal(t, "01h00m01.0s", formatHours(15+15.0/3600))
	assert.Equal(t, "12h30m00.0s", formatHours(187.5))
	// Rounds up across the minute, hour and day boundaries
	assert.Equal(t, "02h00m00.0s", formatHours(29.99999999))
	assert.Equal(t, "00h00m00.0s", formatHours(359.99999999))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("info"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("chatty"))
}

// resetRootFlags restores every persistent flag to its default
func resetRootFlags(t *testing.T) {
	t.Cleanup(func() {
		rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
		logMaxSizeMB = 10
		logMaxBackups = 3
	})
}

func TestApplyConfig(t *testing.T) {
	resetRootFlags(t)

	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	require.NoError(t, cmd.ParseFlags([]string{"--baud", "19200", "--log-level", "debug"}))

	cfg, err := config.Parse([]byte(`
connection:
  port: /dev/ttyUSB3
  baud: 4800
  timeout_ms: 250
  settle_ms: 0
  precise: true
logging:
  level: error
  max_size_mb: 50
  trace: session.cbor
`))
	require.NoError(t, err)

	applyConfig(cmd, cfg)

	assert.Equal(t, "/dev/ttyUSB3", portName)
	assert.Equal(t, 19200, baudRate)
	assert.Equal(t, 250*time.Millisecond, readTimeout)
	assert.Equal(t, time.Duration(0), settleDelay)
	assert.True(t, precise)
	assert.Equal(t, nexstar.Precise, precision())
	assert.Equal(t, "debug", logLevel)
	assert.Equal(t, "session.cbor", traceFile)
	assert.Equal(t, 50, logMaxSizeMB)
	assert.Equal(t, 3, logMaxBackups)
}

func TestApplyConfig_URLFlagWins(t *testing.T) {
	resetRootFlags(t)

	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())
	require.NoError(t, cmd.ParseFlags([]string{"--url", "ws://bridge.local/serial"}))

	cfg, err := config.Parse([]byte("connection:\n  port: /dev/ttyUSB0\n"))
	require.NoError(t, err)

	applyConfig(cmd, cfg)

	assert.Empty(t, portName)
	assert.Equal(t, "ws://bridge.local/serial", wsURL)
}
