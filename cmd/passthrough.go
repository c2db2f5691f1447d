// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strconv"

	"github.com/Thermoquad/nexstar/pkg/nexstar"
	"github.com/spf13/cobra"
)

var passthroughRespLen int

var passthroughCmd = &cobra.Command{
	Use:   "passthrough DEVICE CMD [BYTE...]",
	Short: "Send a raw passthrough frame to a mount subsystem",
	Long: `Send a passthrough frame to a mount subsystem and dump the reply.

DEVICE is a name (main, hc, ra, dec, gps, rtc) or a byte value. CMD and the
payload bytes (at most 4) accept decimal or 0x-prefixed hex.

Examples:
  # RA motor controller firmware version
  nexstar passthrough ra 0xfe --resp 3

  # GPS: is the receiver linked?
  nexstar passthrough gps 0x37 --resp 2`,
	Args: cobra.RangeArgs(2, 2+nexstar.MaxPassthroughPayload),
	RunE: runPassthrough,
}

func init() {
	rootCmd.AddCommand(passthroughCmd)
	passthroughCmd.Flags().IntVar(&passthroughRespLen, "resp", 1, "Reply length in bytes, including the terminator")
}

// parseDevice accepts a device name or its raw byte value
func parseDevice(s string) (nexstar.DeviceID, error) {
	if dev, ok := nexstar.ParseDeviceID(s); ok {
		return dev, nil
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid device %q", s)
	}
	return nexstar.DeviceID(v), nil
}

// parseBytes parses each argument as a single byte
func parseBytes(args []string) ([]byte, error) {
	out := make([]byte, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid byte %q", a)
		}
		out[i] = byte(v)
	}
	return out, nil
}

func runPassthrough(cmd *cobra.Command, args []string) error {
	dev, err := parseDevice(args[0])
	if err != nil {
		return err
	}
	id, err := parseBytes(args[1:2])
	if err != nil {
		return err
	}
	payload, err := parseBytes(args[2:])
	if err != nil {
		return err
	}
	if passthroughRespLen < 0 {
		return fmt.Errorf("invalid reply length %d", passthroughRespLen)
	}

	frame, err := nexstar.BuildPassthrough(dev, id[0], payload)
	if err != nil {
		return err
	}

	return withMount(func(m *mountSession) error {
		resp, err := m.SendPacket(frame, passthroughRespLen)
		fmt.Printf("Sent: %s\n", nexstar.FormatBytes(nexstar.CmdPassthrough, frame))
		fmt.Printf("Recv: %s\n", nexstar.FormatBytes(nexstar.CmdPassthrough, resp))
		return err
	})
}
