// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import "time"

// Link Constants
const (
	BaudRate           = 9600
	DefaultReadTimeout = 1 * time.Second
	DefaultSettleDelay = 2 * time.Second

	// Terminator ends every mount reply
	Terminator = '#'
)

// DeviceID identifies a mount subsystem on the AUX bus
type DeviceID uint8

// Device IDs
const (
	DevMain           DeviceID = 0x01
	DevHandController DeviceID = 0x04
	DevRA             DeviceID = 0x10
	DevDec            DeviceID = 0x11
	DevGPS            DeviceID = 0xB0
	DevRTC            DeviceID = 0xB2
)

// Top-level commands (single ASCII byte)
const (
	CmdGetVersion    = 'V'
	CmdGetVariant    = 'v'
	CmdGetModel      = 'm'
	CmdEcho          = 'K'
	CmdGetEq         = 'E'
	CmdGetEqPrecise  = 'e'
	CmdGetAz         = 'Z'
	CmdGetAzPrecise  = 'z'
	CmdSyncEq        = 'S'
	CmdSyncEqPrecise = 's'
	CmdGotoEq        = 'R'
	CmdGotoEqPrecise = 'r'
	CmdGotoAz        = 'B'
	CmdGotoAzPrecise = 'b'
	CmdCancelGoto    = 'M'
	CmdIsSlewing     = 'L'
	CmdIsAligned     = 'J'
	CmdGetTracking   = 't'
	CmdSetTracking   = 'T'
	CmdGetLocation   = 'w'
	CmdSetLocation   = 'W'
	CmdGetTime       = 'h'
	CmdSetTime       = 'H'
	CmdGetPierSide   = 'p'
	CmdHibernate     = 'x'
	CmdWakeup        = 'y'
	CmdPassthrough   = 'P'
)

// Passthrough sub-commands
const (
	PassMovePositive = 0x24
	PassMoveNegative = 0x25
	PassGetVersion   = 0xFE
)

// Passthrough frame layout
const (
	MaxPassthroughPayload = 4
	PassthroughFrameSize  = 4 + MaxPassthroughPayload // preamble, length, dest, id, payload
)

// Response lengths (including the terminator)
const (
	respVersionLen  = 3
	respByteLen     = 2
	respAckLen      = 1
	respCoordsLen   = 10
	respPreciseLen  = 18
	respLocationLen = 9
	respTimeLen     = 9
)

// TrackingMode is the mount tracking setting
type TrackingMode uint8

// Tracking modes
const (
	TrackingOff     TrackingMode = 0
	TrackingAltAz   TrackingMode = 1
	TrackingEQNorth TrackingMode = 2
	TrackingEQSouth TrackingMode = 3
)

// String returns the tracking mode name
func (m TrackingMode) String() string {
	switch m {
	case TrackingOff:
		return "OFF"
	case TrackingAltAz:
		return "ALT_AZ"
	case TrackingEQNorth:
		return "EQ_NORTH"
	case TrackingEQSouth:
		return "EQ_SOUTH"
	default:
		return "UNKNOWN"
	}
}

// String returns the device name
func (d DeviceID) String() string {
	switch d {
	case DevMain:
		return "MAIN"
	case DevHandController:
		return "HC"
	case DevRA:
		return "RA"
	case DevDec:
		return "DEC"
	case DevGPS:
		return "GPS"
	case DevRTC:
		return "RTC"
	default:
		return "UNKNOWN"
	}
}

// ParseDeviceID resolves a device name (ra, dec, gps, ...) to its ID
func ParseDeviceID(name string) (DeviceID, bool) {
	switch name {
	case "main", "MAIN":
		return DevMain, true
	case "hc", "HC":
		return DevHandController, true
	case "ra", "RA", "azm", "AZM":
		return DevRA, true
	case "dec", "DEC", "alt", "ALT":
		return DevDec, true
	case "gps", "GPS":
		return DevGPS, true
	case "rtc", "RTC":
		return DevRTC, true
	}
	return 0, false
}
