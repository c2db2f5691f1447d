// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"fmt"
	"strings"
)

var commandNames = map[byte]string{
	CmdGetVersion:    "GET_VERSION",
	CmdGetVariant:    "GET_VARIANT",
	CmdGetModel:      "GET_MODEL",
	CmdEcho:          "ECHO",
	CmdGetEq:         "GET_EQ",
	CmdGetEqPrecise:  "GET_EQ_PRECISE",
	CmdGetAz:         "GET_AZ",
	CmdGetAzPrecise:  "GET_AZ_PRECISE",
	CmdSyncEq:        "SYNC_EQ",
	CmdSyncEqPrecise: "SYNC_EQ_PRECISE",
	CmdGotoEq:        "GOTO_EQ",
	CmdGotoEqPrecise: "GOTO_EQ_PRECISE",
	CmdGotoAz:        "GOTO_AZ",
	CmdGotoAzPrecise: "GOTO_AZ_PRECISE",
	CmdCancelGoto:    "CANCEL_GOTO",
	CmdIsSlewing:     "IS_SLEWING",
	CmdIsAligned:     "IS_ALIGNED",
	CmdGetTracking:   "GET_TRACKING",
	CmdSetTracking:   "SET_TRACKING",
	CmdGetLocation:   "GET_LOCATION",
	CmdSetLocation:   "SET_LOCATION",
	CmdGetTime:       "GET_TIME",
	CmdSetTime:       "SET_TIME",
	CmdGetPierSide:   "GET_PIER_SIDE",
	CmdHibernate:     "HIBERNATE",
	CmdWakeup:        "WAKEUP",
	CmdPassthrough:   "PASSTHROUGH",
}

// CommandName returns a readable name for a request
func CommandName(req []byte) string {
	if len(req) == 0 {
		return "EMPTY"
	}
	name, ok := commandNames[req[0]]
	if !ok {
		return "UNKNOWN"
	}
	if req[0] == CmdPassthrough && len(req) >= 4 {
		return fmt.Sprintf("%s %s %s", name, DeviceID(req[2]), passthroughName(req[3]))
	}
	return name
}

func passthroughName(id byte) string {
	switch id {
	case PassMovePositive:
		return "MOVE_POS"
	case PassMoveNegative:
		return "MOVE_NEG"
	case PassGetVersion:
		return "GET_VERSION"
	default:
		return fmt.Sprintf("0x%02X", id)
	}
}

// isTextCommand reports whether a command's request and reply are ASCII
func isTextCommand(cmd byte) bool {
	switch cmd {
	case CmdGetEq, CmdGetEqPrecise, CmdGetAz, CmdGetAzPrecise,
		CmdSyncEq, CmdSyncEqPrecise, CmdGotoEq, CmdGotoEqPrecise,
		CmdGotoAz, CmdGotoAzPrecise:
		return true
	}
	return false
}

// FormatBytes renders data as ASCII for text commands, hex otherwise
func FormatBytes(cmd byte, data []byte) string {
	if len(data) == 0 {
		return "(none)"
	}
	if isTextCommand(cmd) {
		return fmt.Sprintf("%q", data)
	}
	hex := make([]string, len(data))
	for i, b := range data {
		hex[i] = fmt.Sprintf("%02X", b)
	}
	return strings.Join(hex, " ")
}

// FormatExchange renders a recorded exchange in human-readable format
func FormatExchange(ex Exchange) string {
	var cmd byte
	if len(ex.Request) > 0 {
		cmd = ex.Request[0]
	}

	timestamp := ex.Time.Format("15:04:05.000")
	result := fmt.Sprintf("[%s] %s\n", timestamp, CommandName(ex.Request))
	result += fmt.Sprintf("  Sent: %s\n", FormatBytes(cmd, ex.Request))
	result += fmt.Sprintf("  Recv: %s (expected %d)\n", FormatBytes(cmd, ex.Response), ex.Expected)
	if ex.Err != "" {
		result += fmt.Sprintf("  Error: %s\n", ex.Err)
	}
	return result
}
