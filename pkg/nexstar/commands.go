// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"fmt"
	"math"
	"time"
)

// Version is a firmware version pair
type Version struct {
	Major uint8
	Minor uint8
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%02d", v.Major, v.Minor)
}

// Version returns the hand controller firmware version
func (c *Codec) Version() (Version, error) {
	resp, err := c.command(CmdGetVersion, nil, fixedLength(respVersionLen), respVersionLen)
	if err != nil {
		return Version{}, err
	}
	return decodeVersion(resp), nil
}

// Model returns the mount model id
func (c *Codec) Model() (uint8, error) {
	return c.queryByte(CmdGetModel)
}

// Variant returns the controller variant byte
func (c *Codec) Variant() (uint8, error) {
	return c.queryByte(CmdGetVariant)
}

// Echo sends a byte and returns what the mount echoed back
func (c *Codec) Echo(b byte) (byte, error) {
	resp, err := c.command(CmdEcho, []byte{b}, fixedLength(respByteLen), respByteLen)
	if err != nil {
		return 0, err
	}
	return resp[0], nil
}

// DeviceVersion returns the firmware version of a mount subsystem
func (c *Codec) DeviceVersion(dest DeviceID) (Version, error) {
	resp, err := c.SendPassthrough(dest, PassGetVersion, nil, respVersionLen)
	if err != nil {
		return Version{}, err
	}
	return decodeVersion(resp), nil
}

// SlewAxis drives a motor controller at a fixed rate. Rate 0 stops the axis.
// No reply is read.
func (c *Codec) SlewAxis(dest DeviceID, rate uint8, reverse bool) error {
	var id byte = PassMovePositive
	if reverse {
		id = PassMoveNegative
	}
	_, err := c.SendPassthrough(dest, id, []byte{rate}, 0)
	return err
}

// SlewRA drives the RA motor at a fixed rate
func (c *Codec) SlewRA(rate uint8, reverse bool) error {
	return c.SlewAxis(DevRA, rate, reverse)
}

// SlewDec drives the Dec motor at a fixed rate
func (c *Codec) SlewDec(rate uint8, reverse bool) error {
	return c.SlewAxis(DevDec, rate, reverse)
}

// EqCoords returns right ascension and declination in degrees, both in [0, 360)
func (c *Codec) EqCoords(p Precision) (ra, dec float64, err error) {
	cmd := byte(CmdGetEq)
	if p == Precise {
		cmd = CmdGetEqPrecise
	}
	return c.coordQuery(cmd, p)
}

// AzCoords returns azimuth and altitude in degrees, both in [0, 360)
func (c *Codec) AzCoords(p Precision) (az, alt float64, err error) {
	cmd := byte(CmdGetAz)
	if p == Precise {
		cmd = CmdGetAzPrecise
	}
	return c.coordQuery(cmd, p)
}

// SetEqCoords overrides the mount's idea of where it is pointing (sync)
func (c *Codec) SetEqCoords(ra, dec float64, p Precision) error {
	cmd := byte(CmdSyncEq)
	if p == Precise {
		cmd = CmdSyncEqPrecise
	}
	return c.coordCommand(cmd, ra, dec, p)
}

// GotoEqCoords starts a slew to the given equatorial position
func (c *Codec) GotoEqCoords(ra, dec float64, p Precision) error {
	cmd := byte(CmdGotoEq)
	if p == Precise {
		cmd = CmdGotoEqPrecise
	}
	return c.coordCommand(cmd, ra, dec, p)
}

// GotoAzCoords starts a slew to the given horizontal position
func (c *Codec) GotoAzCoords(az, alt float64, p Precision) error {
	cmd := byte(CmdGotoAz)
	if p == Precise {
		cmd = CmdGotoAzPrecise
	}
	return c.coordCommand(cmd, az, alt, p)
}

// CancelGoto aborts a goto in progress
func (c *Codec) CancelGoto() error {
	return c.ack(CmdCancelGoto, nil)
}

// IsSlewing reports whether a goto is in progress
func (c *Codec) IsSlewing() (bool, error) {
	b, err := c.queryByte(CmdIsSlewing)
	if err != nil {
		return false, err
	}
	return b != '0', nil
}

// IsAligned reports whether the mount has completed alignment
func (c *Codec) IsAligned() (bool, error) {
	b, err := c.queryByte(CmdIsAligned)
	if err != nil {
		return false, err
	}
	return b != 0, nil
}

// TrackingMode returns the current tracking mode
func (c *Codec) TrackingMode() (TrackingMode, error) {
	b, err := c.queryByte(CmdGetTracking)
	return TrackingMode(b), err
}

// SetTrackingMode changes the tracking mode
func (c *Codec) SetTrackingMode(mode TrackingMode) error {
	return c.ack(CmdSetTracking, []byte{byte(mode)})
}

// PierSide is the side of the pier the telescope tube is on
type PierSide byte

// Pier sides as reported by the mount
const (
	PierEast PierSide = 'E'
	PierWest PierSide = 'W'
)

func (s PierSide) String() string {
	switch s {
	case PierEast:
		return "EAST"
	case PierWest:
		return "WEST"
	default:
		return "UNKNOWN"
	}
}

// PierSide returns the pier side reported by the mount
func (c *Codec) PierSide() (PierSide, error) {
	b, err := c.queryByte(CmdGetPierSide)
	return PierSide(b), err
}

// Hibernate puts the mount to sleep. The mount does not reply.
func (c *Codec) Hibernate() error {
	_, err := c.command(CmdHibernate, nil, fixedLength(0), 0)
	return err
}

// Wakeup resumes a hibernating mount
func (c *Codec) Wakeup() error {
	return c.ack(CmdWakeup, nil)
}

// Location is an observing site in signed degrees (north and east positive)
type Location struct {
	Latitude  float64
	Longitude float64
}

// Location returns the observing site stored in the mount
func (c *Codec) Location() (Location, error) {
	resp, err := c.command(CmdGetLocation, nil, fixedLength(respLocationLen), respLocationLen)
	if err != nil {
		return Location{}, err
	}
	return Location{
		Latitude:  decodeSexagesimal(resp[0:4]),
		Longitude: decodeSexagesimal(resp[4:8]),
	}, nil
}

// SetLocation stores the observing site in the mount
func (c *Codec) SetLocation(loc Location) error {
	payload, err := encodeLocation(loc)
	if err != nil {
		return err
	}
	return c.ack(CmdSetLocation, payload)
}

func encodeLocation(loc Location) ([]byte, error) {
	if math.IsNaN(loc.Latitude) || math.Abs(loc.Latitude) > 90 {
		return nil, fmt.Errorf("latitude out of range: %v", loc.Latitude)
	}
	if math.IsNaN(loc.Longitude) || math.Abs(loc.Longitude) > 180 {
		return nil, fmt.Errorf("longitude out of range: %v", loc.Longitude)
	}
	payload := make([]byte, 0, 8)
	payload = append(payload, encodeSexagesimal(loc.Latitude)...)
	payload = append(payload, encodeSexagesimal(loc.Longitude)...)
	return payload, nil
}

// encodeSexagesimal produces deg, min, sec, sign (1 = negative)
func encodeSexagesimal(deg float64) []byte {
	var sign byte
	if deg < 0 {
		sign = 1
		deg = -deg
	}
	total := int(math.Round(deg * 3600))
	return []byte{byte(total / 3600), byte(total % 3600 / 60), byte(total % 60), sign}
}

func decodeSexagesimal(b []byte) float64 {
	deg := float64(b[0]) + float64(b[1])/60 + float64(b[2])/3600
	if b[3] != 0 {
		return -deg
	}
	return deg
}

// Time returns the mount clock. The zone carries the mount's UTC offset.
func (c *Codec) Time() (time.Time, error) {
	resp, err := c.command(CmdGetTime, nil, fixedLength(respTimeLen), respTimeLen)
	if err != nil {
		return time.Time{}, err
	}

	offset := int(int8(resp[6]))
	if resp[7] != 0 {
		offset++
	}
	zone := time.FixedZone(fmt.Sprintf("UTC%+d", offset), offset*3600)

	return time.Date(2000+int(resp[5]), time.Month(resp[3]), int(resp[4]),
		int(resp[0]), int(resp[1]), int(resp[2]), 0, zone), nil
}

// SetTime sets the mount clock from t, keeping t's zone offset.
// The mount stores whole-hour offsets only, so zones such as +05:30 are
// rejected.
func (c *Codec) SetTime(t time.Time) error {
	payload, err := encodeTime(t)
	if err != nil {
		return err
	}
	return c.ack(CmdSetTime, payload)
}

func encodeTime(t time.Time) ([]byte, error) {
	if t.Year() < 2000 || t.Year() > 2255 {
		return nil, fmt.Errorf("year out of range: %d", t.Year())
	}
	_, offsetSec := t.Zone()
	if offsetSec%3600 != 0 {
		return nil, fmt.Errorf("UTC offset %+.2fh is not a whole number of hours", float64(offsetSec)/3600)
	}
	return []byte{
		byte(t.Hour()),
		byte(t.Minute()),
		byte(t.Second()),
		byte(t.Month()),
		byte(t.Day()),
		byte(t.Year() - 2000),
		byte(int8(offsetSec / 3600)),
		0, // DST is folded into the offset
	}, nil
}
