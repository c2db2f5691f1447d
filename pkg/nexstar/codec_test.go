// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPassthrough(t *testing.T) {
	tests := []struct {
		name    string
		dest    DeviceID
		id      byte
		payload []byte
		want    []byte
	}{
		{
			name: "version request with empty payload",
			dest: DevRA,
			id:   PassGetVersion,
			want: []byte{'P', 0x01, 0x10, 0xFE, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:    "one byte payload",
			dest:    DevDec,
			id:      PassMovePositive,
			payload: []byte{0x09},
			want:    []byte{'P', 0x02, 0x11, 0x24, 0x09, 0x00, 0x00, 0x00},
		},
		{
			name:    "full payload",
			dest:    DevGPS,
			id:      0x01,
			payload: []byte{0xAA, 0xBB, 0xCC, 0xDD},
			want:    []byte{'P', 0x05, 0xB0, 0x01, 0xAA, 0xBB, 0xCC, 0xDD},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildPassthrough(tt.dest, tt.id, tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSendPassthrough(t *testing.T) {
	port := newFakePort("\x07\x0B#")
	c := New(port)

	resp, err := c.SendPassthrough(DevRA, PassGetVersion, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x07\x0B#"), resp)
	assert.Equal(t, []byte{'P', 0x01, 0x10, 0xFE, 0x00, 0x00, 0x00, 0x00}, port.lastWrite())
}

func TestSendPassthrough_InvalidPayload(t *testing.T) {
	port := newFakePort("#")
	c := New(port)

	_, err := c.SendPassthrough(DevRA, 0x24, []byte{1, 2, 3, 4, 5}, 1)
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Empty(t, port.writes, "invalid payload must not reach the port")
	assert.Equal(t, 0, port.resets)
}

func TestSendPacket_ShortRead(t *testing.T) {
	port := newFakePort("\x04")
	c := New(port)

	resp, err := c.SendPacket([]byte{'V'}, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShortRead)
	assert.ErrorIs(t, err, ErrTimeout)

	var srErr *ShortReadError
	require.True(t, errors.As(err, &srErr))
	assert.Equal(t, 3, srErr.Want)
	assert.Equal(t, 1, srErr.Got)
	assert.Equal(t, []byte{0x04}, resp)
}

func TestSendPacket_NoReply(t *testing.T) {
	c := New(newFakePort())

	_, err := c.Version()
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestSendPacket_FlushesStaleInput(t *testing.T) {
	port := newFakePort("\x0E#")
	port.stale = []byte("1#")
	c := New(port)

	model, err := c.Model()
	require.NoError(t, err)
	assert.Equal(t, uint8(14), model)
	assert.Equal(t, 1, port.resets)
}

func TestSendPacket_WriteError(t *testing.T) {
	port := newFakePort()
	port.writeErr = errors.New("device unplugged")
	c := New(port)

	_, err := c.Model()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var tErr *TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, "write", tErr.Op)
}

func TestSendPacket_ReadError(t *testing.T) {
	port := newFakePort("\x01#")
	port.readErr = errors.New("i/o error")
	c := New(port)

	_, err := c.Model()
	assert.ErrorIs(t, err, ErrTransport)
}

func TestCodec_Close(t *testing.T) {
	port := newFakePort("\x01#")
	c := New(port)

	require.NoError(t, c.Close())
	assert.True(t, port.closed)
	require.NoError(t, c.Close(), "second close is a no-op")

	_, err := c.Model()
	assert.ErrorIs(t, err, ErrClosed)
	assert.Empty(t, port.writes)
}

func TestVersion(t *testing.T) {
	port := newFakePort("\x04\x18\x23")
	c := New(port)

	v, err := c.Version()
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 4, Minor: 24}, v)
	assert.Equal(t, "4.24", v.String())
	assert.Equal(t, []byte("V"), port.lastWrite())
}

func TestModel(t *testing.T) {
	port := newFakePort("\x01\x23")
	c := New(port)

	m, err := c.Model()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), m)
	assert.Equal(t, []byte("m"), port.lastWrite())
}

func TestVariantAndEcho(t *testing.T) {
	port := newFakePort("\x11#", "x#")
	c := New(port)

	v, err := c.Variant()
	require.NoError(t, err)
	assert.Equal(t, uint8(0x11), v)
	assert.Equal(t, []byte("v"), port.lastWrite())

	e, err := c.Echo('x')
	require.NoError(t, err)
	assert.Equal(t, byte('x'), e)
	assert.Equal(t, []byte("Kx"), port.lastWrite())
}

func TestDeviceVersion(t *testing.T) {
	port := newFakePort("\x07\x0B#")
	c := New(port)

	v, err := c.DeviceVersion(DevDec)
	require.NoError(t, err)
	assert.Equal(t, Version{Major: 7, Minor: 11}, v)
	assert.Equal(t, []byte{'P', 0x01, 0x11, 0xFE, 0, 0, 0, 0}, port.lastWrite())
}

func TestSlewAxis(t *testing.T) {
	tests := []struct {
		name string
		slew func(c *Codec) error
		want []byte
	}{
		{
			name: "ra forward",
			slew: func(c *Codec) error { return c.SlewRA(9, false) },
			want: []byte{'P', 0x02, 0x10, 0x24, 9, 0, 0, 0},
		},
		{
			name: "ra reverse",
			slew: func(c *Codec) error { return c.SlewRA(3, true) },
			want: []byte{'P', 0x02, 0x10, 0x25, 3, 0, 0, 0},
		},
		{
			name: "dec stop",
			slew: func(c *Codec) error { return c.SlewDec(0, false) },
			want: []byte{'P', 0x02, 0x11, 0x24, 0, 0, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			port := newFakePort()
			c := New(port)

			require.NoError(t, tt.slew(c), "slew reads no reply")
			assert.Equal(t, tt.want, port.lastWrite())
		})
	}
}

func TestEqCoords(t *testing.T) {
	port := newFakePort("8000,4000#", "071C71C7,00000000#")
	c := New(port)

	ra, dec, err := c.EqCoords(Standard)
	require.NoError(t, err)
	assert.InDelta(t, 180.0027, ra, 0.0001)
	assert.InDelta(t, 90.0014, dec, 0.0001)
	assert.Equal(t, []byte("E"), port.lastWrite())

	ra, dec, err = c.EqCoords(Precise)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, ra, Precise.Step())
	assert.Equal(t, 0.0, dec)
	assert.Equal(t, []byte("e"), port.lastWrite())
}

func TestCoords_TopCodeWrapsToZero(t *testing.T) {
	c := New(newFakePort("FFFF,FFFF#", "FFFFFFFF,80000000#", "FFFF,0000#"))

	ra, dec, err := c.EqCoords(Standard)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ra)
	assert.Equal(t, 0.0, dec)

	ra, dec, err = c.EqCoords(Precise)
	require.NoError(t, err)
	assert.Equal(t, 0.0, ra)
	assert.InDelta(t, 180.0, dec, Precise.Step())

	az, alt, err := c.AzCoords(Standard)
	require.NoError(t, err)
	assert.Equal(t, 0.0, az)
	assert.Equal(t, 0.0, alt)
}

func TestEqCoords_Errors(t *testing.T) {
	t.Run("timeout before terminator", func(t *testing.T) {
		c := New(newFakePort("8000,40"))
		_, _, err := c.EqCoords(Standard)
		assert.ErrorIs(t, err, ErrShortRead)
	})

	t.Run("no terminator within reply length", func(t *testing.T) {
		c := New(newFakePort("8000,40001234"))
		_, _, err := c.EqCoords(Standard)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})

	t.Run("bad hex", func(t *testing.T) {
		c := New(newFakePort("8000,ZZZZ#"))
		_, _, err := c.EqCoords(Standard)
		assert.ErrorIs(t, err, ErrMalformedResponse)
	})
}

func TestAzCoords(t *testing.T) {
	port := newFakePort("4000,0E39#")
	c := New(port)

	az, alt, err := c.AzCoords(Standard)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, az, 0.01)
	assert.InDelta(t, 20.0, alt, 0.01)
	assert.Equal(t, []byte("Z"), port.lastWrite())
}

func TestSetAndGotoEqCoords(t *testing.T) {
	port := newFakePort("#", "#", "#", "#")
	c := New(port)

	require.NoError(t, c.SetEqCoords(0, 0, Standard))
	assert.Equal(t, []byte("S0000,0000"), port.lastWrite())

	require.NoError(t, c.GotoEqCoords(10, 0, Precise))
	assert.Equal(t, []byte("r071C71C7,00000000"), port.lastWrite())

	require.NoError(t, c.GotoEqCoords(180, -10, Standard))
	assert.Equal(t, []byte("R7FFF,F8E2"), port.lastWrite())

	require.NoError(t, c.GotoAzCoords(10, 0, Precise))
	assert.Equal(t, []byte("b071C71C7,00000000"), port.lastWrite())
}

func TestSetEqCoords_InvalidAngle(t *testing.T) {
	port := newFakePort("#")
	c := New(port)

	err := c.SetEqCoords(0, math.Inf(1), Precise)
	assert.ErrorIs(t, err, ErrInvalidAngle)
	assert.Empty(t, port.writes)
}

func TestCancelGoto(t *testing.T) {
	port := newFakePort("#")
	c := New(port)

	require.NoError(t, c.CancelGoto())
	assert.Equal(t, []byte("M"), port.lastWrite())
}

func TestIsSlewing(t *testing.T) {
	tests := []struct {
		reply string
		want  bool
	}{
		{"0#", false},
		{"1#", true},
		{"\x00#", true},
		{"##", true},
	}

	for _, tt := range tests {
		port := newFakePort(tt.reply)
		c := New(port)

		got, err := c.IsSlewing()
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "IsSlewing() with reply %q", tt.reply)
		assert.Equal(t, []byte("L"), port.lastWrite())
	}
}

func TestIsAligned(t *testing.T) {
	c := New(newFakePort("\x01#", "\x00#"))

	aligned, err := c.IsAligned()
	require.NoError(t, err)
	assert.True(t, aligned)

	aligned, err = c.IsAligned()
	require.NoError(t, err)
	assert.False(t, aligned)
}

func TestTrackingMode(t *testing.T) {
	port := newFakePort("\x02#", "#")
	c := New(port)

	mode, err := c.TrackingMode()
	require.NoError(t, err)
	assert.Equal(t, TrackingEQNorth, mode)
	assert.Equal(t, "EQ_NORTH", mode.String())
	assert.Equal(t, []byte("t"), port.lastWrite())

	require.NoError(t, c.SetTrackingMode(TrackingEQSouth))
	assert.Equal(t, []byte{'T', 0x03}, port.lastWrite())
}

func TestPierSide(t *testing.T) {
	c := New(newFakePort("W#"))

	side, err := c.PierSide()
	require.NoError(t, err)
	assert.Equal(t, PierWest, side)
	assert.Equal(t, "WEST", side.String())
}

func TestHibernateAndWakeup(t *testing.T) {
	port := newFakePort("", "#")
	c := New(port)

	require.NoError(t, c.Hibernate())
	assert.Equal(t, []byte("x"), port.lastWrite())

	require.NoError(t, c.Wakeup())
	assert.Equal(t, []byte("y"), port.lastWrite())
}

func TestLocation(t *testing.T) {
	port := newFakePort("#", "\x2B\x20\x18\x00\x05\x27\x1D\x01#")
	c := New(port)

	require.NoError(t, c.SetLocation(Location{Latitude: 43.54, Longitude: -5.658}))
	assert.Equal(t, []byte{'W', 43, 32, 24, 0, 5, 39, 29, 1}, port.lastWrite())

	loc, err := c.Location()
	require.NoError(t, err)
	assert.InDelta(t, 43.54, loc.Latitude, 0.0003)
	assert.InDelta(t, -5.658, loc.Longitude, 0.0003)
}

func TestSetLocation_OutOfRange(t *testing.T) {
	port := newFakePort("#")
	c := New(port)

	assert.Error(t, c.SetLocation(Location{Latitude: 91}))
	assert.Error(t, c.SetLocation(Location{Longitude: -181}))
	assert.Empty(t, port.writes)
}

func TestTime(t *testing.T) {
	port := newFakePort("#", "\x15\x04\x09\x03\x05\x18\x01\x00#")
	c := New(port)

	local := time.FixedZone("CET", 3600)
	when := time.Date(2024, time.March, 5, 21, 4, 9, 0, local)

	require.NoError(t, c.SetTime(when))
	assert.Equal(t, []byte{'H', 21, 4, 9, 3, 5, 24, 1, 0}, port.lastWrite())

	got, err := c.Time()
	require.NoError(t, err)
	assert.True(t, when.Equal(got), "Time() = %v, want %v", got, when)
	_, offset := got.Zone()
	assert.Equal(t, 3600, offset)
}

func TestSetTime_NegativeOffset(t *testing.T) {
	port := newFakePort("#")
	c := New(port)

	when := time.Date(2030, time.December, 31, 23, 59, 59, 0, time.FixedZone("EST", -5*3600))
	require.NoError(t, c.SetTime(when))
	assert.Equal(t, []byte{'H', 23, 59, 59, 12, 31, 30, 0xFB, 0}, port.lastWrite())
}

func TestSetTime_FractionalOffset(t *testing.T) {
	port := newFakePort("#")
	c := New(port)

	when := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	err := c.SetTime(when)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "whole number of hours")
	assert.Empty(t, port.writes)
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "4.05", Version{Major: 4, Minor: 5}.String())
	assert.Equal(t, "4.24", Version{Major: 4, Minor: 24}.String())
	assert.Equal(t, "0.00", Version{}.String())
}

func TestRecorder(t *testing.T) {
	var buf bytes.Buffer
	rec := NewCBORRecorder(&buf)

	c := New(newFakePort("\x04\x18#", "\x04"), WithRecorder(rec))

	_, err := c.Version()
	require.NoError(t, err)
	_, err = c.Version()
	require.Error(t, err)
	require.NoError(t, rec.Err())

	exchanges, err := ReadTrace(&buf)
	require.NoError(t, err)
	require.Len(t, exchanges, 2)

	assert.Equal(t, []byte("V"), exchanges[0].Request)
	assert.Equal(t, []byte("\x04\x18#"), exchanges[0].Response)
	assert.Equal(t, 3, exchanges[0].Expected)
	assert.Empty(t, exchanges[0].Err)

	assert.Equal(t, []byte("\x04"), exchanges[1].Response)
	assert.Contains(t, exchanges[1].Err, "short read")
}
