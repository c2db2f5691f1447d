// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Precision selects the fixed-point angle encoding used on the wire
type Precision int

const (
	// Standard is the 16-bit encoding (4 hex digits per angle)
	Standard Precision = iota
	// Precise is the 32-bit encoding (8 hex digits per angle)
	Precise
)

// ErrInvalidAngle is returned for NaN or infinite angles
var ErrInvalidAngle = errors.New("nexstar: angle is not a finite number")

// String returns the precision name
func (p Precision) String() string {
	if p == Precise {
		return "precise"
	}
	return "standard"
}

// MaxValue returns the wire value corresponding to a full turn
func (p Precision) MaxValue() uint32 {
	if p == Precise {
		return 0xFFFFFFFF
	}
	return 0xFFFF
}

// HexDigits returns the width of one encoded angle
func (p Precision) HexDigits() int {
	if p == Precise {
		return 8
	}
	return 4
}

// Step returns the angular resolution in degrees
func (p Precision) Step() float64 {
	return 360.0 / float64(p.MaxValue())
}

// pairLen is the length of an encoded pair including the terminator
func (p Precision) pairLen() int {
	if p == Precise {
		return respPreciseLen
	}
	return respCoordsLen
}

// NormalizeDegrees wraps an angle into [0, 360)
func NormalizeDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// SignedDegrees maps an angle in [0, 360) to (-180, 180].
// Declination and altitude are reported this way by hand controllers.
func SignedDegrees(deg float64) float64 {
	deg = NormalizeDegrees(deg)
	if deg > 180 {
		return deg - 360
	}
	return deg
}

// EncodeAngle converts degrees to the wire integer, truncating toward zero
func EncodeAngle(deg float64, p Precision) (uint32, error) {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, ErrInvalidAngle
	}
	deg = NormalizeDegrees(deg)
	scale := float64(p.MaxValue()) / 360.0
	return uint32(deg * scale), nil
}

// DecodeAngle converts a wire integer to degrees
func DecodeAngle(v uint32, p Precision) float64 {
	return float64(v) * 360.0 / float64(p.MaxValue())
}

// FormatCoordPair encodes two angles as "HHHH,HHHH" or "HHHHHHHH,HHHHHHHH"
func FormatCoordPair(a, b float64, p Precision) (string, error) {
	va, err := EncodeAngle(a, p)
	if err != nil {
		return "", err
	}
	vb, err := EncodeAngle(b, p)
	if err != nil {
		return "", err
	}
	if p == Precise {
		return fmt.Sprintf("%08X,%08X", va, vb), nil
	}
	return fmt.Sprintf("%04X,%04X", va, vb), nil
}

// ParseCoordPair decodes a terminated "HHHH,HHHH#" reply into two angles.
// Field count, field width and hex digits are all validated.
func ParseCoordPair(cmd byte, resp []byte, p Precision) (float64, float64, error) {
	malformed := func(reason string) error {
		return &MalformedResponseError{Command: cmd, Response: resp, Reason: reason}
	}

	body, ok := strings.CutSuffix(string(resp), string(rune(Terminator)))
	if !ok {
		return 0, 0, malformed("missing terminator")
	}

	fields := strings.Split(body, ",")
	if len(fields) != 2 {
		return 0, 0, malformed(fmt.Sprintf("expected 2 fields, got %d", len(fields)))
	}

	var values [2]float64
	for i, field := range fields {
		if len(field) != p.HexDigits() {
			return 0, 0, malformed(fmt.Sprintf("field %d has %d digits, expected %d", i, len(field), p.HexDigits()))
		}
		v, err := strconv.ParseUint(field, 16, 32)
		if err != nil {
			return 0, 0, malformed(fmt.Sprintf("field %d is not hex", i))
		}
		values[i] = DecodeAngle(uint32(v), p)
	}

	return values[0], values[1], nil
}
