// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"errors"
	"fmt"
)

// Sentinel errors, match with errors.Is
var (
	ErrTransport         = errors.New("nexstar: transport error")
	ErrShortRead         = errors.New("nexstar: short read")
	ErrTimeout           = errors.New("nexstar: read timeout")
	ErrInvalidPayload    = errors.New("nexstar: invalid passthrough payload size")
	ErrMalformedResponse = errors.New("nexstar: malformed response")
	ErrClosed            = errors.New("nexstar: codec closed")
)

// TransportError wraps a failure of the underlying port
type TransportError struct {
	Op  string // open, write, read, flush, close
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("nexstar: %s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is reports ErrTransport as a match
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ShortReadError is returned when the read timeout elapses before the
// expected response has arrived. Data holds whatever was received.
type ShortReadError struct {
	Want int
	Got  int
	Data []byte
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("nexstar: short read: expected %d bytes, got %d", e.Want, e.Got)
}

// Is reports both ErrShortRead and ErrTimeout as matches
func (e *ShortReadError) Is(target error) bool {
	return target == ErrShortRead || target == ErrTimeout
}

// MalformedResponseError is returned when an ASCII reply cannot be parsed
type MalformedResponseError struct {
	Command  byte
	Response []byte
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("nexstar: malformed response to '%c': %s (%q)", e.Command, e.Reason, e.Response)
}

// Is reports ErrMalformedResponse as a match
func (e *MalformedResponseError) Is(target error) bool {
	return target == ErrMalformedResponse
}
