// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"io"
	"time"

	"go.bug.st/serial"
)

// Port is the byte stream a Codec drives.
//
// Read must return (0, nil) when the read timeout elapses with no data,
// which is how go.bug.st/serial reports a timeout. ResetInputBuffer
// discards input that has been received but not yet read.
type Port interface {
	io.Reader
	io.Writer
	io.Closer
	ResetInputBuffer() error
}

// OpenSerialPort opens a serial device configured for the NexStar link (8N1)
func OpenSerialPort(portName string, baudRate int, readTimeout time.Duration) (Port, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, &TransportError{Op: "open " + portName, Err: err}
	}

	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, &TransportError{Op: "set read timeout", Err: err}
	}

	return port, nil
}

// ListSerialPorts returns the serial devices present on the host
func ListSerialPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, &TransportError{Op: "list ports", Err: err}
	}
	return ports, nil
}
