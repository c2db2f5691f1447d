// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Codec speaks the NexStar command set over a Port.
//
// The protocol is half-duplex: a Codec performs one exchange at a time and
// holds no lock. Callers sharing a Codec between goroutines must serialize
// access themselves.
type Codec struct {
	port     Port
	log      *zap.Logger
	recorder Recorder
	closed   bool
}

type options struct {
	baudRate    int
	readTimeout time.Duration
	settleDelay time.Duration
	logger      *zap.Logger
	recorder    Recorder
}

// Option configures a Codec
type Option func(*options)

// WithBaudRate overrides the 9600 baud default (serial only)
func WithBaudRate(baud int) Option {
	return func(o *options) {
		if baud > 0 {
			o.baudRate = baud
		}
	}
}

// WithReadTimeout sets how long a read waits for the next byte (serial only)
func WithReadTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.readTimeout = d
		}
	}
}

// WithSettleDelay sets the pause between opening the port and the first
// command. Zero disables it.
func WithSettleDelay(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.settleDelay = d
		}
	}
}

// WithLogger sets the logger used for wire-level debug output
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRecorder records every exchange
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

func buildOptions(opts []Option) options {
	o := options{
		baudRate:    BaudRate,
		readTimeout: DefaultReadTimeout,
		settleDelay: DefaultSettleDelay,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open opens a serial device and waits for the mount interface to settle.
// Microcontroller-based interfaces reset when the port opens, so commands
// sent during the settle delay would be lost.
func Open(portName string, opts ...Option) (*Codec, error) {
	o := buildOptions(opts)

	port, err := OpenSerialPort(portName, o.baudRate, o.readTimeout)
	if err != nil {
		return nil, err
	}

	o.logger.Debug("serial port open",
		zap.String("port", portName),
		zap.Int("baud", o.baudRate),
		zap.Duration("timeout", o.readTimeout),
		zap.Duration("settle", o.settleDelay))

	if o.settleDelay > 0 {
		time.Sleep(o.settleDelay)
	}

	return newCodec(port, o), nil
}

// New wraps an open Port. No settle delay is applied.
func New(port Port, opts ...Option) *Codec {
	return newCodec(port, buildOptions(opts))
}

func newCodec(port Port, o options) *Codec {
	return &Codec{
		port:     port,
		log:      o.logger,
		recorder: o.recorder,
	}
}

// Close releases the port. Closing twice is a no-op.
func (c *Codec) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if err := c.port.Close(); err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// responseReader reads one reply from the port
type responseReader func(c *Codec) ([]byte, error)

// fixedLength reads exactly n bytes
func fixedLength(n int) responseReader {
	return func(c *Codec) ([]byte, error) {
		return c.readFull(n)
	}
}

// terminated reads up to and including the terminator, at most max bytes
func terminated(max int) responseReader {
	return func(c *Codec) ([]byte, error) {
		return c.readTerminated(max)
	}
}

// SendPacket writes data, discards stale input and reads exactly n bytes.
// A reply shorter than n is reported as *ShortReadError.
func (c *Codec) SendPacket(data []byte, n int) ([]byte, error) {
	return c.exchange(data, n, fixedLength(n))
}

// SendPassthrough routes a command to a mount subsystem
func (c *Codec) SendPassthrough(dest DeviceID, id byte, payload []byte, n int) ([]byte, error) {
	frame, err := BuildPassthrough(dest, id, payload)
	if err != nil {
		return nil, err
	}
	return c.SendPacket(frame, n)
}

// BuildPassthrough assembles a passthrough frame:
// 'P', len(payload)+1, dest, id, payload padded with zeros to 4 bytes.
func BuildPassthrough(dest DeviceID, id byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPassthroughPayload {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrInvalidPayload, len(payload), MaxPassthroughPayload)
	}

	frame := make([]byte, PassthroughFrameSize)
	frame[0] = CmdPassthrough
	frame[1] = byte(len(payload) + 1)
	frame[2] = byte(dest)
	frame[3] = id
	copy(frame[4:], payload)

	return frame, nil
}

func (c *Codec) exchange(req []byte, expected int, read responseReader) ([]byte, error) {
	if c.closed {
		return nil, ErrClosed
	}

	c.log.Debug("sent", zap.String("cmd", CommandName(req)), zap.Binary("data", req))

	resp, err := c.roundTrip(req, read)

	if err != nil {
		c.log.Debug("exchange failed", zap.String("cmd", CommandName(req)), zap.Binary("recv", resp), zap.Error(err))
	} else {
		c.log.Debug("recv", zap.String("cmd", CommandName(req)), zap.Binary("data", resp))
	}

	if c.recorder != nil {
		ex := Exchange{
			Time:     time.Now(),
			Request:  append([]byte(nil), req...),
			Response: append([]byte(nil), resp...),
			Expected: expected,
		}
		if err != nil {
			ex.Err = err.Error()
		}
		c.recorder.Record(ex)
	}

	return resp, err
}

func (c *Codec) roundTrip(req []byte, read responseReader) ([]byte, error) {
	if _, err := c.port.Write(req); err != nil {
		return nil, &TransportError{Op: "write", Err: err}
	}

	// Drop anything left over from an earlier exchange that timed out
	if err := c.port.ResetInputBuffer(); err != nil {
		return nil, &TransportError{Op: "flush", Err: err}
	}

	return read(c)
}

// readFull reads exactly n bytes. A zero-length read means the port timed out.
func (c *Codec) readFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	got := 0
	for got < n {
		m, err := c.port.Read(buf[got:])
		got += m
		if err != nil {
			return buf[:got], &TransportError{Op: "read", Err: err}
		}
		if m == 0 {
			return buf[:got], &ShortReadError{Want: n, Got: got, Data: buf[:got]}
		}
	}
	return buf, nil
}

// readTerminated reads one byte at a time until the terminator arrives
func (c *Codec) readTerminated(max int) ([]byte, error) {
	buf := make([]byte, 0, max)
	b := make([]byte, 1)
	for len(buf) < max {
		m, err := c.port.Read(b)
		if err != nil {
			return buf, &TransportError{Op: "read", Err: err}
		}
		if m == 0 {
			return buf, &ShortReadError{Want: max, Got: len(buf), Data: buf}
		}
		buf = append(buf, b[0])
		if b[0] == Terminator {
			return buf, nil
		}
	}
	return buf, nil
}

// command sends a single-letter command with an optional payload
func (c *Codec) command(cmd byte, payload []byte, read responseReader, expected int) ([]byte, error) {
	req := make([]byte, 0, 1+len(payload))
	req = append(req, cmd)
	req = append(req, payload...)
	return c.exchange(req, expected, read)
}

// queryByte sends cmd and returns the first byte of a 2-byte reply
func (c *Codec) queryByte(cmd byte) (byte, error) {
	resp, err := c.command(cmd, nil, fixedLength(respByteLen), respByteLen)
	if err != nil {
		return 0, err
	}
	return resp[0], nil
}

// ack sends cmd with payload and reads the 1-byte acknowledgment
func (c *Codec) ack(cmd byte, payload []byte) error {
	_, err := c.command(cmd, payload, fixedLength(respAckLen), respAckLen)
	return err
}

// coordQuery reads an angle pair using the terminated ASCII strategy
func (c *Codec) coordQuery(cmd byte, p Precision) (float64, float64, error) {
	resp, err := c.command(cmd, nil, terminated(p.pairLen()), p.pairLen())
	if err != nil {
		return 0, 0, err
	}
	a, b, err := ParseCoordPair(cmd, resp, p)
	if err != nil {
		return 0, 0, err
	}
	// The top code decodes to exactly 360
	return NormalizeDegrees(a), NormalizeDegrees(b), nil
}

// coordCommand sends cmd followed by an encoded angle pair
func (c *Codec) coordCommand(cmd byte, a, b float64, p Precision) error {
	pair, err := FormatCoordPair(a, b, p)
	if err != nil {
		return err
	}
	return c.ack(cmd, []byte(pair))
}

// decodeVersion reads major/minor from a 3-byte binary reply
func decodeVersion(resp []byte) Version {
	return Version{Major: resp[0], Minor: resp[1]}
}

