// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"bytes"
	"errors"
)

// fakePort replays scripted replies. Each Write queues the next reply,
// which only becomes readable after ResetInputBuffer so that the flush in
// the exchange cannot discard it. Bytes in stale are visible before the
// flush. An exhausted buffer reads as a timeout (0, nil).
type fakePort struct {
	replies  [][]byte
	pending  []byte
	stale    []byte
	buf      bytes.Buffer
	writes   [][]byte
	resets   int
	closed   bool
	writeErr error
	readErr  error
}

func newFakePort(replies ...string) *fakePort {
	p := &fakePort{}
	for _, r := range replies {
		p.replies = append(p.replies, []byte(r))
	}
	return p
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.writeErr != nil {
		return 0, p.writeErr
	}
	p.writes = append(p.writes, append([]byte(nil), b...))
	p.buf.Write(p.stale)
	p.stale = nil
	if len(p.replies) > 0 {
		p.pending = p.replies[0]
		p.replies = p.replies[1:]
	}
	return len(b), nil
}

func (p *fakePort) ResetInputBuffer() error {
	p.resets++
	p.buf.Reset()
	p.buf.Write(p.pending)
	p.pending = nil
	return nil
}

func (p *fakePort) Read(b []byte) (int, error) {
	if p.readErr != nil {
		return 0, p.readErr
	}
	if p.buf.Len() == 0 {
		return 0, nil
	}
	return p.buf.Read(b)
}

func (p *fakePort) Close() error {
	if p.closed {
		return errors.New("already closed")
	}
	p.closed = true
	return nil
}

// lastWrite returns the most recent request
func (p *fakePort) lastWrite() []byte {
	if len(p.writes) == 0 {
		return nil
	}
	return p.writes[len(p.writes)-1]
}
