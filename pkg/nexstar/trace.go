// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Exchange is one request/response round trip on the link
type Exchange struct {
	Time     time.Time `cbor:"1,keyasint"`
	Request  []byte    `cbor:"2,keyasint"`
	Response []byte    `cbor:"3,keyasint,omitempty"`
	Expected int       `cbor:"4,keyasint,omitempty"`
	Err      string    `cbor:"5,keyasint,omitempty"`
}

// Recorder receives every exchange performed by a Codec
type Recorder interface {
	Record(ex Exchange)
}

// CBORRecorder appends exchanges to a writer as a CBOR sequence
type CBORRecorder struct {
	mu  sync.Mutex
	enc *cbor.Encoder
	err error
}

var traceEncMode = mustTraceEncMode()

func mustTraceEncMode() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("nexstar: trace encoder options: %v", err))
	}
	return em
}

// NewCBORRecorder creates a recorder writing to w
func NewCBORRecorder(w io.Writer) *CBORRecorder {
	return &CBORRecorder{enc: traceEncMode.NewEncoder(w)}
}

// Record encodes the exchange. The first write error is kept and later
// records are dropped.
func (r *CBORRecorder) Record(ex Exchange) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return
	}
	if err := r.enc.Encode(ex); err != nil {
		r.err = fmt.Errorf("failed to encode trace record: %w", err)
	}
}

// Err returns the first write error, if any
func (r *CBORRecorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// ReadTrace decodes every exchange from a CBOR trace
func ReadTrace(r io.Reader) ([]Exchange, error) {
	dec := cbor.NewDecoder(r)

	var exchanges []Exchange
	for {
		var ex Exchange
		err := dec.Decode(&ex)
		if errors.Is(err, io.EOF) {
			return exchanges, nil
		}
		if err != nil {
			return exchanges, fmt.Errorf("failed to decode trace record %d: %w", len(exchanges), err)
		}
		exchanges = append(exchanges, ex)
	}
}
