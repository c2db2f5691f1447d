// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package nexstar

import (
	"errors"
	"fmt"
	"time"
)

// Statistics tracks exchange outcomes and round-trip times
type Statistics struct {
	StartTime      time.Time
	LastUpdateTime time.Time

	// Counters
	TotalExchanges   uint64
	GoodExchanges    uint64
	Timeouts         uint64
	MalformedReplies uint64
	Mismatches       uint64
	TransportErrors  uint64

	// Round trip (successful exchanges only)
	MinRTT   time.Duration
	MaxRTT   time.Duration
	TotalRTT time.Duration

	// Rates (calculated)
	ExchangeRate float64 // exchanges/sec
	ErrorRate    float64 // errors/sec
}

// ErrMismatch marks a reply that parsed but carried the wrong value
var ErrMismatch = errors.New("nexstar: reply does not match request")

// NewStatistics creates a new statistics tracker
func NewStatistics() *Statistics {
	now := time.Now()
	return &Statistics{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// Update counts one exchange and its outcome
func (s *Statistics) Update(rtt time.Duration, err error) {
	s.TotalExchanges++
	s.LastUpdateTime = time.Now()

	switch {
	case err == nil:
		s.GoodExchanges++
		s.TotalRTT += rtt
		if s.MinRTT == 0 || rtt < s.MinRTT {
			s.MinRTT = rtt
		}
		if rtt > s.MaxRTT {
			s.MaxRTT = rtt
		}
	case errors.Is(err, ErrTimeout):
		s.Timeouts++
	case errors.Is(err, ErrMalformedResponse):
		s.MalformedReplies++
	case errors.Is(err, ErrMismatch):
		s.Mismatches++
	default:
		s.TransportErrors++
	}
}

// Errors returns the number of failed exchanges
func (s *Statistics) Errors() uint64 {
	return s.TotalExchanges - s.GoodExchanges
}

// AvgRTT returns the mean round trip of successful exchanges
func (s *Statistics) AvgRTT() time.Duration {
	if s.GoodExchanges == 0 {
		return 0
	}
	return s.TotalRTT / time.Duration(s.GoodExchanges)
}

// LossPercent returns the share of failed exchanges
func (s *Statistics) LossPercent() float64 {
	if s.TotalExchanges == 0 {
		return 0
	}
	return float64(s.Errors()) * 100.0 / float64(s.TotalExchanges)
}

// CalculateRates calculates exchange and error rates
func (s *Statistics) CalculateRates() {
	elapsed := time.Since(s.StartTime).Seconds()
	if elapsed > 0 {
		s.ExchangeRate = float64(s.TotalExchanges) / elapsed
		s.ErrorRate = float64(s.Errors()) / elapsed
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	elapsed := time.Since(s.StartTime)

	result := fmt.Sprintf("=== Statistics (%.0f seconds) ===\n", elapsed.Seconds())
	result += fmt.Sprintf("Exchanges:       %8d\n", s.TotalExchanges)
	result += fmt.Sprintf("Good:            %8d (%.1f%% loss)\n", s.GoodExchanges, s.LossPercent())

	if s.Timeouts > 0 {
		result += fmt.Sprintf("Timeouts:        %8d\n", s.Timeouts)
	}
	if s.MalformedReplies > 0 {
		result += fmt.Sprintf("Malformed:       %8d\n", s.MalformedReplies)
	}
	if s.Mismatches > 0 {
		result += fmt.Sprintf("Mismatches:      %8d\n", s.Mismatches)
	}
	if s.TransportErrors > 0 {
		result += fmt.Sprintf("Transport Errors:%8d\n", s.TransportErrors)
	}
	if s.GoodExchanges > 0 {
		result += fmt.Sprintf("RTT min/avg/max: %v / %v / %v\n",
			s.MinRTT.Round(time.Millisecond), s.AvgRTT().Round(time.Millisecond), s.MaxRTT.Round(time.Millisecond))
	}

	result += fmt.Sprintf("Exchange Rate:   %8.1f /sec\n", s.ExchangeRate)
	result += fmt.Sprintf("Error Rate:      %8.1f errors/sec\n", s.ErrorRate)
	result += "================================\n"

	return result
}

// Reset resets all statistics counters
func (s *Statistics) Reset() {
	*s = *NewStatistics()
}
