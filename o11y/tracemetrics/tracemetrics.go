// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package tracemetrics tracks throughput of the streaming trace parser:
// bytes consumed per chunk, events decoded, and time spent, so that
// parser_bench can report MB/s.
package tracemetrics

import (
	"sync"
	"time"
)

// Metrics holds running counters for one parse session.
type Metrics struct {
	name string

	mu sync.Mutex

	chunks      int64
	bytes       int64
	events      int64
	skippedKeys int64
	parseTime   time.Duration
}

// New returns new metrics for name (typically the input file path).
func New(name string) *Metrics {
	return &Metrics{name: name}
}

// ChunkDone records that a chunk of n bytes was fed to the parser and
// took d to process (NeedMoreInput, Error or Done all count).
func (m *Metrics) ChunkDone(n int, d time.Duration) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks++
	m.bytes += int64(n)
	m.parseTime += d
}

// EventDecoded records that one TraceEvent was fully decoded.
func (m *Metrics) EventDecoded() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events++
}

// KeySkipped records that an unrecognized key's value was skipped.
func (m *Metrics) KeySkipped() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.skippedKeys++
}

// Name returns the name of the metrics.
func (m *Metrics) Name() string {
	if m == nil {
		return "<nil>"
	}
	return m.name
}

// Stats is a snapshot of Metrics.
type Stats struct {
	Chunks      int64
	Bytes       int64
	Events      int64
	SkippedKeys int64
	ParseTime   time.Duration
}

// Stats returns a snapshot of the metrics.
func (m *Metrics) Stats() Stats {
	if m == nil {
		return Stats{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Chunks:      m.chunks,
		Bytes:       m.bytes,
		Events:      m.events,
		SkippedKeys: m.skippedKeys,
		ParseTime:   m.parseTime,
	}
}

// MBPerSecond returns the throughput in MB/s over the accumulated parse
// time, or 0 if no time has elapsed yet.
func (s Stats) MBPerSecond() float64 {
	secs := s.ParseTime.Seconds()
	if secs <= 0 {
		return 0
	}
	const mb = 1 << 20
	return float64(s.Bytes) / mb / secs
}
