// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package trace holds the data model extracted from a Chrome Trace Event
// Format file: one TraceEvent per event object, collected into a Trace.
package trace

import (
	"go.chromium.org/infra/tracing/fastparse/arena"
	"go.chromium.org/infra/tracing/fastparse/bytebuf"
)

// Phase is the single-character "ph" discriminator of a trace event. The
// full Chrome Trace Event Format defines more of these than the decoder
// interprets beyond storing the byte; callers comparing against these
// constants get names for the common ones.
type Phase byte

const (
	PhaseDurationBegin   Phase = 'B'
	PhaseDurationEnd     Phase = 'E'
	PhaseInstant         Phase = 'i'
	PhaseInstantLegacy   Phase = 'I'
	PhaseComplete        Phase = 'X'
	PhaseCounter         Phase = 'C'
	PhaseNestableStart   Phase = 'b'
	PhaseNestableInstant Phase = 'n'
	PhaseNestableEnd     Phase = 'e'
	PhaseFlowStart       Phase = 's'
	PhaseFlowStep        Phase = 't'
	PhaseFlowEnd         Phase = 'f'
	PhaseSample          Phase = 'P'
	PhaseObjectCreated   Phase = 'N'
	PhaseObjectSnapshot  Phase = 'O'
	PhaseObjectDestroyed Phase = 'D'
	PhaseMetadata        Phase = 'M'
	PhaseMemoryDumpGlobal  Phase = 'V'
	PhaseMemoryDumpProcess Phase = 'v'
	PhaseMark            Phase = 'R'
	PhaseClockSync       Phase = 'c'
)

// TraceEvent is one decoded event object. Name and Cat are views into
// bytes owned by the Trace's arena and stay valid exactly as long as the
// Trace does. Ph is truncated to its first byte (0 if the "ph" string was
// empty), matching the upstream generator's own single-byte phase field.
type TraceEvent struct {
	Name bytebuf.View
	Cat  bytebuf.View
	Ph   Phase
	Ts   uint64
	Pid  uint32
	Tid  uint32
}

// Trace is the collection root: it owns the arena backing every
// TraceEvent's Name and Cat views, plus the slice of events itself.
type Trace struct {
	Arena  *arena.Arena
	Events []TraceEvent
}

// New returns an empty Trace backed by a fresh arena.
func New() *Trace {
	return &Trace{Arena: arena.New()}
}

// Add appends ev to the trace.
func (t *Trace) Add(ev TraceEvent) {
	t.Events = append(t.Events, ev)
}
