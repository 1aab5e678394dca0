// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package traceparse implements the outer, incremental Chrome Trace Event
// Format parser: it recognizes either top-level shape (an object wrapper
// around "traceEvents", or a bare array of events), carves each event
// body out of the raw byte stream, and hands it to the event decoder.
//
// Unlike the tokenizer it sits on top of, the outer parser does not
// tokenize the top-level structure itself. It walks raw bytes with its
// own small state machine plus a bracket/quote depth stack, because the
// carving pass touches every byte of a multi-gigabyte file exactly once
// and building then discarding tokens for bytes that are just being
// skipped would cost real throughput.
package traceparse

import (
	"fmt"

	"go.chromium.org/infra/tracing/fastparse/arena"
	"go.chromium.org/infra/tracing/fastparse/bytebuf"
	"go.chromium.org/infra/tracing/fastparse/o11y/tracemetrics"
	"go.chromium.org/infra/tracing/fastparse/trace"
)

// Result is the outcome of one Parse call.
type Result int

const (
	NeedMoreInput Result = iota
	Done
	Error
)

func (r Result) String() string {
	switch r {
	case NeedMoreInput:
		return "NeedMoreInput"
	case Done:
		return "Done"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

type state int

const (
	stInit state = iota
	stObjectWrapper
	stObjectWrapperKeyContinued
	stObjectWrapperTraceEventsFound
	stObjectWrapperUnknownValueSkip
	stObjectWrapperAfterValue
	stArrayFormat
	stArrayFormatAfterEvent
	stSkipChar
	stError
	stDone
)

// Parser carves TraceEvent records out of an incrementally delivered
// Chrome Trace Event Format byte stream. It is not goroutine-safe; a
// Parser belongs to one parse session.
type Parser struct {
	arena *arena.Arena
	tr    *trace.Trace

	state state
	input []byte
	pos   int

	// accum and the lazy lexStart/spilled pair together hold whatever
	// key or event body is currently being carved, the same zero-copy-
	// unless-split trick the tokenizer uses for strings and numbers.
	accum    *arena.Buf
	lexStart int
	spilled  bool

	stack *byteStack

	hasObjectWrapper bool

	// scanKey scratch: naive one-character escape lookback, shared by
	// every "\"…\"" scanner in this file. See the note on the
	// skip-heuristic quirk on scanUnknownValueSkip in decode.go.
	lastKeyChar byte

	// SkipChar scratch.
	skipTarget byte
	afterSkip  state

	// ObjectWrapperUnknownValueSkip scratch.
	unknownInit     bool
	unknownLastChar byte

	// ArrayFormat event-body scratch.
	arrayInQuote  bool
	arrayLastChar byte

	metrics *tracemetrics.Metrics
	err     string
}

// SetMetrics attaches m so every decoded event and skipped key gets
// counted as this Parser runs. A nil *tracemetrics.Metrics is a valid
// no-op target for every tracemetrics method, so callers that don't care
// can skip this.
func (p *Parser) SetMetrics(m *tracemetrics.Metrics) {
	p.metrics = m
}

// NewParser returns a parser that allocates scratch buffers from a and
// appends decoded events to tr.
func NewParser(a *arena.Arena, tr *trace.Trace) *Parser {
	return &Parser{
		arena: a,
		tr:    tr,
		accum: arena.NewBuf(a),
		stack: newByteStack(a),
	}
}

// Err returns the latched error message once Parse has returned Error.
func (p *Parser) Err() string {
	return p.err
}

// Parse consumes chunk from byte 0 onward, advancing the state machine as
// far as it will go: until the chunk is exhausted (NeedMoreInput), until
// the trace is fully recognized (Done), or until a malformed byte is
// found (Error). Supply the next chunk and call Parse again on
// NeedMoreInput; Parse must not be called again after Done or Error.
func (p *Parser) Parse(chunk []byte) Result {
	p.input = chunk
	p.pos = 0
	p.lexStart = 0
	for {
		switch p.state {
		case stError:
			panic("traceparse: Parse called after Error")
		case stDone:
			panic("traceparse: Parse called after Done")
		case stInit:
			if res, done := p.scanInit(); done {
				return res
			}
		case stObjectWrapper:
			if res, done := p.scanObjectWrapper(); done {
				return res
			}
		case stObjectWrapperKeyContinued:
			if res, done := p.scanKey(); done {
				return res
			}
		case stObjectWrapperTraceEventsFound:
			if res, done := p.scanTraceEventsFound(); done {
				return res
			}
		case stObjectWrapperUnknownValueSkip:
			if res, done := p.scanUnknownValueSkip(); done {
				return res
			}
		case stObjectWrapperAfterValue:
			if res, done := p.scanAfterValue(); done {
				return res
			}
		case stArrayFormat:
			if res, done := p.scanArrayFormat(); done {
				return res
			}
		case stArrayFormatAfterEvent:
			if res, done := p.scanArrayFormatAfterEvent(); done {
				return res
			}
		case stSkipChar:
			if res, done := p.scanSkipChar(); done {
				return res
			}
		}
	}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func (p *Parser) peek() (byte, bool) {
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *Parser) advance() {
	p.pos++
}

func (p *Parser) fail(format string, args ...any) (Result, bool) {
	p.state = stError
	p.err = fmt.Sprintf(format, args...)
	return Error, true
}

func (p *Parser) spillPending() {
	if p.pos > p.lexStart {
		p.accum.Append(p.input[p.lexStart:p.pos])
	}
	p.spilled = true
	p.lexStart = p.pos
}

func (p *Parser) finishLexeme(end int) bytebuf.View {
	if !p.spilled {
		return bytebuf.Of(p.input[p.lexStart:end])
	}
	if end > p.lexStart {
		p.accum.Append(p.input[p.lexStart:end])
	}
	return bytebuf.Of(p.accum.Bytes())
}

func (p *Parser) enterSkipChar(target byte, next state) (Result, bool) {
	p.skipTarget = target
	p.afterSkip = next
	p.state = stSkipChar
	return NeedMoreInput, false
}

func (p *Parser) scanInit() (Result, bool) {
	for {
		c, ok := p.peek()
		if !ok {
			return NeedMoreInput, true
		}
		if isWhitespace(c) {
			p.advance()
			continue
		}
		switch c {
		case '{':
			p.advance()
			p.hasObjectWrapper = true
			p.state = stObjectWrapper
			return NeedMoreInput, false
		case '[':
			p.advance()
			p.state = stArrayFormat
			return NeedMoreInput, false
		default:
			return p.fail("expected '{' or '[' but got '%c'", c)
		}
	}
}

func (p *Parser) scanObjectWrapper() (Result, bool) {
	for {
		c, ok := p.peek()
		if !ok {
			return NeedMoreInput, true
		}
		if isWhitespace(c) {
			p.advance()
			continue
		}
		switch c {
		case '"':
			p.advance()
			p.lexStart = p.pos
			p.spilled = false
			p.lastKeyChar = 0
			p.state = stObjectWrapperKeyContinued
			return NeedMoreInput, false
		case '}':
			p.advance()
			p.state = stDone
			return Done, true
		default:
			return p.fail("expected '\"' or '}' but got '%c'", c)
		}
	}
}

// scanKey resumes (or starts) scanning a wrapper-level key, respecting a
// naive escape lookback: a '"' is treated as closing unless the
// immediately preceding byte was '\', which misreads a string ending in
// an escaped backslash (`\\"`) as still open. See decode.go.
func (p *Parser) scanKey() (Result, bool) {
	for {
		c, ok := p.peek()
		if !ok {
			p.spillPending()
			return NeedMoreInput, true
		}
		if c == '"' && p.lastKeyChar != '\\' {
			key := p.finishLexeme(p.pos)
			p.advance()
			p.accum.Reset()
			if key.EqualString("traceEvents") {
				return p.enterSkipChar(':', stObjectWrapperTraceEventsFound)
			}
			p.unknownInit = false
			p.metrics.KeySkipped()
			return p.enterSkipChar(':', stObjectWrapperUnknownValueSkip)
		}
		p.lastKeyChar = c
		p.advance()
	}
}

func (p *Parser) scanTraceEventsFound() (Result, bool) {
	for {
		c, ok := p.peek()
		if !ok {
			return NeedMoreInput, true
		}
		if isWhitespace(c) {
			p.advance()
			continue
		}
		if c != '[' {
			return p.fail("expected '[' but got '%c'", c)
		}
		p.advance()
		p.stack.reset()
		p.state = stArrayFormat
		return NeedMoreInput, false
	}
}

func (p *Parser) scanAfterValue() (Result, bool) {
	for {
		c, ok := p.peek()
		if !ok {
			return NeedMoreInput, true
		}
		if isWhitespace(c) {
			p.advance()
			continue
		}
		switch c {
		case ',':
			p.advance()
			p.state = stObjectWrapper
			return NeedMoreInput, false
		case '}':
			p.advance()
			p.state = stDone
			return Done, true
		default:
			return p.fail("expected ',' or '}' but got '%c'", c)
		}
	}
}

func (p *Parser) scanArrayFormat() (Result, bool) {
	if p.stack.isEmpty() {
		for {
			c, ok := p.peek()
			if !ok {
				return NeedMoreInput, true
			}
			if isWhitespace(c) {
				p.advance()
				continue
			}
			if c != '{' {
				return p.fail("expected '{' but got '%c'", c)
			}
			p.lexStart = p.pos
			p.spilled = false
			p.stack.push('{')
			p.advance()
			p.arrayInQuote = false
			p.arrayLastChar = 0
			break
		}
	}

	for {
		c, ok := p.peek()
		if !ok {
			p.spillPending()
			return NeedMoreInput, true
		}
		if p.arrayInQuote {
			// Same naive one-byte escape lookback as scanKey: a string
			// ending in `\\"` is misread as still open.
			if c == '"' && p.arrayLastChar != '\\' {
				p.arrayInQuote = false
			}
			p.arrayLastChar = c
			p.advance()
			continue
		}
		switch c {
		case '"':
			p.arrayInQuote = true
			p.arrayLastChar = 0
			p.advance()
		case '{':
			p.stack.push('{')
			p.advance()
		case '}':
			p.stack.pop()
			p.advance()
			if p.stack.isEmpty() {
				body := p.finishLexeme(p.pos)
				p.accum.Reset()
				if msg := p.decodeEvent(body); msg != "" {
					return p.fail("%s", msg)
				}
				p.metrics.EventDecoded()
				p.state = stArrayFormatAfterEvent
				return NeedMoreInput, false
			}
		default:
			p.advance()
		}
	}
}

func (p *Parser) scanArrayFormatAfterEvent() (Result, bool) {
	for {
		c, ok := p.peek()
		if !ok {
			return NeedMoreInput, true
		}
		if isWhitespace(c) {
			p.advance()
			continue
		}
		switch c {
		case ',':
			p.advance()
			p.accum.Reset()
			p.state = stArrayFormat
			return NeedMoreInput, false
		case ']':
			p.advance()
			if p.hasObjectWrapper {
				p.state = stObjectWrapperAfterValue
				return NeedMoreInput, false
			}
			p.state = stDone
			return Done, true
		default:
			return p.fail("expected ',' or ']' but got '%c'", c)
		}
	}
}

func (p *Parser) scanSkipChar() (Result, bool) {
	for {
		c, ok := p.peek()
		if !ok {
			return NeedMoreInput, true
		}
		if isWhitespace(c) {
			p.advance()
			continue
		}
		if c != p.skipTarget {
			return p.fail("expected '%c' but got '%c'", p.skipTarget, c)
		}
		p.advance()
		p.state = p.afterSkip
		return NeedMoreInput, false
	}
}

// byteStack is an arena-resident stack of open bracket/quote contexts,
// shared by the unknown-value skip routine and the event-body carver.
type byteStack struct {
	buf *arena.Buf
}

func newByteStack(a *arena.Arena) *byteStack {
	return &byteStack{buf: arena.NewBuf(a)}
}

func (s *byteStack) push(c byte) {
	s.buf.AppendByte(c)
}

func (s *byteStack) pop() {
	if s.buf.Len() == 0 {
		panic("traceparse: pop of empty stack")
	}
	s.buf.Truncate(s.buf.Len() - 1)
}

func (s *byteStack) top() byte {
	b := s.buf.Bytes()
	return b[len(b)-1]
}

func (s *byteStack) isEmpty() bool {
	return s.buf.Len() == 0
}

func (s *byteStack) reset() {
	s.buf.Reset()
}
