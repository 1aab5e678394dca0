// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package traceparse

import (
	"fmt"

	"go.chromium.org/infra/tracing/fastparse/bytebuf"
	"go.chromium.org/infra/tracing/fastparse/jsontok"
	"go.chromium.org/infra/tracing/fastparse/trace"
)

// scanUnknownValueSkip discards a JSON value of unknown shape sitting
// after an unrecognized wrapper-level key, without re-tokenizing it: a
// byte-level bracket/quote stack tracks how deep the skip currently is,
// so chunk boundaries mid-skip just suspend and resume the same stack.
//
// The quote-closing check shares the same one-character lookback as
// scanKey and the event-body carver in parser.go: a '"' closes the
// string unless the immediately preceding byte was '\'. This misreads a
// value ending in `\\"` (an escaped backslash followed by the real
// closing quote) as still open — a known quirk of the byte-level skip,
// preserved rather than fixed; see DESIGN.md.
func (p *Parser) scanUnknownValueSkip() (Result, bool) {
	if !p.unknownInit {
		for {
			c, ok := p.peek()
			if !ok {
				return NeedMoreInput, true
			}
			if isWhitespace(c) {
				p.advance()
				continue
			}
			p.stack.reset()
			switch c {
			case '"', '{', '[':
				p.stack.push(c)
			}
			p.advance()
			p.unknownInit = true
			p.unknownLastChar = 0
			break
		}
	}

	for {
		if p.stack.isEmpty() {
			for {
				c, ok := p.peek()
				if !ok {
					return NeedMoreInput, true
				}
				if c == ',' || c == '}' {
					p.state = stObjectWrapperAfterValue
					return NeedMoreInput, false
				}
				p.advance()
			}
		}

		c, ok := p.peek()
		if !ok {
			return NeedMoreInput, true
		}
		switch p.stack.top() {
		case '"':
			if c == '"' && p.unknownLastChar != '\\' {
				p.stack.pop()
				p.advance()
				if p.stack.isEmpty() {
					p.state = stObjectWrapperAfterValue
					return NeedMoreInput, false
				}
				continue
			}
			p.unknownLastChar = c
			p.advance()
		case '{':
			switch c {
			case '"', '[', '{':
				p.stack.push(c)
			case '}':
				p.stack.pop()
			}
			p.advance()
			if p.stack.isEmpty() {
				p.state = stObjectWrapperAfterValue
				return NeedMoreInput, false
			}
		case '[':
			switch c {
			case '"', '{', '[':
				p.stack.push(c)
			case ']':
				p.stack.pop()
			}
			p.advance()
			if p.stack.isEmpty() {
				p.state = stObjectWrapperAfterValue
				return NeedMoreInput, false
			}
		}
	}
}

// decodeEvent parses body, the complete "{...}" bytes of one trace event,
// and on success appends the resulting TraceEvent to p.tr. On failure it
// returns a non-empty message describing the problem; the caller enters
// Error with that message. The body is self-contained, so a fresh
// tokenizer is fed the whole thing with last=true — no suspension needed
// at this layer even though the outer parser is itself incremental.
func (p *Parser) decodeEvent(body bytebuf.View) string {
	tok := jsontok.New(p.arena)
	tok.SetInput(body.Bytes(), true)

	open := tok.NextToken()
	if open.Type != jsontok.ObjectStart {
		return fmt.Sprintf("event body must start with '{', got %v", open.Type)
	}

	var ev trace.TraceEvent
	first := true
	for {
		t := tok.NextToken()
		if t.Type == jsontok.ObjectEnd {
			break
		}
		if !first {
			if t.Type != jsontok.Comma {
				return fmt.Sprintf("expected ',' or '}' in event body, got %v", t.Type)
			}
			t = tok.NextToken()
		}
		first = false

		if t.Type != jsontok.String {
			return fmt.Sprintf("expected a key string in event body, got %v", t.Type)
		}
		key := t.Value

		colon := tok.NextToken()
		if colon.Type != jsontok.Colon {
			return fmt.Sprintf("expected ':' after key, got %v", colon.Type)
		}

		val := tok.NextToken()
		switch {
		case key.EqualString("name"):
			if val.Type != jsontok.String {
				return fmt.Sprintf(`"name" must be a string, got %v`, val.Type)
			}
			ev.Name = p.intern(val.Value)
		case key.EqualString("cat"):
			if val.Type != jsontok.String {
				return fmt.Sprintf(`"cat" must be a string, got %v`, val.Type)
			}
			ev.Cat = p.intern(val.Value)
		case key.EqualString("ph"):
			if val.Type != jsontok.String {
				return fmt.Sprintf(`"ph" must be a string, got %v`, val.Type)
			}
			if val.Value.Len() > 0 {
				ev.Ph = trace.Phase(val.Value.At(0))
			}
		case key.EqualString("ts"):
			n, msg := parseUintField("ts", val, 64)
			if msg != "" {
				return msg
			}
			ev.Ts = n
		case key.EqualString("pid"):
			n, msg := parseUintField("pid", val, 32)
			if msg != "" {
				return msg
			}
			ev.Pid = uint32(n)
		case key.EqualString("tid"):
			n, msg := parseUintField("tid", val, 32)
			if msg != "" {
				return msg
			}
			ev.Tid = uint32(n)
		default:
			if msg := skipValue(tok, val); msg != "" {
				return msg
			}
			p.metrics.KeySkipped()
		}
	}

	p.tr.Add(ev)
	return ""
}

// intern copies v's bytes into the Trace's own arena, since v normally
// aliases the event decoder's transient tokenizer input, which does not
// outlive this Parse call.
func (p *Parser) intern(v bytebuf.View) bytebuf.View {
	if v.IsEmpty() {
		return bytebuf.View{}
	}
	ptr := p.tr.Arena.Push(v.Len())
	copy(ptr.Bytes(), v.Bytes())
	return bytebuf.Of(ptr.Bytes())
}

// skipValue discards the value that starts with the already-consumed
// token first: one token for a scalar, or a balanced object/array
// sub-tree read via the tokenizer. Unrecognized event keys skip this way;
// unknown wrapper-level sibling keys are skipped by scanUnknownValueSkip.
func skipValue(tok *jsontok.Tokenizer, first jsontok.Token) string {
	var depth int
	switch first.Type {
	case jsontok.ObjectStart, jsontok.ArrayStart:
		depth = 1
	case jsontok.String, jsontok.Number, jsontok.True, jsontok.False, jsontok.Null:
		return ""
	default:
		return fmt.Sprintf("unexpected token %v while skipping a value", first.Type)
	}
	for depth > 0 {
		t := tok.NextToken()
		switch t.Type {
		case jsontok.ObjectStart, jsontok.ArrayStart:
			depth++
		case jsontok.ObjectEnd, jsontok.ArrayEnd:
			depth--
		case jsontok.Eof:
			return "unexpected end of input while skipping a value"
		case jsontok.Error:
			return "error while skipping a value"
		}
	}
	return ""
}

// parseUnsignedDecimal parses a strict unsigned decimal integer no wider
// than bits, rejecting non-digit bytes and values that overflow.
func parseUnsignedDecimal(v bytebuf.View, bits int) (uint64, string) {
	b := v.Bytes()
	if len(b) == 0 {
		return 0, "expected a decimal integer but got an empty value"
	}
	var maxVal uint64
	if bits >= 64 {
		maxVal = ^uint64(0)
	} else {
		maxVal = uint64(1)<<uint(bits) - 1
	}
	qmax, rmax := maxVal/10, maxVal%10

	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, fmt.Sprintf("expected a decimal digit but got '%c'", c)
		}
		d := uint64(c - '0')
		if n > qmax || (n == qmax && d > rmax) {
			return 0, "integer overflow while parsing a decimal value"
		}
		n = n*10 + d
	}
	return n, ""
}

// parseUintField parses val (a Number or String token) as an unsigned
// decimal no wider than bits, for one of the numeric TraceEvent fields.
func parseUintField(name string, val jsontok.Token, bits int) (uint64, string) {
	if val.Type != jsontok.Number && val.Type != jsontok.String {
		return 0, fmt.Sprintf("%q must be a number or numeric string, got %v", name, val.Type)
	}
	n, msg := parseUnsignedDecimal(val.Value, bits)
	if msg != "" {
		return 0, fmt.Sprintf("%q: %s", name, msg)
	}
	return n, ""
}
