// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package jsontok

import (
	"fmt"

	"go.chromium.org/infra/tracing/fastparse/arena"
	"go.chromium.org/infra/tracing/fastparse/bytebuf"
)

type state int

const (
	stError state = iota
	stStart
	stDone

	stString
	stStringEscape
	stStringEscapeU0
	stStringEscapeU1
	stStringEscapeU2
	stStringEscapeU3
	stStringEnd

	stInteger
	stFraction
	stExponent
	stExponentNoSign
	stNumberEnd

	stT
	stTr
	stTru
	stF
	stFa
	stFal
	stFals
	stN
	stNu
	stNul
)

// Tokenizer is a suspend/resume JSON lexer. The zero value is not usable;
// construct with New. A Tokenizer is not goroutine-safe.
type Tokenizer struct {
	accum *arena.Buf

	state state
	input []byte
	pos   int
	last  bool

	// lexStart marks the first byte of the lexeme currently being scanned
	// within the current input chunk. spilled records whether any bytes of
	// this lexeme have already been copied into accum because an earlier
	// chunk ended mid-lexeme; as long as spilled is false the eventual
	// token value aliases the input chunk directly, at no copying cost.
	lexStart int
	spilled  bool

	negative    bool
	leadingZero bool

	err string
}

// New returns a tokenizer that draws its accumulation buffer from a. The
// tokenizer starts in the Start state with no input set.
func New(a *arena.Arena) *Tokenizer {
	return &Tokenizer{accum: arena.NewBuf(a), state: stStart}
}

// SetInput supplies the next chunk of bytes to scan. last must be true
// exactly when no further chunk will follow. The previous chunk must have
// been fully consumed (NextToken returned Eof for it).
func (t *Tokenizer) SetInput(b []byte, last bool) {
	if t.pos != len(t.input) {
		panic("jsontok: SetInput called before previous input was fully consumed")
	}
	t.input = b
	t.pos = 0
	t.lexStart = 0
	t.last = last
}

// IsScanning reports whether the tokenizer is neither in Error nor Done.
func (t *Tokenizer) IsScanning() bool {
	return t.state != stError && t.state != stDone
}

// Err returns the latched error message once the tokenizer has entered
// Error. It is empty otherwise.
func (t *Tokenizer) Err() string {
	return t.err
}

// NextToken scans forward, looping internally across states, until it can
// produce a token: a structural or literal token, String or Number, a
// soft Eof (more input needed), a terminal Eof (state becomes Done), or
// Error. It must not be called once the tokenizer has left the scanning
// states.
func (t *Tokenizer) NextToken() Token {
	for {
		switch t.state {
		case stError:
			panic("jsontok: NextToken called after Error")
		case stDone:
			panic("jsontok: NextToken called after Done")
		case stStart:
			if tok, done := t.scanStart(); done {
				return tok
			}
		case stString, stStringEscape, stStringEscapeU0, stStringEscapeU1, stStringEscapeU2, stStringEscapeU3:
			if tok, done := t.scanString(); done {
				return tok
			}
		case stStringEnd:
			t.accum.Release()
			t.state = stStart
		case stInteger, stFraction, stExponent, stExponentNoSign:
			if tok, done := t.scanNumber(); done {
				return tok
			}
		case stNumberEnd:
			t.accum.Release()
			t.state = stStart
		case stT, stTr, stTru, stF, stFa, stFal, stFals, stN, stNu, stNul:
			if tok, done := t.scanKeywordChain(); done {
				return tok
			}
		}
	}
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// peek returns the next unconsumed byte without advancing, or ok=false if
// the current chunk has been fully consumed.
func (t *Tokenizer) peek() (byte, bool) {
	if t.pos >= len(t.input) {
		return 0, false
	}
	return t.input[t.pos], true
}

func (t *Tokenizer) advance() {
	t.pos++
}

func (t *Tokenizer) fail(format string, args ...any) (Token, bool) {
	t.state = stError
	t.err = fmt.Sprintf(format, args...)
	return Token{Type: Error}, true
}

// spillPending copies the unconsumed-but-scanned portion of the current
// lexeme into accum. Called whenever a chunk ends mid-lexeme, so the bytes
// survive past SetInput replacing the input slice.
func (t *Tokenizer) spillPending() {
	if t.pos > t.lexStart {
		t.accum.Append(t.input[t.lexStart:t.pos])
	}
	t.spilled = true
	t.lexStart = t.pos
}

// finishLexeme returns the value of the lexeme running from lexStart to
// end. If nothing was ever spilled, this is a zero-copy slice of the
// current input chunk; otherwise it is the concatenation already sitting
// in accum plus the final unspilled tail.
func (t *Tokenizer) finishLexeme(end int) bytebuf.View {
	if !t.spilled {
		return bytebuf.Of(t.input[t.lexStart:end])
	}
	if end > t.lexStart {
		t.accum.Append(t.input[t.lexStart:end])
	}
	return bytebuf.Of(t.accum.Bytes())
}

func (t *Tokenizer) scanStart() (Token, bool) {
	for {
		c, ok := t.peek()
		if !ok {
			if t.last {
				t.state = stDone
			}
			return Token{Type: Eof}, true
		}
		if isWhitespace(c) {
			t.advance()
			continue
		}
		switch {
		case c == '"':
			t.advance()
			t.lexStart = t.pos
			t.spilled = false
			t.state = stString
			return Token{}, false
		case isDigit(c) || c == '-':
			t.advance()
			t.lexStart = t.pos - 1
			t.spilled = false
			t.negative = c == '-'
			t.leadingZero = c == '0'
			t.state = stInteger
			return Token{}, false
		case c == '{':
			t.advance()
			return Token{Type: ObjectStart}, true
		case c == '}':
			t.advance()
			return Token{Type: ObjectEnd}, true
		case c == '[':
			t.advance()
			return Token{Type: ArrayStart}, true
		case c == ']':
			t.advance()
			return Token{Type: ArrayEnd}, true
		case c == ':':
			t.advance()
			return Token{Type: Colon}, true
		case c == ',':
			t.advance()
			return Token{Type: Comma}, true
		case c == 't':
			t.advance()
			t.state = stT
			return Token{}, false
		case c == 'f':
			t.advance()
			t.state = stF
			return Token{}, false
		case c == 'n':
			t.advance()
			t.state = stN
			return Token{}, false
		default:
			return t.fail("JSON value expected but got '%c'", c)
		}
	}
}

func (t *Tokenizer) scanString() (Token, bool) {
	for {
		c, ok := t.peek()
		if !ok {
			t.spillPending()
			if t.last {
				return t.fail("End of string '\"' expected but reached end of input")
			}
			return Token{Type: Eof}, true
		}
		switch t.state {
		case stString:
			switch c {
			case '"':
				val := t.finishLexeme(t.pos)
				t.advance()
				t.state = stStringEnd
				return Token{Type: String, Value: val}, true
			case '\\':
				t.advance()
				t.state = stStringEscape
			default:
				t.advance()
			}
		case stStringEscape:
			switch c {
			case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
				t.advance()
				t.state = stString
			case 'u':
				t.advance()
				t.state = stStringEscapeU0
			default:
				return t.fail("Invalid escape character '\\%c'", c)
			}
		case stStringEscapeU0, stStringEscapeU1, stStringEscapeU2, stStringEscapeU3:
			if !isHexDigit(c) {
				return t.fail("Expected hex digit but got '%c'", c)
			}
			t.advance()
			switch t.state {
			case stStringEscapeU0:
				t.state = stStringEscapeU1
			case stStringEscapeU1:
				t.state = stStringEscapeU2
			case stStringEscapeU2:
				t.state = stStringEscapeU3
			case stStringEscapeU3:
				t.state = stString
			}
		}
	}
}

func (t *Tokenizer) scanNumber() (Token, bool) {
	for {
		c, ok := t.peek()
		if !ok {
			t.spillPending()
			if t.last {
				val := t.finishLexeme(t.pos)
				t.state = stNumberEnd
				return Token{Type: Number, Value: val}, true
			}
			return Token{Type: Eof}, true
		}
		switch t.state {
		case stInteger:
			if isDigit(c) {
				if t.leadingZero {
					val := t.finishLexeme(t.pos)
					t.state = stNumberEnd
					return Token{Type: Number, Value: val}, true
				}
				consumed := t.pos - t.lexStart
				if t.spilled {
					consumed += t.accum.Len()
				}
				firstDigit := consumed == 1 && t.negative
				t.advance()
				if c == '0' && firstDigit {
					t.leadingZero = true
				}
				continue
			}
			switch c {
			case '.':
				t.advance()
				t.state = stFraction
			case 'e', 'E':
				t.advance()
				t.state = stExponent
			default:
				val := t.finishLexeme(t.pos)
				t.state = stNumberEnd
				return Token{Type: Number, Value: val}, true
			}
		case stFraction:
			if isDigit(c) {
				t.advance()
				continue
			}
			switch c {
			case 'e', 'E':
				t.advance()
				t.state = stExponent
			default:
				val := t.finishLexeme(t.pos)
				t.state = stNumberEnd
				return Token{Type: Number, Value: val}, true
			}
		case stExponent:
			if c == '+' || c == '-' {
				t.advance()
				t.state = stExponentNoSign
				continue
			}
			if isDigit(c) {
				t.advance()
				t.state = stExponentNoSign
				continue
			}
			val := t.finishLexeme(t.pos)
			t.state = stNumberEnd
			return Token{Type: Number, Value: val}, true
		case stExponentNoSign:
			if isDigit(c) {
				t.advance()
				continue
			}
			val := t.finishLexeme(t.pos)
			t.state = stNumberEnd
			return Token{Type: Number, Value: val}, true
		}
	}
}

// keywordStep describes one byte of a true/false/null chain: the byte
// expected in this state, the state to advance to, and, on the final
// step of a chain, the token to emit.
type keywordStep struct {
	want    byte
	next    state
	emit    Type
	hasEmit bool
}

var keywordSteps = map[state]keywordStep{
	stT:    {want: 'r', next: stTr},
	stTr:   {want: 'u', next: stTru},
	stTru:  {want: 'e', next: stStart, emit: True, hasEmit: true},
	stF:    {want: 'a', next: stFa},
	stFa:   {want: 'l', next: stFal},
	stFal:  {want: 's', next: stFals},
	stFals: {want: 'e', next: stStart, emit: False, hasEmit: true},
	stN:    {want: 'u', next: stNu},
	stNu:   {want: 'l', next: stNul},
	stNul:  {want: 'l', next: stStart, emit: Null, hasEmit: true},
}

func (t *Tokenizer) scanKeywordChain() (Token, bool) {
	step := keywordSteps[t.state]
	c, ok := t.peek()
	if !ok {
		if t.last {
			return t.fail("Expected '%c' but got end of input", step.want)
		}
		return Token{Type: Eof}, true
	}
	if c != step.want {
		return t.fail("Expected '%c' but got '%c'", step.want, c)
	}
	t.advance()
	t.state = step.next
	if step.hasEmit {
		return Token{Type: step.emit}, true
	}
	return Token{}, false
}
