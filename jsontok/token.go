// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package jsontok implements a suspend/resume JSON lexer. Unlike
// encoding/json's Decoder, it never blocks on a Reader: the caller feeds it
// one chunk at a time with SetInput and drains tokens with NextToken until
// it reports Eof or Error, then feeds the next chunk. This lets a caller
// that only has a byte slice at a time (a WASM host delivering fetch
// chunks, or a file reader splitting on fixed-size reads) tokenize without
// ever holding the whole input in memory.
package jsontok

import "go.chromium.org/infra/tracing/fastparse/bytebuf"

// Type identifies the kind of token NextToken returned.
type Type int

const (
	Error Type = iota
	Eof
	String
	Number
	ObjectStart
	ObjectEnd
	ArrayStart
	ArrayEnd
	Colon
	Comma
	True
	False
	Null
)

func (t Type) String() string {
	switch t {
	case Error:
		return "Error"
	case Eof:
		return "Eof"
	case String:
		return "String"
	case Number:
		return "Number"
	case ObjectStart:
		return "ObjectStart"
	case ObjectEnd:
		return "ObjectEnd"
	case ArrayStart:
		return "ArrayStart"
	case ArrayEnd:
		return "ArrayEnd"
	case Colon:
		return "Colon"
	case Comma:
		return "Comma"
	case True:
		return "True"
	case False:
		return "False"
	case Null:
		return "Null"
	default:
		return "Unknown"
	}
}

// Token is one lexical unit. Value is empty for structural tokens; for
// String and Number it aliases either the caller's current input chunk or
// the tokenizer's internal accumulation buffer, and is only valid until
// the next call into the tokenizer.
type Token struct {
	Type  Type
	Value bytebuf.View
}
