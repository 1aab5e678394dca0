// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package jsontok_test

import (
	"testing"

	"go.chromium.org/infra/tracing/fastparse/arena"
	"go.chromium.org/infra/tracing/fastparse/bytebuf"
	"go.chromium.org/infra/tracing/fastparse/jsontok"
)

// drain feeds chunks to tok one at a time (last=true on the final one)
// and collects every token up to and including the terminal Eof or Error.
// A token's Value is only valid until the next NextToken call, so each
// collected token keeps a private copy of its value bytes.
func drain(t *testing.T, tok *jsontok.Tokenizer, chunks []string) []jsontok.Token {
	t.Helper()
	var toks []jsontok.Token
	for i, c := range chunks {
		tok.SetInput([]byte(c), i == len(chunks)-1)
		for {
			tr := tok.NextToken()
			tr.Value = bytebuf.Of(append([]byte(nil), tr.Value.Bytes()...))
			if tr.Type == jsontok.Eof {
				if i == len(chunks)-1 {
					toks = append(toks, tr)
				}
				break
			}
			toks = append(toks, tr)
			if tr.Type == jsontok.Error {
				return toks
			}
		}
	}
	return toks
}

func TestSimpleObjectSingleByteChunks(t *testing.T) {
	tok := jsontok.New(arena.New())
	toks := drain(t, tok, []string{"{", "}"})
	wantTypes := []jsontok.Type{jsontok.ObjectStart, jsontok.ObjectEnd, jsontok.Eof}
	if len(toks) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(wantTypes), toks)
	}
	for i, want := range wantTypes {
		if toks[i].Type != want {
			t.Errorf("token %d = %v; want %v", i, toks[i].Type, want)
		}
	}
}

func TestNumberSplitAcrossChunks(t *testing.T) {
	tok := jsontok.New(arena.New())
	toks := drain(t, tok, []string{" 1.", "2", "3 "})
	if len(toks) != 2 {
		t.Fatalf("got %d tokens; want 2: %v", len(toks), toks)
	}
	if toks[0].Type != jsontok.Number || toks[0].Value.String() != "1.23" {
		t.Errorf("token 0 = %v %q; want Number %q", toks[0].Type, toks[0].Value.String(), "1.23")
	}
	if toks[1].Type != jsontok.Eof {
		t.Errorf("token 1 = %v; want Eof", toks[1].Type)
	}
}

func TestStringWithEscapedQuoteSplitAcrossChunks(t *testing.T) {
	tok := jsontok.New(arena.New())
	toks := drain(t, tok, []string{` "a`, `b\`, `\" `})
	if len(toks) != 2 {
		t.Fatalf("got %d tokens; want 2: %v", len(toks), toks)
	}
	want := `ab\\`
	if toks[0].Type != jsontok.String || toks[0].Value.String() != want {
		t.Errorf("token 0 = %v %q; want String %q", toks[0].Type, toks[0].Value.String(), want)
	}
}

func TestUnterminatedStringAtEof(t *testing.T) {
	tok := jsontok.New(arena.New())
	toks := drain(t, tok, []string{` "a`, ` `})
	if len(toks) != 1 || toks[0].Type != jsontok.Error {
		t.Fatalf("got %v; want a single Error token", toks)
	}
	want := `End of string '"' expected but reached end of input`
	if tok.Err() != want {
		t.Errorf("Err() = %q; want %q", tok.Err(), want)
	}
}

func TestLeadingZeroSplitsIntoTwoTokens(t *testing.T) {
	tok := jsontok.New(arena.New())
	toks := drain(t, tok, []string{"07 "})
	if len(toks) != 3 {
		t.Fatalf("got %d tokens; want 3 (0, 7, Eof): %v", len(toks), toks)
	}
	if toks[0].Value.String() != "0" || toks[1].Value.String() != "7" {
		t.Errorf("got %q, %q; want \"0\", \"7\"", toks[0].Value.String(), toks[1].Value.String())
	}
}

func TestNegativeLeadingZeroSplits(t *testing.T) {
	tok := jsontok.New(arena.New())
	toks := drain(t, tok, []string{"-07 "})
	if len(toks) != 3 {
		t.Fatalf("got %d tokens; want 3 (-0, 7, Eof): %v", len(toks), toks)
	}
	if toks[0].Value.String() != "-0" || toks[1].Value.String() != "7" {
		t.Errorf("got %q, %q; want \"-0\", \"7\"", toks[0].Value.String(), toks[1].Value.String())
	}
}

func TestKeywordsAndStructuralTokens(t *testing.T) {
	tok := jsontok.New(arena.New())
	toks := drain(t, tok, []string{`[true,false,null,:,]`})
	wantTypes := []jsontok.Type{
		jsontok.ArrayStart, jsontok.True, jsontok.Comma, jsontok.False, jsontok.Comma,
		jsontok.Null, jsontok.Comma, jsontok.Colon, jsontok.Comma, jsontok.ArrayEnd, jsontok.Eof,
	}
	if len(toks) != len(wantTypes) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(wantTypes), toks)
	}
	for i, want := range wantTypes {
		if toks[i].Type != want {
			t.Errorf("token %d = %v; want %v", i, toks[i].Type, want)
		}
	}
}

func TestInvalidEscapeCharacter(t *testing.T) {
	tok := jsontok.New(arena.New())
	toks := drain(t, tok, []string{`"a\q" `})
	if len(toks) != 1 || toks[0].Type != jsontok.Error {
		t.Fatalf("got %v; want a single Error token", toks)
	}
	if tok.Err() != `Invalid escape character '\q'` {
		t.Errorf("Err() = %q", tok.Err())
	}
}

func TestChunkInvarianceForTokenSequence(t *testing.T) {
	input := `{"name":"A","ts":123,"ok":true,"bad":null,"list":[1,-2.5e3]}`
	whole := drain(t, jsontok.New(arena.New()), []string{input})

	var chunked []string
	for i := 0; i < len(input); i++ {
		chunked = append(chunked, string(input[i]))
	}
	split := drain(t, jsontok.New(arena.New()), chunked)

	if len(whole) != len(split) {
		t.Fatalf("single-chunk produced %d tokens, byte-by-byte produced %d", len(whole), len(split))
	}
	for i := range whole {
		if whole[i].Type != split[i].Type || whole[i].Value.String() != split[i].Value.String() {
			t.Errorf("token %d differs: single-chunk %v %q, byte-by-byte %v %q",
				i, whole[i].Type, whole[i].Value.String(), split[i].Type, split[i].Value.String())
		}
	}
}
