// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package arena_test

import (
	"testing"

	"go.chromium.org/infra/tracing/fastparse/arena"
)

func TestPushWithinOneBlockIsZeroFilled(t *testing.T) {
	a := arena.NewWithMinBlockSize(4096)
	p := a.Push(32)
	for i, c := range p.Bytes() {
		if c != 0 {
			t.Fatalf("byte %d = %d; want 0", i, c)
		}
	}
}

func TestPushPastBlockBoundaryAddsBlock(t *testing.T) {
	a := arena.NewWithMinBlockSize(128)
	before := a.NumBlocks()
	for i := 0; i < 20; i++ {
		a.Push(32)
	}
	if a.NumBlocks() <= before {
		t.Fatalf("NumBlocks() = %d; want more than %d after overflowing a block", a.NumBlocks(), before)
	}
}

func TestPopOutOfOrderPanics(t *testing.T) {
	a := arena.NewWithMinBlockSize(4096)
	p1 := a.Push(16)
	_ = a.Push(16)
	defer func() {
		if recover() == nil {
			t.Fatalf("Pop of non-top allocation did not panic")
		}
	}()
	a.Pop(p1)
}

func TestPopThenPushReusesSpace(t *testing.T) {
	a := arena.NewWithMinBlockSize(128)
	p1 := a.Push(64)
	a.Pop(p1)
	before := a.NumBlocks()
	p2 := a.Push(64)
	if a.NumBlocks() != before {
		t.Fatalf("NumBlocks() = %d; want unchanged at %d after reusing freed space", a.NumBlocks(), before)
	}
	_ = p2
}

func TestFreeInteriorThenTopCollapsesBothTombstones(t *testing.T) {
	a := arena.NewWithMinBlockSize(128)
	p1 := a.Push(32)
	p2 := a.Push(32)
	before := a.NumBlocks()

	a.Free(p1) // interior allocation, leaves a tombstone, cursor does not move
	a.Free(p2) // now top; its collapse should cascade down through p1's tombstone too

	p3 := a.Push(32)
	if a.NumBlocks() != before {
		t.Fatalf("NumBlocks() = %d; want unchanged at %d: freeing the top should have cascaded through the lower tombstone", a.NumBlocks(), before)
	}
	_ = p3
}

func TestPushOrGrowSameBlockKeepsAddressButDoesNotPreserveContent(t *testing.T) {
	a := arena.NewWithMinBlockSize(4096)
	p := a.Push(8)
	copy(p.Bytes(), []byte{0xCC, 0xCC, 0xCC, 0xCC, 0xCC, 0xCC, 0xCC, 0xCC})
	grown := a.PushOrGrow(p, 16)
	if len(grown.Bytes()) != 16 {
		t.Fatalf("len(grown.Bytes()) = %d; want 16", len(grown.Bytes()))
	}
	for i, c := range grown.Bytes() {
		if c != 0 {
			t.Fatalf("byte %d = %#x; want 0 (same-address grow re-zeros, like the original realloc path)", i, c)
		}
	}
}

func TestPushOrGrowAcrossBlocksPreservesContent(t *testing.T) {
	a := arena.NewWithMinBlockSize(64)
	p := a.Push(16)
	copy(p.Bytes(), []byte{0xCC, 0xCC, 0xCC, 0xCC})
	// Force relocation by growing past what the current block can hold.
	grown := a.PushOrGrow(p, 4096)
	want := []byte{0xCC, 0xCC, 0xCC, 0xCC}
	got := grown.Bytes()[:4]
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d = %#x; want %#x after cross-block relocation", i, got[i], want[i])
		}
	}
}

func TestPushOrGrowZeroPtrActsLikePush(t *testing.T) {
	a := arena.NewWithMinBlockSize(4096)
	var zero arena.Ptr
	p := a.PushOrGrow(zero, 16)
	if len(p.Bytes()) != 16 {
		t.Fatalf("len(p.Bytes()) = %d; want 16", len(p.Bytes()))
	}
}

func TestClearResetsAllBlocksWithoutReleasingThem(t *testing.T) {
	a := arena.NewWithMinBlockSize(64)
	for i := 0; i < 10; i++ {
		a.Push(32)
	}
	blocks := a.NumBlocks()
	a.Clear()
	if a.NumBlocks() != blocks {
		t.Fatalf("NumBlocks() = %d; want unchanged at %d after Clear", a.NumBlocks(), blocks)
	}
	p := a.Push(16)
	if len(p.Bytes()) != 16 {
		t.Fatalf("len(p.Bytes()) = %d; want 16", len(p.Bytes()))
	}
}

func TestBufAppendAcrossGrowthPreservesContent(t *testing.T) {
	a := arena.NewWithMinBlockSize(4096)
	b := arena.NewBuf(a)
	for i := 0; i < 200; i++ {
		b.AppendByte(byte('a' + i%26))
	}
	if b.Len() != 200 {
		t.Fatalf("Len() = %d; want 200", b.Len())
	}
	for i, c := range b.Bytes() {
		want := byte('a' + i%26)
		if c != want {
			t.Fatalf("byte %d = %q; want %q", i, c, want)
		}
	}
}

func TestBufResetReusesAllocation(t *testing.T) {
	a := arena.NewWithMinBlockSize(4096)
	b := arena.NewBuf(a)
	b.Append([]byte("hello"))
	b.Reset()
	if b.Len() != 0 {
		t.Fatalf("Len() = %d; want 0 after Reset", b.Len())
	}
	b.Append([]byte("hi"))
	if string(b.Bytes()) != "hi" {
		t.Fatalf("Bytes() = %q; want %q", b.Bytes(), "hi")
	}
}
