// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package bytebuf_test

import (
	"testing"

	"go.chromium.org/infra/tracing/fastparse/bytebuf"
)

func TestSliceAndEqual(t *testing.T) {
	v := bytebuf.FromString("hello world")
	sub := v.Slice(6, 11)
	if sub.String() != "world" {
		t.Errorf("Slice(6, 11)=%q; want %q", sub.String(), "world")
	}
	if !sub.EqualString("world") {
		t.Errorf("EqualString(%q) = false; want true", "world")
	}
	if sub.Equal(v) {
		t.Errorf("sub.Equal(v) = true; want false")
	}
}

func TestHasPrefix(t *testing.T) {
	v := bytebuf.FromString("traceEvents")
	if !v.HasPrefix(bytebuf.FromString("trace")) {
		t.Errorf("HasPrefix(trace) = false; want true")
	}
	if v.HasPrefix(bytebuf.FromString("traceEventsX")) {
		t.Errorf("HasPrefix(traceEventsX) = true; want false")
	}
}

func TestSliceOutOfRangePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Slice out of range did not panic")
		}
	}()
	v := bytebuf.FromString("ab")
	_ = v.Slice(0, 5)
}

func TestEmpty(t *testing.T) {
	var v bytebuf.View
	if !v.IsEmpty() {
		t.Errorf("zero View.IsEmpty() = false; want true")
	}
	if v.Len() != 0 {
		t.Errorf("zero View.Len() = %d; want 0", v.Len())
	}
}
