// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package bytebuf provides View, an unowned (pointer, length) window over a
// byte range. It is the common vocabulary shared by the arena, the JSON
// tokenizer and the trace parser: an input chunk, a saved lexeme and a
// decoded string field are all represented the same way, without copying.
package bytebuf

// View is a read-only window into bytes owned by someone else: the
// caller's input chunk, or a buffer owned by an arena.Arena. A View never
// allocates and never extends past the end of its backing storage.
//
// A View handed to a caller remains valid only until the next mutation of
// the backing arena or input buffer that produced it.
type View struct {
	data []byte
}

// Of wraps b as a View without copying.
func Of(b []byte) View {
	return View{data: b}
}

// FromString wraps s as a View without copying the underlying bytes.
func FromString(s string) View {
	return View{data: []byte(s)}
}

// Len returns the number of bytes in the view.
func (v View) Len() int {
	return len(v.data)
}

// IsEmpty reports whether the view has zero length.
func (v View) IsEmpty() bool {
	return len(v.data) == 0
}

// Bytes returns the underlying bytes. The caller must not retain the
// slice past the view's validity window.
func (v View) Bytes() []byte {
	return v.data
}

// String copies the view into a new string.
func (v View) String() string {
	return string(v.data)
}

// At returns the byte at index i.
func (v View) At(i int) byte {
	return v.data[i]
}

// Slice returns the sub-view [start, end). It panics if the range is out
// of bounds, mirroring the bounds assertion in buf_slice.
func (v View) Slice(start, end int) View {
	if start < 0 || end < start || end > len(v.data) {
		panic("bytebuf: slice out of range")
	}
	return View{data: v.data[start:end]}
}

// Equal reports whether v and o have the same length and bytes.
func (v View) Equal(o View) bool {
	if len(v.data) != len(o.data) {
		return false
	}
	for i := range v.data {
		if v.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

// EqualString reports whether v holds exactly the bytes of s.
func (v View) EqualString(s string) bool {
	if len(v.data) != len(s) {
		return false
	}
	for i := 0; i < len(s); i++ {
		if v.data[i] != s[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether v begins with prefix.
func (v View) HasPrefix(prefix View) bool {
	if len(prefix.data) > len(v.data) {
		return false
	}
	return v.Slice(0, len(prefix.data)).Equal(prefix)
}
