// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package arena

// Buf is a growable byte buffer backed by an Arena. It exists for lexemes
// that span an input chunk boundary: the tokenizer appends bytes to a Buf
// as it scans, and grows it in place (or relocates it) whenever the next
// append would overflow the current allocation, then hands the arena-owned
// bytes off as a bytebuf.View once the lexeme is complete.
type Buf struct {
	a   *Arena
	ptr Ptr
	len int
}

// NewBuf returns an empty Buf drawing allocations from a.
func NewBuf(a *Arena) *Buf {
	return &Buf{a: a}
}

// Reset truncates the buffer to zero length without releasing its backing
// allocation, so the next run of appends can reuse the same space.
func (b *Buf) Reset() {
	b.len = 0
}

// Len returns the number of bytes currently appended.
func (b *Buf) Len() int {
	return b.len
}

// Bytes returns the buffer's current contents. The slice is valid until
// the next AppendByte, Append or Reset call grows the buffer into a new
// allocation.
func (b *Buf) Bytes() []byte {
	if b.ptr.IsZero() {
		return nil
	}
	return b.ptr.data[:b.len]
}

// minBufSize is the smallest allocation ensureCap will request; from there
// the buffer grows by doubling rather than one byte at a time.
const minBufSize = 64

// ensureCap grows the backing allocation, if needed, so that it can hold
// at least need bytes, doubling (starting from minBufSize) until it does.
//
// PushOrGrow only preserves content when it relocates to a new address; a
// same-address grow comes back zero-filled, matching the arena's own
// realloc-style quirk. Buf can't rely on the arena for that, so it saves
// its own logical bytes first and copies them back in after growing,
// regardless of which case PushOrGrow took.
func (b *Buf) ensureCap(need int) {
	if len(b.ptr.data) >= need {
		return
	}
	newSize := minBufSize
	if !b.ptr.IsZero() && len(b.ptr.data) > 0 {
		newSize = len(b.ptr.data)
	}
	for newSize < need {
		newSize <<= 1
	}
	saved := append([]byte(nil), b.Bytes()...)
	b.ptr = b.a.PushOrGrow(b.ptr, newSize)
	copy(b.ptr.data, saved)
}

// AppendByte appends a single byte, growing the backing allocation if
// necessary.
func (b *Buf) AppendByte(c byte) {
	b.ensureCap(b.len + 1)
	b.ptr.data[b.len] = c
	b.len++
}

// Append appends p, growing the backing allocation if necessary.
func (b *Buf) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	b.ensureCap(b.len + len(p))
	copy(b.ptr.data[b.len:], p)
	b.len += len(p)
}

// Truncate shortens the buffer to n bytes, keeping its backing allocation.
// It panics if n is out of [0, Len()] — growing via Truncate is not
// supported, use Append for that.
func (b *Buf) Truncate(n int) {
	if n < 0 || n > b.len {
		panic("arena: Truncate out of range")
	}
	b.len = n
}

// Release frees the buffer's backing allocation back to the arena and
// resets the buffer to empty. Callers use this once a lexeme has been
// handed off and its backing bytes are no longer needed, so a buffer
// sitting at the top of the arena collapses immediately instead of
// waiting for Clear.
func (b *Buf) Release() {
	if !b.ptr.IsZero() {
		b.a.Free(b.ptr)
	}
	b.ptr = Ptr{}
	b.len = 0
}
