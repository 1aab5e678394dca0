// Copyright 2023 The Chromium Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package arena

// Ptr is an opaque handle to a live allocation: the block that owns it and
// the allocation's header offset within that block's buffer. A Ptr is only
// meaningful to the Arena that produced it.
type Ptr struct {
	blk  *block
	off  uint64
	data []byte
}

// IsZero reports whether p is the zero Ptr, i.e. it names no allocation.
// PushOrGrow treats the zero Ptr the same as a fresh Push.
func (p Ptr) IsZero() bool {
	return p.blk == nil
}

// Bytes returns the payload slice for this allocation. The slice is valid
// until the Ptr is popped, freed, or grown to a new address.
func (p Ptr) Bytes() []byte {
	return p.data
}
