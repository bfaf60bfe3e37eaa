// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package bufferpool recycles fixed-capacity byte buffers, such as the raw
// chunk buffers handed to encode workers.
package bufferpool

import (
	"sync"
	"sync/atomic"
)

// Pool maintains a pool of buffers. It offers a new buffer when one is
// unavailable.
//
// The zero value is not usable; Size must be set before the first Get.
type Pool struct {
	// Size is the capacity of the buffers in this pool.
	Size int

	base sync.Pool

	// outstanding counts buffers handed out and not yet released.
	outstanding int64
}

// Get returns a buffer, allocating one if one is not available. The returned
// buffer has length Size.
//
// The caller must return the buffer to the pool by calling its Release method
// when done with it.
func (bp *Pool) Get() *Buffer {
	b, ok := bp.base.Get().(*Buffer)
	if !ok || cap(b.bytes) < bp.Size {
		b = &Buffer{
			bytes: make([]byte, bp.Size),
		}
	}

	b.pool = bp
	b.size = -1
	atomic.AddInt64(&bp.outstanding, 1)
	return b
}

// Outstanding returns the number of buffers that have been acquired but not
// yet released.
func (bp *Pool) Outstanding() int { return int(atomic.LoadInt64(&bp.outstanding)) }

func (bp *Pool) release(b *Buffer) {
	atomic.AddInt64(&bp.outstanding, -1)
	bp.base.Put(b)
}

// Buffer contains a byte buffer that can be released into a Pool for reuse.
//
// Failure to release Buffer will not cause a memory leak, but will prevent the
// reuse of the Buffer.
type Buffer struct {
	bytes []byte
	size  int

	pool *Pool
}

// Bytes returns this buffer's byte slice, capped by Truncate if it was called.
func (b *Buffer) Bytes() []byte {
	if b.size >= 0 {
		return b.bytes[:b.size]
	}
	return b.bytes[:b.pool.Size]
}

// Len returns the number of bytes Bytes will return.
func (b *Buffer) Len() int { return len(b.Bytes()) }

// Truncate caps the number of bytes returned by Bytes.
func (b *Buffer) Truncate(size int) {
	if size < 0 || size > len(b.bytes) {
		panic("bufferpool: truncate out of range")
	}
	b.size = size
}

// Release returns the buffer to its pool. A Buffer must only be released once,
// and must not be used afterwards.
func (b *Buffer) Release() {
	pool := b.pool
	if pool == nil {
		panic("bufferpool: buffer released twice")
	}
	b.pool = nil
	pool.release(b)
}
