// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package byteslicereader offers R, a slice-backed cursor with zero-copy
// reads.
//
// Standard io.Reader methods require that data be copied into a target Buffer.
// The zero-copy option, Next, returns slices of R's underlying Buffer instead,
// which is what record-oriented decoders want when walking a decompressed
// chunk.
//
// Holding a reference returned by Next means the Buffer must persist as long as
// that reference is used.
package byteslicereader

import (
	"io"
)

// R is a read cursor over Buffer.
//
// R can be copied, creating a snapshot of its current state.
type R struct {
	// Buffer is the backing buffer for this reader.
	Buffer []byte

	// pos is the R's position within Buffer.
	pos int
}

var _ interface {
	io.Reader
	io.ByteReader
} = (*R)(nil)

func (r *R) remainingSlice() []byte {
	if r.pos >= len(r.Buffer) {
		return nil
	}
	return r.Buffer[r.pos:]
}

// Remaining returns the number of bytes remaining in the reader, from the
// current position.
func (r *R) Remaining() int { return len(r.remainingSlice()) }

// Offset returns the current position within Buffer.
func (r *R) Offset() int { return r.pos }

// Read implements io.Reader.
//
// Note that using Read cause data to be copied.
func (r *R) Read(b []byte) (amt int, err error) {
	remaining := r.remainingSlice()
	if len(remaining) == 0 && len(b) > 0 {
		return 0, io.EOF
	}
	amt = copy(b, remaining)
	r.pos += amt
	return
}

// ReadByte implements io.ByteReader.
func (r *R) ReadByte() (b byte, err error) {
	if r.pos >= len(r.Buffer) {
		return 0, io.EOF
	}

	b, r.pos = r.Buffer[r.pos], r.pos+1
	return
}

// Next returns the next n bytes in r, advancing r. The returned slice aliases
// Buffer.
//
// If there are fewer than n bytes in r, Next will return as many bytes as it
// can and io.ErrUnexpectedEOF, or io.EOF if nothing was left at all. Next will
// never return an error if all requested bytes are returned.
func (r *R) Next(n int) (v []byte, err error) {
	v = r.remainingSlice()
	switch {
	case n <= len(v):
		v = v[:n]
	case len(v) == 0:
		err = io.EOF
	default:
		err = io.ErrUnexpectedEOF
	}

	r.pos += len(v)
	return
}
