// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"io"

	"github.com/danjacques/goqres/codec"

	"github.com/pkg/errors"
)

// Index provides random access to the chunks of a container.
//
// Once the header is read, every chunk's location is known, so any chunk can
// be decoded without touching the others. An Index is safe for concurrent use
// if its io.ReaderAt is.
type Index struct {
	// Header is the container's header.
	Header *Header

	r       io.ReaderAt
	offsets []int64
	codec   *codec.Codec
}

// ReadIndex reads the header of the size-byte container in r and locates its
// chunks.
//
// It returns a *CorruptError if the chunks declared by the header do not
// exactly fill the container.
func ReadIndex(r io.ReaderAt, size int64) (*Index, error) {
	h, offset, err := ReadHeader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, err
	}

	idx := Index{
		Header:  h,
		r:       r,
		offsets: make([]int64, h.NumChunks()+1),
		codec:   h.Codec(),
	}
	for i, chunkSize := range h.ChunkSizes {
		idx.offsets[i] = offset
		offset += int64(chunkSize)
	}
	idx.offsets[h.NumChunks()] = offset

	switch {
	case offset > size:
		return nil, corruptf(nil, "chunks end at offset %d, past the end of the %d-byte container", offset, size)
	case offset < size:
		return nil, corruptf(nil, "%d byte(s) of unexpected data after the final chunk", size-offset)
	}
	return &idx, nil
}

// NumChunks returns the number of chunks in the container.
func (idx *Index) NumChunks() int { return idx.Header.NumChunks() }

// Offset returns the byte offset of chunk i within the container.
func (idx *Index) Offset(i int) int64 { return idx.offsets[i] }

// RawChunk returns the compressed bytes of chunk i.
func (idx *Index) RawChunk(i int) ([]byte, error) {
	if i < 0 || i >= idx.NumChunks() {
		return nil, errors.Errorf("chunk #%d out of range [0, %d)", i, idx.NumChunks())
	}

	buf := make([]byte, idx.offsets[i+1]-idx.offsets[i])
	amt, err := idx.r.ReadAt(buf, idx.offsets[i])
	switch {
	case amt == len(buf):
		return buf, nil
	case err == io.EOF || err == nil:
		return nil, corruptf(err, "chunk #%d overruns the input", i)
	default:
		return nil, errors.Wrapf(err, "reading chunk #%d", i)
	}
}

// Chunk reads and decodes chunk i, returning its original bytes.
func (idx *Index) Chunk(i int) ([]byte, error) {
	blob, err := idx.RawChunk(i)
	if err != nil {
		return nil, err
	}

	out, err := idx.codec.Decode(blob)
	if err != nil {
		return nil, corruptf(err, "decoding chunk #%d", i)
	}
	if want := idx.Header.RawChunkSize(i); len(out) != want {
		return nil, chunkSizeMismatch(i, len(out), want)
	}
	return out, nil
}
