// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"bytes"

	"github.com/danjacques/goqres/transform"

	"github.com/pkg/errors"
)

// DefaultMaxChunkSize is the default upper bound on a raw chunk (4 MiB).
const DefaultMaxChunkSize = 4 * 1024 * 1024

// Codec encodes and decodes individual chunks.
//
// The zero value is a FLATE codec at the default level. A Codec is stateless
// and safe for concurrent use.
type Codec struct {
	// Compression is the entropy scheme. If zero, CompressionFlate is used.
	Compression Compression
	// Level is the compression level, DefaultLevel or 1 through MaxLevel.
	Level int

	// MaxChunkSize bounds the size of a raw chunk, both when encoding and when
	// decoding. If zero, DefaultMaxChunkSize is used.
	MaxChunkSize int
}

// Scheme returns the effective compression scheme.
func (c *Codec) Scheme() Compression {
	if c.Compression == 0 {
		return CompressionFlate
	}
	return c.Compression
}

func (c *Codec) maxChunkSize() int {
	if c.MaxChunkSize <= 0 {
		return DefaultMaxChunkSize
	}
	return c.MaxChunkSize
}

// Validate returns an error if c is misconfigured.
func (c *Codec) Validate() error {
	if err := c.Scheme().Valid(); err != nil {
		return err
	}
	if c.Level < 0 || c.Level > MaxLevel {
		return errors.Errorf("invalid compression level %d", c.Level)
	}
	if c.MaxChunkSize < 0 {
		return errors.Errorf("invalid maximum chunk size %d", c.MaxChunkSize)
	}
	return nil
}

// Encode transforms chunk into an opaque compressed blob. chunk is not
// modified.
func (c *Codec) Encode(chunk []byte) ([]byte, error) {
	if max := c.maxChunkSize(); len(chunk) > max {
		chunkErrors.WithLabelValues("encode").Inc()
		return nil, errors.Errorf("chunk of %d bytes exceeds maximum of %d", len(chunk), max)
	}

	deltas := transform.DeltaEncode(make([]byte, 0, len(chunk)), chunk)
	runs := transform.RunLengthEncode(nil, deltas)

	var buf bytes.Buffer
	buf.Grow(len(runs) / 4)
	if err := c.Scheme().Compress(&buf, runs, c.Level); err != nil {
		chunkErrors.WithLabelValues("encode").Inc()
		return nil, errors.Wrapf(err, "compressing with %s", c.Scheme())
	}

	chunkEncodeCount.Inc()
	chunkRawBytes.Add(float64(len(chunk)))
	chunkEncodedBytes.Add(float64(buf.Len()))
	return buf.Bytes(), nil
}

// Decode inverts Encode, returning exactly the original chunk bytes.
//
// Any damage to blob, including truncation, yields an error rather than short
// or altered output.
func (c *Codec) Decode(blob []byte) ([]byte, error) {
	max := c.maxChunkSize()

	runs, err := c.Scheme().Decompress(blob, max*transform.RecordSize)
	if err != nil {
		chunkErrors.WithLabelValues("decompress").Inc()
		return nil, errors.Wrapf(err, "decompressing with %s", c.Scheme())
	}

	deltas, err := transform.RunLengthDecodeLimit(nil, runs, max)
	if err != nil {
		chunkErrors.WithLabelValues("run_length").Inc()
		return nil, errors.Wrap(err, "run-length decoding")
	}

	// Reconstruct in place; deltas is ours.
	chunk := transform.DeltaDecode(deltas[:0], deltas)

	chunkDecodeCount.Inc()
	return chunk, nil
}
