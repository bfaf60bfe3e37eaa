// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"math"
	"math/bits"
	"time"

	"github.com/danjacques/goqres/codec"
	"github.com/danjacques/goqres/parallel"

	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	tspb "github.com/golang/protobuf/ptypes/timestamp"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// FormatVersion is the container format version written by this package.
// Containers with a newer version are rejected.
const FormatVersion = 1

// MaxChunkSize is the largest raw chunk size a container may declare.
const MaxChunkSize = 256 * 1024 * 1024

// ChecksumSize is the size of a container checksum (BLAKE2b-256).
const ChecksumSize = 32

// Header field numbers. These are persisted and must never change.
const (
	fieldVersion        protowire.Number = 1
	fieldCreated        protowire.Number = 2
	fieldOriginalSize   protowire.Number = 3
	fieldCompressedSize protowire.Number = 4
	fieldName           protowire.Number = 5
	fieldChunkSizes     protowire.Number = 6
	fieldChunkSize      protowire.Number = 7
	fieldCompression    protowire.Number = 8
	fieldChecksum       protowire.Number = 9
)

// Header is a container's metadata block.
//
// A Header is built once, after every chunk has been compressed, and is never
// modified after it is written.
type Header struct {
	// Version is the format version.
	Version int
	// Created is the time the container was written, at second precision.
	Created time.Time

	// OriginalSize is the total size of the original stream.
	OriginalSize uint64
	// CompressedSize is the total size of all compressed chunks.
	CompressedSize uint64
	// Name is the source file name.
	Name string

	// ChunkSize is the raw size of every chunk but the last.
	ChunkSize int
	// Compression is the entropy scheme applied to every chunk.
	Compression codec.Compression
	// ChunkSizes lists the compressed size of each chunk, in order.
	ChunkSizes []uint64

	// Checksum is the BLAKE2b-256 digest of the original stream. It is empty if
	// the container was written without one.
	Checksum []byte
}

// NumChunks returns the number of chunks in the container.
func (h *Header) NumChunks() int { return len(h.ChunkSizes) }

// RawChunkSize returns the original size of chunk i.
func (h *Header) RawChunkSize(i int) int {
	if i < len(h.ChunkSizes)-1 {
		return h.ChunkSize
	}
	return int(h.OriginalSize - uint64(h.ChunkSize)*uint64(len(h.ChunkSizes)-1))
}

// Codec returns the chunk codec that decodes this container's chunks.
func (h *Header) Codec() *codec.Codec {
	return &codec.Codec{
		Compression:  h.Compression,
		MaxChunkSize: h.ChunkSize,
	}
}

// Validate returns an error if h is not internally consistent.
func (h *Header) Validate() error {
	switch {
	case h.Version <= 0:
		return errors.Errorf("invalid version %d", h.Version)
	case h.Version > FormatVersion:
		return errors.Errorf("unsupported version %d (newest supported is %d)", h.Version, FormatVersion)
	case h.ChunkSize <= 0 || h.ChunkSize > MaxChunkSize:
		return errors.Errorf("chunk size %d is out of range (0, %d]", h.ChunkSize, MaxChunkSize)
	case len(h.Checksum) != 0 && len(h.Checksum) != ChecksumSize:
		return errors.Errorf("checksum is %d bytes, expected %d", len(h.Checksum), ChecksumSize)
	}
	if err := h.Compression.Valid(); err != nil {
		return err
	}

	if want := parallel.SplitCount(h.OriginalSize, h.ChunkSize); uint64(len(h.ChunkSizes)) != want {
		return errors.Errorf("%d chunk(s) recorded, but %d bytes in chunks of %d needs %d",
			len(h.ChunkSizes), h.OriginalSize, h.ChunkSize, want)
	}

	var total uint64
	for i, size := range h.ChunkSizes {
		if size == 0 {
			return errors.Errorf("chunk #%d is empty", i)
		}
		if size > maxEncodedSize(h.ChunkSize) {
			return errors.Errorf("chunk #%d declares %d bytes, more than any %d-byte chunk encodes to", i, size, h.ChunkSize)
		}
		var carry uint64
		if total, carry = bits.Add64(total, size, 0); carry != 0 {
			return errors.Errorf("chunk sizes overflow at chunk #%d", i)
		}
	}
	if total != h.CompressedSize {
		return errors.Errorf("chunk sizes sum to %d, but compressed size is %d", total, h.CompressedSize)
	}
	return nil
}

// MarshalBinary encodes h in protobuf wire format.
func (h *Header) MarshalBinary() ([]byte, error) {
	var b []byte
	b = appendVarintField(b, fieldVersion, uint64(h.Version))

	if !h.Created.IsZero() {
		ts, err := ptypes.TimestampProto(time.Unix(h.Created.Unix(), 0))
		if err != nil {
			return nil, errors.Wrap(err, "encoding creation time")
		}
		tsData, err := proto.Marshal(ts)
		if err != nil {
			return nil, errors.Wrap(err, "marshalling creation time")
		}
		b = protowire.AppendTag(b, fieldCreated, protowire.BytesType)
		b = protowire.AppendBytes(b, tsData)
	}

	b = appendVarintField(b, fieldOriginalSize, h.OriginalSize)
	b = appendVarintField(b, fieldCompressedSize, h.CompressedSize)
	if h.Name != "" {
		b = protowire.AppendTag(b, fieldName, protowire.BytesType)
		b = protowire.AppendString(b, h.Name)
	}

	if len(h.ChunkSizes) > 0 {
		var packed []byte
		for _, size := range h.ChunkSizes {
			packed = protowire.AppendVarint(packed, size)
		}
		b = protowire.AppendTag(b, fieldChunkSizes, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}

	b = appendVarintField(b, fieldChunkSize, uint64(h.ChunkSize))
	b = appendVarintField(b, fieldCompression, uint64(h.Compression))
	if len(h.Checksum) > 0 {
		b = protowire.AppendTag(b, fieldChecksum, protowire.BytesType)
		b = protowire.AppendBytes(b, h.Checksum)
	}
	return b, nil
}

// UnmarshalBinary decodes a header produced by MarshalBinary into h.
//
// Unknown fields are skipped. UnmarshalBinary does not validate the header;
// use Validate for that.
func (h *Header) UnmarshalBinary(data []byte) error {
	*h = Header{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return errors.Wrap(protowire.ParseError(n), "reading field tag")
		}
		data = data[n:]

		switch {
		case num == fieldChunkSizes && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Wrap(protowire.ParseError(n), "reading chunk sizes")
			}
			for len(packed) > 0 {
				v, vn := protowire.ConsumeVarint(packed)
				if vn < 0 {
					return errors.Wrapf(protowire.ParseError(vn), "reading size of chunk #%d", len(h.ChunkSizes))
				}
				h.ChunkSizes = append(h.ChunkSizes, v)
				packed = packed[vn:]
			}
			data = data[n:]

		case typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return errors.Wrapf(protowire.ParseError(n), "reading field %d", num)
			}
			if err := h.setVarint(num, v); err != nil {
				return err
			}
			data = data[n:]

		case typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return errors.Wrapf(protowire.ParseError(n), "reading field %d", num)
			}
			if err := h.setBytes(num, v); err != nil {
				return err
			}
			data = data[n:]

		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return errors.Wrapf(protowire.ParseError(n), "skipping field %d", num)
			}
			data = data[n:]
		}
	}
	return nil
}

func (h *Header) setVarint(num protowire.Number, v uint64) error {
	switch num {
	case fieldVersion:
		if v > math.MaxInt32 {
			return errors.Errorf("version %d is out of range", v)
		}
		h.Version = int(v)
	case fieldOriginalSize:
		h.OriginalSize = v
	case fieldCompressedSize:
		h.CompressedSize = v
	case fieldChunkSizes:
		// Unpacked repeated encoding.
		h.ChunkSizes = append(h.ChunkSizes, v)
	case fieldChunkSize:
		if v > MaxChunkSize {
			return errors.Errorf("chunk size %d is out of range", v)
		}
		h.ChunkSize = int(v)
	case fieldCompression:
		if v > math.MaxInt32 {
			return errors.Errorf("compression %d is out of range", v)
		}
		h.Compression = codec.Compression(v)
	}
	return nil
}

func (h *Header) setBytes(num protowire.Number, v []byte) error {
	switch num {
	case fieldCreated:
		var ts tspb.Timestamp
		if err := proto.Unmarshal(v, &ts); err != nil {
			return errors.Wrap(err, "unmarshalling creation time")
		}
		created, err := ptypes.Timestamp(&ts)
		if err != nil {
			return errors.Wrap(err, "decoding creation time")
		}
		h.Created = created
	case fieldName:
		h.Name = string(v)
	case fieldChecksum:
		h.Checksum = append([]byte(nil), v...)
	}
	return nil
}

// maxEncodedSize bounds the compressed size of a chunk of chunkSize raw bytes.
// Run-length records are four bytes per input byte, and no scheme expands its
// input by more than a quarter plus framing.
func maxEncodedSize(chunkSize int) uint64 {
	return 5*uint64(chunkSize) + 4096
}

func appendVarintField(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}
