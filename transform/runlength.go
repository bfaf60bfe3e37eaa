// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package transform

import (
	"encoding/binary"
	"io"

	"github.com/danjacques/goqres/support/byteslicereader"

	"github.com/pkg/errors"
)

const (
	// RecordMarker opens every run-length record.
	RecordMarker byte = 0xE7

	// RecordSize is the encoded size of one run-length record.
	RecordSize = 4

	// MaxRunLength is the largest count a single record can carry. Longer runs
	// are split.
	MaxRunLength = 0xFFFF
)

var (
	// ErrTruncatedRecord is returned when a run-length stream ends in the
	// middle of a record.
	ErrTruncatedRecord = errors.New("truncated run-length record")

	// ErrBadMarker is returned when a record does not begin with
	// RecordMarker.
	ErrBadMarker = errors.New("bad run-length record marker")

	// ErrEmptyRun is returned for a record with a zero count.
	ErrEmptyRun = errors.New("run-length record with zero count")

	// ErrRunOverflow is returned when decoding would exceed the caller's
	// output limit.
	ErrRunOverflow = errors.New("run-length output exceeds limit")
)

// RunLengthSize returns the exact number of bytes RunLengthEncode produces
// for src.
func RunLengthSize(src []byte) int {
	records := 0
	forEachRun(src, func(byte, int) { records++ })
	return records * RecordSize
}

// RunLengthEncode appends the run-length encoding of src to dst and returns
// the extended slice.
func RunLengthEncode(dst, src []byte) []byte {
	if cap(dst)-len(dst) < len(src) {
		// Size exactly; it's cheaper than repeated appends for large chunks.
		dst = grow(dst, RunLengthSize(src))[:len(dst)]
	}

	var rec [RecordSize]byte
	rec[0] = RecordMarker
	forEachRun(src, func(v byte, count int) {
		rec[1] = v
		binary.LittleEndian.PutUint16(rec[2:], uint16(count))
		dst = append(dst, rec[:]...)
	})
	return dst
}

// RunLengthDecode appends the expansion of the run-length stream src to dst
// and returns the extended slice.
//
// A malformed stream is an error; RunLengthDecode never silently drops a
// trailing partial record.
func RunLengthDecode(dst, src []byte) ([]byte, error) {
	return RunLengthDecodeLimit(dst, src, -1)
}

// RunLengthDecodeLimit is RunLengthDecode, but fails with ErrRunOverflow if
// more than limit bytes would be appended. A negative limit disables the
// check.
func RunLengthDecodeLimit(dst, src []byte, limit int) ([]byte, error) {
	r := byteslicereader.R{Buffer: src}
	written := 0
	for {
		rec, err := r.Next(RecordSize)
		switch err {
		case nil:
		case io.EOF:
			return dst, nil
		default:
			return dst, errors.Wrapf(ErrTruncatedRecord, "%d trailing byte(s) at offset %d",
				len(rec), r.Offset()-len(rec))
		}

		offset := r.Offset() - RecordSize
		if rec[0] != RecordMarker {
			return dst, errors.Wrapf(ErrBadMarker, "0x%02x at offset %d", rec[0], offset)
		}
		count := int(binary.LittleEndian.Uint16(rec[2:]))
		if count == 0 {
			return dst, errors.Wrapf(ErrEmptyRun, "at offset %d", offset)
		}
		if limit >= 0 && written+count > limit {
			return dst, errors.Wrapf(ErrRunOverflow, "%d > %d", written+count, limit)
		}

		dst = appendRun(dst, rec[1], count)
		written += count
	}
}

// forEachRun invokes cb for every maximal run in src, splitting runs longer
// than MaxRunLength.
func forEachRun(src []byte, cb func(v byte, count int)) {
	for i := 0; i < len(src); {
		v := src[i]
		j := i + 1
		for j < len(src) && src[j] == v && j-i < MaxRunLength {
			j++
		}
		cb(v, j-i)
		i = j
	}
}

func appendRun(dst []byte, v byte, count int) []byte {
	dst = grow(dst, count)
	run := dst[len(dst)-count:]
	for i := range run {
		run[i] = v
	}
	return dst
}
