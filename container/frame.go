// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"bytes"
	"io"

	"github.com/danjacques/goqres/support/dataio"

	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"
)

// MaxHeaderSize is the largest serialized header that will be read.
const MaxHeaderSize = 64 * 1024 * 1024

// prefixSize is the size of the packed framePrefix.
const prefixSize = 4

// framePrefix precedes the serialized header.
type framePrefix struct {
	HeaderLen uint32 `struc:"uint32,big"`
}

// WriteHeader writes h's length prefix and serialized form to w, returning the
// number of bytes written.
func WriteHeader(w io.Writer, h *Header) (int64, error) {
	data, err := h.MarshalBinary()
	if err != nil {
		return 0, err
	}
	if len(data) > MaxHeaderSize {
		return 0, errors.Errorf("header of %d bytes exceeds maximum of %d", len(data), MaxHeaderSize)
	}

	prefix := framePrefix{HeaderLen: uint32(len(data))}
	if err := struc.Pack(w, &prefix); err != nil {
		return 0, errors.Wrap(err, "writing header prefix")
	}
	if _, err := w.Write(data); err != nil {
		return prefixSize, errors.Wrap(err, "writing header")
	}
	return int64(prefixSize + len(data)), nil
}

// ReadHeader reads and validates a container header from r. It returns the
// header and the number of bytes it occupied, which is the offset of the first
// chunk.
//
// Any problem with the header's framing or content is reported as a
// *CorruptError.
func ReadHeader(r io.Reader) (*Header, int64, error) {
	var raw [prefixSize]byte
	if err := readFrame(r, raw[:], "header prefix"); err != nil {
		return nil, 0, err
	}
	var prefix framePrefix
	if err := struc.Unpack(bytes.NewReader(raw[:]), &prefix); err != nil {
		return nil, 0, corruptf(err, "unpacking header prefix")
	}
	if prefix.HeaderLen > MaxHeaderSize {
		return nil, 0, corruptf(nil, "header length %d exceeds maximum of %d", prefix.HeaderLen, MaxHeaderSize)
	}

	data := make([]byte, prefix.HeaderLen)
	if err := readFrame(r, data, "header"); err != nil {
		return nil, 0, err
	}

	var h Header
	if err := h.UnmarshalBinary(data); err != nil {
		return nil, 0, corruptf(err, "parsing header")
	}
	if err := h.Validate(); err != nil {
		return nil, 0, corruptf(err, "invalid header")
	}
	return &h, int64(prefixSize + len(data)), nil
}

// readFrame fills buf from r. Running out of input is corruption; any other
// failure is an I/O error.
func readFrame(r io.Reader, buf []byte, what string) error {
	if err := dataio.ReadExact(r, buf); err != nil {
		if _, ok := err.(*dataio.ShortReadError); ok {
			return corruptf(err, "reading %s", what)
		}
		return errors.Wrapf(err, "reading %s", what)
	}
	return nil
}

// readChunk reads the size-byte chunk at index from r. The buffer grows with the
// bytes actually read, so a header that declares oversized chunks can't force a
// large allocation without also supplying the data.
func readChunk(r io.Reader, index int, size uint64) ([]byte, error) {
	var buf bytes.Buffer
	amt, err := io.CopyN(&buf, r, int64(size))
	switch {
	case err == io.EOF:
		return nil, corruptf(&dataio.ShortReadError{Want: int(size), Got: int(amt)}, "chunk #%d overruns the input", index)
	case err != nil:
		return nil, errors.Wrapf(err, "reading chunk #%d", index)
	}
	return buf.Bytes(), nil
}
