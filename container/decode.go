// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"bytes"
	"encoding/hex"
	"hash"
	"io"

	"github.com/danjacques/goqres/support/dataio"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Decode reads a container from r and writes the original stream to w.
//
// Chunks are read from r in order and decoded in parallel. Decode fails if the
// container is damaged, if the stream does not match the size and checksum
// recorded in its header, or if r holds any data past the final chunk. Sizes
// are verified chunk by chunk: chunk i must decode to exactly its share of
// OriginalSize, which also pins the total. If Decode fails, whatever it already
// wrote to w must be discarded.
func (cfg *Config) Decode(w io.Writer, r io.Reader) (h *Header, err error) {
	defer func() { observe("decode", h, err) }()

	log := cfg.logger()
	hdr, _, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	c := hdr.Codec()

	var sum hash.Hash
	if len(hdr.Checksum) > 0 {
		if sum, err = blake2b.New256(nil); err != nil {
			return nil, errors.Wrap(err, "creating checksum")
		}
	}

	// next runs on the pipeline's producer goroutine and owns the input cursor.
	cursor := 0
	next := func() ([]byte, func(), error) {
		if cursor >= hdr.NumChunks() {
			return nil, nil, io.EOF
		}

		buf, err := readChunk(r, cursor, hdr.ChunkSizes[cursor])
		if err != nil {
			return nil, nil, err
		}
		cursor++
		return buf, nil, nil
	}

	work := func(index int, in []byte) ([]byte, error) {
		out, err := c.Decode(in)
		if err != nil {
			return nil, corruptf(err, "decoding chunk #%d", index)
		}
		if want := hdr.RawChunkSize(index); len(out) != want {
			return nil, chunkSizeMismatch(index, len(out), want)
		}
		return out, nil
	}

	var total uint64
	emit := func(index int, out []byte) error {
		if _, err := w.Write(out); err != nil {
			return errors.Wrapf(err, "writing chunk #%d", index)
		}
		if sum != nil {
			_, _ = sum.Write(out)
		}
		total += uint64(len(out))
		log.Debugf("Decoded chunk #%d into %d byte(s).", index, len(out))
		return nil
	}

	if err := cfg.pipeline().Run(next, work, emit); err != nil {
		return nil, err
	}

	// Every chunk matched its share of OriginalSize, so total does too.
	if sum != nil {
		if actual := sum.Sum(nil); !bytes.Equal(actual, hdr.Checksum) {
			return nil, &IntegrityError{
				What:     "checksum",
				Expected: hex.EncodeToString(hdr.Checksum),
				Actual:   hex.EncodeToString(actual),
			}
		}
	}

	var trailing [1]byte
	switch amt, err := dataio.ReadFull(r, trailing[:]); {
	case err != nil:
		return nil, errors.Wrap(err, "checking for trailing data")
	case amt != 0:
		return nil, corruptf(nil, "unexpected data after the final chunk")
	}

	log.Infof("Decoded %q: %d chunk(s) into %d byte(s).", hdr.Name, hdr.NumChunks(), total)
	return hdr, nil
}
