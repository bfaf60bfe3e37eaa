// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"hash"
	"io"

	"github.com/danjacques/goqres/support/bufferpool"
	"github.com/danjacques/goqres/support/dataio"

	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

// Encode reads the whole of r, encodes it into a container and writes the
// container to w. name is recorded in the header as the source name.
//
// The header must describe every compressed chunk, so nothing is written to w
// until all of r has been read and encoded. Compressed chunks are held in
// memory until then; raw chunks are not.
func (cfg *Config) Encode(w io.Writer, r io.Reader, name string) (h *Header, err error) {
	defer func() { observe("encode", h, err) }()

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	log := cfg.logger()
	c := cfg.codec()
	chunkSize := cfg.chunkSize()
	pool := bufferpool.Pool{Size: chunkSize}

	var sum hash.Hash
	if !cfg.DisableChecksum {
		if sum, err = blake2b.New256(nil); err != nil {
			return nil, errors.Wrap(err, "creating checksum")
		}
	}

	hdr := Header{
		Version:     FormatVersion,
		Created:     cfg.now(),
		Name:        name,
		ChunkSize:   chunkSize,
		Compression: c.Scheme(),
	}

	// next runs on the pipeline's producer goroutine. It owns the input cursor,
	// the checksum and OriginalSize until the pipeline finishes.
	done := false
	next := func() ([]byte, func(), error) {
		if done {
			return nil, nil, io.EOF
		}

		buf := pool.Get()
		amt, err := dataio.ReadFull(r, buf.Bytes())
		if err != nil {
			buf.Release()
			return nil, nil, errors.Wrap(err, "reading input")
		}
		if amt < chunkSize {
			done = true
			if amt == 0 {
				buf.Release()
				return nil, nil, io.EOF
			}
		}

		buf.Truncate(amt)
		if sum != nil {
			_, _ = sum.Write(buf.Bytes())
		}
		hdr.OriginalSize += uint64(amt)
		return buf.Bytes(), buf.Release, nil
	}

	work := func(index int, in []byte) ([]byte, error) {
		return c.Encode(in)
	}

	// emit runs on this goroutine, in chunk order.
	var chunks [][]byte
	emit := func(index int, out []byte) error {
		chunks = append(chunks, out)
		hdr.ChunkSizes = append(hdr.ChunkSizes, uint64(len(out)))
		hdr.CompressedSize += uint64(len(out))
		log.Debugf("Encoded chunk #%d into %d byte(s).", index, len(out))
		return nil
	}

	if err := cfg.pipeline().Run(next, work, emit); err != nil {
		return nil, errors.Wrap(err, "encoding chunks")
	}
	if sum != nil {
		hdr.Checksum = sum.Sum(nil)
	}
	if err := hdr.Validate(); err != nil {
		return nil, errors.Wrap(err, "built an invalid header")
	}

	if _, err := WriteHeader(w, &hdr); err != nil {
		return nil, err
	}
	for i, chunk := range chunks {
		if _, err := w.Write(chunk); err != nil {
			return nil, errors.Wrapf(err, "writing chunk #%d", i)
		}
		chunks[i] = nil
	}

	log.Infof("Encoded %q: %d byte(s) into %d chunk(s) of %d byte(s) (%s).",
		hdr.Name, hdr.OriginalSize, hdr.NumChunks(), hdr.CompressedSize, hdr.Compression)
	return &hdr, nil
}
