// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
)

// Compression identifies the entropy-coding scheme applied to each chunk after
// preprocessing. Its numeric value is persisted in container headers, so
// existing values must never change.
type Compression int32

// These are the supported compression schemes.
const (
	// CompressionNone stores the run-length stream as-is.
	CompressionNone Compression = iota + 1
	// CompressionFlate is raw DEFLATE. It is the default.
	CompressionFlate
	// CompressionGzip is DEFLATE with gzip framing and a CRC.
	CompressionGzip
	// CompressionSnappy is Snappy's framed stream format: fast, with a
	// modest ratio.
	CompressionSnappy
	// CompressionZstd is Zstandard.
	CompressionZstd
	// CompressionLZ4 is the LZ4 frame format.
	CompressionLZ4
)

// DefaultLevel selects each scheme's balanced default effort.
const DefaultLevel = 0

// MaxLevel is the highest accepted compression level.
const MaxLevel = 9

var compressionNames = map[Compression]string{
	CompressionNone:   "NONE",
	CompressionFlate:  "FLATE",
	CompressionGzip:   "GZIP",
	CompressionSnappy: "SNAPPY",
	CompressionZstd:   "ZSTD",
	CompressionLZ4:    "LZ4",
}

func (c Compression) String() string {
	if name, ok := compressionNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Compression(%d)", int32(c))
}

// Valid returns nil iff c is a known scheme.
func (c Compression) Valid() error {
	if _, ok := compressionNames[c]; !ok {
		return errors.Errorf("unknown compression scheme %d", int32(c))
	}
	return nil
}

// ParseCompression returns the scheme with the given name, ignoring case.
func ParseCompression(name string) (Compression, error) {
	for c, n := range compressionNames {
		if strings.EqualFold(n, name) {
			return c, nil
		}
	}
	return 0, errors.Errorf("unknown compression type: %q", name)
}

// Compress writes the compressed form of src to w.
//
// level is DefaultLevel or 1 through MaxLevel. Schemes without tunable effort
// ignore it.
func (c Compression) Compress(w io.Writer, src []byte, level int) error {
	if level < 0 || level > MaxLevel {
		return errors.Errorf("invalid compression level %d", level)
	}

	switch c {
	case CompressionNone:
		_, err := w.Write(src)
		return err

	case CompressionFlate:
		if level == DefaultLevel {
			level = flate.DefaultCompression
		}
		fw, err := flate.NewWriter(w, level)
		if err != nil {
			return errors.Wrap(err, "creating flate writer")
		}
		return writeAndClose(fw, src)

	case CompressionGzip:
		if level == DefaultLevel {
			level = gzip.DefaultCompression
		}
		gw, err := gzip.NewWriterLevel(w, level)
		if err != nil {
			return errors.Wrap(err, "creating gzip writer")
		}
		return writeAndClose(gw, src)

	case CompressionSnappy:
		return writeAndClose(snappy.NewBufferedWriter(w), src)

	case CompressionZstd:
		zlevel := zstd.SpeedDefault
		if level != DefaultLevel {
			// Spread 1..9 across zstd's 1..22 range before mapping to a preset.
			zlevel = zstd.EncoderLevelFromZstd(1 + (level-1)*21/(MaxLevel-1))
		}
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zlevel), zstd.WithEncoderConcurrency(1))
		if err != nil {
			return errors.Wrap(err, "creating zstd writer")
		}
		return writeAndClose(zw, src)

	case CompressionLZ4:
		lw := lz4.NewWriter(w)
		opts := []lz4.Option{lz4.ConcurrencyOption(1)}
		if level != DefaultLevel {
			// lz4.Level1 is 1<<8, and each level doubles.
			opts = append(opts, lz4.CompressionLevelOption(lz4.CompressionLevel(1<<(7+level))))
		}
		if err := lw.Apply(opts...); err != nil {
			return errors.Wrap(err, "configuring lz4 writer")
		}
		return writeAndClose(lw, src)

	default:
		return c.Valid()
	}
}

// Decompress returns the decompressed form of src.
//
// If limit is non-negative, producing more than limit bytes is an error. This
// keeps a damaged or hostile stream from expanding without bound.
func (c Compression) Decompress(src []byte, limit int) ([]byte, error) {
	var r io.Reader
	switch c {
	case CompressionNone:
		if limit >= 0 && len(src) > limit {
			return nil, errors.Errorf("stored data exceeds limit (%d > %d)", len(src), limit)
		}
		return src, nil

	case CompressionFlate:
		fr := flate.NewReader(bytes.NewReader(src))
		defer fr.Close()
		r = fr

	case CompressionGzip:
		gr, err := gzip.NewReader(bytes.NewReader(src))
		if err != nil {
			return nil, errors.Wrap(err, "creating gzip reader")
		}
		defer gr.Close()
		r = gr

	case CompressionSnappy:
		r = snappy.NewReader(bytes.NewReader(src))

	case CompressionZstd:
		zr, err := zstd.NewReader(bytes.NewReader(src), zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, errors.Wrap(err, "creating zstd reader")
		}
		defer zr.Close()
		r = zr

	case CompressionLZ4:
		r = lz4.NewReader(bytes.NewReader(src))

	default:
		return nil, c.Valid()
	}

	return readLimited(r, limit)
}

func writeAndClose(wc io.WriteCloser, src []byte) error {
	if _, err := wc.Write(src); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

func readLimited(r io.Reader, limit int) ([]byte, error) {
	if limit < 0 {
		return io.ReadAll(r)
	}

	// Read one byte past the limit to detect overflow.
	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > limit {
		return nil, errors.Errorf("decompressed data exceeds limit (%d bytes)", limit)
	}
	return data, nil
}
