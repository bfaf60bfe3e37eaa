// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"time"

	"github.com/danjacques/goqres/codec"
	"github.com/danjacques/goqres/parallel"
	"github.com/danjacques/goqres/support/logging"

	"github.com/pkg/errors"
)

// DefaultChunkSize is the raw chunk size used when Config.ChunkSize is zero.
const DefaultChunkSize = codec.DefaultMaxChunkSize

// Config is a configuration for encoding and decoding containers.
//
// The zero value is usable: FLATE at its default level, 4 MiB chunks, one
// worker per CPU, with a checksum.
type Config struct {
	// ChunkSize is the raw size of each chunk. If zero, DefaultChunkSize is
	// used.
	ChunkSize int
	// Workers is the number of chunks coded concurrently. If <= 0, one worker
	// per CPU is used.
	Workers int

	// Compression is the entropy scheme to write with. If zero, FLATE is used.
	// Decoding always uses the scheme recorded in the container.
	Compression codec.Compression
	// CompressionLevel is the level to apply to Compression, if applicable.
	CompressionLevel int

	// DisableChecksum, if true, omits the stream checksum when encoding.
	DisableChecksum bool

	// TempDir is the directory in which file outputs are staged. If empty, the
	// output's own directory is used.
	TempDir string

	// NowFunc, if not nil, is the function to use to get the current time. If
	// nil, time.Now will be used.
	NowFunc func() time.Time

	// Logger, if not nil, receives progress output.
	Logger logging.L
}

// Validate returns an error if cfg is misconfigured.
func (cfg *Config) Validate() error {
	if cfg.ChunkSize < 0 || cfg.ChunkSize > MaxChunkSize {
		return errors.Errorf("chunk size %d is out of range (0, %d]", cfg.ChunkSize, MaxChunkSize)
	}
	return cfg.codec().Validate()
}

func (cfg *Config) chunkSize() int {
	if cfg.ChunkSize > 0 {
		return cfg.ChunkSize
	}
	return DefaultChunkSize
}

func (cfg *Config) now() time.Time {
	if cfg.NowFunc != nil {
		return cfg.NowFunc()
	}
	return time.Now()
}

func (cfg *Config) logger() logging.L { return logging.Must(cfg.Logger) }

func (cfg *Config) codec() *codec.Codec {
	return &codec.Codec{
		Compression:  cfg.Compression,
		Level:        cfg.CompressionLevel,
		MaxChunkSize: cfg.chunkSize(),
	}
}

func (cfg *Config) pipeline() *parallel.Pipeline {
	return &parallel.Pipeline{
		Workers: cfg.Workers,
		Logger:  cfg.Logger,
	}
}
