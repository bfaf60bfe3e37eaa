// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"bufio"
	"io"
	"os"
	"path/filepath"

	"github.com/danjacques/goqres/support/stagingfile"

	"github.com/pkg/errors"
)

// EncodeFile encodes the file at inputPath into a container at outputPath.
//
// The container is staged and moved into place only once it is complete. If
// EncodeFile fails, outputPath is left untouched.
func (cfg *Config) EncodeFile(inputPath, outputPath string) (*Header, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening input")
	}
	defer in.Close()

	return cfg.writeFile(outputPath, func(w io.Writer) (*Header, error) {
		return cfg.Encode(w, bufio.NewReader(in), filepath.Base(inputPath))
	})
}

// DecodeFile decodes the container at inputPath into outputPath.
//
// The output is staged and moved into place only once it has been fully
// verified. If DecodeFile fails, outputPath is left untouched.
func (cfg *Config) DecodeFile(inputPath, outputPath string) (*Header, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "opening input")
	}
	defer in.Close()

	return cfg.writeFile(outputPath, func(w io.Writer) (*Header, error) {
		return cfg.Decode(w, bufio.NewReader(in))
	})
}

// OpenIndex opens the container at path for random access. The returned
// close function releases the file.
func OpenIndex(path string) (*Index, func() error, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening container")
	}
	st, err := fd.Stat()
	if err != nil {
		_ = fd.Close()
		return nil, nil, errors.Wrap(err, "stat container")
	}

	idx, err := ReadIndex(fd, st.Size())
	if err != nil {
		_ = fd.Close()
		return nil, nil, err
	}
	return idx, fd.Close, nil
}

func (cfg *Config) writeFile(path string, fn func(io.Writer) (*Header, error)) (*Header, error) {
	sf, err := stagingfile.New(cfg.TempDir, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		// A no-op once committed.
		_ = sf.Destroy()
	}()

	bw := bufio.NewWriter(sf)
	h, err := fn(bw)
	if err != nil {
		return nil, err
	}
	if err := bw.Flush(); err != nil {
		return nil, errors.Wrap(err, "flushing output")
	}
	if err := sf.Commit(); err != nil {
		return nil, err
	}
	return h, nil
}
