// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package stagingfile writes a file in a temporary location and atomically
// moves it into place once it is complete.
package stagingfile

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// F manages a staging file.
//
// While F is active, it resides in a temporary location. Once finished, F
// can either be committed or destroyed. On commit, it is atomically moved into
// its destination; on destroy, it is deleted.
//
// F embeds the open *os.File, so it can be written to directly.
type F struct {
	*os.File

	// dest is the final destination path.
	dest string
	// committed is true once the file has been moved into place.
	committed bool
}

// New creates a new staging file for dest.
//
// If tempDir is empty, the file is staged in dest's directory, which keeps the
// final rename on the same filesystem.
func New(tempDir, dest string) (*F, error) {
	if tempDir == "" {
		tempDir = filepath.Dir(dest)
	}

	fd, err := os.CreateTemp(tempDir, "."+filepath.Base(dest)+".staging-*")
	if err != nil {
		return nil, errors.Wrap(err, "creating staging file")
	}
	return &F{
		File: fd,
		dest: dest,
	}, nil
}

// Destroy closes and purges the staging file. It is a no-op after Commit.
func (sf *F) Destroy() error {
	if sf.committed || sf.File == nil {
		return nil
	}

	// The close error doesn't matter; the file is going away.
	_ = sf.File.Close()
	path := sf.File.Name()
	sf.File = nil
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Commit syncs and closes the staging file, then atomically moves it to its
// destination, replacing anything already there.
func (sf *F) Commit() error {
	if sf.committed || sf.File == nil {
		return errors.New("invalid staging file")
	}

	if err := sf.File.Sync(); err != nil {
		return errors.Wrap(err, "syncing staging file")
	}
	if err := sf.File.Close(); err != nil {
		return errors.Wrap(err, "closing staging file")
	}

	path := sf.File.Name()
	if err := os.Rename(path, sf.dest); err != nil {
		return errors.Wrapf(err, "moving staging file into place (%q => %q)", path, sf.dest)
	}
	sf.committed = true
	return nil
}
