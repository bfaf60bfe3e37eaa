// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package dataio offers read helpers for fixed-size framing.
package dataio

import (
	"fmt"
	"io"
)

// ReadFull reads from r until buf is full, or until r is exhausted.
//
// It returns the number of bytes read. Running out of data is not an error;
// a count smaller than len(buf) means r reached its end. Any other read
// error is returned as-is.
//
// This accommodates the fact that io.Reader is allowed to return less than the
// full buffer size without erroring.
func ReadFull(r io.Reader, buf []byte) (int, error) {
	total := 0
	for remaining := buf; len(remaining) > 0; {
		amt, err := r.Read(remaining)
		remaining, total = remaining[amt:], total+amt
		switch {
		case err == io.EOF:
			return total, nil
		case err != nil:
			return total, err
		case amt == 0:
			// Defend against readers that return (0, nil) forever.
			return total, io.ErrNoProgress
		}
	}
	return total, nil
}

// ShortReadError is returned by ReadExact when r ends before the requested
// number of bytes could be read.
type ShortReadError struct {
	Want int
	Got  int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("short read: wanted %d bytes, got %d", e.Want, e.Got)
}

// ReadExact fills buf from r. If r ends early, ReadExact returns a
// *ShortReadError describing how much was available.
func ReadExact(r io.Reader, buf []byte) error {
	amt, err := ReadFull(r, buf)
	if err != nil {
		return err
	}
	if amt != len(buf) {
		return &ShortReadError{Want: len(buf), Got: amt}
	}
	return nil
}
