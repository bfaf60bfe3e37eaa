// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package transform

import (
	"fmt"
)

// Profile summarizes the delta stream of some data, as the preprocessing
// stages would see it.
type Profile struct {
	// Bytes is the number of input bytes.
	Bytes int64

	// Rises, Falls, and Flats count positive, negative, and zero deltas. The
	// first byte is compared against the implicit predecessor 0.
	Rises int64
	Falls int64
	Flats int64

	// Runs is the number of run-length records the delta stream produces.
	Runs int64
	// LongestRun is the longest run of identical deltas, before splitting.
	LongestRun int64
}

// EncodedSize is the size of the run-length stream, in bytes.
func (p *Profile) EncodedSize() int64 { return p.Runs * RecordSize }

// Ratio is the run-length stream size over the input size. Values below 1 mean
// the preprocessing shrinks the data before entropy coding.
func (p *Profile) Ratio() float64 {
	if p.Bytes == 0 {
		return 0
	}
	return float64(p.EncodedSize()) / float64(p.Bytes)
}

func (p *Profile) String() string {
	return fmt.Sprintf("%d bytes: %d rises, %d falls, %d flats; %d runs (longest %d), ratio %.3f",
		p.Bytes, p.Rises, p.Falls, p.Flats, p.Runs, p.LongestRun, p.Ratio())
}

// Add folds chunk into the profile. Each call is independent, so chunks are
// profiled the same way the codec treats them: with a fresh predecessor.
func (p *Profile) Add(chunk []byte) {
	var (
		prev    byte
		lastD   byte
		run     int64
		started bool
	)
	closeRun := func() {
		if run == 0 {
			return
		}
		if run > p.LongestRun {
			p.LongestRun = run
		}
		p.Runs += (run + MaxRunLength - 1) / MaxRunLength
	}

	for _, b := range chunk {
		d := b - prev
		prev = b

		switch sd := int8(d); {
		case sd > 0:
			p.Rises++
		case sd < 0:
			p.Falls++
		default:
			p.Flats++
		}

		if started && d == lastD {
			run++
			continue
		}
		closeRun()
		lastD, run, started = d, 1, true
	}
	closeRun()
	p.Bytes += int64(len(chunk))
}

// Analyze returns the Profile of data treated as a single chunk.
func Analyze(data []byte) Profile {
	var p Profile
	p.Add(data)
	return p
}
