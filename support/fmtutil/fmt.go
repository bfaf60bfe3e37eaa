// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package fmtutil contains formatting helpers.
package fmtutil

import (
	"encoding/hex"
	"fmt"
)

// Hex is a byte slice that renders as a hex-dumped string.
//
// It can be used for easy lazy hex dumping.
type Hex []byte

func (h Hex) String() string { return hex.Dump([]byte(h)) }

// Size is a byte count that renders in IEC units, such as "4.0 MiB".
//
// Counts below 1 KiB render exactly.
type Size uint64

var sizeUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB", "EiB"}

func (s Size) String() string {
	if s < 1024 {
		return fmt.Sprintf("%d B", uint64(s))
	}

	v := float64(s) / 1024
	unit := 0
	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}
	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}

// Ratio renders part as a percentage of whole, such as "37.5%". It renders as
// "-" if whole is zero.
func Ratio(part, whole uint64) string {
	if whole == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(part)/float64(whole))
}
