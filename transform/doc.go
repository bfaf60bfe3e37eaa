// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package transform implements the reversible preprocessing stages applied to
// each chunk before entropy compression.
//
// The delta stage replaces every byte with its difference from the preceding
// original byte, modulo 256. Slowly-varying data becomes long runs of small,
// repeated values.
//
// The run-length stage then collapses those runs into fixed-size records:
//
//	[marker 0xE7] [value] [count, uint16 little-endian]
//
// Every run produces at least one record, including runs of length 1, and runs
// longer than MaxRunLength are split across consecutive records. Non-repetitive
// input therefore grows by up to 4x here; the entropy stage that follows
// recovers most of that.
//
// Both stages operate on whole chunks held in memory and process bytes in
// strict left-to-right order.
package transform
