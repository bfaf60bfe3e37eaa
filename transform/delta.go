// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package transform

// DeltaEncode appends the delta stream of src to dst and returns the extended
// slice.
//
// Each output byte is src[i] - src[i-1] under 8-bit wraparound, with an
// implicit predecessor of 0 for the first byte. Read as an int8, it is the
// signed difference. The output has exactly len(src) bytes.
func DeltaEncode(dst, src []byte) []byte {
	dst = grow(dst, len(src))
	out := dst[len(dst)-len(src):]

	var prev byte
	for i, b := range src {
		out[i] = b - prev
		prev = b
	}
	return dst
}

// DeltaDecode appends the bytes reconstructed from the delta stream deltas to
// dst and returns the extended slice.
//
// Each byte is the previously reconstructed byte plus the delta, so decoding
// is inherently sequential.
func DeltaDecode(dst, deltas []byte) []byte {
	dst = grow(dst, len(deltas))
	out := dst[len(dst)-len(deltas):]

	var prev byte
	for i, d := range deltas {
		prev += d
		out[i] = prev
	}
	return dst
}

// grow extends dst by n bytes, reallocating only if needed.
func grow(dst []byte, n int) []byte {
	if l := len(dst); cap(dst)-l >= n {
		return dst[:l+n]
	}
	ndst := make([]byte, len(dst)+n)
	copy(ndst, dst)
	return ndst
}
