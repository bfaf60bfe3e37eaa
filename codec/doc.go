// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package codec composes the preprocessing transforms with an entropy coder
// into a single per-chunk pipeline.
//
// Encoding a chunk runs:
//
//	raw -> delta -> run-length -> entropy compression -> blob
//
// and decoding runs the inverses in the opposite order. Each chunk is coded
// in isolation, with no state shared between chunks, so chunks can be coded
// concurrently and decoded independently.
//
// The entropy stage is selected with a Compression value. Raw DEFLATE is the
// default; GZIP, SNAPPY, ZSTD, and LZ4 are also available, and NONE disables
// the stage.
package codec
