// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package container defines the QRES container format and the operations that
// produce and consume it.
//
// A container has a fairly basic layout:
//
//	[header length N, 4 bytes big-endian] [N bytes header] [chunk 1] ... [chunk k]
//
// The header is a protobuf-wire-format message describing the container: its
// format version, creation time, original and compressed sizes, source file
// name, the raw chunk size used to split the input, the entropy scheme, an
// optional BLAKE2b-256 checksum of the original stream, and the ordered list
// of compressed chunk sizes.
//
// Chunks follow the header back to back, with no delimiters; their boundaries
// come solely from the header's size list. Each chunk is an independent codec
// blob, so once the header is read any chunk can be located and decoded on its
// own (see Index).
//
// The header depends on the compressed size of every chunk, so the encoder
// holds all compressed chunks in memory until the last one is done, then writes
// the header followed by the chunks.
//
// Decoding fails loudly. A header that doesn't parse, chunk sizes that overrun
// the input, chunk data that fails to decode, and trailing bytes are reported
// as *CorruptError. A chunk that decodes cleanly to a length other than the
// header implies, or a checksum mismatch in the reconstructed stream, is
// reported as *IntegrityError. Output produced before such an error must not
// be trusted; the file-level operations never leave it behind.
package container
