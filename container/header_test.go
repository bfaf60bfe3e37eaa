// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/danjacques/goqres/codec"

	"google.golang.org/protobuf/encoding/protowire"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
)

func validHeader() *Header {
	return &Header{
		Version:        FormatVersion,
		Created:        testEpoch,
		OriginalSize:   2500,
		CompressedSize: 600,
		Name:           "sensor.dat",
		ChunkSize:      1000,
		Compression:    codec.CompressionFlate,
		ChunkSizes:     []uint64{300, 200, 100},
		Checksum:       bytes.Repeat([]byte{0xAB}, ChecksumSize),
	}
}

var _ = Describe("Header", func() {
	It("round-trips through its binary form", func() {
		h := validHeader()
		data, err := h.MarshalBinary()
		Expect(err).ToNot(HaveOccurred())

		var decoded Header
		Expect(decoded.UnmarshalBinary(data)).To(Succeed())
		Expect(decoded.Created.Equal(h.Created)).To(BeTrue())
		decoded.Created = h.Created
		Expect(&decoded).To(Equal(h))
	})

	It("stores the creation time at second precision", func() {
		h := validHeader()
		h.Created = testEpoch.Add(750 * time.Millisecond)
		data, err := h.MarshalBinary()
		Expect(err).ToNot(HaveOccurred())

		var decoded Header
		Expect(decoded.UnmarshalBinary(data)).To(Succeed())
		Expect(decoded.Created.Equal(testEpoch)).To(BeTrue())
	})

	It("skips unknown fields", func() {
		data, err := validHeader().MarshalBinary()
		Expect(err).ToNot(HaveOccurred())
		data = protowire.AppendTag(data, 99, protowire.VarintType)
		data = protowire.AppendVarint(data, 12345)
		data = protowire.AppendTag(data, 100, protowire.Fixed32Type)
		data = protowire.AppendFixed32(data, 0xDEADBEEF)
		data = protowire.AppendTag(data, 101, protowire.BytesType)
		data = protowire.AppendString(data, "future")

		var decoded Header
		Expect(decoded.UnmarshalBinary(data)).To(Succeed())
		Expect(decoded.Validate()).To(Succeed())
		Expect(decoded.Name).To(Equal("sensor.dat"))
	})

	It("accepts unpacked chunk sizes", func() {
		var data []byte
		data = appendVarintField(data, fieldVersion, FormatVersion)
		data = appendVarintField(data, fieldOriginalSize, 15)
		data = appendVarintField(data, fieldCompressedSize, 30)
		data = appendVarintField(data, fieldChunkSize, 10)
		data = appendVarintField(data, fieldCompression, uint64(codec.CompressionNone))
		data = appendVarintField(data, fieldChunkSizes, 18)
		data = appendVarintField(data, fieldChunkSizes, 12)

		var decoded Header
		Expect(decoded.UnmarshalBinary(data)).To(Succeed())
		Expect(decoded.ChunkSizes).To(Equal([]uint64{18, 12}))
		Expect(decoded.Validate()).To(Succeed())
	})

	It("rejects malformed wire data", func() {
		data, err := validHeader().MarshalBinary()
		Expect(err).ToNot(HaveOccurred())

		var decoded Header
		Expect(decoded.UnmarshalBinary(data[:len(data)-5])).ToNot(Succeed())
	})

	It("rejects a compression value wider than 32 bits", func() {
		var data []byte
		data = appendVarintField(data, fieldVersion, FormatVersion)
		data = appendVarintField(data, fieldChunkSize, 10)
		data = appendVarintField(data, fieldCompression, 1<<32+uint64(codec.CompressionFlate))

		var decoded Header
		Expect(decoded.UnmarshalBinary(data)).To(MatchError(ContainSubstring("compression")))
	})

	It("reports raw chunk sizes", func() {
		h := validHeader()
		Expect(h.NumChunks()).To(Equal(3))
		Expect(h.RawChunkSize(0)).To(Equal(1000))
		Expect(h.RawChunkSize(1)).To(Equal(1000))
		Expect(h.RawChunkSize(2)).To(Equal(500))
	})

	DescribeTable("validation",
		func(mutate func(h *Header), match string) {
			h := validHeader()
			mutate(h)
			if match == "" {
				Expect(h.Validate()).To(Succeed())
				return
			}
			Expect(h.Validate()).To(MatchError(ContainSubstring(match)))
		},
		Entry("valid", func(h *Header) {}, ""),
		Entry("no checksum", func(h *Header) { h.Checksum = nil }, ""),
		Entry("empty stream", func(h *Header) {
			h.OriginalSize, h.CompressedSize, h.ChunkSizes = 0, 0, nil
		}, ""),
		Entry("missing version", func(h *Header) { h.Version = 0 }, "invalid version"),
		Entry("future version", func(h *Header) { h.Version = FormatVersion + 1 }, "unsupported version"),
		Entry("zero chunk size", func(h *Header) { h.ChunkSize = 0 }, "out of range"),
		Entry("huge chunk size", func(h *Header) { h.ChunkSize = MaxChunkSize + 1 }, "out of range"),
		Entry("short checksum", func(h *Header) { h.Checksum = h.Checksum[:8] }, "checksum"),
		Entry("unknown compression", func(h *Header) { h.Compression = 77 }, "unknown compression"),
		Entry("too few chunks", func(h *Header) {
			h.ChunkSizes, h.CompressedSize = h.ChunkSizes[:2], 500
		}, "needs 3"),
		Entry("too many chunks", func(h *Header) {
			h.ChunkSizes, h.CompressedSize = append(h.ChunkSizes, 1), 601
		}, "needs 3"),
		Entry("wrong compressed size", func(h *Header) { h.CompressedSize++ }, "sum to 600"),
		Entry("empty chunk", func(h *Header) {
			h.ChunkSizes[1], h.CompressedSize = 0, 400
		}, "is empty"),
		Entry("oversized chunk", func(h *Header) {
			h.ChunkSizes[0] = 1 << 40
			h.CompressedSize = 1<<40 + 300
		}, "more than any"),
	)
})

var _ = Describe("ReadHeader", func() {
	It("reads what WriteHeader wrote", func() {
		var buf bytes.Buffer
		n, err := WriteHeader(&buf, validHeader())
		Expect(err).ToNot(HaveOccurred())
		Expect(n).To(BeNumerically("==", buf.Len()))
		Expect(binary.BigEndian.Uint32(buf.Bytes())).To(BeNumerically("==", buf.Len()-4))

		buf.WriteString("chunks")
		h, offset, err := ReadHeader(&buf)
		Expect(err).ToNot(HaveOccurred())
		Expect(offset).To(Equal(n))
		Expect(h.Name).To(Equal("sensor.dat"))
		Expect(buf.String()).To(Equal("chunks"))
	})

	It("rejects an oversized header length", func() {
		_, _, err := ReadHeader(bytes.NewReader([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00}))
		Expect(IsCorrupt(err)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("exceeds maximum")))
	})

	It("rejects a header that does not parse", func() {
		_, _, err := ReadHeader(bytes.NewReader([]byte{0, 0, 0, 3, 0xFF, 0xFF, 0xFF}))
		Expect(IsCorrupt(err)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("parsing header")))
	})

	It("rejects a header that does not validate", func() {
		h := validHeader()
		h.Version = FormatVersion + 1

		var buf bytes.Buffer
		_, err := WriteHeader(&buf, h)
		Expect(err).ToNot(HaveOccurred())

		_, _, err = ReadHeader(&buf)
		Expect(IsCorrupt(err)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("unsupported version")))
	})
})
