// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"bytes"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Index", func() {
	var (
		input     []byte
		container []byte
		h         *Header
	)

	BeforeEach(func() {
		input = randomBytes(21, 5000)
		container, h = encodeBytes(testConfig(), input)
	})

	It("decodes every chunk independently", func() {
		idx, err := ReadIndex(bytes.NewReader(container), int64(len(container)))
		Expect(err).ToNot(HaveOccurred())
		Expect(idx.NumChunks()).To(Equal(5))
		Expect(idx.Header.ChunkSizes).To(Equal(h.ChunkSizes))

		// Out of order on purpose.
		for _, i := range []int{4, 0, 2, 1, 3} {
			chunk, err := idx.Chunk(i)
			Expect(err).ToNot(HaveOccurred())

			start := i * h.ChunkSize
			end := start + h.RawChunkSize(i)
			Expect(bytes.Equal(chunk, input[start:end])).To(BeTrue())
		}
	})

	It("locates chunks back to back after the header", func() {
		idx, err := ReadIndex(bytes.NewReader(container), int64(len(container)))
		Expect(err).ToNot(HaveOccurred())

		for i := 1; i < idx.NumChunks(); i++ {
			Expect(idx.Offset(i) - idx.Offset(i-1)).To(BeNumerically("==", h.ChunkSizes[i-1]))
		}

		raw, err := idx.RawChunk(idx.NumChunks() - 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(raw).To(Equal(container[len(container)-len(raw):]))
	})

	It("rejects out-of-range chunks", func() {
		idx, err := ReadIndex(bytes.NewReader(container), int64(len(container)))
		Expect(err).ToNot(HaveOccurred())

		_, err = idx.Chunk(-1)
		Expect(err).To(MatchError(ContainSubstring("out of range")))
		_, err = idx.Chunk(idx.NumChunks())
		Expect(err).To(MatchError(ContainSubstring("out of range")))
	})

	It("rejects a container whose chunks overrun it", func() {
		truncated := container[:len(container)-1]
		_, err := ReadIndex(bytes.NewReader(truncated), int64(len(truncated)))
		Expect(IsCorrupt(err)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("past the end")))
	})

	It("rejects a container with trailing data", func() {
		padded := append(append([]byte(nil), container...), 1, 2, 3)
		_, err := ReadIndex(bytes.NewReader(padded), int64(len(padded)))
		Expect(IsCorrupt(err)).To(BeTrue())
		Expect(err).To(MatchError(ContainSubstring("3 byte(s) of unexpected data")))
	})

	It("reports a chunk that decodes to the wrong size as an integrity error", func() {
		damaged := rewriteHeader(container, func(h *Header) {
			h.OriginalSize--
		})
		idx, err := ReadIndex(bytes.NewReader(damaged), int64(len(damaged)))
		Expect(err).ToNot(HaveOccurred())

		_, err = idx.Chunk(0)
		Expect(err).ToNot(HaveOccurred())
		_, err = idx.Chunk(4)
		Expect(IsIntegrity(err)).To(BeTrue())
	})

	It("indexes an empty container", func() {
		container, _ = encodeBytes(testConfig(), nil)
		idx, err := ReadIndex(bytes.NewReader(container), int64(len(container)))
		Expect(err).ToNot(HaveOccurred())
		Expect(idx.NumChunks()).To(Equal(0))
	})
})
