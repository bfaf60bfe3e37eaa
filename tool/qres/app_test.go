// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package qres

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("qres", func() {
	var (
		tdir           string
		input          []byte
		stdout, stderr bytes.Buffer
	)

	run := func(args ...string) int {
		stdout.Reset()
		stderr.Reset()
		return Run(args, &stdout, &stderr)
	}
	path := func(name string) string { return filepath.Join(tdir, name) }

	BeforeEach(func() {
		var err error
		tdir, err = os.MkdirTemp("", "qres-tool-test")
		Expect(err).ToNot(HaveOccurred())

		input = bytes.Repeat([]byte("temperature=21.5;humidity=40;"), 500)
		Expect(os.WriteFile(path("input.txt"), input, 0644)).To(Succeed())
	})

	AfterEach(func() {
		if tdir != "" {
			Expect(os.RemoveAll(tdir)).To(Succeed())
		}
	})

	It("encodes and decodes a file", func() {
		Expect(run("--chunk-size=4096", "--compression=zstd", "encode", path("input.txt"), path("input.qres"))).To(Equal(exitSuccess))
		Expect(stdout.String()).To(ContainSubstring("4 chunk(s), ZSTD"))

		Expect(run("decode", path("input.qres"), path("output.txt"))).To(Equal(exitSuccess))
		out, err := os.ReadFile(path("output.txt"))
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal(input))
	})

	It("describes a container", func() {
		Expect(run("--chunk-size=1000", "--no-checksum", "encode", path("input.txt"), path("input.qres"))).To(Equal(exitSuccess))

		Expect(run("info", path("input.qres"))).To(Equal(exitSuccess))
		Expect(stdout.String()).To(ContainSubstring("input.txt"))
		Expect(stdout.String()).To(MatchRegexp(`Chunks:\s+15`))
		Expect(stdout.String()).To(MatchRegexp(`Checksum:\s+none`))

		Expect(run("--verbose", "info", path("input.qres"))).To(Equal(exitSuccess))
		Expect(stdout.String()).To(MatchRegexp(`Chunk\s+Offset\s+Size\s+Raw`))
		Expect(stderr.String()).To(ContainSubstring("Header ("))
	})

	It("analyzes a file", func() {
		Expect(run("analyze", path("input.txt"))).To(Equal(exitSuccess))
		for _, scheme := range []string{"NONE", "FLATE", "GZIP", "SNAPPY", "ZSTD", "LZ4"} {
			Expect(stdout.String()).To(ContainSubstring(scheme))
		}
		Expect(stdout.String()).To(ContainSubstring("Delta profile: 14500 bytes"))
	})

	It("logs metrics when verbose", func() {
		Expect(run("-v", "encode", path("input.txt"), path("input.qres"))).To(Equal(exitSuccess))
		Expect(stderr.String()).To(ContainSubstring("qres_codec_chunks_encoded"))
		Expect(stderr.String()).To(ContainSubstring("qres_container_operations{op=encode}"))
	})

	It("fails on a damaged container and leaves no output", func() {
		Expect(run("encode", path("input.txt"), path("input.qres"))).To(Equal(exitSuccess))
		data, err := os.ReadFile(path("input.qres"))
		Expect(err).ToNot(HaveOccurred())
		Expect(os.WriteFile(path("input.qres"), data[:len(data)-1], 0644)).To(Succeed())

		Expect(run("decode", path("input.qres"), path("output.txt"))).To(Equal(exitFailure))
		Expect(stderr.String()).To(ContainSubstring("corrupt container"))
		_, err = os.Stat(path("output.txt"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})

	It("rejects bad usage", func() {
		Expect(run()).To(Equal(exitUsage))
		Expect(run("explode", "x")).To(Equal(exitUsage))
		Expect(stderr.String()).To(ContainSubstring(`Unknown command "explode"`))
		Expect(run("encode", "only-one")).To(Equal(exitUsage))
		Expect(run("--compression=bogus", "info", "x")).To(Equal(exitUsage))
	})

	It("rejects an invalid level", func() {
		Expect(run("--level=12", "encode", path("input.txt"), path("input.qres"))).To(Equal(exitFailure))
		_, err := os.Stat(path("input.qres"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})

func TestQRES(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "qres")
}
