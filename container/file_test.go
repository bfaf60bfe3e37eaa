// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("File operations", func() {
	var (
		tdir  string
		input []byte
		cfg   *Config
	)

	BeforeEach(func() {
		var err error
		tdir, err = os.MkdirTemp("", "qres-container-test")
		Expect(err).ToNot(HaveOccurred())

		input = randomBytes(42, 20000)
		Expect(os.WriteFile(filepath.Join(tdir, "input.dat"), input, 0644)).To(Succeed())
		cfg = testConfig()
	})

	AfterEach(func() {
		if tdir != "" {
			Expect(os.RemoveAll(tdir)).To(Succeed())
		}
	})

	dirNames := func() []string {
		entries, err := os.ReadDir(tdir)
		Expect(err).ToNot(HaveOccurred())
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		return names
	}

	It("round-trips a file", func() {
		encoded := filepath.Join(tdir, "input.qres")
		h, err := cfg.EncodeFile(filepath.Join(tdir, "input.dat"), encoded)
		Expect(err).ToNot(HaveOccurred())
		Expect(h.Name).To(Equal("input.dat"))

		decoded := filepath.Join(tdir, "output.dat")
		dh, err := cfg.DecodeFile(encoded, decoded)
		Expect(err).ToNot(HaveOccurred())
		Expect(dh.OriginalSize).To(BeNumerically("==", len(input)))

		out, err := os.ReadFile(decoded)
		Expect(err).ToNot(HaveOccurred())
		Expect(out).To(Equal(input))
		Expect(dirNames()).To(ConsistOf("input.dat", "input.qres", "output.dat"))
	})

	It("opens an encoded file for random access", func() {
		encoded := filepath.Join(tdir, "input.qres")
		_, err := cfg.EncodeFile(filepath.Join(tdir, "input.dat"), encoded)
		Expect(err).ToNot(HaveOccurred())

		idx, closeFn, err := OpenIndex(encoded)
		Expect(err).ToNot(HaveOccurred())
		defer closeFn()

		chunk, err := idx.Chunk(3)
		Expect(err).ToNot(HaveOccurred())
		Expect(chunk).To(Equal(input[3*1024 : 4*1024]))
	})

	It("leaves no output when decoding a damaged container", func() {
		encoded := filepath.Join(tdir, "input.qres")
		_, err := cfg.EncodeFile(filepath.Join(tdir, "input.dat"), encoded)
		Expect(err).ToNot(HaveOccurred())

		data, err := os.ReadFile(encoded)
		Expect(err).ToNot(HaveOccurred())
		Expect(os.WriteFile(encoded, data[:len(data)-1], 0644)).To(Succeed())

		_, err = cfg.DecodeFile(encoded, filepath.Join(tdir, "output.dat"))
		Expect(IsCorrupt(err)).To(BeTrue())
		Expect(dirNames()).To(ConsistOf("input.dat", "input.qres"))
	})

	It("leaves an existing output untouched on failure", func() {
		output := filepath.Join(tdir, "output.dat")
		Expect(os.WriteFile(output, []byte("previous"), 0644)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(tdir, "bogus.qres"), []byte("not a container"), 0644)).To(Succeed())

		_, err := cfg.DecodeFile(filepath.Join(tdir, "bogus.qres"), output)
		Expect(IsCorrupt(err)).To(BeTrue())

		out, err := os.ReadFile(output)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(out)).To(Equal("previous"))
	})

	It("reports a missing input as an I/O failure", func() {
		_, err := cfg.EncodeFile(filepath.Join(tdir, "missing.dat"), filepath.Join(tdir, "out.qres"))
		Expect(err).To(HaveOccurred())
		Expect(IsCorrupt(err)).To(BeFalse())
		Expect(os.IsNotExist(errors.Cause(err))).To(BeTrue())
		Expect(dirNames()).To(ConsistOf("input.dat"))
	})
})
