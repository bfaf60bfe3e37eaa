// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package qres

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/danjacques/goqres/codec"
	"github.com/danjacques/goqres/container"
	"github.com/danjacques/goqres/support/dataio"
	"github.com/danjacques/goqres/support/fmtutil"
	"github.com/danjacques/goqres/transform"

	"github.com/pkg/errors"
)

func runEncode(e *env, args []string) error {
	h, err := e.cfg.EncodeFile(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s => %s: %s into %s (%s, %d chunk(s), %s)\n",
		args[0], args[1], fmtutil.Size(h.OriginalSize), fmtutil.Size(h.CompressedSize),
		fmtutil.Ratio(h.CompressedSize, h.OriginalSize), h.NumChunks(), h.Compression)
	return nil
}

func runDecode(e *env, args []string) error {
	h, err := e.cfg.DecodeFile(args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(e.out, "%s => %s: %s from %d chunk(s)\n",
		args[0], args[1], fmtutil.Size(h.OriginalSize), h.NumChunks())
	return nil
}

func runInfo(e *env, args []string) error {
	idx, closeFn, err := container.OpenIndex(args[0])
	if err != nil {
		return err
	}
	defer closeFn()
	h := idx.Header

	if data, err := h.MarshalBinary(); err == nil {
		e.logger.Debugf("Header (%d byte(s)):\n%s", len(data), fmtutil.Hex(data))
	}

	tw := tabwriter.NewWriter(e.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", h.Name)
	fmt.Fprintf(tw, "Version:\t%d\n", h.Version)
	if !h.Created.IsZero() {
		fmt.Fprintf(tw, "Created:\t%s\n", h.Created.Local().Format(time.RFC3339))
	}
	fmt.Fprintf(tw, "Original size:\t%d (%s)\n", h.OriginalSize, fmtutil.Size(h.OriginalSize))
	fmt.Fprintf(tw, "Compressed size:\t%d (%s, %s)\n", h.CompressedSize, fmtutil.Size(h.CompressedSize),
		fmtutil.Ratio(h.CompressedSize, h.OriginalSize))
	fmt.Fprintf(tw, "Compression:\t%s\n", h.Compression)
	fmt.Fprintf(tw, "Chunk size:\t%d (%s)\n", h.ChunkSize, fmtutil.Size(h.ChunkSize))
	fmt.Fprintf(tw, "Chunks:\t%d\n", h.NumChunks())
	if len(h.Checksum) > 0 {
		fmt.Fprintf(tw, "Checksum:\tblake2b-256:%s\n", hex.EncodeToString(h.Checksum))
	} else {
		fmt.Fprintf(tw, "Checksum:\tnone\n")
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if !e.opts.verbose {
		return nil
	}
	tw = tabwriter.NewWriter(e.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Chunk\tOffset\tSize\tRaw\t")
	for i := 0; i < idx.NumChunks(); i++ {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t\n", i, idx.Offset(i), h.ChunkSizes[i], h.RawChunkSize(i))
	}
	return tw.Flush()
}

// analysis accumulates what analyze measures.
type analysis struct {
	profile transform.Profile
	schemes []codec.Compression
	encoded map[codec.Compression]uint64
}

func (a *analysis) add(chunk []byte, level int) error {
	a.profile.Add(chunk)
	for _, scheme := range a.schemes {
		c := codec.Codec{Compression: scheme, Level: level, MaxChunkSize: len(chunk)}
		blob, err := c.Encode(chunk)
		if err != nil {
			return errors.Wrapf(err, "encoding with %s", scheme)
		}
		a.encoded[scheme] += uint64(len(blob))
	}
	return nil
}

func runAnalyze(e *env, args []string) error {
	fd, err := os.Open(args[0])
	if err != nil {
		return errors.Wrap(err, "opening input")
	}
	defer fd.Close()

	a := analysis{
		schemes: []codec.Compression{
			codec.CompressionNone,
			codec.CompressionFlate,
			codec.CompressionGzip,
			codec.CompressionSnappy,
			codec.CompressionZstd,
			codec.CompressionLZ4,
		},
		encoded: make(map[codec.Compression]uint64),
	}

	chunkSize := e.opts.chunkSize
	if chunkSize <= 0 {
		chunkSize = container.DefaultChunkSize
	}
	r := bufio.NewReader(fd)
	buf := make([]byte, chunkSize)
	for {
		amt, err := dataio.ReadFull(r, buf)
		if err != nil {
			return errors.Wrap(err, "reading input")
		}
		if amt > 0 {
			if err := a.add(buf[:amt], e.opts.level); err != nil {
				return err
			}
		}
		if amt < len(buf) {
			break
		}
	}

	return a.write(e.out, args[0])
}

func (a *analysis) write(w io.Writer, name string) error {
	p := &a.profile
	total := uint64(p.Bytes)

	fmt.Fprintf(w, "%s: %s\n", name, fmtutil.Size(total))
	fmt.Fprintf(w, "Delta profile: %s\n", p)
	fmt.Fprintf(w, "Run-length stream: %s (%s)\n\n",
		fmtutil.Size(p.EncodedSize()), fmtutil.Ratio(uint64(p.EncodedSize()), total))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "Scheme\tEncoded\tRatio")
	for _, scheme := range a.schemes {
		size := a.encoded[scheme]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", scheme, fmtutil.Size(size), fmtutil.Ratio(size, total))
	}
	return tw.Flush()
}
