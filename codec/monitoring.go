// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package codec

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	chunkEncodeCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qres_codec_chunks_encoded",
		Help: "Count of chunks encoded.",
	})

	chunkDecodeCount = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qres_codec_chunks_decoded",
		Help: "Count of chunks decoded.",
	})

	chunkRawBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qres_codec_raw_bytes",
		Help: "Count of raw bytes consumed by chunk encoding.",
	})

	chunkEncodedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "qres_codec_encoded_bytes",
		Help: "Count of compressed bytes produced by chunk encoding.",
	})

	chunkErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qres_codec_errors",
		Help: "Count of chunk coding errors, by stage.",
	}, []string{"stage"})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		chunkEncodeCount,
		chunkDecodeCount,
		chunkRawBytes,
		chunkEncodedBytes,
		chunkErrors,
	)
}
