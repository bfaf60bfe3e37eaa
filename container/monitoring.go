// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	containerOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qres_container_operations",
		Help: "Count of containers successfully processed, by operation.",
	}, []string{"op"})

	containerFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qres_container_failures",
		Help: "Count of failed container operations, by operation and failure kind.",
	}, []string{"op", "kind"})

	containerBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "qres_container_original_bytes",
		Help: "Count of original stream bytes processed, by operation.",
	}, []string{"op"})
)

// RegisterMonitoring registers all of this package's monitoring metrics.
func RegisterMonitoring(reg prometheus.Registerer) {
	reg.MustRegister(
		containerOperations,
		containerFailures,
		containerBytes,
	)
}

func observe(op string, h *Header, err error) {
	if err != nil {
		containerFailures.WithLabelValues(op, failureKind(err)).Inc()
		return
	}
	containerOperations.WithLabelValues(op).Inc()
	containerBytes.WithLabelValues(op).Add(float64(h.OriginalSize))
}
