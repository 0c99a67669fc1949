// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package node

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mHeight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "firedao",
		Subsystem: "node",
		Name:      "height",
		Help:      "Height of the last committed operation",
	})
	mOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "firedao",
		Subsystem: "node",
		Name:      "operations",
		Help:      "Number of operations executed, by operation and status",
	}, []string{"operation", "status"})
	mDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "firedao",
		Subsystem: "node",
		Name:      "operation_duration",
		Help:      "Duration of committed operations in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"operation"})
)
