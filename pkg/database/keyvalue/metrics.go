// Copyright 2026 The FireDAO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package keyvalue

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	mOpen = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "firedao",
		Subsystem: "storage",
		Name:      "open",
		Help:      "Number of open databases, by storage type",
	}, []string{"storage"})
	mChangeSets = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "firedao",
		Subsystem: "storage",
		Name:      "change_sets",
		Help:      "Number of change sets that have not been discarded, by storage type",
	}, []string{"storage"})
	mCommit = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "firedao",
		Subsystem: "storage",
		Name:      "commit_duration",
		Help:      "Duration of change set commits in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"storage", "status"})
	mCompaction = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "firedao",
		Subsystem: "storage",
		Name:      "compaction_duration",
		Help:      "Duration of background compaction or value log GC in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
	}, []string{"storage"})
)

// Metrics reports a driver's activity under its storage type, the same name
// the node configuration uses to select it.
type Metrics struct {
	storage    string
	open       prometheus.Gauge
	changeSets prometheus.Gauge
	compaction prometheus.Observer
}

func NewMetrics(storage string) *Metrics {
	return &Metrics{
		storage:    storage,
		open:       mOpen.WithLabelValues(storage),
		changeSets: mChangeSets.WithLabelValues(storage),
		compaction: mCompaction.WithLabelValues(storage),
	}
}

func (m *Metrics) Opened() { m.open.Inc() }
func (m *Metrics) Closed() { m.open.Dec() }

// Began records a new change set. The returned function must be called when
// the change set is discarded.
func (m *Metrics) Began() (discarded func()) {
	m.changeSets.Inc()
	return m.changeSets.Dec
}

// Committed observes a commit that started at start and returns err
// unchanged.
func (m *Metrics) Committed(start time.Time, err error) error {
	status := "ok"
	if err != nil {
		status = "failed"
	}
	mCommit.WithLabelValues(m.storage, status).Observe(time.Since(start).Seconds())
	return err
}

func (m *Metrics) Compacted(start time.Time) {
	m.compaction.Observe(time.Since(start).Seconds())
}
