// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package authoritydiscovery

import (
	m "github.com/ethersphere/authdisc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	RefreshCount         prometheus.Counter
	LookupCount          prometheus.Counter
	LookupFailures       prometheus.Counter
	LookupSkipped        prometheus.Counter
	LastRefreshTimestamp prometheus.Gauge
}

func newMetrics() metrics {
	subsystem := "authority_discovery"

	return metrics{
		RefreshCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "refresh_count",
			Help:      "Number of refresh rounds.",
		}),
		LookupCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "lookup_count",
			Help:      "Number of authority address lookups.",
		}),
		LookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "lookup_failures_count",
			Help:      "Number of failed authority address lookups.",
		}),
		LookupSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "lookup_skipped_count",
			Help:      "Number of lookups skipped because of a recent failure.",
		}),
		LastRefreshTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "last_refresh_timestamp",
			Help:      "Unix time of the last completed refresh round.",
		}),
	}
}

// Metrics returns the collectors of the worker and of its address cache.
func (w *Worker) Metrics() []prometheus.Collector {
	return append(m.PrometheusCollectorsFromFields(w.metrics), w.cache.Metrics()...)
}
