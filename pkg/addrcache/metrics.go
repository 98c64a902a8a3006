// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package addrcache

import (
	m "github.com/ethersphere/authdisc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	AuthorityIDs         prometheus.Gauge
	Inserts              prometheus.Counter
	RejectedInserts      prometheus.Counter
	AmbiguousAuthorities prometheus.Counter
	RetainedRemovals     prometheus.Counter
}

func newMetrics() metrics {
	subsystem := "addrcache"

	return metrics{
		AuthorityIDs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "authority_ids",
			Help:      "Number of authority ids in the cache.",
		}),
		Inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "inserts_count",
			Help:      "Number of address inserts.",
		}),
		RejectedInserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "rejected_inserts_count",
			Help:      "Number of inserts ignored because no address had a peer id.",
		}),
		AmbiguousAuthorities: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "ambiguous_authorities_count",
			Help:      "Number of inserts where an authority had multiple peer ids.",
		}),
		RetainedRemovals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "retained_removals_count",
			Help:      "Number of authorities removed because they left the authority set.",
		}),
	}
}

func (c *Cache) Metrics() []prometheus.Collector {
	return m.PrometheusCollectorsFromFields(c.metrics)
}
