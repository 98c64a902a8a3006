// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package metrics_test

import (
	"strings"
	"testing"

	m "github.com/ethersphere/authdisc/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusCollectorsFromFields(t *testing.T) {
	t.Parallel()

	s := newService()

	for name, v := range map[string]interface{}{
		"value":   *s,
		"pointer": s,
	} {
		collectors := m.PrometheusCollectorsFromFields(v)

		if l := len(collectors); l != 2 {
			t.Fatalf("%s: got %v collectors %+v, want 2", name, l, collectors)
		}

		m1 := collectors[0].(prometheus.Metric).Desc().String()
		if !strings.Contains(m1, "lookup_count") {
			t.Errorf("%s: unexpected metric %s", name, m1)
		}

		m2 := collectors[1].(prometheus.Metric).Desc().String()
		if !strings.Contains(m2, "lookup_duration_seconds") {
			t.Errorf("%s: unexpected metric %s", name, m2)
		}
	}
}

func TestPrometheusCollectorsFromFieldsNonStruct(t *testing.T) {
	t.Parallel()

	if cs := m.PrometheusCollectorsFromFields(42); cs != nil {
		t.Fatalf("got %v collectors, want none", cs)
	}
}

type service struct {
	// valid metrics
	LookupCount    prometheus.Counter
	LookupDuration prometheus.Histogram
	// invalid metrics
	unexportedCount    prometheus.Counter
	UninitializedCount prometheus.Counter
}

func newService() *service {
	subsystem := "discovery"
	return &service{
		LookupCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "lookup_count",
			Help:      "Number of lookups.",
		}),
		LookupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "lookup_duration_seconds",
			Help:      "Histogram of lookup durations.",
			Buckets:   []float64{0.01, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		unexportedCount: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: m.Namespace,
			Subsystem: subsystem,
			Name:      "unexported_count",
			Help:      "This metrics should not be discoverable by metrics.PrometheusCollectorsFromFields.",
		}),
	}
}
