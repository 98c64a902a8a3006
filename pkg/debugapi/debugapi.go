// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package debugapi exposes the debug API used to inspect the address
// cache and to drive the authority discovery worker.
package debugapi

import (
	"context"
	"net/http"
	"time"

	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/logging"
	"github.com/ethersphere/authdisc/pkg/ratelimit"
	"github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"
	"github.com/prometheus/client_golang/prometheus"
)

// Discoverer is the part of the authority discovery worker used by
// the debug API.
type Discoverer interface {
	Addresses(id authority.ID) ([]ma.Multiaddr, bool)
	AuthorityIDs(p peer.ID) ([]authority.ID, bool)
	NumAuthorityIDs() int
	Lookup(ctx context.Context, id authority.ID) ([]ma.Multiaddr, error)
	Refresh(ctx context.Context) error
	LastRefresh() time.Time
}

type Options struct {
	Discoverer         Discoverer
	Logger             logging.Logger
	CORSAllowedOrigins []string
	// RateLimitBurst requests of a client to the endpoints that resolve
	// addresses are allowed at once, refilled one per RateLimitInterval.
	// Zero burst disables the limit.
	RateLimitInterval time.Duration
	RateLimitBurst    int
}

// Service implements http.Handler interface to be used in HTTP server.
type Service struct {
	discoverer         Discoverer
	logger             logging.Logger
	corsAllowedOrigins []string
	metricsRegistry    *prometheus.Registry
	limiter            *ratelimit.Limiter
	handler            http.Handler
}

func New(o Options) *Service {
	s := &Service{
		discoverer:         o.Discoverer,
		logger:             o.Logger,
		corsAllowedOrigins: o.CORSAllowedOrigins,
		metricsRegistry:    newMetricsRegistry(),
	}
	if o.RateLimitBurst > 0 {
		s.limiter = ratelimit.New(o.RateLimitInterval, o.RateLimitBurst)
	}

	s.setRouter(s.newRouter())

	return s
}

// ServeHTTP implements http.Handler interface.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
