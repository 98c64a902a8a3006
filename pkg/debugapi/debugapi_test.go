// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package debugapi_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/authoritydiscovery"
	"github.com/ethersphere/authdisc/pkg/authoritydiscovery/mock"
	"github.com/ethersphere/authdisc/pkg/crypto"
	"github.com/ethersphere/authdisc/pkg/debugapi"
	"github.com/ethersphere/authdisc/pkg/logging"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/multiformats/go-multiaddr"
	"resenje.org/web"
)

type testServerOptions struct {
	Resolver           authoritydiscovery.Resolver
	Source             authoritydiscovery.AuthoritySource
	CORSAllowedOrigins []string
	RateLimitBurst     int
}

type testServer struct {
	Client *http.Client
	Worker *authoritydiscovery.Worker
}

func newTestServer(t *testing.T, o testServerOptions) *testServer {
	t.Helper()

	if o.Resolver == nil {
		o.Resolver = mock.NewResolver()
	}
	if o.Source == nil {
		o.Source = mock.NewAuthoritySource()
	}
	logger := logging.New(io.Discard, 0)

	worker, err := authoritydiscovery.New(o.Resolver, o.Source, logger, authoritydiscovery.Options{})
	if err != nil {
		t.Fatal(err)
	}

	s := debugapi.New(debugapi.Options{
		Discoverer:         worker,
		Logger:             logger,
		CORSAllowedOrigins: o.CORSAllowedOrigins,
		RateLimitInterval:  time.Hour,
		RateLimitBurst:     o.RateLimitBurst,
	})
	s.MustRegisterMetrics(worker.Metrics()...)

	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)

	client := &http.Client{
		Transport: web.RoundTripperFunc(func(r *http.Request) (*http.Response, error) {
			u, err := url.Parse(ts.URL + r.URL.String())
			if err != nil {
				return nil, err
			}
			r.URL = u
			return ts.Client().Transport.RoundTrip(r)
		}),
	}
	return &testServer{
		Client: client,
		Worker: worker,
	}
}

func newAuthority(t *testing.T) (authority.ID, peer.ID) {
	t.Helper()

	k, err := crypto.GenerateSecp256k1Key()
	if err != nil {
		t.Fatal(err)
	}
	id, err := authority.NewID(&k.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	p, err := crypto.NewPeerID(&k.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	return id, p
}

func mustMultiaddr(t *testing.T, s string) multiaddr.Multiaddr {
	t.Helper()

	a, err := multiaddr.NewMultiaddr(s)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func peerAddr(t *testing.T, port int, p peer.ID) multiaddr.Multiaddr {
	t.Helper()

	return mustMultiaddr(t, fmt.Sprintf("/ip4/127.0.0.1/tcp/%d/p2p/%s", port, p))
}
