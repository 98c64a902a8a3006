// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/authoritydiscovery"
	ma "github.com/multiformats/go-multiaddr"
	"go.uber.org/atomic"
)

var ErrNotFound = fmt.Errorf("mock: %w", authoritydiscovery.ErrNoRecord)

// Resolver is a Resolver that answers from a fixed record set or from
// a custom function.
type Resolver struct {
	mu        sync.Mutex
	records   map[authority.ID][]ma.Multiaddr
	resolveF  func(context.Context, authority.ID) ([]ma.Multiaddr, error)
	callCount atomic.Int64
}

type Option interface {
	apply(*Resolver)
}

type optionFunc func(*Resolver)

func (f optionFunc) apply(r *Resolver) { f(r) }

// WithResolveFunc sets the function called on every Resolve.
func WithResolveFunc(f func(context.Context, authority.ID) ([]ma.Multiaddr, error)) Option {
	return optionFunc(func(r *Resolver) {
		r.resolveF = f
	})
}

// WithRecords sets the addresses returned for each authority.
func WithRecords(records map[authority.ID][]ma.Multiaddr) Option {
	return optionFunc(func(r *Resolver) {
		for id, addrs := range records {
			r.records[id] = addrs
		}
	})
}

func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		records: make(map[authority.ID][]ma.Multiaddr),
	}
	for _, o := range opts {
		o.apply(r)
	}
	return r
}

func (r *Resolver) Resolve(ctx context.Context, id authority.ID) ([]ma.Multiaddr, error) {
	r.callCount.Inc()
	if r.resolveF != nil {
		return r.resolveF(ctx, id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	addrs, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return addrs, nil
}

// Set replaces the addresses returned for the authority.
func (r *Resolver) Set(id authority.ID, addrs ...ma.Multiaddr) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.records[id] = addrs
}

// CallCount returns the number of Resolve calls.
func (r *Resolver) CallCount() int {
	return int(r.callCount.Load())
}

// AuthoritySource returns a settable authority set.
type AuthoritySource struct {
	mu  sync.Mutex
	ids []authority.ID
	err error
}

func NewAuthoritySource(ids ...authority.ID) *AuthoritySource {
	return &AuthoritySource{ids: ids}
}

func (s *AuthoritySource) Authorities(_ context.Context) ([]authority.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}
	return append([]authority.ID(nil), s.ids...), nil
}

// Set replaces the authority set.
func (s *AuthoritySource) Set(ids ...authority.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ids = ids
	s.err = nil
}

// SetError makes Authorities fail with err.
func (s *AuthoritySource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}
