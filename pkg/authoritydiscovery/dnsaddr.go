// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package authoritydiscovery

import (
	"context"
	"errors"

	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/logging"
	ma "github.com/multiformats/go-multiaddr"
	madns "github.com/multiformats/go-multiaddr-dns"
)

// maxDNSAddrDepth limits how many nested dnsaddr records are followed.
const maxDNSAddrDepth = 4

var errDNSAddrTooDeep = errors.New("too many nested dnsaddr records")

// DNSAddrResolver expands the /dnsaddr addresses returned by another
// Resolver into the addresses published in their DNS TXT records.
// Other addresses are passed through unchanged. A record that fails to
// resolve is skipped without dropping its siblings.
type DNSAddrResolver struct {
	resolver Resolver
	dns      *madns.Resolver
	logger   logging.Logger
}

// NewDNSAddrResolver wraps r. If dns is nil, the default system
// resolver is used.
func NewDNSAddrResolver(r Resolver, dns *madns.Resolver, logger logging.Logger) *DNSAddrResolver {
	if dns == nil {
		dns = madns.DefaultResolver
	}
	return &DNSAddrResolver{
		resolver: r,
		dns:      dns,
		logger:   logger,
	}
}

func (r *DNSAddrResolver) Resolve(ctx context.Context, id authority.ID) ([]ma.Multiaddr, error) {
	addrs, err := r.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		resolved []ma.Multiaddr
		seen     = make(map[string]struct{})
	)
	for _, addr := range addrs {
		as, err := r.expand(ctx, addr, 0)
		if err != nil {
			r.logger.Debugf("authority discovery: authority %s: resolve %s: %v", id, addr, err)
			continue
		}
		for _, a := range as {
			k := string(a.Bytes())
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			resolved = append(resolved, a)
		}
	}
	return resolved, nil
}

func (r *DNSAddrResolver) expand(ctx context.Context, addr ma.Multiaddr, depth int) ([]ma.Multiaddr, error) {
	if comp, _ := ma.SplitFirst(addr); comp == nil || comp.Protocol().Name != "dnsaddr" {
		return []ma.Multiaddr{addr}, nil
	}
	if depth >= maxDNSAddrDepth {
		return nil, errDNSAddrTooDeep
	}

	addrs, err := r.dns.Resolve(ctx, addr)
	if err != nil {
		return nil, err
	}

	var (
		resolved []ma.Multiaddr
		lastErr  error
	)
	for _, a := range addrs {
		as, err := r.expand(ctx, a, depth+1)
		if err != nil {
			r.logger.Debugf("authority discovery: resolve %s of %s: %v", a, addr, err)
			lastErr = err
			continue
		}
		resolved = append(resolved, as...)
	}
	if len(resolved) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return resolved, nil
}
