// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package addrcache keeps the addresses at which authorities are
// reachable together with the reverse relation from the peer
// identities found in those addresses back to the authorities.
//
// The two relations form a bidirectional index. Every operation
// moves the Cache from one consistent state to another: the peer
// IDs derivable from the addresses of an authority are exactly
// the peer IDs that map back to that authority, and no peer ID
// maps to an empty set of authorities.
//
// A Cache is not safe for concurrent use. Callers that share it
// between goroutines must hold a single lock for the whole of each
// operation.
package addrcache

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/logging"
	"github.com/libp2p/go-libp2p-core/peer"
	ma "github.com/multiformats/go-multiaddr"
)

// Cache maps authority IDs to their addresses and peer IDs to the
// authority IDs reachable through them.
//
// Since addresses are kept across sessions, a single peer ID may
// correspond to multiple authority IDs. A single authority ID with
// multiple peer IDs is accepted but reported.
type Cache struct {
	addresses   map[authority.ID]addressSet
	authorities map[peer.ID]authoritySet
	logger      logging.Logger
	metrics     metrics
}

// New returns an empty Cache.
func New(logger logging.Logger) *Cache {
	return &Cache{
		addresses:   make(map[authority.ID]addressSet),
		authorities: make(map[peer.ID]authoritySet),
		logger:      logger,
		metrics:     newMetrics(),
	}
}

// Insert replaces the addresses of the authority. If none of the
// addresses carries a peer ID the call has no effect and the
// addresses already known for the authority are kept.
func (c *Cache) Insert(id authority.ID, addrs []ma.Multiaddr) {
	c.metrics.Inserts.Inc()

	set := newAddressSet(addrs)
	peerIDs := set.peerIDs()

	switch {
	case len(peerIDs) == 0:
		c.metrics.RejectedInserts.Inc()
		c.logger.Debugf("addrcache: authority %s provides no addresses or addresses without peer ids: %s", id, set)
		return
	case len(peerIDs) > 1:
		c.metrics.AmbiguousAuthorities.Inc()
		c.logger.Warningf("addrcache: authority %s can be reached through multiple peer ids: %s", id, peerIDs)
	}

	old := c.addresses[id]
	c.addresses[id] = set
	oldPeerIDs := old.peerIDs()

	for p := range peerIDs.difference(oldPeerIDs) {
		s, ok := c.authorities[p]
		if !ok {
			s = make(authoritySet)
			c.authorities[p] = s
		}
		s[id] = struct{}{}
	}

	c.removeFromPeerIDs(id, oldPeerIDs.difference(peerIDs))
	c.metrics.AuthorityIDs.Set(float64(len(c.addresses)))
}

// Addresses returns the addresses of the authority sorted by their
// binary representation. The returned slice is owned by the caller.
func (c *Cache) Addresses(id authority.ID) ([]ma.Multiaddr, bool) {
	set, ok := c.addresses[id]
	if !ok {
		return nil, false
	}
	return set.list(), true
}

// AuthorityIDs returns the sorted authority IDs reachable through
// the peer. As authority IDs change between sessions, one peer ID
// can be mapped to multiple authority IDs.
func (c *Cache) AuthorityIDs(p peer.ID) ([]authority.ID, bool) {
	set, ok := c.authorities[p]
	if !ok {
		return nil, false
	}
	ids := make([]authority.ID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	authority.Sort(ids)
	return ids, true
}

// RetainIDs removes every authority that is not in keep, together
// with all of its peer ID mappings.
func (c *Cache) RetainIDs(keep []authority.ID) {
	retained := make(map[authority.ID]struct{}, len(keep))
	for _, id := range keep {
		retained[id] = struct{}{}
	}

	var removed int
	for id, set := range c.addresses {
		if _, ok := retained[id]; ok {
			continue
		}
		delete(c.addresses, id)
		c.removeFromPeerIDs(id, set.peerIDs())
		removed++
	}

	if removed > 0 {
		c.logger.Debugf("addrcache: removed %d authorities not in the current set", removed)
	}
	c.metrics.RetainedRemovals.Add(float64(removed))
	c.metrics.AuthorityIDs.Set(float64(len(c.addresses)))
}

// IDs returns the sorted IDs of all cached authorities.
func (c *Cache) IDs() []authority.ID {
	ids := make([]authority.ID, 0, len(c.addresses))
	for id := range c.addresses {
		ids = append(ids, id)
	}
	authority.Sort(ids)
	return ids
}

// NumAuthorityIDs returns the number of authorities in the cache.
func (c *Cache) NumAuthorityIDs() int {
	return len(c.addresses)
}

// removeFromPeerIDs is the only place where the reverse mapping
// shrinks. Peer IDs left without authorities are deleted.
func (c *Cache) removeFromPeerIDs(id authority.ID, peerIDs peerSet) {
	for p := range peerIDs {
		s, ok := c.authorities[p]
		if !ok {
			continue
		}
		delete(s, id)
		if len(s) == 0 {
			delete(c.authorities, p)
		}
	}
}

// PeerIDFromAddress returns the peer ID encoded in the last
// component of the address. Only a trailing /p2p component is
// considered and the second return value is false when it is
// missing or does not hold a valid peer ID.
func PeerIDFromAddress(addr ma.Multiaddr) (peer.ID, bool) {
	if addr == nil {
		return "", false
	}
	_, last := ma.SplitLast(addr)
	if last == nil || last.Protocol().Code != ma.P_P2P {
		return "", false
	}
	id, err := peer.IDFromBytes(last.RawValue())
	if err != nil {
		return "", false
	}
	return id, true
}

// addressSet holds addresses keyed by their binary representation.
type addressSet map[string]ma.Multiaddr

func newAddressSet(addrs []ma.Multiaddr) addressSet {
	s := make(addressSet, len(addrs))
	for _, a := range addrs {
		if a == nil {
			continue
		}
		s[string(a.Bytes())] = a
	}
	return s
}

func (s addressSet) peerIDs() peerSet {
	ps := make(peerSet)
	for _, a := range s {
		if p, ok := PeerIDFromAddress(a); ok {
			ps[p] = struct{}{}
		}
	}
	return ps
}

func (s addressSet) list() []ma.Multiaddr {
	l := make([]ma.Multiaddr, 0, len(s))
	for _, a := range s {
		l = append(l, a)
	}
	sort.Slice(l, func(i, j int) bool {
		return bytes.Compare(l[i].Bytes(), l[j].Bytes()) < 0
	})
	return l
}

func (s addressSet) String() string {
	l := s.list()
	ss := make([]string, len(l))
	for i, a := range l {
		ss[i] = a.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(ss, " "))
}

type peerSet map[peer.ID]struct{}

// difference returns the peer IDs of s that are not in o.
func (s peerSet) difference(o peerSet) peerSet {
	d := make(peerSet)
	for p := range s {
		if _, ok := o[p]; !ok {
			d[p] = struct{}{}
		}
	}
	return d
}

func (s peerSet) String() string {
	ss := make([]string, 0, len(s))
	for p := range s {
		ss = append(ss, p.String())
	}
	sort.Strings(ss)
	return fmt.Sprintf("[%s]", strings.Join(ss, " "))
}

type authoritySet map[authority.ID]struct{}
