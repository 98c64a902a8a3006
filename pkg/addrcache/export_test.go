// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package addrcache

import (
	"fmt"

	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/libp2p/go-libp2p-core/peer"
)

// CheckConsistency verifies that the reverse mapping matches the peer
// IDs derived from the stored addresses exactly.
func (c *Cache) CheckConsistency() error {
	want := make(map[peer.ID]map[authority.ID]struct{})
	for id, set := range c.addresses {
		for p := range set.peerIDs() {
			if want[p] == nil {
				want[p] = make(map[authority.ID]struct{})
			}
			want[p][id] = struct{}{}
		}
	}

	if len(want) != len(c.authorities) {
		return fmt.Errorf("got %d peer ids in the reverse mapping, want %d", len(c.authorities), len(want))
	}
	for p, ids := range c.authorities {
		if len(ids) == 0 {
			return fmt.Errorf("peer id %s maps to no authorities", p)
		}
		w, ok := want[p]
		if !ok {
			return fmt.Errorf("peer id %s is not derivable from any address", p)
		}
		if len(w) != len(ids) {
			return fmt.Errorf("peer id %s: got %d authorities, want %d", p, len(ids), len(w))
		}
		for id := range ids {
			if _, ok := w[id]; !ok {
				return fmt.Errorf("peer id %s: authority %s has no address with this peer id", p, id)
			}
		}
	}
	return nil
}

func (c *Cache) NumPeerIDs() int {
	return len(c.authorities)
}
