// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package addressbook persists the addresses of authorities in a state
// store so that they are known before the first discovery round after
// a restart.
package addressbook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/storage"
	ma "github.com/multiformats/go-multiaddr"
)

const keyPrefix = "addressbook_entry_"

var _ Store = (*store)(nil)

var ErrNotFound = errors.New("addressbook: not found")

// Store is state storage wrapper which maps authority.ID to its addresses.
type Store interface {
	GetPutter
	// Remove removes the authority.
	Remove(id authority.ID) error
	// AuthorityIDs returns a list of all authorities saved in addressbook.
	AuthorityIDs() ([]authority.ID, error)
	// IterateAuthorities exposes the entries in a form of an iterator.
	IterateAuthorities(func(authority.ID, []ma.Multiaddr) (stop bool, err error)) error
}

type GetPutter interface {
	Getter
	Putter
}

type Getter interface {
	// Get returns the saved addresses of the authority.
	Get(id authority.ID) (addrs []ma.Multiaddr, err error)
}

type Putter interface {
	// Put replaces the saved addresses of the authority.
	Put(id authority.ID, addrs []ma.Multiaddr) (err error)
}

type store struct {
	store storage.StateStorer
}

// New creates new addressbook for state storer.
func New(storer storage.StateStorer) Store {
	return &store{
		store: storer,
	}
}

type entry struct {
	Addresses []string `json:"addresses"`
}

func (s *store) Get(id authority.ID) ([]ma.Multiaddr, error) {
	var e entry
	if err := s.store.Get(keyFromID(id), &e); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e.multiaddrs()
}

func (s *store) Put(id authority.ID, addrs []ma.Multiaddr) (err error) {
	e := entry{
		Addresses: make([]string, 0, len(addrs)),
	}
	for _, a := range addrs {
		e.Addresses = append(e.Addresses, a.String())
	}
	return s.store.Put(keyFromID(id), e)
}

func (s *store) Remove(id authority.ID) error {
	return s.store.Delete(keyFromID(id))
}

func (s *store) IterateAuthorities(cb func(authority.ID, []ma.Multiaddr) (bool, error)) error {
	return s.store.Iterate(keyPrefix, func(key, value []byte) (stop bool, err error) {
		id, err := idFromKey(string(key))
		if err != nil {
			return true, err
		}
		var e entry
		if err := json.Unmarshal(value, &e); err != nil {
			return true, fmt.Errorf("authority %s: %w", id, err)
		}
		addrs, err := e.multiaddrs()
		if err != nil {
			return true, fmt.Errorf("authority %s: %w", id, err)
		}
		return cb(id, addrs)
	})
}

func (s *store) AuthorityIDs() (ids []authority.ID, err error) {
	err = s.store.Iterate(keyPrefix, func(key, _ []byte) (stop bool, err error) {
		id, err := idFromKey(string(key))
		if err != nil {
			return true, err
		}
		ids = append(ids, id)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (e entry) multiaddrs() ([]ma.Multiaddr, error) {
	addrs := make([]ma.Multiaddr, 0, len(e.Addresses))
	for _, s := range e.Addresses {
		a, err := ma.NewMultiaddr(s)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

func keyFromID(id authority.ID) string {
	return keyPrefix + id.String()
}

func idFromKey(key string) (authority.ID, error) {
	id, err := authority.ParseHexID(strings.TrimPrefix(key, keyPrefix))
	if err != nil {
		return authority.ZeroID, fmt.Errorf("invalid authority key: %s, err: %w", key, err)
	}
	return id, nil
}
