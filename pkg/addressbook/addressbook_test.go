// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package addressbook_test

import (
	"errors"
	"io"
	"testing"

	"github.com/ethersphere/authdisc/pkg/addressbook"
	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/crypto"
	"github.com/ethersphere/authdisc/pkg/logging"
	"github.com/ethersphere/authdisc/pkg/statestore/leveldb"
	"github.com/ethersphere/authdisc/pkg/statestore/mock"
	"github.com/google/go-cmp/cmp"

	ma "github.com/multiformats/go-multiaddr"
)

type bookFunc func(t *testing.T) (book addressbook.Store)

func TestMock(t *testing.T) {
	run(t, func(t *testing.T) addressbook.Store {
		return addressbook.New(mock.NewStateStore())
	})
}

func TestLevelDB(t *testing.T) {
	run(t, func(t *testing.T) addressbook.Store {
		store, err := leveldb.NewInMemoryStateStore(logging.New(io.Discard, 0))
		if err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() {
			if err := store.Close(); err != nil {
				t.Fatal(err)
			}
		})
		return addressbook.New(store)
	})
}

func newAuthorityID(t *testing.T) authority.ID {
	t.Helper()

	k, err := crypto.GenerateSecp256k1Key()
	if err != nil {
		t.Fatal(err)
	}
	id, err := authority.NewID(&k.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func addrStrings(addrs []ma.Multiaddr) []string {
	s := make([]string, len(addrs))
	for i, a := range addrs {
		s[i] = a.String()
	}
	return s
}

func run(t *testing.T, f bookFunc) {
	book := f(t)

	id1 := newAuthorityID(t)
	id2 := newAuthorityID(t)
	want := []string{"/ip4/1.1.1.1/tcp/30333", "/dnsaddr/validator.example.com"}

	var addrs []ma.Multiaddr
	for _, s := range want {
		a, err := ma.NewMultiaddr(s)
		if err != nil {
			t.Fatal(err)
		}
		addrs = append(addrs, a)
	}

	if err := book.Put(id1, addrs); err != nil {
		t.Fatal(err)
	}

	got, err := book.Get(id1)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, addrStrings(got)); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	if _, err := book.Get(id2); !errors.Is(err, addressbook.ErrNotFound) {
		t.Fatalf("got error %v, want %v", err, addressbook.ErrNotFound)
	}

	if err := book.Put(id2, addrs[:1]); err != nil {
		t.Fatal(err)
	}

	ids, err := book.AuthorityIDs()
	if err != nil {
		t.Fatal(err)
	}
	authority.Sort(ids)
	wantIDs := []authority.ID{id1, id2}
	authority.Sort(wantIDs)
	if diff := cmp.Diff(wantIDs, ids); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	entries := make(map[authority.ID][]string)
	if err := book.IterateAuthorities(func(id authority.ID, addrs []ma.Multiaddr) (bool, error) {
		entries[id] = addrStrings(addrs)
		return false, nil
	}); err != nil {
		t.Fatal(err)
	}
	wantEntries := map[authority.ID][]string{
		id1: want,
		id2: want[:1],
	}
	if diff := cmp.Diff(wantEntries, entries); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	if err := book.Remove(id1); err != nil {
		t.Fatal(err)
	}
	if _, err := book.Get(id1); !errors.Is(err, addressbook.ErrNotFound) {
		t.Fatalf("got error %v, want %v", err, addressbook.ErrNotFound)
	}
}
