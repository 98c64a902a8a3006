// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package static provides an authority set and address records read
// from a YAML file, for networks without a distributed hash table.
//
// The file lists authorities in order:
//
//	authorities:
//	  - id: 0x02a1...
//	    addresses:
//	      - /ip4/10.0.0.1/tcp/30333/p2p/16Uiu2...
//	      - /dnsaddr/validator.example.com
package static

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/authoritydiscovery"
	ma "github.com/multiformats/go-multiaddr"
	"gopkg.in/yaml.v2"
)

// ErrNotFound is returned by Resolve for authorities without a record.
var ErrNotFound = fmt.Errorf("static: %w", authoritydiscovery.ErrNoRecord)

type fileRecords struct {
	Authorities []struct {
		ID        string   `yaml:"id"`
		Addresses []string `yaml:"addresses"`
	} `yaml:"authorities"`
}

// Records is an immutable set of authority records.
type Records struct {
	ids   []authority.ID
	addrs map[authority.ID][]ma.Multiaddr
}

// Parse decodes records in the YAML format. An authority listed more
// than once gets the union of its addresses.
func Parse(data []byte) (*Records, error) {
	var f fileRecords
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	r := &Records{
		addrs: make(map[authority.ID][]ma.Multiaddr),
	}
	for i, a := range f.Authorities {
		id, err := authority.ParseHexID(a.ID)
		if err != nil {
			return nil, fmt.Errorf("authority %d: %w", i, err)
		}
		if _, ok := r.addrs[id]; !ok {
			r.ids = append(r.ids, id)
			r.addrs[id] = nil
		}
		for _, s := range a.Addresses {
			addr, err := ma.NewMultiaddr(s)
			if err != nil {
				return nil, fmt.Errorf("authority %s: address %q: %w", id, s, err)
			}
			r.addrs[id] = append(r.addrs[id], addr)
		}
	}
	return r, nil
}

// Authorities returns the authorities in file order.
func (r *Records) Authorities(_ context.Context) ([]authority.ID, error) {
	return append([]authority.ID(nil), r.ids...), nil
}

func (r *Records) Resolve(_ context.Context, id authority.ID) ([]ma.Multiaddr, error) {
	addrs, ok := r.addrs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]ma.Multiaddr(nil), addrs...), nil
}

// File serves records from a file that is read again on every
// Authorities call, so edits take effect on the next refresh round.
// If the file cannot be read or parsed the last good records are kept
// and the error is returned.
type File struct {
	path string

	mu      sync.RWMutex
	records *Records
}

// NewFile reads the records file at path.
func NewFile(path string) (*File, error) {
	f := &File{path: path}
	if _, err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) Authorities(ctx context.Context) ([]authority.ID, error) {
	r, err := f.load()
	if err != nil {
		return nil, err
	}
	return r.Authorities(ctx)
}

func (f *File) Resolve(ctx context.Context, id authority.ID) ([]ma.Multiaddr, error) {
	f.mu.RLock()
	r := f.records
	f.mu.RUnlock()

	return r.Resolve(ctx, id)
}

func (f *File) load() (*Records, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("read records file: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("records file %s: %w", f.path, err)
	}

	f.mu.Lock()
	f.records = r
	f.mu.Unlock()

	return r, nil
}
