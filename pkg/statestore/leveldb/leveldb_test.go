// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leveldb_test

import (
	"io"
	"testing"

	"github.com/ethersphere/authdisc/pkg/logging"
	"github.com/ethersphere/authdisc/pkg/statestore/leveldb"
	"github.com/ethersphere/authdisc/pkg/statestore/test"
	"github.com/ethersphere/authdisc/pkg/storage"
)

func TestPersistentStateStore(t *testing.T) {
	logger := logging.New(io.Discard, 0)

	test.Run(t, func(t *testing.T) storage.StateStorer {
		store, err := leveldb.NewStateStore(t.TempDir(), logger)
		if err != nil {
			t.Fatal(err)
		}
		return store
	})

	test.RunPersist(t, func(t *testing.T, dir string) storage.StateStorer {
		store, err := leveldb.NewStateStore(dir, logger)
		if err != nil {
			t.Fatal(err)
		}
		return store
	})
}

func TestInMemoryStateStore(t *testing.T) {
	test.Run(t, func(t *testing.T) storage.StateStorer {
		store, err := leveldb.NewInMemoryStateStore(logging.New(io.Discard, 0))
		if err != nil {
			t.Fatal(err)
		}
		return store
	})
}
