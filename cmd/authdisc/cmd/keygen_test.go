// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethersphere/authdisc/cmd/authdisc/cmd"
	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/crypto"
)

func TestKeygenCmd(t *testing.T) {
	var outputBuf bytes.Buffer
	if err := newCommand(t,
		cmd.WithArgs("keygen"),
		cmd.WithOutput(&outputBuf),
	).Execute(); err != nil {
		t.Fatal(err)
	}

	fields := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(outputBuf.String()), "\n") {
		i := strings.LastIndex(line, ": ")
		if i < 0 {
			t.Fatalf("malformed line %q", line)
		}
		fields[line[:i]] = line[i+2:]
	}

	b, err := hexutil.Decode(fields["private key"])
	if err != nil {
		t.Fatal(err)
	}
	k, err := crypto.DecodeSecp256k1PrivateKey(b)
	if err != nil {
		t.Fatal(err)
	}

	id, err := authority.NewID(&k.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if got := fields["authority id"]; got != id.String() {
		t.Errorf("got authority id %q, want %q", got, id)
	}

	p, err := crypto.NewPeerID(&k.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if got := fields["peer id"]; got != p.String() {
		t.Errorf("got peer id %q, want %q", got, p)
	}
}
