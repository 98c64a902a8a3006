// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethersphere/authdisc/pkg/authority"
	"github.com/ethersphere/authdisc/pkg/crypto"
	"github.com/spf13/cobra"
)

// keygenResponse is printed by the keygen command, one field per line.
type keygenResponse struct {
	AuthorityID authority.ID
	PeerID      string
	PrivateKey  string
}

func (c *command) initKeygenCmd() {
	c.root.AddCommand(&cobra.Command{
		Use:   "keygen",
		Short: "Generate an authority key",
		Long:  "Generate a secp256k1 key and print its authority id, the peer id derived from it and the private key.",
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if len(args) > 0 {
				return cmd.Help()
			}

			r, err := keygen()
			if err != nil {
				return err
			}

			cmd.Println("authority id:", r.AuthorityID)
			cmd.Println("peer id:", r.PeerID)
			cmd.Println("private key:", r.PrivateKey)
			return nil
		},
	})
}

func keygen() (r keygenResponse, err error) {
	k, err := crypto.GenerateSecp256k1Key()
	if err != nil {
		return r, fmt.Errorf("generate key: %w", err)
	}
	id, err := authority.NewID(&k.PublicKey)
	if err != nil {
		return r, err
	}
	p, err := crypto.NewPeerID(&k.PublicKey)
	if err != nil {
		return r, err
	}

	return keygenResponse{
		AuthorityID: id,
		PeerID:      p.String(),
		PrivateKey:  hexutil.Encode(crypto.EncodeSecp256k1PrivateKey(k)),
	}, nil
}
