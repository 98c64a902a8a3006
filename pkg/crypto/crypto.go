// Copyright 2020 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package crypto handles the secp256k1 keys of authorities and the
// libp2p peer identities derived from them.
package crypto

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec"
	libp2pcrypto "github.com/libp2p/go-libp2p-core/crypto"
	"github.com/libp2p/go-libp2p-core/peer"
)

// PublicKeySize is the length of a compressed secp256k1 public key.
const PublicKeySize = btcec.PubKeyBytesLenCompressed

var ErrInvalidPublicKey = errors.New("invalid public key")

// GenerateSecp256k1Key generates an ECDSA private key using
// secp256k1 elliptic curve.
func GenerateSecp256k1Key() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(btcec.S256(), rand.Reader)
}

// EncodeSecp256k1PrivateKey encodes raw ECDSA private key.
func EncodeSecp256k1PrivateKey(k *ecdsa.PrivateKey) []byte {
	return (*btcec.PrivateKey)(k).Serialize()
}

// DecodeSecp256k1PrivateKey decodes raw ECDSA private key.
func DecodeSecp256k1PrivateKey(data []byte) (*ecdsa.PrivateKey, error) {
	if l := len(data); l != btcec.PrivKeyBytesLen {
		return nil, fmt.Errorf("secp256k1 data size %d expected %d", l, btcec.PrivKeyBytesLen)
	}
	privk, _ := btcec.PrivKeyFromBytes(btcec.S256(), data)
	return (*ecdsa.PrivateKey)(privk), nil
}

// EncodeSecp256k1PublicKey returns the compressed form of the public key.
func EncodeSecp256k1PublicKey(p *ecdsa.PublicKey) ([]byte, error) {
	if p == nil || p.X == nil || p.Y == nil {
		return nil, ErrInvalidPublicKey
	}
	return (*btcec.PublicKey)(p).SerializeCompressed(), nil
}

// DecodeSecp256k1PublicKey parses a compressed or uncompressed
// secp256k1 public key.
func DecodeSecp256k1PublicKey(data []byte) (*ecdsa.PublicKey, error) {
	p, err := btcec.ParsePubKey(data, btcec.S256())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return p.ToECDSA(), nil
}

// NewPeerID returns the libp2p peer identity of a node using the
// given secp256k1 key as its network identity.
func NewPeerID(p *ecdsa.PublicKey) (peer.ID, error) {
	if p == nil || p.X == nil || p.Y == nil {
		return "", ErrInvalidPublicKey
	}
	return peer.IDFromPublicKey((*libp2pcrypto.Secp256k1PublicKey)(p))
}
