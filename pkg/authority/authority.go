// Copyright 2022 The Swarm Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package authority defines the identity of a validator authority
// as it is announced through authority discovery.
package authority

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethersphere/authdisc/pkg/crypto"
)

// IDSize is the byte length of an authority ID.
const IDSize = crypto.PublicKeySize

var ErrInvalidID = errors.New("invalid authority id")

// ID identifies an authority by its compressed secp256k1 public key.
// It is a comparable value and can be used as a map key.
type ID [IDSize]byte

// ZeroID is the ID that is not set to any value.
var ZeroID ID

// NewID returns the ID of the authority holding the given public key.
func NewID(p *ecdsa.PublicKey) (id ID, err error) {
	b, err := crypto.EncodeSecp256k1PublicKey(p)
	if err != nil {
		return id, err
	}
	copy(id[:], b)
	return id, nil
}

// NewIDFromBytes validates that b is a compressed secp256k1
// public key and returns it as an ID.
func NewIDFromBytes(b []byte) (id ID, err error) {
	if len(b) != IDSize {
		return id, fmt.Errorf("%w: length %d, want %d", ErrInvalidID, len(b), IDSize)
	}
	if _, err := crypto.DecodeSecp256k1PublicKey(b); err != nil {
		return id, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	copy(id[:], b)
	return id, nil
}

// ParseHexID parses the hex representation of an ID, with or
// without the 0x prefix.
func ParseHexID(s string) (ID, error) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}
	b, err := hexutil.Decode(s)
	if err != nil {
		return ZeroID, fmt.Errorf("%w: %v", ErrInvalidID, err)
	}
	return NewIDFromBytes(b)
}

// MustParseHexID is like ParseHexID but panics on error.
func MustParseHexID(s string) ID {
	id, err := ParseHexID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String returns a 0x prefixed hex representation of the ID.
func (id ID) String() string {
	return hexutil.Encode(id[:])
}

// Bytes returns a copy of the ID bytes.
func (id ID) Bytes() []byte {
	b := make([]byte, IDSize)
	copy(b, id[:])
	return b
}

// IsZero returns true if the ID is not set to any value.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// PublicKey returns the public key of the authority.
func (id ID) PublicKey() (*ecdsa.PublicKey, error) {
	return crypto.DecodeSecp256k1PublicKey(id[:])
}

// MarshalText implements the encoding.TextMarshaler interface.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (id *ID) UnmarshalText(b []byte) error {
	v, err := ParseHexID(string(b))
	if err != nil {
		return err
	}
	*id = v
	return nil
}

// Compare returns an integer comparing two IDs lexicographically.
func (id ID) Compare(o ID) int {
	return bytes.Compare(id[:], o[:])
}

// Sort sorts IDs in increasing order.
func Sort(ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
}
