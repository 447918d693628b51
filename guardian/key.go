// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package guardian

import (
	"crypto/ecdsa"
	"crypto/rand"

	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/luxfi/crypto/secp256k1"
	"github.com/luxfi/geth/common"
)

// Key is a guardian signing key, used by devnets and tests that run their own
// guardian set.
type Key struct {
	priv *ecdsa.PrivateKey
}

// GenerateKey creates a random guardian key
func GenerateKey() (*Key, error) {
	priv, err := ecdsa.GenerateKey(secp256k1.S256(), rand.Reader)
	if err != nil {
		return nil, err
	}
	return &Key{priv: priv}, nil
}

// Address returns the host account the key signs as
func (k *Key) Address() common.Address {
	pub := make([]byte, 65)
	pub[0] = 0x04
	k.priv.PublicKey.X.FillBytes(pub[1:33])
	k.priv.PublicKey.Y.FillBytes(pub[33:])
	return PubkeyAddress(pub)
}

// Sign signs digest as the guardian at index
func (k *Key) Sign(index uint8, digest common.Hash) (*Signature, error) {
	seckey := k.priv.D.FillBytes(make([]byte, 32))
	raw, err := secp256k1.Sign(digest[:], seckey)
	if err != nil {
		return nil, err
	}
	sig := &Signature{Index: index}
	copy(sig.Signature[:], raw)
	return sig, nil
}

// SignQuorum signs digest with the first quorum keys, using their position as
// guardian index.
func SignQuorum(keys []*Key, digest common.Hash) ([]*Signature, error) {
	n := vaaLib.CalculateQuorum(len(keys))
	if n > len(keys) {
		n = len(keys)
	}
	sigs := make([]*Signature, 0, n)
	for i := 0; i < n; i++ {
		sig, err := keys[i].Sign(uint8(i), digest)
		if err != nil {
			return nil, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// Addresses returns the accounts of keys in order
func Addresses(keys []*Key) []common.Address {
	addrs := make([]common.Address, len(keys))
	for i, k := range keys {
		addrs[i] = k.Address()
	}
	return addrs
}
