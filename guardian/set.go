// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package guardian

import (
	"context"
	"fmt"
	"sync"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

var _ Authority = (*Set)(nil)

// Set is an Authority backed by registered guardian key sets. Each signature
// is recovered against the message digest and compared to the key at its
// guardian index.
type Set struct {
	sets    map[uint32]*GuardianSet
	current uint32
	now     func() uint64

	mu sync.RWMutex
}

// NewSet creates an empty authority. now supplies the unix time used for
// expiry checks; nil uses the wall clock.
func NewSet(now func() uint64) *Set {
	if now == nil {
		now = func() uint64 { return uint64(time.Now().Unix()) }
	}
	return &Set{
		sets: make(map[uint32]*GuardianSet),
		now:  now,
	}
}

// Register adds a guardian set and makes it current. The previously current
// set stays valid until expiration (unix seconds, 0 for no expiry).
func (s *Set) Register(index uint32, keys []common.Address, previousExpiration uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(keys) == 0 {
		return ErrEmptyGuardianSet
	}
	if len(keys) > MaxGuardians {
		return fmt.Errorf("%w: %d", ErrTooManyGuardians, len(keys))
	}
	if _, exists := s.sets[index]; exists {
		return fmt.Errorf("%w: %d", ErrGuardianSetExists, index)
	}

	if prev, ok := s.sets[s.current]; ok {
		prev.ExpirationTime = previousExpiration
	}
	s.sets[index] = &GuardianSet{
		Index: index,
		Keys:  append([]common.Address(nil), keys...),
	}
	s.current = index
	return nil
}

// Current returns the index of the newest guardian set
func (s *Set) Current() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Get returns a copy of a registered guardian set
func (s *Set) Get(index uint32) (*GuardianSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gs, ok := s.sets[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownGuardianSet, index)
	}
	return &GuardianSet{
		Index:          gs.Index,
		Keys:           append([]common.Address(nil), gs.Keys...),
		ExpirationTime: gs.ExpirationTime,
	}, nil
}

// VerifyVAA checks that a quorum of the message's guardian set signed its
// digest. Signatures must be in strictly increasing guardian index order.
func (s *Set) VerifyVAA(_ context.Context, v *vaaLib.VAA) (bool, error) {
	gs, err := s.Get(v.GuardianSetIndex)
	if err != nil {
		return false, err
	}
	if gs.ExpirationTime != 0 && s.now() > gs.ExpirationTime {
		return false, fmt.Errorf("%w: %d", ErrGuardianSetExpired, v.GuardianSetIndex)
	}
	if len(v.Signatures) < gs.Quorum() {
		return false, fmt.Errorf("%w: have %d, need %d", ErrNoQuorum, len(v.Signatures), gs.Quorum())
	}
	if !v.VerifySignatures(bridgeKeys(gs.Keys)) {
		return false, fmt.Errorf("%w: guardian set %d", ErrSignatureMismatch, v.GuardianSetIndex)
	}
	return true, nil
}

// Helper functions

func bridgeKeys(keys []common.Address) []ethcommon.Address {
	out := make([]ethcommon.Address, len(keys))
	for i, k := range keys {
		out[i] = ethcommon.Address(k)
	}
	return out
}

// PubkeyAddress returns the host account of a 65-byte uncompressed public key
func PubkeyAddress(pub []byte) common.Address {
	return common.BytesToAddress(crypto.Keccak256(pub[1:])[12:])
}
