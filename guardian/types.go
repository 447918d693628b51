// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package guardian gates engine transitions on attestations by the bridge's
// guardian network.
package guardian

import (
	"context"
	"errors"

	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/vaa"
)

// MaxGuardians bounds a guardian set; indices are single bytes
const MaxGuardians = 255

// Signature is one guardian's recoverable secp256k1 signature [R || S || V]
type Signature = vaa.Signature

// Authority decides whether a quorum of the guardian set named by the
// message signed its digest. A false result with a nil error is a rejection.
type Authority interface {
	VerifyVAA(ctx context.Context, v *vaaLib.VAA) (bool, error)
}

// GuardianSet is one version of the guardian keys
type GuardianSet struct {
	Index          uint32
	Keys           []common.Address
	ExpirationTime uint64 // unix seconds, 0 while current
}

// Quorum returns the number of signatures required: 2/3 of the guardians plus one
func (gs *GuardianSet) Quorum() int {
	return vaaLib.CalculateQuorum(len(gs.Keys))
}

// Errors
var (
	ErrUnverified         = errors.New("message not verified by guardians")
	ErrUnknownGuardianSet = errors.New("unknown guardian set")
	ErrGuardianSetExpired = errors.New("guardian set expired")
	ErrEmptyGuardianSet   = errors.New("guardian set has no keys")
	ErrTooManyGuardians   = errors.New("too many guardians")
	ErrGuardianSetExists  = errors.New("guardian set already registered")
	ErrNoQuorum           = errors.New("not enough guardian signatures")
	ErrSignatureMismatch  = errors.New("signatures do not match guardian keys")
	ErrNoAuthority        = errors.New("no verification authority configured")
)
