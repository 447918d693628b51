// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package guardian

import (
	"context"
	"fmt"

	log "github.com/luxfi/log"
	"github.com/luxfi/log/level"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/luxfi/geth/common"
)

// Gateway delegates message verification to an Authority and turns every
// rejection into ErrUnverified. It holds no state of its own.
type Gateway struct {
	authority Authority
	log       log.Logger
}

// NewGateway creates a gateway over authority
func NewGateway(authority Authority, logger log.Logger) *Gateway {
	if logger == nil {
		logger = log.NewTestLogger(level.Info)
	}
	return &Gateway{
		authority: authority,
		log:       logger,
	}
}

// Verify returns nil only when the authority accepts the signed message.
// Callers must treat any error as fatal for the transition that asked.
func (g *Gateway) Verify(ctx context.Context, v *vaaLib.VAA) error {
	if g.authority == nil {
		return fmt.Errorf("%w: %w", ErrUnverified, ErrNoAuthority)
	}
	digest := common.Hash(v.SigningDigest())
	ok, err := g.authority.VerifyVAA(ctx, v)
	if err != nil {
		g.log.Warn("guardian verification failed",
			log.String("digest", digest.Hex()),
			log.Int("guardianSet", int(v.GuardianSetIndex)),
			log.String("reason", err.Error()),
		)
		return fmt.Errorf("%w: digest %s: %w", ErrUnverified, digest.Hex(), err)
	}
	if !ok {
		g.log.Warn("guardian verification rejected",
			log.String("digest", digest.Hex()),
			log.Int("guardianSet", int(v.GuardianSetIndex)),
		)
		return fmt.Errorf("%w: digest %s rejected by guardian set %d", ErrUnverified, digest.Hex(), v.GuardianSetIndex)
	}
	return nil
}
