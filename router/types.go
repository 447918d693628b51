// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package router keeps the registry of trusted remote endpoints: for every
// chain, the emitter the engine accepts messages from and the protocol used
// to deliver funds there.
package router

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/vaa"
)

// ProtocolKind tags the delivery protocol of an endpoint
type ProtocolKind uint8

const (
	ProtocolNone ProtocolKind = iota
	ProtocolCctp
	ProtocolLocal
)

func (k ProtocolKind) String() string {
	switch k {
	case ProtocolNone:
		return "none"
	case ProtocolCctp:
		return "cctp"
	case ProtocolLocal:
		return "local"
	default:
		return fmt.Sprintf("protocol(%d)", uint8(k))
	}
}

// Protocol is how funds reach an endpoint. Only the field matching Kind is
// meaningful.
type Protocol struct {
	Kind         ProtocolKind
	CctpDomain   uint32
	LocalProgram common.Address
}

// Cctp returns a CCTP protocol delivering to domain
func Cctp(domain uint32) Protocol {
	return Protocol{Kind: ProtocolCctp, CctpDomain: domain}
}

// Local returns a protocol delivering on this chain through program
func Local(program common.Address) Protocol {
	return Protocol{Kind: ProtocolLocal, LocalProgram: program}
}

// Endpoint is a registered remote counterpart
type Endpoint struct {
	Chain         uint16
	Address       vaa.UniversalAddress
	MintRecipient vaa.UniversalAddress
	Protocol      Protocol
}

// Live reports whether the endpoint may be used. Disabled endpoints keep
// their record with ProtocolNone.
func (e Endpoint) Live() bool {
	return e.Protocol.Kind != ProtocolNone
}

// Errors
var (
	ErrNotRegistered    = errors.New("endpoint not registered")
	ErrInvalidEndpoint  = errors.New("invalid endpoint")
	ErrEndpointDisabled = errors.New("endpoint disabled")
	ErrSameEndpoint     = errors.New("source and target endpoints are the same chain")
	ErrInvalidChain     = errors.New("invalid chain")
)
