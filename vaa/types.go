// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaa

import (
	"encoding/hex"
	"errors"

	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/luxfi/geth/common"
)

// Chain identifiers as assigned by the message bridge
const (
	ChainSolana    = uint16(vaaLib.ChainIDSolana)
	ChainEthereum  = uint16(vaaLib.ChainIDEthereum)
	ChainPolygon   = uint16(vaaLib.ChainIDPolygon)
	ChainAvalanche = uint16(vaaLib.ChainIDAvalanche)
	ChainArbitrum  = uint16(vaaLib.ChainIDArbitrum)
	ChainOptimism  = uint16(vaaLib.ChainIDOptimism)
	ChainBase      = uint16(vaaLib.ChainIDBase)
	ChainLux       uint16 = 96
)

const (
	// HeaderLen is the size of the fixed part of a message body
	HeaderLen = 4 + 4 + 2 + 32 + 8 + 1

	// signedHeaderLen is version | guardian set index | signature count for
	// a message with no signatures
	signedHeaderLen = 1 + 4 + 1
)

// Errors
var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMessageNotFound  = errors.New("bridge message not found")
)

// Signature is one guardian's signature over a message digest
type Signature = vaaLib.Signature

// UniversalAddress is a 32-byte, chain-agnostic account address. Addresses
// shorter than 32 bytes are left-padded with zeros.
type UniversalAddress vaaLib.Address

// AddressFromHost left-pads a 20-byte host account to a universal address
func AddressFromHost(addr common.Address) UniversalAddress {
	var u UniversalAddress
	copy(u[12:], addr[:])
	return u
}

// Host returns the trailing 20 bytes as a host account
func (u UniversalAddress) Host() common.Address {
	return common.BytesToAddress(u[12:])
}

func (u UniversalAddress) Hex() string {
	return "0x" + hex.EncodeToString(u[:])
}

func (u UniversalAddress) String() string {
	return u.Hex()
}

func (u UniversalAddress) IsZero() bool {
	return u == UniversalAddress{}
}

// Body is the signed portion of a bridge message. The guardian network signs
// the digest of its encoding.
type Body struct {
	Timestamp        uint32
	Nonce            uint32
	EmitterChain     uint16
	EmitterAddress   UniversalAddress
	Sequence         uint64
	ConsistencyLevel uint8
	Payload          []byte
}
