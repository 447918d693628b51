// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaa

import (
	"fmt"
	"time"

	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
)

// Signed attaches guardian signatures to the body
func (b *Body) Signed(setIndex uint32, signatures []*Signature) *vaaLib.VAA {
	return &vaaLib.VAA{
		Version:          vaaLib.SupportedVAAVersion,
		GuardianSetIndex: setIndex,
		Signatures:       signatures,
		Timestamp:        time.Unix(int64(b.Timestamp), 0),
		Nonce:            b.Nonce,
		Sequence:         b.Sequence,
		ConsistencyLevel: b.ConsistencyLevel,
		EmitterChain:     vaaLib.ChainID(b.EmitterChain),
		EmitterAddress:   vaaLib.Address(b.EmitterAddress),
		Payload:          b.Payload,
	}
}

// Encode serializes the body in signing order:
// timestamp | nonce | emitter chain | emitter address | sequence | consistency | payload
func (b *Body) Encode() []byte {
	raw, err := b.Signed(0, nil).Marshal()
	if err != nil {
		// Marshal writes to an in-memory buffer
		panic(err)
	}
	return raw[signedHeaderLen:]
}

// DecodeBody parses an encoded body. Everything after the fixed header is the
// payload.
func DecodeBody(raw []byte) (*Body, error) {
	if len(raw) < HeaderLen {
		return nil, fmt.Errorf("%w: body of %d bytes", ErrMalformedPayload, len(raw))
	}
	signed := make([]byte, signedHeaderLen, signedHeaderLen+len(raw))
	signed[0] = vaaLib.SupportedVAAVersion
	v, err := vaaLib.Unmarshal(append(signed, raw...))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	return FromVAA(v), nil
}

// FromVAA returns the body of a signed message
func FromVAA(v *vaaLib.VAA) *Body {
	return &Body{
		Timestamp:        uint32(v.Timestamp.Unix()),
		Nonce:            v.Nonce,
		EmitterChain:     uint16(v.EmitterChain),
		EmitterAddress:   UniversalAddress(v.EmitterAddress),
		Sequence:         v.Sequence,
		ConsistencyLevel: v.ConsistencyLevel,
		Payload:          append([]byte(nil), v.Payload...),
	}
}

// MessageHash is keccak256 of the encoded body
func (b *Body) MessageHash() common.Hash {
	return common.BytesToHash(crypto.Keccak256(b.Encode()))
}

// Digest is keccak256(keccak256(body)). It identifies the message and is the
// value guardians sign.
func (b *Body) Digest() common.Hash {
	return common.Hash(b.Signed(0, nil).SigningDigest())
}
