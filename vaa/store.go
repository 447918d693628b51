// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vaa

import (
	"encoding/binary"
	"fmt"

	"github.com/luxfi/matchingengine/state"
)

const (
	sequencePrefix = "vaa/sequence"
	messagePrefix  = "vaa/message"
)

// Store is the bridge message store: emitters post bodies and receive the
// next sequence for their (chain, address) pair.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

func emitterKey(chain uint16, emitter UniversalAddress) []byte {
	return NewWriter(34).U16(chain).Fixed(emitter[:]).Bytes()
}

// NextSequence returns the sequence the emitter's next post will receive
func (s *Store) NextSequence(kv state.KV, chain uint16, emitter UniversalAddress) (uint64, error) {
	var next uint64
	if _, err := state.GetRecord(kv, state.Key(sequencePrefix, emitterKey(chain, emitter)), &next); err != nil {
		return 0, err
	}
	return next, nil
}

// Post assigns the next sequence to body, stores it and returns the sequence.
// Any sequence already set on body is overwritten.
func (s *Store) Post(kv state.KV, body *Body) (uint64, error) {
	ek := emitterKey(body.EmitterChain, body.EmitterAddress)
	seq, err := s.NextSequence(kv, body.EmitterChain, body.EmitterAddress)
	if err != nil {
		return 0, err
	}
	body.Sequence = seq
	if err := kv.Put(messageKey(ek, seq), body.Encode()); err != nil {
		return 0, err
	}
	if err := state.PutRecord(kv, state.Key(sequencePrefix, ek), seq+1); err != nil {
		return 0, err
	}
	return seq, nil
}

// Get loads a posted body
func (s *Store) Get(kv state.KV, chain uint16, emitter UniversalAddress, sequence uint64) (*Body, error) {
	key := messageKey(emitterKey(chain, emitter), sequence)
	has, err := kv.Has(key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, fmt.Errorf("%w: chain %d emitter %s sequence %d", ErrMessageNotFound, chain, emitter, sequence)
	}
	raw, err := kv.Get(key)
	if err != nil {
		return nil, err
	}
	return DecodeBody(raw)
}

func messageKey(emitter []byte, sequence uint64) []byte {
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], sequence)
	return state.Key(messagePrefix, emitter, seq[:])
}
