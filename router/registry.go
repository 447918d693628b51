// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package router

import (
	"encoding/binary"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/luxfi/database"
	"github.com/luxfi/matchingengine/state"
	"github.com/luxfi/matchingengine/vaa"
)

const (
	endpointPrefix = "router/endpoint"

	// DefaultCacheSize is the number of endpoints kept in memory
	DefaultCacheSize = 64
)

// Registry maps chains to endpoints. Lookups are served from an LRU cache in
// front of the database; writes go through to both.
type Registry struct {
	db    database.Database
	cache *lru.Cache[uint16, Endpoint]

	mu sync.RWMutex
}

// NewRegistry creates a registry over db with room for cacheSize endpoints
func NewRegistry(db database.Database, cacheSize int) (*Registry, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[uint16, Endpoint](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Registry{
		db:    db,
		cache: cache,
	}, nil
}

// Lookup returns the endpoint registered for chain, live or not
func (r *Registry) Lookup(chain uint16) (Endpoint, error) {
	if ep, ok := r.cache.Get(chain); ok {
		return ep, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var ep Endpoint
	found, err := state.GetRecord(r.db, endpointKey(chain), &ep)
	if err != nil {
		return Endpoint{}, err
	}
	if !found {
		return Endpoint{}, fmt.Errorf("%w: chain %d", ErrNotRegistered, chain)
	}
	r.cache.Add(chain, ep)
	return ep, nil
}

// LookupLive returns the endpoint for chain, failing with ErrInvalidEndpoint
// when it is missing or disabled.
func (r *Registry) LookupLive(chain uint16) (Endpoint, error) {
	ep, err := r.Lookup(chain)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if !ep.Live() {
		return Endpoint{}, fmt.Errorf("%w: %w: chain %d", ErrInvalidEndpoint, ErrEndpointDisabled, chain)
	}
	return ep, nil
}

// LivePath returns both endpoints of a transfer from one chain to another
func (r *Registry) LivePath(from, to uint16) (Endpoint, Endpoint, error) {
	if from == to {
		return Endpoint{}, Endpoint{}, fmt.Errorf("%w: %w: chain %d", ErrInvalidEndpoint, ErrSameEndpoint, from)
	}
	src, err := r.LookupLive(from)
	if err != nil {
		return Endpoint{}, Endpoint{}, err
	}
	dst, err := r.LookupLive(to)
	if err != nil {
		return Endpoint{}, Endpoint{}, err
	}
	return src, dst, nil
}

// Put registers or replaces the endpoint for ep.Chain
func (r *Registry) Put(ep Endpoint) error {
	if ep.Chain == 0 {
		return ErrInvalidChain
	}
	if ep.Protocol.Kind != ProtocolNone && ep.Address.IsZero() {
		return fmt.Errorf("%w: zero address for chain %d", ErrInvalidEndpoint, ep.Chain)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := state.PutRecord(r.db, endpointKey(ep.Chain), &ep); err != nil {
		return err
	}
	r.cache.Add(ep.Chain, ep)
	return nil
}

// Disable retires the endpoint for chain. Its record is kept so messages
// from the old emitter can still be recognized.
func (r *Registry) Disable(chain uint16) error {
	ep, err := r.Lookup(chain)
	if err != nil {
		return err
	}
	ep.Protocol = Protocol{}
	return r.Put(ep)
}

// Helper functions

func endpointKey(chain uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], chain)
	return state.Key(endpointPrefix, b[:])
}

// MatchesEmitter reports whether a message from chain and emitter was sent by
// the registered endpoint.
func (e Endpoint) MatchesEmitter(chain uint16, emitter vaa.UniversalAddress) bool {
	return e.Chain == chain && e.Address == emitter
}
