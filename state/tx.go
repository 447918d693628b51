// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package state provides the transactional key-value view every matching
// engine transition runs against. A transition either commits all of its
// writes in a single database batch or none of them.
package state

import (
	"errors"
	"sort"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/luxfi/database"
)

var (
	ErrTxClosed = errors.New("state transaction already closed")
)

// KV is the subset of a key-value store the protocol components need.
type KV interface {
	Has(key []byte) (bool, error)
	Get(key []byte) ([]byte, error)
	Put(key []byte, value []byte) error
	Delete(key []byte) error
}

var (
	_ KV = (*Tx)(nil)
	_ KV = (database.Database)(nil)
)

type pending struct {
	value   []byte
	deleted bool
}

// Tx buffers writes on top of a database. Reads observe the transaction's own
// writes first and fall through to the database otherwise.
type Tx struct {
	db     database.Database
	writes map[string]*pending
	closed bool

	mu sync.Mutex
}

// Begin opens a transaction over db
func Begin(db database.Database) *Tx {
	return &Tx{
		db:     db,
		writes: make(map[string]*pending),
	}
}

func (tx *Tx) Has(key []byte) (bool, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.closed {
		return false, ErrTxClosed
	}
	if p, ok := tx.writes[string(key)]; ok {
		return !p.deleted, nil
	}
	return tx.db.Has(key)
}

func (tx *Tx) Get(key []byte) ([]byte, error) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.closed {
		return nil, ErrTxClosed
	}
	if p, ok := tx.writes[string(key)]; ok {
		if p.deleted {
			return nil, database.ErrNotFound
		}
		return append([]byte(nil), p.value...), nil
	}
	return tx.db.Get(key)
}

func (tx *Tx) Put(key []byte, value []byte) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.closed {
		return ErrTxClosed
	}
	tx.writes[string(key)] = &pending{value: append([]byte(nil), value...)}
	return nil
}

func (tx *Tx) Delete(key []byte) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.closed {
		return ErrTxClosed
	}
	tx.writes[string(key)] = &pending{deleted: true}
	return nil
}

// Commit writes every buffered change in one batch, in key order.
func (tx *Tx) Commit() error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.closed {
		return ErrTxClosed
	}
	tx.closed = true

	keys := make([]string, 0, len(tx.writes))
	for k := range tx.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	batch := tx.db.NewBatch()
	for _, k := range keys {
		p := tx.writes[k]
		var err error
		if p.deleted {
			err = batch.Delete([]byte(k))
		} else {
			err = batch.Put([]byte(k), p.value)
		}
		if err != nil {
			return err
		}
	}
	return batch.Write()
}

// Discard drops every buffered change. Calling it after Commit is a no-op.
func (tx *Tx) Discard() {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	tx.closed = true
	tx.writes = nil
}

// Len returns the number of buffered writes
func (tx *Tx) Len() int {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return len(tx.writes)
}

// GetRecord loads and decodes a CBOR record. found is false when the key is
// absent.
func GetRecord(kv KV, key []byte, v interface{}) (found bool, err error) {
	raw, err := kv.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := cbor.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

// PutRecord encodes v as CBOR and stores it under key
func PutRecord(kv KV, key []byte, v interface{}) error {
	raw, err := cbor.Marshal(v)
	if err != nil {
		return err
	}
	return kv.Put(key, raw)
}

// Key joins a prefix and parts into a store key
func Key(prefix string, parts ...[]byte) []byte {
	n := len(prefix)
	for _, p := range parts {
		n += len(p) + 1
	}
	key := make([]byte, 0, n)
	key = append(key, prefix...)
	for _, p := range parts {
		key = append(key, '/')
		key = append(key, p...)
	}
	return key
}
