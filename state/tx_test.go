// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"testing"

	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/stretchr/testify/require"
)

type record struct {
	Name   string
	Amount uint64
	Hash   [32]byte
}

func TestTx_ReadsOwnWrites(t *testing.T) {
	db := memdb.New()
	defer db.Close()

	tx := Begin(db)
	require.NoError(t, tx.Put([]byte("a"), []byte("1")))

	got, err := tx.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	// Not visible outside until commit
	_, err = db.Get([]byte("a"))
	require.ErrorIs(t, err, database.ErrNotFound)

	require.NoError(t, tx.Commit())
	got, err = db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)
}

func TestTx_DiscardLeavesDatabaseUntouched(t *testing.T) {
	db := memdb.New()
	defer db.Close()
	require.NoError(t, db.Put([]byte("keep"), []byte("v")))

	tx := Begin(db)
	require.NoError(t, tx.Put([]byte("new"), []byte("x")))
	require.NoError(t, tx.Delete([]byte("keep")))

	has, err := tx.Has([]byte("keep"))
	require.NoError(t, err)
	require.False(t, has)

	tx.Discard()

	has, err = db.Has([]byte("keep"))
	require.NoError(t, err)
	require.True(t, has)
	has, err = db.Has([]byte("new"))
	require.NoError(t, err)
	require.False(t, has)

	require.ErrorIs(t, tx.Put([]byte("late"), nil), ErrTxClosed)
	require.ErrorIs(t, tx.Commit(), ErrTxClosed)
}

func TestTx_CommitAppliesDeletes(t *testing.T) {
	db := memdb.New()
	defer db.Close()
	require.NoError(t, db.Put([]byte("gone"), []byte("v")))

	tx := Begin(db)
	require.NoError(t, tx.Delete([]byte("gone")))
	_, err := tx.Get([]byte("gone"))
	require.ErrorIs(t, err, database.ErrNotFound)
	require.Equal(t, 1, tx.Len())
	require.NoError(t, tx.Commit())

	has, err := db.Has([]byte("gone"))
	require.NoError(t, err)
	require.False(t, has)
}

func TestRecord_PutGet(t *testing.T) {
	db := memdb.New()
	defer db.Close()

	in := record{Name: "auction", Amount: 42, Hash: [32]byte{1, 2, 3}}
	key := Key("auction", in.Hash[:])
	require.NoError(t, PutRecord(db, key, &in))

	var out record
	found, err := GetRecord(db, key, &out)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, in, out)

	found, err = GetRecord(db, Key("auction", []byte{9}), &out)
	require.NoError(t, err)
	require.False(t, found)
}

func TestKey(t *testing.T) {
	require.Equal(t, []byte("prefix/a/b"), Key("prefix", []byte("a"), []byte("b")))
	require.Equal(t, []byte("prefix"), Key("prefix"))
}
