// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package guardian

import (
	"context"
	"errors"
	"testing"

	log "github.com/luxfi/log"
	"github.com/luxfi/log/level"
	vaaLib "github.com/wormhole-foundation/wormhole/sdk/vaa"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/vaa"
	"github.com/stretchr/testify/require"
)

func generateKeys(t *testing.T, n int) []*Key {
	t.Helper()
	keys := make([]*Key, n)
	for i := range keys {
		k, err := GenerateKey()
		require.NoError(t, err)
		keys[i] = k
	}
	return keys
}

func setupSet(t *testing.T, n int, now uint64) (*Set, []*Key) {
	t.Helper()
	keys := generateKeys(t, n)
	set := NewSet(func() uint64 { return now })
	require.NoError(t, set.Register(0, Addresses(keys), 0))
	return set, keys
}

func testBody(payload string) *vaa.Body {
	return &vaa.Body{
		Timestamp:        1_700_000_000,
		EmitterChain:     vaa.ChainEthereum,
		EmitterAddress:   vaa.AddressFromHost(common.HexToAddress("0x0e")),
		Sequence:         7,
		ConsistencyLevel: 1,
		Payload:          []byte(payload),
	}
}

func TestGuardianSet_Quorum(t *testing.T) {
	tests := []struct {
		guardians int
		quorum    int
	}{
		{1, 1},
		{3, 3},
		{4, 3},
		{7, 5},
		{19, 13},
	}
	for _, tt := range tests {
		gs := &GuardianSet{Keys: make([]common.Address, tt.guardians)}
		require.Equal(t, tt.quorum, gs.Quorum(), "guardians=%d", tt.guardians)
	}
}

func TestSet_VerifyVAA(t *testing.T) {
	set, keys := setupSet(t, 7, 1000)
	body := testBody("order")

	sigs, err := SignQuorum(keys, body.Digest())
	require.NoError(t, err)
	require.Len(t, sigs, 5)

	ok, err := set.VerifyVAA(context.Background(), body.Signed(0, sigs))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSet_VerifyVAARejections(t *testing.T) {
	set, keys := setupSet(t, 4, 1000)
	body := testBody("order")
	other := testBody("other order")

	sigs, err := SignQuorum(keys, body.Digest())
	require.NoError(t, err)

	wrongKey, err := keys[3].Sign(0, body.Digest())
	require.NoError(t, err)
	outOfRange := &Signature{Index: 4, Signature: sigs[2].Signature}

	tests := []struct {
		name     string
		body     *vaa.Body
		setIndex uint32
		sigs     []*Signature
		err      error
	}{
		{"unknown set", body, 9, sigs, ErrUnknownGuardianSet},
		{"below quorum", body, 0, sigs[:2], ErrNoQuorum},
		{"other body", other, 0, sigs, ErrSignatureMismatch},
		{"duplicate index", body, 0, []*Signature{sigs[0], sigs[0], sigs[1]}, ErrSignatureMismatch},
		{"descending index", body, 0, []*Signature{sigs[1], sigs[0], sigs[2]}, ErrSignatureMismatch},
		{"wrong signer", body, 0, []*Signature{wrongKey, sigs[1], sigs[2]}, ErrSignatureMismatch},
		{"index out of range", body, 0, []*Signature{sigs[0], sigs[1], outOfRange}, ErrSignatureMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := set.VerifyVAA(context.Background(), tt.body.Signed(tt.setIndex, tt.sigs))
			require.ErrorIs(t, err, tt.err)
			require.False(t, ok)
		})
	}
}

func TestSet_RegisterExpiresPrevious(t *testing.T) {
	now := uint64(1000)
	keys := generateKeys(t, 1)
	set := NewSet(func() uint64 { return now })
	require.NoError(t, set.Register(0, Addresses(keys), 0))

	next := generateKeys(t, 1)
	require.NoError(t, set.Register(1, Addresses(next), 2000))
	require.Equal(t, uint32(1), set.Current())
	require.ErrorIs(t, set.Register(1, Addresses(next), 0), ErrGuardianSetExists)
	require.ErrorIs(t, set.Register(2, nil, 0), ErrEmptyGuardianSet)

	body := testBody("expiring")
	sigs, err := SignQuorum(keys, body.Digest())
	require.NoError(t, err)

	ok, err := set.VerifyVAA(context.Background(), body.Signed(0, sigs))
	require.NoError(t, err)
	require.True(t, ok)

	now = 2001
	_, err = set.VerifyVAA(context.Background(), body.Signed(0, sigs))
	require.ErrorIs(t, err, ErrGuardianSetExpired)
}

type stubAuthority struct {
	ok  bool
	err error
}

func (s stubAuthority) VerifyVAA(context.Context, *vaaLib.VAA) (bool, error) {
	return s.ok, s.err
}

func TestGateway_Verify(t *testing.T) {
	logger := log.NewTestLogger(level.Info)
	signed := testBody("gateway").Signed(0, nil)

	require.NoError(t, NewGateway(stubAuthority{ok: true}, logger).Verify(context.Background(), signed))

	err := NewGateway(stubAuthority{}, logger).Verify(context.Background(), signed)
	require.ErrorIs(t, err, ErrUnverified)

	cause := errors.New("authority offline")
	err = NewGateway(stubAuthority{err: cause}, logger).Verify(context.Background(), signed)
	require.ErrorIs(t, err, ErrUnverified)
	require.ErrorIs(t, err, cause)

	err = NewGateway(nil, logger).Verify(context.Background(), signed)
	require.ErrorIs(t, err, ErrUnverified)
	require.ErrorIs(t, err, ErrNoAuthority)
}

func TestGateway_WithSet(t *testing.T) {
	set, keys := setupSet(t, 3, 0)
	gw := NewGateway(set, nil)
	body := testBody("gateway")

	sigs, err := SignQuorum(keys, body.Digest())
	require.NoError(t, err)
	require.NoError(t, gw.Verify(context.Background(), body.Signed(0, sigs)))

	err = gw.Verify(context.Background(), testBody("tampered").Signed(0, sigs))
	require.ErrorIs(t, err, ErrUnverified)
	require.ErrorIs(t, err, ErrSignatureMismatch)
}
