// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package custody

import (
	"encoding/binary"

	"github.com/luxfi/geth/common"
	"github.com/zeebo/blake3"
)

// Derive maps a program and seed parts to an account. It is pure: anyone
// holding the program address and the seeds computes the same account.
func Derive(program common.Address, seeds ...[]byte) common.Address {
	hasher := blake3.NewDeriveKey(DeriveContext)
	hasher.Write(program[:])
	for _, seed := range seeds {
		var n [4]byte
		binary.BigEndian.PutUint32(n[:], uint32(len(seed)))
		hasher.Write(n[:])
		hasher.Write(seed)
	}
	sum := hasher.Sum(nil)
	return common.BytesToAddress(sum[:common.AddressLength])
}

// AuctionAccount is the record address of the auction keyed by digest
func AuctionAccount(program common.Address, digest common.Hash) common.Address {
	return Derive(program, []byte(SeedAuction), digest[:])
}

// AuctionCustody holds the escrow of the auction keyed by digest
func AuctionCustody(program common.Address, digest common.Hash) common.Address {
	return Derive(program, []byte(SeedAuctionCustody), digest[:])
}

// PreparedResponseAccount is the record address of a prepared order response
func PreparedResponseAccount(program common.Address, digest common.Hash) common.Address {
	return Derive(program, []byte(SeedPreparedResponse), digest[:])
}

// PreparedCustody holds the minted principal of a prepared order response
func PreparedCustody(program common.Address, digest common.Hash) common.Address {
	return Derive(program, []byte(SeedPreparedCustody), digest[:])
}

// FastFillCustody holds the funds of a local fill until it is redeemed
func FastFillCustody(program common.Address, digest common.Hash) common.Address {
	return Derive(program, []byte(SeedFastFill), digest[:])
}

// Addresses lists every derived account of an order
type Addresses struct {
	Auction          common.Address
	AuctionCustody   common.Address
	PreparedResponse common.Address
	PreparedCustody  common.Address
	FastFillCustody  common.Address
}

// DeriveAll computes all accounts keyed by digest
func DeriveAll(program common.Address, digest common.Hash) Addresses {
	return Addresses{
		Auction:          AuctionAccount(program, digest),
		AuctionCustody:   AuctionCustody(program, digest),
		PreparedResponse: PreparedResponseAccount(program, digest),
		PreparedCustody:  PreparedCustody(program, digest),
		FastFillCustody:  FastFillCustody(program, digest),
	}
}
