// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package custody holds token balances for participants and for the
// engine's derived custody accounts, and the capabilities needed to move
// them.
package custody

import (
	"errors"

	"github.com/luxfi/geth/common"
)

// Derivation seeds
const (
	SeedAuction          = "auction"
	SeedAuctionCustody   = "auction-custody"
	SeedPreparedResponse = "order-response"
	SeedPreparedCustody  = "prepared-custody"
	SeedFastFill         = "fast-fill"
)

// DeriveContext domain-separates custody derivation from other blake3 uses
const DeriveContext = "luxfi matchingengine 2025-01-01 custody account derivation"

// Authority is proof that the holder may debit Account. Participants get one
// from Signer after the host verified their signature; derived accounts get
// one only from the Program that derived them.
type Authority struct {
	account common.Address
	owner   common.Address
}

// Account returns the account the authority may debit
func (a Authority) Account() common.Address {
	return a.account
}

// Errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrOverflow          = errors.New("arithmetic overflow")
	ErrUnauthorized      = errors.New("authority does not control account")
	ErrAccountNotEmpty   = errors.New("account not empty")
	ErrAccountExists     = errors.New("custody account already open")
	ErrZeroAccount       = errors.New("zero account")
)
