// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package settlement reconciles finished auctions with the finalized deposit
// that backs them.
package settlement

import (
	"errors"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/auction"
	"github.com/luxfi/matchingengine/guardian"
	"github.com/luxfi/matchingengine/messages"
	"github.com/luxfi/matchingengine/router"
	"github.com/luxfi/matchingengine/vaa"
)

// PreparedOrderResponse records a finalized deposit whose principal has been
// minted into prepared custody. It lives until the order is settled.
type PreparedOrderResponse struct {
	Digest           common.Hash
	PreparedBy       common.Address
	BaseFeeToken     common.Address
	SourceChain      uint16
	BaseFee          uint64
	FastVaaTimestamp uint32
	FastVaaSequence  uint64
	AmountIn         uint64
	Sender           vaa.UniversalAddress
	Redeemer         vaa.UniversalAddress
	InitAuctionFee   uint64
	ToEndpoint       router.Endpoint
	RedeemerMessage  []byte
}

// PrepareArgs are the inputs of PrepareOrderResponse. Order must already be
// authenticated by the caller.
type PrepareArgs struct {
	Order            *messages.OrderDescriptor
	ConsistencyLevel uint8
	BaseFee          uint64
	GuardianSetIndex uint32
	Signatures       []*guardian.Signature
	CctpMessage      []byte
	CctpAttestation  []byte
	PreparedBy       common.Address
	BaseFeeToken     common.Address
}

// Disbursement is where settlement sent the funds
type Disbursement struct {
	BestOffer       common.Address
	BestOfferAmount uint64
	Executor        common.Address
	ExecutorAmount  uint64
	BaseFeeToken    common.Address
	BaseFee         uint64
	UserAmount      uint64
}

// Errors
var (
	ErrAlreadyExists       = auction.ErrAlreadyExists
	ErrAlreadySettled      = auction.ErrAlreadySettled
	ErrNotCompleted        = auction.ErrNotCompleted
	ErrOverflow            = auction.ErrOverflow
	ErrKeyMismatch         = errors.New("prepared order response does not match auction")
	ErrPreparedNotFound    = errors.New("prepared order response not found")
	ErrInvalidBaseFeeToken = errors.New("invalid base fee token")
	ErrInvalidTargetRouter = errors.New("target endpoint does not serve order target chain")
	ErrInvalidCctpMessage  = errors.New("invalid cctp message")
	ErrMintMismatch        = errors.New("minted amount does not match order")
)
