// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package engine is the matching engine: it authenticates fast market
// orders, auctions them to solvers, delivers executed orders to their target
// chain and settles the auctions once the finalized transfer arrives.
package engine

import (
	"errors"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/auction"
	"github.com/luxfi/matchingengine/custody"
	"github.com/luxfi/matchingengine/guardian"
	"github.com/luxfi/matchingengine/messages"
	"github.com/luxfi/matchingengine/router"
	"github.com/luxfi/matchingengine/settlement"
	"github.com/luxfi/matchingengine/vaa"
)

// Operation names used in logs and metrics
const (
	OpPlaceInitialOffer    = "place_initial_offer"
	OpImproveOffer         = "improve_offer"
	OpExecuteOrder         = "execute_order"
	OpPrepareOrderResponse = "prepare_order_response"
	OpSettleComplete       = "settle_complete"
	OpSettleNone           = "settle_none"
	OpRedeemFastFill       = "redeem_fast_fill"
	OpCloseAuction         = "close_auction"
	OpProposeAuctionConfig = "propose_auction_config"
)

const (
	// OutboundConsistencyLevel is set on every message the engine posts
	OutboundConsistencyLevel uint8 = 200

	fastFillPrefix          = "engine/fast-fill"
	fastFillSequencerPrefix = "engine/fast-fill-sequence"
)

// Clock reports the host ledger's current slot and unix time
type Clock interface {
	Slot() uint64
	Timestamp() uint64
}

// SignedMessage is a bridge message body with the guardian signatures over
// its digest
type SignedMessage struct {
	Body             *vaa.Body
	GuardianSetIndex uint32
	Signatures       []*guardian.Signature
}

// FastFill is an order delivered on the local chain. Its funds sit in the
// fast fill custody account until the redeemer claims them.
type FastFill struct {
	Digest     common.Hash
	Sequence   uint64
	PreparedBy common.Address
	Redeemed   bool
	Message    messages.FastFill
}

// Outbound describes how funds left the engine for the target chain
type Outbound struct {
	Protocol router.Protocol
	Amount   uint64

	// CCTP deliveries
	CctpNonce       uint64
	MessageSequence uint64

	// Local deliveries
	FastFill *FastFill
}

// ExecuteResult is the outcome of ExecuteOrder
type ExecuteResult struct {
	*auction.Execution
	Outbound Outbound
}

// SettleResult is the outcome of a settlement. Outbound is set only when
// settlement delivered the order itself.
type SettleResult struct {
	Disbursement *settlement.Disbursement
	Outbound     *Outbound
}

// PrepareArgs are the inputs of PrepareOrderResponse besides the fast
// message
type PrepareArgs struct {
	ConsistencyLevel uint8
	BaseFee          uint64
	GuardianSetIndex uint32
	Signatures       []*guardian.Signature
	CctpMessage      []byte
	CctpAttestation  []byte
	PreparedBy       common.Address
	BaseFeeToken     common.Address
}

// Errors
var (
	ErrInvalidConfig    = errors.New("invalid engine config")
	ErrDisabled         = errors.New("matching engine disabled")
	ErrPaused           = errors.New("matching engine paused")
	ErrFastFillNotFound = errors.New("fast fill not found")
	ErrAlreadyRedeemed  = errors.New("fast fill already redeemed")
	ErrNotRedeemer      = errors.New("caller is not the fast fill redeemer")
	ErrAuctionClosed    = errors.New("auction already closed")

	ErrUnverified         = guardian.ErrUnverified
	ErrMalformedPayload   = messages.ErrMalformedPayload
	ErrInvalidEndpoint    = router.ErrInvalidEndpoint
	ErrAlreadyExists      = auction.ErrAlreadyExists
	ErrAuctionNotFound    = auction.ErrAuctionNotFound
	ErrNotActive          = auction.ErrNotActive
	ErrNotSettled         = auction.ErrNotSettled
	ErrStaleOffer         = auction.ErrStaleOffer
	ErrDeadlinePassed     = auction.ErrDeadlinePassed
	ErrDeadlineNotReached = auction.ErrDeadlineNotReached
	ErrOfferPriceTooHigh  = auction.ErrOfferPriceTooHigh
	ErrOrderExpired       = auction.ErrOrderExpired
	ErrOverflow           = auction.ErrOverflow
	ErrKeyMismatch        = settlement.ErrKeyMismatch
	ErrAlreadySettled     = settlement.ErrAlreadySettled
	ErrNotCompleted       = settlement.ErrNotCompleted
	ErrPreparedNotFound   = settlement.ErrPreparedNotFound
	ErrInsufficientFunds  = custody.ErrInsufficientFunds
)
