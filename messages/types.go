// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package messages decodes and encodes the payloads carried by bridge
// messages: fast market orders, token router deposits and fills.
package messages

import (
	"errors"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/vaa"
)

// Payload ids
const (
	FastMarketOrderID   uint8 = 11
	FastFillID          uint8 = 12
	FillID              uint8 = 1
	SlowOrderResponseID uint8 = 2
	DepositID           uint8 = 1
)

const (
	// MaxRedeemerMessageLen bounds the redeemer message of any order
	MaxRedeemerMessageLen = 512

	// FastMarketOrderFixedLen is the size of a fast market order without its
	// redeemer message
	FastMarketOrderFixedLen = 1 + 8 + 8 + 2 + 32 + 32 + 32 + 8 + 8 + 4 + 2
)

var (
	ErrMalformedPayload = vaa.ErrMalformedPayload
	ErrUnknownPayload   = errors.New("unknown payload id")
	ErrMessageTooLarge  = errors.New("redeemer message too large")
)

// FastMarketOrder is a user's request to move AmountIn to TargetChain faster
// than finality, paying at most MaxFee to the solver who fills it.
type FastMarketOrder struct {
	AmountIn        uint64
	MinAmountOut    uint64
	TargetChain     uint16
	Redeemer        vaa.UniversalAddress
	Sender          vaa.UniversalAddress
	RefundAddress   vaa.UniversalAddress
	MaxFee          uint64
	InitAuctionFee  uint64
	Deadline        uint32 // unix seconds, 0 for none
	RedeemerMessage []byte
}

// Provenance identifies where a bridge message came from
type Provenance struct {
	SourceChain uint16
	Emitter     vaa.UniversalAddress
	Sequence    uint64
}

// OrderDescriptor is an authenticated fast market order together with the
// message header it arrived in. Digest keys every downstream record.
type OrderDescriptor struct {
	Order            FastMarketOrder
	Provenance       Provenance
	VaaTimestamp     uint32
	ConsistencyLevel uint8
	Digest           common.Hash
}

// Deposit is the token router payload attached to a CCTP transfer
type Deposit struct {
	TokenAddress          vaa.UniversalAddress
	Amount                uint64
	SourceCctpDomain      uint32
	DestinationCctpDomain uint32
	CctpNonce             uint64
	BurnSource            vaa.UniversalAddress
	MintRecipient         vaa.UniversalAddress
	Payload               []byte
}

// SlowOrderResponse is the deposit message sent alongside the finalized
// transfer. It carries the base fee owed to whoever settles the auction.
type SlowOrderResponse struct {
	BaseFee uint64
}

// Fill instructs the target chain's token router to release funds to
// Redeemer.
type Fill struct {
	SourceChain     uint16
	OrderSender     vaa.UniversalAddress
	Redeemer        vaa.UniversalAddress
	RedeemerMessage []byte
}

// FastFill is a fill delivered on the local chain without a CCTP transfer
type FastFill struct {
	Amount uint64
	Fill   Fill
}

// FinalizedArgs are the fields of the finalized message that cannot be
// recovered from the fast order.
type FinalizedArgs struct {
	ConsistencyLevel      uint8
	BaseFee               uint64
	TokenAddress          vaa.UniversalAddress
	SourceCctpDomain      uint32
	DestinationCctpDomain uint32
	CctpNonce             uint64
	BurnSource            vaa.UniversalAddress
	MintRecipient         vaa.UniversalAddress
}
