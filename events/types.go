// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package events encodes engine state changes as EVM logs so indexers can
// follow auctions with standard tooling.
package events

import (
	"errors"

	"github.com/luxfi/geth/common"
)

// Event names
const (
	AuctionUpdatedEvent        = "AuctionUpdated"
	OrderExecutedEvent         = "OrderExecuted"
	OrderResponsePreparedEvent = "OrderResponsePrepared"
	AuctionSettledEvent        = "AuctionSettled"
	AuctionClosedEvent         = "AuctionClosed"
	FastFillCreatedEvent       = "FastFillCreated"
	FastFillRedeemedEvent      = "FastFillRedeemed"
)

// EngineABI describes every event the engine emits
const EngineABI = `[
	{"type":"event","name":"AuctionUpdated","inputs":[
		{"name":"auction","type":"bytes32","indexed":true},
		{"name":"bestOfferToken","type":"address","indexed":true},
		{"name":"configId","type":"uint32","indexed":false},
		{"name":"sourceChain","type":"uint16","indexed":false},
		{"name":"endSlot","type":"uint64","indexed":false},
		{"name":"offerPrice","type":"uint64","indexed":false},
		{"name":"amountIn","type":"uint64","indexed":false},
		{"name":"totalDeposit","type":"uint64","indexed":false}
	]},
	{"type":"event","name":"OrderExecuted","inputs":[
		{"name":"auction","type":"bytes32","indexed":true},
		{"name":"executor","type":"address","indexed":true},
		{"name":"penalty","type":"uint64","indexed":false},
		{"name":"userReward","type":"uint64","indexed":false},
		{"name":"userAmount","type":"uint64","indexed":false},
		{"name":"targetProtocol","type":"uint8","indexed":false}
	]},
	{"type":"event","name":"OrderResponsePrepared","inputs":[
		{"name":"digest","type":"bytes32","indexed":true},
		{"name":"preparedBy","type":"address","indexed":true},
		{"name":"baseFee","type":"uint64","indexed":false},
		{"name":"amountIn","type":"uint64","indexed":false}
	]},
	{"type":"event","name":"AuctionSettled","inputs":[
		{"name":"auction","type":"bytes32","indexed":true},
		{"name":"bestOfferToken","type":"address","indexed":true},
		{"name":"baseFee","type":"uint64","indexed":false},
		{"name":"totalPenalty","type":"uint64","indexed":false},
		{"name":"withAuction","type":"bool","indexed":false}
	]},
	{"type":"event","name":"AuctionClosed","inputs":[
		{"name":"auction","type":"bytes32","indexed":true}
	]},
	{"type":"event","name":"FastFillCreated","inputs":[
		{"name":"digest","type":"bytes32","indexed":true},
		{"name":"sourceChain","type":"uint16","indexed":false},
		{"name":"sequence","type":"uint64","indexed":false},
		{"name":"amount","type":"uint64","indexed":false},
		{"name":"redeemer","type":"bytes32","indexed":false}
	]},
	{"type":"event","name":"FastFillRedeemed","inputs":[
		{"name":"digest","type":"bytes32","indexed":true},
		{"name":"recipient","type":"address","indexed":true},
		{"name":"amount","type":"uint64","indexed":false}
	]}
]`

// AuctionUpdated is emitted when an auction opens or gets a better offer
type AuctionUpdated struct {
	Auction        common.Hash
	BestOfferToken common.Address
	ConfigID       uint32
	SourceChain    uint16
	EndSlot        uint64
	OfferPrice     uint64
	AmountIn       uint64
	TotalDeposit   uint64
}

// OrderExecuted is emitted when an auction is executed
type OrderExecuted struct {
	Auction        common.Hash
	Executor       common.Address
	Penalty        uint64
	UserReward     uint64
	UserAmount     uint64
	TargetProtocol uint8
}

type OrderResponsePrepared struct {
	Digest     common.Hash
	PreparedBy common.Address
	BaseFee    uint64
	AmountIn   uint64
}

// AuctionSettled is emitted on settlement. WithAuction is false when the
// order settled without being auctioned.
type AuctionSettled struct {
	Auction        common.Hash
	BestOfferToken common.Address
	BaseFee        uint64
	TotalPenalty   uint64
	WithAuction    bool
}

type FastFillCreated struct {
	Digest      common.Hash
	SourceChain uint16
	Sequence    uint64
	Amount      uint64
	Redeemer    [32]byte
}

type FastFillRedeemed struct {
	Digest    common.Hash
	Recipient common.Address
	Amount    uint64
}

// Errors
var (
	ErrUnknownEvent     = errors.New("unknown event")
	ErrArgumentCount    = errors.New("unexpected number of event arguments")
	ErrUnsupportedTopic = errors.New("unsupported indexed type")
)
