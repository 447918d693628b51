// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package events

import (
	"sync"

	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
)

var engineABI = ParseABI(EngineABI)

// Emitter packs engine events into logs attributed to one address
type Emitter struct {
	address common.Address
	logs    []*ethtypes.Log

	mu sync.Mutex
}

func NewEmitter(address common.Address) *Emitter {
	return &Emitter{address: address}
}

// ABIDefinition returns the parsed engine event ABI
func ABIDefinition() ABI {
	return engineABI
}

// Emit packs event name and appends it to the log
func (e *Emitter) Emit(name string, args ...interface{}) error {
	topics, data, err := engineABI.PackEvent(name, args...)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.logs = append(e.logs, &ethtypes.Log{
		Address: e.address,
		Topics:  topics,
		Data:    data,
		Index:   uint(len(e.logs)),
	})
	return nil
}

// Logs returns every log emitted so far
func (e *Emitter) Logs() []*ethtypes.Log {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*ethtypes.Log(nil), e.logs...)
}

func (e *Emitter) AuctionUpdated(ev AuctionUpdated) error {
	return e.Emit(AuctionUpdatedEvent, ev.Auction, ev.BestOfferToken, ev.ConfigID, ev.SourceChain,
		ev.EndSlot, ev.OfferPrice, ev.AmountIn, ev.TotalDeposit)
}

func (e *Emitter) OrderExecuted(ev OrderExecuted) error {
	return e.Emit(OrderExecutedEvent, ev.Auction, ev.Executor, ev.Penalty, ev.UserReward,
		ev.UserAmount, ev.TargetProtocol)
}

func (e *Emitter) OrderResponsePrepared(ev OrderResponsePrepared) error {
	return e.Emit(OrderResponsePreparedEvent, ev.Digest, ev.PreparedBy, ev.BaseFee, ev.AmountIn)
}

func (e *Emitter) AuctionSettled(ev AuctionSettled) error {
	return e.Emit(AuctionSettledEvent, ev.Auction, ev.BestOfferToken, ev.BaseFee, ev.TotalPenalty, ev.WithAuction)
}

func (e *Emitter) AuctionClosed(auction common.Hash) error {
	return e.Emit(AuctionClosedEvent, auction)
}

func (e *Emitter) FastFillCreated(ev FastFillCreated) error {
	return e.Emit(FastFillCreatedEvent, ev.Digest, ev.SourceChain, ev.Sequence, ev.Amount, ev.Redeemer)
}

func (e *Emitter) FastFillRedeemed(ev FastFillRedeemed) error {
	return e.Emit(FastFillRedeemedEvent, ev.Digest, ev.Recipient, ev.Amount)
}
