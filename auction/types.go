// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package auction runs the reverse-fee auction for a fast market order:
// solvers bid the fee they keep, the lowest bid wins, and the winner must
// execute the order before its security deposit starts bleeding to whoever
// executes in its place.
package auction

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/custody"
	"github.com/luxfi/matchingengine/messages"
	"github.com/luxfi/matchingengine/router"
)

// FeePrecisionMax is the denominator of every *_bps parameter (parts per million)
const FeePrecisionMax uint32 = 1_000_000

// Parameters tune one auction configuration. Periods are in slots.
type Parameters struct {
	UserPenaltyRewardBps uint32 `json:"userPenaltyRewardBps"`
	InitialPenaltyBps    uint32 `json:"initialPenaltyBps"`
	Duration             uint16 `json:"duration"`
	GracePeriod          uint16 `json:"gracePeriod"`
	PenaltyPeriod        uint16 `json:"penaltyPeriod"`
	MinOfferDeltaBps     uint32 `json:"minOfferDeltaBps"`
	SecurityDepositBase  uint64 `json:"securityDepositBase"`
	SecurityDepositBps   uint32 `json:"securityDepositBps"`
}

// Verify checks the parameters are usable
func (p *Parameters) Verify() error {
	bps := []struct {
		name  string
		value uint32
	}{
		{"user penalty reward", p.UserPenaltyRewardBps},
		{"initial penalty", p.InitialPenaltyBps},
		{"min offer delta", p.MinOfferDeltaBps},
		{"security deposit", p.SecurityDepositBps},
	}
	for _, b := range bps {
		if b.value > FeePrecisionMax {
			return fmt.Errorf("%w: %s bps %d exceeds %d", ErrInvalidParameters, b.name, b.value, FeePrecisionMax)
		}
	}
	switch {
	case p.Duration == 0:
		return fmt.Errorf("%w: zero duration", ErrInvalidParameters)
	case p.GracePeriod == 0:
		return fmt.Errorf("%w: zero grace period", ErrInvalidParameters)
	case p.PenaltyPeriod == 0:
		return fmt.Errorf("%w: zero penalty period", ErrInvalidParameters)
	case p.SecurityDepositBase == 0:
		return fmt.Errorf("%w: zero security deposit base", ErrInvalidParameters)
	}
	return nil
}

// Config is a versioned set of auction parameters. Auctions remember the
// config they started under.
type Config struct {
	ID         uint32     `json:"id"`
	Parameters Parameters `json:"parameters"`
}

// StatusKind is the lifecycle stage of an auction
type StatusKind uint8

const (
	StatusNotStarted StatusKind = iota
	StatusActive
	StatusCompleted
	StatusSettled
)

func (k StatusKind) String() string {
	switch k {
	case StatusNotStarted:
		return "not started"
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	case StatusSettled:
		return "settled"
	default:
		return fmt.Sprintf("status(%d)", uint8(k))
	}
}

// Status carries the data of the current stage. Completed fills Slot,
// Executor, Penalty and UserReward; Settled fills Fee and TotalPenalty.
type Status struct {
	Kind StatusKind

	Slot       uint64
	Executor   common.Address
	Penalty    uint64
	UserReward uint64

	Fee          uint64
	TotalPenalty uint64
}

// Offer is a participant and the account that receives its refunds and payouts
type Offer struct {
	Participant common.Address
	Token       common.Address
}

// Info is the live state of an auction that received offers
type Info struct {
	ConfigID           uint32
	StartSlot          uint64
	SourceChain        uint16
	AmountIn           uint64
	SecurityDeposit    uint64
	OfferPrice         uint64
	BestOffer          Offer
	InitialOffer       Offer
	RedeemerMessageLen uint16
	InitAuctionFee     uint64
	MaxFee             uint64
}

// EndSlot is the first slot at which the auction no longer takes offers
func (i *Info) EndSlot(params *Parameters) uint64 {
	return i.StartSlot + uint64(params.Duration)
}

// Auction is the record keyed by an order digest. Info is nil for orders
// settled without an auction.
type Auction struct {
	Digest         common.Hash
	Status         Status
	Info           *Info
	Order          *messages.FastMarketOrder
	TargetProtocol router.Protocol
	PreparedBy     common.Address
	VaaTimestamp   uint32
	VaaSequence    uint64
}

// OfferArgs is a bid: the participant escrows from its own account and
// Token receives refunds and payouts.
type OfferArgs struct {
	Participant common.Address
	Token       common.Address
	Price       uint64
}

// Now is the ledger's view of time for one transition
type Now struct {
	Slot      uint64
	Timestamp uint64
}

// DepositPenalty splits the forfeited part of a security deposit
type DepositPenalty struct {
	Penalty    uint64
	UserReward uint64
}

// Execution is the outcome of ExecuteOrder
type Execution struct {
	Auction    *Auction
	UserAmount uint64
	DepositPenalty
}

// Penalized reports whether the executor earned a penalty
func (e *Execution) Penalized() bool {
	return e.Penalty != 0 || e.UserReward != 0
}

// Errors
var (
	ErrAlreadyExists         = errors.New("auction already exists")
	ErrAuctionNotFound       = errors.New("auction not found")
	ErrNotActive             = errors.New("auction not active")
	ErrNotCompleted          = errors.New("auction not completed")
	ErrNotSettled            = errors.New("auction not settled")
	ErrAlreadySettled        = errors.New("auction already settled")
	ErrStaleOffer            = errors.New("offer does not improve best offer by the minimum delta")
	ErrDeadlinePassed        = errors.New("auction period expired")
	ErrDeadlineNotReached    = errors.New("auction period not expired")
	ErrOverflow              = custody.ErrOverflow
	ErrOfferPriceTooHigh     = errors.New("offer price and init auction fee exceed amount in")
	ErrOrderExpired          = errors.New("fast market order expired")
	ErrAuctionConfigMismatch = errors.New("unknown auction config")
	ErrInvalidParameters     = errors.New("invalid auction parameters")
	ErrInvalidOffer          = errors.New("invalid offer")
)
