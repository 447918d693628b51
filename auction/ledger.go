// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/custody"
	"github.com/luxfi/matchingengine/messages"
	"github.com/luxfi/matchingengine/router"
	"github.com/luxfi/matchingengine/state"
)

const (
	auctionPrefix   = "auction/record"
	configPrefix    = "auction/config"
	activeConfigKey = "auction/active-config"
)

// Ledger owns auction records and their custody escrow. Endpoint checks,
// signature verification and the outbound leg belong to the caller.
type Ledger struct {
	program       *custody.Program
	custody       *custody.Ledger
	allowEarlyWin bool
}

// NewLedger creates an auction ledger over kv. A config whose ID kv does not
// know yet is stored and becomes active; a known ID must match what is stored
// and leaves the active config alone.
func NewLedger(kv state.KV, program *custody.Program, balances *custody.Ledger, cfg Config, allowEarlyExecutionByWinner bool) (*Ledger, error) {
	if err := cfg.Parameters.Verify(); err != nil {
		return nil, err
	}
	l := &Ledger{
		program:       program,
		custody:       balances,
		allowEarlyWin: allowEarlyExecutionByWinner,
	}

	stored, err := l.config(kv, cfg.ID)
	switch {
	case errors.Is(err, ErrAuctionConfigMismatch):
		if err := l.putConfig(kv, cfg); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case stored.Parameters != cfg.Parameters:
		return nil, fmt.Errorf("%w: config %d is stored with other parameters", ErrAuctionConfigMismatch, cfg.ID)
	}
	return l, nil
}

// ProposeConfig installs a new configuration for auctions started from now
// on. Running auctions keep the config they started with.
func (l *Ledger) ProposeConfig(kv state.KV, cfg Config) error {
	if err := cfg.Parameters.Verify(); err != nil {
		return err
	}
	exists, err := kv.Has(configKey(cfg.ID))
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: config %d already exists", ErrInvalidParameters, cfg.ID)
	}
	return l.putConfig(kv, cfg)
}

// ActiveConfig returns the config new auctions start under
func (l *Ledger) ActiveConfig(kv state.KV) (Config, error) {
	var id uint32
	found, err := state.GetRecord(kv, []byte(activeConfigKey), &id)
	if err != nil {
		return Config{}, err
	}
	if !found {
		return Config{}, fmt.Errorf("%w: no active config", ErrAuctionConfigMismatch)
	}
	return l.config(kv, id)
}

// Parameters returns the parameters of config id
func (l *Ledger) Parameters(kv state.KV, id uint32) (*Parameters, error) {
	cfg, err := l.config(kv, id)
	if err != nil {
		return nil, err
	}
	return &cfg.Parameters, nil
}

// Get loads the auction keyed by digest
func (l *Ledger) Get(kv state.KV, digest common.Hash) (*Auction, error) {
	a := &Auction{}
	found, err := state.GetRecord(kv, auctionKey(digest), a)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrAuctionNotFound, digest.Hex())
	}
	return a, nil
}

// Exists reports whether digest already has an auction record
func (l *Ledger) Exists(kv state.KV, digest common.Hash) (bool, error) {
	return kv.Has(auctionKey(digest))
}

// Put stores an auction record
func (l *Ledger) Put(kv state.KV, a *Auction) error {
	return state.PutRecord(kv, auctionKey(a.Digest), a)
}

// CustodyAuthority grants control of the escrow account of digest
func (l *Ledger) CustodyAuthority(digest common.Hash) custody.Authority {
	return l.program.Authority([]byte(custody.SeedAuctionCustody), digest[:])
}

// PlaceInitialOffer opens the auction for desc with the first bid. The
// offering participant escrows amount in plus the security deposit.
func (l *Ledger) PlaceInitialOffer(kv state.KV, desc *messages.OrderDescriptor, target router.Protocol, offer OfferArgs, now Now) (*Auction, error) {
	order := &desc.Order
	if desc.Expired(now.Timestamp) {
		return nil, fmt.Errorf("%w: deadline %d, now %d", ErrOrderExpired, order.Deadline, now.Timestamp)
	}
	if err := l.checkOffer(desc.Digest, offer.Participant, offer.Token); err != nil {
		return nil, err
	}
	if fees, ok := checkedAdd(offer.Price, order.InitAuctionFee); !ok || fees > order.AmountIn {
		return nil, fmt.Errorf("%w: price %d plus init fee %d exceeds amount in %d",
			ErrOfferPriceTooHigh, offer.Price, order.InitAuctionFee, order.AmountIn)
	}

	exists, err := l.Exists(kv, desc.Digest)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, desc.Digest.Hex())
	}

	cfg, err := l.ActiveConfig(kv)
	if err != nil {
		return nil, err
	}
	deposit := SecurityDeposit(&cfg.Parameters, order.AmountIn, order.MaxFee)
	escrow, ok := checkedAdd(order.AmountIn, deposit)
	if !ok {
		return nil, fmt.Errorf("%w: amount in %d plus deposit %d", ErrOverflow, order.AmountIn, deposit)
	}

	auth := l.CustodyAuthority(desc.Digest)
	if err := l.custody.Open(kv, auth); err != nil {
		return nil, err
	}
	if err := l.custody.Transfer(kv, custody.Signer(offer.Participant), auth.Account(), escrow); err != nil {
		return nil, err
	}

	bid := Offer{Participant: offer.Participant, Token: offer.Token}
	orderCopy := *order
	a := &Auction{
		Digest: desc.Digest,
		Status: Status{Kind: StatusActive},
		Info: &Info{
			ConfigID:           cfg.ID,
			StartSlot:          now.Slot,
			SourceChain:        desc.Provenance.SourceChain,
			AmountIn:           order.AmountIn,
			SecurityDeposit:    deposit,
			OfferPrice:         offer.Price,
			BestOffer:          bid,
			InitialOffer:       bid,
			RedeemerMessageLen: uint16(len(order.RedeemerMessage)),
			InitAuctionFee:     order.InitAuctionFee,
			MaxFee:             order.MaxFee,
		},
		Order:          &orderCopy,
		TargetProtocol: target,
		PreparedBy:     offer.Participant,
		VaaTimestamp:   desc.VaaTimestamp,
		VaaSequence:    desc.Provenance.Sequence,
	}
	if err := l.Put(kv, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ImproveOffer replaces the best offer with a lower price. The new bidder
// escrows the same amount the previous one did, which is refunded.
func (l *Ledger) ImproveOffer(kv state.KV, digest common.Hash, offer OfferArgs, now Now) (*Auction, error) {
	a, err := l.Get(kv, digest)
	if err != nil {
		return nil, err
	}
	if a.Status.Kind != StatusActive || a.Info == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotActive, digest.Hex(), a.Status.Kind)
	}
	if err := l.checkOffer(digest, offer.Participant, offer.Token); err != nil {
		return nil, err
	}
	params, err := l.Parameters(kv, a.Info.ConfigID)
	if err != nil {
		return nil, err
	}
	if end := a.Info.EndSlot(params); now.Slot >= end {
		return nil, fmt.Errorf("%w: slot %d, end %d", ErrDeadlinePassed, now.Slot, end)
	}

	best := a.Info.OfferPrice
	delta := MinOfferDelta(params, best)
	if offer.Price >= best || offer.Price > best-delta {
		return nil, fmt.Errorf("%w: offered %d, best %d, min delta %d", ErrStaleOffer, offer.Price, best, delta)
	}

	escrow, ok := checkedAdd(a.Info.AmountIn, a.Info.SecurityDeposit)
	if !ok {
		return nil, fmt.Errorf("%w: amount in %d plus deposit %d", ErrOverflow, a.Info.AmountIn, a.Info.SecurityDeposit)
	}
	auth := l.CustodyAuthority(digest)
	if err := l.custody.Transfer(kv, custody.Signer(offer.Participant), auth.Account(), escrow); err != nil {
		return nil, err
	}
	if err := l.custody.Transfer(kv, auth, a.Info.BestOffer.Token, escrow); err != nil {
		return nil, err
	}

	a.Info.BestOffer = Offer{Participant: offer.Participant, Token: offer.Token}
	a.Info.OfferPrice = offer.Price
	if err := l.Put(kv, a); err != nil {
		return nil, err
	}
	return a, nil
}

// ExecuteOrder ends the auction. Before the end slot only the best offer
// holder may execute, and only when early execution is allowed. The initial
// offer token receives the init auction fee, the best offer token receives
// the offer price and outbound receives what the user is owed. The security
// deposit, less the user's reward, stays in custody for settlement.
func (l *Ledger) ExecuteOrder(kv state.KV, digest common.Hash, executor Offer, outbound common.Address, now Now) (*Execution, error) {
	a, err := l.Get(kv, digest)
	if err != nil {
		return nil, err
	}
	if a.Status.Kind != StatusActive || a.Info == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotActive, digest.Hex(), a.Status.Kind)
	}
	if executor.Token == (common.Address{}) {
		return nil, fmt.Errorf("%w: zero executor token", ErrInvalidOffer)
	}
	if executor.Token == l.CustodyAuthority(digest).Account() {
		return nil, fmt.Errorf("%w: executor token is auction custody", ErrInvalidOffer)
	}
	params, err := l.Parameters(kv, a.Info.ConfigID)
	if err != nil {
		return nil, err
	}
	info := a.Info
	if end := info.EndSlot(params); now.Slot < end {
		if !l.allowEarlyWin || executor.Participant != info.BestOffer.Participant {
			return nil, fmt.Errorf("%w: slot %d, end %d", ErrDeadlineNotReached, now.Slot, end)
		}
	}

	penalty := ComputeDepositPenalty(params, info, now.Slot)

	userAmount, ok := checkedSub(info.AmountIn, info.OfferPrice)
	if ok {
		userAmount, ok = checkedSub(userAmount, info.InitAuctionFee)
	}
	if ok {
		userAmount, ok = checkedAdd(userAmount, penalty.UserReward)
	}
	if !ok {
		return nil, fmt.Errorf("%w: user amount for %s", ErrOverflow, digest.Hex())
	}

	auth := l.CustodyAuthority(digest)
	if err := l.custody.Transfer(kv, auth, info.InitialOffer.Token, info.InitAuctionFee); err != nil {
		return nil, err
	}
	if err := l.custody.Transfer(kv, auth, info.BestOffer.Token, info.OfferPrice); err != nil {
		return nil, err
	}
	if err := l.custody.Transfer(kv, auth, outbound, userAmount); err != nil {
		return nil, err
	}

	a.Status = Status{
		Kind:       StatusCompleted,
		Slot:       now.Slot,
		Executor:   executor.Token,
		Penalty:    penalty.Penalty,
		UserReward: penalty.UserReward,
	}
	if err := l.Put(kv, a); err != nil {
		return nil, err
	}
	return &Execution{
		Auction:        a,
		UserAmount:     userAmount,
		DepositPenalty: penalty,
	}, nil
}

// Helper functions

// checkOffer rejects bids whose payouts could not leave the auction: a zero
// participant or token, or a token that is the escrow account itself.
func (l *Ledger) checkOffer(digest common.Hash, participant, token common.Address) error {
	if token == (common.Address{}) || participant == (common.Address{}) {
		return fmt.Errorf("%w: zero participant or token", ErrInvalidOffer)
	}
	if token == l.CustodyAuthority(digest).Account() {
		return fmt.Errorf("%w: offer token is auction custody", ErrInvalidOffer)
	}
	return nil
}

func (l *Ledger) config(kv state.KV, id uint32) (Config, error) {
	var cfg Config
	found, err := state.GetRecord(kv, configKey(id), &cfg)
	if err != nil {
		return Config{}, err
	}
	if !found {
		return Config{}, fmt.Errorf("%w: %d", ErrAuctionConfigMismatch, id)
	}
	return cfg, nil
}

func (l *Ledger) putConfig(kv state.KV, cfg Config) error {
	if err := state.PutRecord(kv, configKey(cfg.ID), cfg); err != nil {
		return err
	}
	return state.PutRecord(kv, []byte(activeConfigKey), cfg.ID)
}

func auctionKey(digest common.Hash) []byte {
	return state.Key(auctionPrefix, digest[:])
}

func configKey(id uint32) []byte {
	return state.Key(configPrefix, binary.BigEndian.AppendUint32(nil, id))
}
