// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"context"
	"fmt"
	"sync"

	log "github.com/luxfi/log"
	"github.com/luxfi/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	ethtypes "github.com/luxfi/geth/core/types"
	"github.com/luxfi/matchingengine/auction"
	"github.com/luxfi/matchingengine/cctp"
	"github.com/luxfi/matchingengine/custody"
	"github.com/luxfi/matchingengine/events"
	"github.com/luxfi/matchingengine/guardian"
	"github.com/luxfi/matchingengine/messages"
	"github.com/luxfi/matchingengine/router"
	"github.com/luxfi/matchingengine/settlement"
	"github.com/luxfi/matchingengine/state"
	"github.com/luxfi/matchingengine/vaa"
)

// Deps are the engine's collaborators
type Deps struct {
	DB         database.Database
	Authority  guardian.Authority
	Messenger  cctp.Messenger
	Clock      Clock
	Registerer prometheus.Registerer
	Log        log.Logger
}

// Engine serializes every transition and runs each one in its own state
// transaction, so a failed call leaves nothing behind.
type Engine struct {
	cfg        Config
	db         database.Database
	clock      Clock
	program    *custody.Program
	custody    *custody.Ledger
	auctions   *auction.Ledger
	registry   *router.Registry
	gateway    *guardian.Gateway
	messenger  cctp.Messenger
	reconciler *settlement.Reconciler
	messages   *vaa.Store
	events     *events.Emitter
	metrics    *metrics
	log        log.Logger

	mu sync.Mutex
}

func New(cfg *Config, deps Deps) (*Engine, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	if deps.DB == nil || deps.Clock == nil || deps.Messenger == nil {
		return nil, fmt.Errorf("%w: database, clock and messenger are required", ErrInvalidConfig)
	}
	logger := deps.Log
	if logger == nil {
		logger = log.NewTestLogger(level.Info)
	}

	program := custody.NewProgram(cfg.Program)
	balances := custody.NewLedger()
	auctions, err := auction.NewLedger(deps.DB, program, balances, cfg.auctionConfig(), cfg.AllowEarlyExecutionByWinner)
	if err != nil {
		return nil, err
	}
	registry, err := router.NewRegistry(deps.DB, cfg.EndpointCacheSize)
	if err != nil {
		return nil, err
	}
	m, err := newMetrics(deps.Registerer)
	if err != nil {
		return nil, err
	}
	gateway := guardian.NewGateway(deps.Authority, logger)

	return &Engine{
		cfg:       *cfg,
		db:        deps.DB,
		clock:     deps.Clock,
		program:   program,
		custody:   balances,
		auctions:  auctions,
		registry:  registry,
		gateway:   gateway,
		messenger: deps.Messenger,
		reconciler: settlement.New(settlement.Config{
			Program:       program,
			Custody:       balances,
			Auctions:      auctions,
			Registry:      registry,
			Gateway:       gateway,
			Messenger:     deps.Messenger,
			Token:         vaa.UniversalAddress(cfg.Token),
			MintRecipient: vaa.AddressFromHost(cfg.Program),
			Log:           logger,
		}),
		messages: vaa.NewStore(),
		events:   events.NewEmitter(cfg.Program),
		metrics:  m,
		log:      logger,
	}, nil
}

// PlaceInitialOffer authenticates a fast market order and opens its auction
// with the caller's offer.
func (e *Engine) PlaceInitialOffer(ctx context.Context, fast SignedMessage, offer auction.OfferArgs) (*auction.Auction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var a *auction.Auction
	err := e.update(OpPlaceInitialOffer, func(tx *state.Tx) error {
		if err := e.checkLive(true); err != nil {
			return err
		}
		desc, to, err := e.authenticate(ctx, fast)
		if err != nil {
			return err
		}
		a, err = e.auctions.PlaceInitialOffer(tx, desc, to.Protocol, offer, e.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.auctionsOpened.Inc()
	e.auctionUpdated(a)
	e.log.Info("auction opened",
		log.String("digest", a.Digest.Hex()),
		log.String("offerToken", offer.Token.Hex()),
		log.Int("offerPrice", int(offer.Price)),
	)
	return a, nil
}

// ImproveOffer replaces the best offer of an active auction
func (e *Engine) ImproveOffer(_ context.Context, digest common.Hash, offer auction.OfferArgs) (*auction.Auction, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var a *auction.Auction
	err := e.update(OpImproveOffer, func(tx *state.Tx) error {
		if err := e.checkLive(true); err != nil {
			return err
		}
		var err error
		a, err = e.auctions.ImproveOffer(tx, digest, offer, e.now())
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.offersImproved.Inc()
	e.auctionUpdated(a)
	e.log.Info("offer improved",
		log.String("digest", digest.Hex()),
		log.String("offerToken", offer.Token.Hex()),
		log.Int("offerPrice", int(offer.Price)),
	)
	return a, nil
}

// ExecuteOrder ends an auction and delivers the user's funds to the order's
// target chain.
func (e *Engine) ExecuteOrder(ctx context.Context, digest common.Hash, executor auction.Offer) (*ExecuteResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res *ExecuteResult
	err := e.update(OpExecuteOrder, func(tx *state.Tx) error {
		if err := e.checkLive(false); err != nil {
			return err
		}
		a, err := e.auctions.Get(tx, digest)
		if err != nil {
			return err
		}
		if a.Status.Kind != auction.StatusActive || a.Info == nil || a.Order == nil {
			return fmt.Errorf("%w: %s is %s", ErrNotActive, digest.Hex(), a.Status.Kind)
		}
		to, err := e.registry.LookupLive(a.Order.TargetChain)
		if err != nil {
			return err
		}
		outbound, err := e.openOutbound(tx, to.Protocol, digest)
		if err != nil {
			return err
		}
		exec, err := e.auctions.ExecuteOrder(tx, digest, executor, outbound.Account(), e.now())
		if err != nil {
			return err
		}
		out, err := e.deliver(ctx, tx, delivery{
			digest:     digest,
			endpoint:   to,
			from:       outbound,
			amount:     exec.UserAmount,
			preparedBy: executor.Token,
			fill: messages.Fill{
				SourceChain:     a.Info.SourceChain,
				OrderSender:     a.Order.Sender,
				Redeemer:        a.Order.Redeemer,
				RedeemerMessage: a.Order.RedeemerMessage,
			},
		})
		if err != nil {
			return err
		}
		res = &ExecuteResult{Execution: exec, Outbound: *out}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.executed(res.Penalized())
	e.emit(events.OrderExecutedEvent, e.events.OrderExecuted(events.OrderExecuted{
		Auction:        digest,
		Executor:       res.Auction.Status.Executor,
		Penalty:        res.Penalty,
		UserReward:     res.UserReward,
		UserAmount:     res.UserAmount,
		TargetProtocol: uint8(res.Outbound.Protocol.Kind),
	}))
	e.fastFillCreated(res.Outbound.FastFill)
	e.log.Info("order executed",
		log.String("digest", digest.Hex()),
		log.String("executor", executor.Token.Hex()),
		log.String("protocol", res.Outbound.Protocol.Kind.String()),
		log.Int("userAmount", int(res.UserAmount)),
		log.Int("penalty", int(res.Penalty)),
	)
	return res, nil
}

// PrepareOrderResponse authenticates the fast order and the finalized
// deposit backing it, and holds the minted principal until settlement.
func (e *Engine) PrepareOrderResponse(ctx context.Context, fast SignedMessage, args PrepareArgs) (*settlement.PreparedOrderResponse, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var p *settlement.PreparedOrderResponse
	err := e.update(OpPrepareOrderResponse, func(tx *state.Tx) error {
		if err := e.checkLive(false); err != nil {
			return err
		}
		desc, _, err := e.authenticate(ctx, fast)
		if err != nil {
			return err
		}
		p, err = e.reconciler.PrepareOrderResponse(ctx, tx, settlement.PrepareArgs{
			Order:            desc,
			ConsistencyLevel: args.ConsistencyLevel,
			BaseFee:          args.BaseFee,
			GuardianSetIndex: args.GuardianSetIndex,
			Signatures:       args.Signatures,
			CctpMessage:      args.CctpMessage,
			CctpAttestation:  args.CctpAttestation,
			PreparedBy:       args.PreparedBy,
			BaseFeeToken:     args.BaseFeeToken,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.emit(events.OrderResponsePreparedEvent, e.events.OrderResponsePrepared(events.OrderResponsePrepared{
		Digest:     p.Digest,
		PreparedBy: p.PreparedBy,
		BaseFee:    p.BaseFee,
		AmountIn:   p.AmountIn,
	}))
	return p, nil
}

// SettleComplete settles an executed auction against its prepared order
// response.
func (e *Engine) SettleComplete(_ context.Context, auctionDigest, preparedDigest common.Hash) (*SettleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var (
		d *settlement.Disbursement
		a *auction.Auction
	)
	err := e.update(OpSettleComplete, func(tx *state.Tx) error {
		if err := e.checkLive(false); err != nil {
			return err
		}
		var err error
		if d, err = e.reconciler.SettleComplete(tx, auctionDigest, preparedDigest); err != nil {
			return err
		}
		a, err = e.auctions.Get(tx, auctionDigest)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.metrics.auctionsSettled.WithLabelValues("complete").Inc()
	e.emit(events.AuctionSettledEvent, e.events.AuctionSettled(events.AuctionSettled{
		Auction:        auctionDigest,
		BestOfferToken: d.BestOffer,
		BaseFee:        d.BaseFee,
		TotalPenalty:   a.Status.TotalPenalty,
		WithAuction:    true,
	}))
	return &SettleResult{Disbursement: d}, nil
}

// SettleNone settles a prepared order that was never auctioned and delivers
// it to the target chain. The configured fee recipient keeps the base fee.
func (e *Engine) SettleNone(ctx context.Context, preparedDigest common.Hash) (*SettleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var res *SettleResult
	err := e.update(OpSettleNone, func(tx *state.Tx) error {
		if err := e.checkLive(false); err != nil {
			return err
		}
		p, err := e.reconciler.Get(tx, preparedDigest)
		if err != nil {
			return err
		}
		outbound, err := e.openOutbound(tx, p.ToEndpoint.Protocol, p.Digest)
		if err != nil {
			return err
		}
		d, p, err := e.reconciler.SettleNone(tx, preparedDigest, e.cfg.FeeRecipient, outbound.Account())
		if err != nil {
			return err
		}
		out, err := e.deliver(ctx, tx, delivery{
			digest:     p.Digest,
			endpoint:   p.ToEndpoint,
			from:       outbound,
			amount:     d.UserAmount,
			preparedBy: p.PreparedBy,
			fill: messages.Fill{
				SourceChain:     p.SourceChain,
				OrderSender:     p.Sender,
				Redeemer:        p.Redeemer,
				RedeemerMessage: p.RedeemerMessage,
			},
		})
		if err != nil {
			return err
		}
		res = &SettleResult{Disbursement: d, Outbound: out}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.metrics.auctionsSettled.WithLabelValues("none").Inc()
	e.emit(events.AuctionSettledEvent, e.events.AuctionSettled(events.AuctionSettled{
		Auction: preparedDigest,
		BaseFee: res.Disbursement.BaseFee,
	}))
	e.fastFillCreated(res.Outbound.FastFill)
	return res, nil
}

// RedeemFastFill releases a local fast fill to its redeemer. A fill can be
// redeemed once.
func (e *Engine) RedeemFastFill(_ context.Context, digest common.Hash, caller common.Address) (*FastFill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var ff *FastFill
	err := e.update(OpRedeemFastFill, func(tx *state.Tx) error {
		if err := e.checkLive(false); err != nil {
			return err
		}
		var err error
		ff, err = e.fastFill(tx, digest)
		if err != nil {
			return err
		}
		if ff.Redeemed {
			return fmt.Errorf("%w: %s", ErrAlreadyRedeemed, digest.Hex())
		}
		if redeemer := ff.Message.Fill.Redeemer.Host(); caller != redeemer {
			return fmt.Errorf("%w: caller %s, redeemer %s", ErrNotRedeemer, caller.Hex(), redeemer.Hex())
		}
		auth := e.fastFillAuthority(digest)
		if err := e.custody.Transfer(tx, auth, caller, ff.Message.Amount); err != nil {
			return err
		}
		if err := e.custody.Close(tx, auth); err != nil {
			return err
		}
		ff.Redeemed = true
		return state.PutRecord(tx, fastFillKey(digest), ff)
	})
	if err != nil {
		return nil, err
	}

	e.metrics.fastFills.WithLabelValues("redeemed").Inc()
	e.emit(events.FastFillRedeemedEvent, e.events.FastFillRedeemed(events.FastFillRedeemed{
		Digest:    digest,
		Recipient: caller,
		Amount:    ff.Message.Amount,
	}))
	e.log.Info("fast fill redeemed",
		log.String("digest", digest.Hex()),
		log.String("recipient", caller.Hex()),
		log.Int("amount", int(ff.Message.Amount)),
	)
	return ff, nil
}

// CloseAuction closes the escrow of a settled auction and drops everything
// but its settled status. The record stays so the order can never be
// auctioned again.
func (e *Engine) CloseAuction(_ context.Context, digest common.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	err := e.update(OpCloseAuction, func(tx *state.Tx) error {
		a, err := e.auctions.Get(tx, digest)
		if err != nil {
			return err
		}
		if a.Status.Kind != auction.StatusSettled {
			return fmt.Errorf("%w: %s is %s", ErrNotSettled, digest.Hex(), a.Status.Kind)
		}
		if a.Info == nil && a.Order == nil {
			return fmt.Errorf("%w: %s", ErrAuctionClosed, digest.Hex())
		}
		if a.Info != nil {
			if err := e.custody.Close(tx, e.auctions.CustodyAuthority(digest)); err != nil {
				return err
			}
		}
		a.Info, a.Order = nil, nil
		return e.auctions.Put(tx, a)
	})
	if err != nil {
		return err
	}

	e.emit(events.AuctionClosedEvent, e.events.AuctionClosed(digest))
	return nil
}

// AddEndpoint registers or replaces the endpoint of a chain
func (e *Engine) AddEndpoint(ep router.Endpoint) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Put(ep)
}

// DisableEndpoint stops routing to and accepting orders from chain
func (e *Engine) DisableEndpoint(chain uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.registry.Disable(chain)
}

// ProposeAuctionConfig activates new auction parameters for auctions opened
// from now on
func (e *Engine) ProposeAuctionConfig(cfg auction.Config) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.update(OpProposeAuctionConfig, func(tx *state.Tx) error {
		return e.auctions.ProposeConfig(tx, cfg)
	})
}

// SetPaused stops or resumes new offers
func (e *Engine) SetPaused(paused bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Paused = paused
}

func (e *Engine) Auction(digest common.Hash) (*auction.Auction, error) {
	return e.auctions.Get(e.db, digest)
}

func (e *Engine) PreparedOrderResponse(digest common.Hash) (*settlement.PreparedOrderResponse, error) {
	return e.reconciler.Get(e.db, digest)
}

func (e *Engine) FastFill(digest common.Hash) (*FastFill, error) {
	return e.fastFill(e.db, digest)
}

func (e *Engine) Balance(account common.Address) (uint64, error) {
	return e.custody.Balance(e.db, account)
}

// Message returns a message the engine posted
func (e *Engine) Message(sequence uint64) (*vaa.Body, error) {
	return e.messages.Get(e.db, e.cfg.LocalChain, e.emitterAddress(), sequence)
}

// Logs returns every event emitted since the engine started
func (e *Engine) Logs() []*ethtypes.Log {
	return e.events.Logs()
}

// Helper functions

type delivery struct {
	digest     common.Hash
	endpoint   router.Endpoint
	from       custody.Authority
	amount     uint64
	preparedBy common.Address
	fill       messages.Fill
}

// update runs fn in a fresh transaction and commits its writes. The caller
// holds e.mu.
func (e *Engine) update(op string, fn func(tx *state.Tx) error) error {
	tx := state.Begin(e.db)
	defer tx.Discard()

	if err := fn(tx); err != nil {
		e.reject(op, err)
		return err
	}
	if err := tx.Commit(); err != nil {
		e.reject(op, err)
		return err
	}
	return nil
}

func (e *Engine) reject(op string, err error) {
	e.metrics.rejected.WithLabelValues(op).Inc()
	e.log.Warn("transition rejected",
		log.String("op", op),
		log.String("reason", err.Error()),
	)
}

func (e *Engine) checkLive(pausable bool) error {
	if e.cfg.IsDisabled() {
		return ErrDisabled
	}
	if ts := e.cfg.Timestamp(); ts != nil && e.clock.Timestamp() < *ts {
		return fmt.Errorf("%w: activates at %d", ErrDisabled, *ts)
	}
	if pausable && e.cfg.Paused {
		return ErrPaused
	}
	return nil
}

func (e *Engine) now() auction.Now {
	return auction.Now{Slot: e.clock.Slot(), Timestamp: e.clock.Timestamp()}
}

// authenticate verifies a fast market order and resolves its route
func (e *Engine) authenticate(ctx context.Context, fast SignedMessage) (*messages.OrderDescriptor, router.Endpoint, error) {
	if fast.Body == nil {
		return nil, router.Endpoint{}, fmt.Errorf("%w: missing body", ErrMalformedPayload)
	}
	if err := e.gateway.Verify(ctx, fast.Body.Signed(fast.GuardianSetIndex, fast.Signatures)); err != nil {
		return nil, router.Endpoint{}, err
	}
	desc, err := messages.NewOrderDescriptor(fast.Body)
	if err != nil {
		return nil, router.Endpoint{}, err
	}
	from, to, err := e.registry.LivePath(desc.Provenance.SourceChain, desc.Order.TargetChain)
	if err != nil {
		return nil, router.Endpoint{}, err
	}
	if !from.MatchesEmitter(desc.Provenance.SourceChain, desc.Provenance.Emitter) {
		return nil, router.Endpoint{}, fmt.Errorf("%w: emitter %s is not registered for chain %d",
			ErrInvalidEndpoint, desc.Provenance.Emitter, desc.Provenance.SourceChain)
	}
	return desc, to, nil
}

// openOutbound returns the account funds are staged in before leaving for
// protocol
func (e *Engine) openOutbound(tx *state.Tx, protocol router.Protocol, digest common.Hash) (custody.Authority, error) {
	switch protocol.Kind {
	case router.ProtocolCctp:
		return e.program.Treasury(), nil
	case router.ProtocolLocal:
		auth := e.fastFillAuthority(digest)
		return auth, e.custody.Open(tx, auth)
	default:
		return custody.Authority{}, fmt.Errorf("%w: %s target", ErrInvalidEndpoint, protocol.Kind)
	}
}

func (e *Engine) deliver(ctx context.Context, tx *state.Tx, d delivery) (*Outbound, error) {
	out := &Outbound{Protocol: d.endpoint.Protocol, Amount: d.amount}
	switch d.endpoint.Protocol.Kind {
	case router.ProtocolCctp:
		if d.amount == 0 {
			return out, nil
		}
		payload, err := d.fill.Encode()
		if err != nil {
			return nil, err
		}
		if err := e.custody.Burn(tx, d.from, d.amount); err != nil {
			return nil, err
		}
		receipt, err := e.messenger.BurnAndSend(ctx, d.amount, d.endpoint.Protocol.CctpDomain, d.endpoint.MintRecipient)
		if err != nil {
			return nil, err
		}
		deposit := messages.Deposit{
			TokenAddress:          vaa.UniversalAddress(e.cfg.Token),
			Amount:                d.amount,
			SourceCctpDomain:      receipt.SourceDomain,
			DestinationCctpDomain: receipt.DestinationDomain,
			CctpNonce:             receipt.Nonce,
			BurnSource:            e.emitterAddress(),
			MintRecipient:         d.endpoint.MintRecipient,
			Payload:               payload,
		}
		seq, err := e.messages.Post(tx, &vaa.Body{
			Timestamp:        uint32(e.clock.Timestamp()),
			EmitterChain:     e.cfg.LocalChain,
			EmitterAddress:   e.emitterAddress(),
			ConsistencyLevel: OutboundConsistencyLevel,
			Payload:          deposit.Encode(),
		})
		if err != nil {
			return nil, err
		}
		out.CctpNonce = receipt.Nonce
		out.MessageSequence = seq

	case router.ProtocolLocal:
		seq, err := e.nextFastFillSequence(tx, d.fill.SourceChain, d.fill.OrderSender)
		if err != nil {
			return nil, err
		}
		ff := &FastFill{
			Digest:     d.digest,
			Sequence:   seq,
			PreparedBy: d.preparedBy,
			Message:    messages.FastFill{Amount: d.amount, Fill: d.fill},
		}
		if err := state.PutRecord(tx, fastFillKey(d.digest), ff); err != nil {
			return nil, err
		}
		out.FastFill = ff

	default:
		return nil, fmt.Errorf("%w: %s target", ErrInvalidEndpoint, d.endpoint.Protocol.Kind)
	}
	return out, nil
}

func (e *Engine) emitterAddress() vaa.UniversalAddress {
	return vaa.AddressFromHost(e.cfg.Program)
}

func (e *Engine) fastFillAuthority(digest common.Hash) custody.Authority {
	return e.program.Authority([]byte(custody.SeedFastFill), digest[:])
}

func (e *Engine) fastFill(kv state.KV, digest common.Hash) (*FastFill, error) {
	ff := &FastFill{}
	found, err := state.GetRecord(kv, fastFillKey(digest), ff)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrFastFillNotFound, digest.Hex())
	}
	return ff, nil
}

// nextFastFillSequence numbers fast fills per source chain and order sender
func (e *Engine) nextFastFillSequence(kv state.KV, sourceChain uint16, sender vaa.UniversalAddress) (uint64, error) {
	key := state.Key(fastFillSequencerPrefix, vaa.NewWriter(34).U16(sourceChain).Fixed(sender[:]).Bytes())
	var next uint64
	if _, err := state.GetRecord(kv, key, &next); err != nil {
		return 0, err
	}
	if err := state.PutRecord(kv, key, next+1); err != nil {
		return 0, err
	}
	return next, nil
}

func fastFillKey(digest common.Hash) []byte {
	return state.Key(fastFillPrefix, digest[:])
}

func (e *Engine) auctionUpdated(a *auction.Auction) {
	params, err := e.auctions.Parameters(e.db, a.Info.ConfigID)
	if err != nil {
		e.emit(events.AuctionUpdatedEvent, err)
		return
	}
	e.emit(events.AuctionUpdatedEvent, e.events.AuctionUpdated(events.AuctionUpdated{
		Auction:        a.Digest,
		BestOfferToken: a.Info.BestOffer.Token,
		ConfigID:       a.Info.ConfigID,
		SourceChain:    a.Info.SourceChain,
		EndSlot:        a.Info.EndSlot(params),
		OfferPrice:     a.Info.OfferPrice,
		AmountIn:       a.Info.AmountIn,
		TotalDeposit:   a.Info.AmountIn + a.Info.SecurityDeposit,
	}))
}

func (e *Engine) fastFillCreated(ff *FastFill) {
	if ff == nil {
		return
	}
	e.metrics.fastFills.WithLabelValues("created").Inc()
	e.emit(events.FastFillCreatedEvent, e.events.FastFillCreated(events.FastFillCreated{
		Digest:      ff.Digest,
		SourceChain: ff.Message.Fill.SourceChain,
		Sequence:    ff.Sequence,
		Amount:      ff.Message.Amount,
		Redeemer:    ff.Message.Fill.Redeemer,
	}))
}

// emit logs events that could not be packed. The transition itself has
// already committed.
func (e *Engine) emit(name string, err error) {
	if err != nil {
		e.log.Warn("event not emitted",
			log.String("event", name),
			log.String("reason", err.Error()),
		)
	}
}
