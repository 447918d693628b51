// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package settlement

import (
	"context"
	"errors"
	"fmt"
	"math"

	log "github.com/luxfi/log"
	"github.com/luxfi/log/level"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/auction"
	"github.com/luxfi/matchingengine/cctp"
	"github.com/luxfi/matchingengine/custody"
	"github.com/luxfi/matchingengine/guardian"
	"github.com/luxfi/matchingengine/messages"
	"github.com/luxfi/matchingengine/router"
	"github.com/luxfi/matchingengine/state"
	"github.com/luxfi/matchingengine/vaa"
)

const preparedPrefix = "settlement/prepared"

// Config wires a Reconciler to its collaborators
type Config struct {
	Program   *custody.Program
	Custody   *custody.Ledger
	Auctions  *auction.Ledger
	Registry  *router.Registry
	Gateway   *guardian.Gateway
	Messenger cctp.Messenger

	// Token is the bridged token as it appears in deposits
	Token vaa.UniversalAddress
	// MintRecipient is the account the bridge mints deposits to
	MintRecipient vaa.UniversalAddress

	Log log.Logger
}

// Reconciler prepares finalized deposits and settles auctions against them
type Reconciler struct {
	program   *custody.Program
	custody   *custody.Ledger
	auctions  *auction.Ledger
	registry  *router.Registry
	gateway   *guardian.Gateway
	messenger cctp.Messenger

	token         vaa.UniversalAddress
	mintRecipient vaa.UniversalAddress

	log log.Logger
}

func New(cfg Config) *Reconciler {
	logger := cfg.Log
	if logger == nil {
		logger = log.NewTestLogger(level.Info)
	}
	return &Reconciler{
		program:       cfg.Program,
		custody:       cfg.Custody,
		auctions:      cfg.Auctions,
		registry:      cfg.Registry,
		gateway:       cfg.Gateway,
		messenger:     cfg.Messenger,
		token:         cfg.Token,
		mintRecipient: cfg.MintRecipient,
		log:           logger,
	}
}

// Get loads the prepared order response keyed by digest
func (r *Reconciler) Get(kv state.KV, digest common.Hash) (*PreparedOrderResponse, error) {
	p := &PreparedOrderResponse{}
	found, err := state.GetRecord(kv, preparedKey(digest), p)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrPreparedNotFound, digest.Hex())
	}
	return p, nil
}

// CustodyAuthority grants control of the prepared custody account of digest
func (r *Reconciler) CustodyAuthority(digest common.Hash) custody.Authority {
	return r.program.Authority([]byte(custody.SeedPreparedCustody), digest[:])
}

// PrepareOrderResponse authenticates the finalized deposit backing an order,
// redeems its bridge message and holds the minted principal in prepared
// custody until settlement.
func (r *Reconciler) PrepareOrderResponse(ctx context.Context, kv state.KV, args PrepareArgs) (*PreparedOrderResponse, error) {
	desc := args.Order
	order := &desc.Order

	from, to, err := r.registry.LivePath(desc.Provenance.SourceChain, order.TargetChain)
	if err != nil {
		return nil, err
	}
	if !from.MatchesEmitter(desc.Provenance.SourceChain, desc.Provenance.Emitter) {
		return nil, fmt.Errorf("%w: emitter %s is not registered for chain %d",
			router.ErrInvalidEndpoint, desc.Provenance.Emitter, desc.Provenance.SourceChain)
	}
	switch to.Protocol.Kind {
	case router.ProtocolCctp, router.ProtocolLocal:
	default:
		return nil, fmt.Errorf("%w: %s target", router.ErrInvalidEndpoint, to.Protocol.Kind)
	}
	if to.Chain != order.TargetChain {
		return nil, fmt.Errorf("%w: endpoint chain %d, order target %d", ErrInvalidTargetRouter, to.Chain, order.TargetChain)
	}

	auth := r.CustodyAuthority(desc.Digest)
	if args.BaseFeeToken == (common.Address{}) || args.BaseFeeToken == auth.Account() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidBaseFeeToken, args.BaseFeeToken.Hex())
	}

	msg, err := cctp.ParseMessage(args.CctpMessage)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCctpMessage, err)
	}
	// Redeeming consumes the message nonce, so everything that could reject
	// the message is checked first.
	burn, err := cctp.ParseBurnMessage(msg.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCctpMessage, err)
	}
	if burn.BurnToken != r.token {
		return nil, fmt.Errorf("%w: burn token %s", ErrInvalidCctpMessage, burn.BurnToken)
	}
	if burn.MintRecipient != r.mintRecipient {
		return nil, fmt.Errorf("%w: mint recipient %s", ErrInvalidCctpMessage, burn.MintRecipient)
	}
	if burn.Amount != order.AmountIn {
		return nil, fmt.Errorf("%w: burned %d, amount in %d", ErrMintMismatch, burn.Amount, order.AmountIn)
	}
	finalized := messages.FinalizedBody(desc, messages.FinalizedArgs{
		ConsistencyLevel:      args.ConsistencyLevel,
		BaseFee:               args.BaseFee,
		TokenAddress:          r.token,
		SourceCctpDomain:      msg.SourceDomain,
		DestinationCctpDomain: msg.DestinationDomain,
		CctpNonce:             msg.Nonce,
		BurnSource:            from.MintRecipient,
		MintRecipient:         r.mintRecipient,
	})

	has, err := kv.Has(preparedKey(desc.Digest))
	if err != nil {
		return nil, err
	}
	if has {
		return nil, fmt.Errorf("%w: prepared order response %s", ErrAlreadyExists, desc.Digest.Hex())
	}

	if err := r.gateway.Verify(ctx, finalized.Signed(args.GuardianSetIndex, args.Signatures)); err != nil {
		return nil, err
	}

	if err := r.custody.Open(kv, auth); err != nil {
		return nil, err
	}
	minted, err := r.messenger.ReceiveAndMint(ctx, args.CctpMessage, args.CctpAttestation)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCctpMessage, err)
	}
	if minted != order.AmountIn {
		return nil, fmt.Errorf("%w: minted %d, amount in %d", ErrMintMismatch, minted, order.AmountIn)
	}
	if err := r.custody.Mint(kv, auth.Account(), minted); err != nil {
		return nil, err
	}

	p := &PreparedOrderResponse{
		Digest:           desc.Digest,
		PreparedBy:       args.PreparedBy,
		BaseFeeToken:     args.BaseFeeToken,
		SourceChain:      desc.Provenance.SourceChain,
		BaseFee:          args.BaseFee,
		FastVaaTimestamp: desc.VaaTimestamp,
		FastVaaSequence:  desc.Provenance.Sequence,
		AmountIn:         order.AmountIn,
		Sender:           order.Sender,
		Redeemer:         order.Redeemer,
		InitAuctionFee:   order.InitAuctionFee,
		ToEndpoint:       to,
		RedeemerMessage:  append([]byte(nil), order.RedeemerMessage...),
	}
	if err := state.PutRecord(kv, preparedKey(p.Digest), p); err != nil {
		return nil, err
	}

	r.log.Info("order response prepared",
		log.String("digest", p.Digest.Hex()),
		log.String("finalizedDigest", finalized.Digest().Hex()),
		log.Int("baseFee", int(p.BaseFee)),
	)
	return p, nil
}

// SettleComplete pays out an executed auction. The best offer receives the
// principal less the base fee plus whatever of its deposit was not forfeited;
// the executor receives the penalty.
func (r *Reconciler) SettleComplete(kv state.KV, auctionDigest, preparedDigest common.Hash) (*Disbursement, error) {
	a, err := r.auctions.Get(kv, auctionDigest)
	if err != nil {
		return nil, err
	}
	if a.Status.Kind == auction.StatusSettled {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySettled, auctionDigest.Hex())
	}
	p, err := r.Get(kv, preparedDigest)
	if err != nil {
		return nil, err
	}
	if p.Digest != a.Digest {
		return nil, fmt.Errorf("%w: auction %s, prepared %s", ErrKeyMismatch, a.Digest.Hex(), p.Digest.Hex())
	}
	if a.Status.Kind != auction.StatusCompleted || a.Info == nil {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotCompleted, a.Digest.Hex(), a.Status.Kind)
	}

	info, status := a.Info, a.Status
	forfeit, ok := checkedAdd(status.Penalty, status.UserReward)
	if !ok {
		return nil, fmt.Errorf("%w: forfeit of %s", ErrOverflow, a.Digest.Hex())
	}
	deposit, ok := checkedSub(info.SecurityDeposit, forfeit)
	if !ok {
		return nil, fmt.Errorf("%w: forfeit %d exceeds deposit %d", ErrOverflow, forfeit, info.SecurityDeposit)
	}
	principal, ok := checkedSub(p.AmountIn, p.BaseFee)
	if !ok {
		return nil, fmt.Errorf("%w: base fee %d exceeds amount in %d", ErrOverflow, p.BaseFee, p.AmountIn)
	}
	bestAmount, ok := checkedAdd(principal, deposit)
	if !ok {
		return nil, fmt.Errorf("%w: best offer payout of %s", ErrOverflow, a.Digest.Hex())
	}

	prepared := r.CustodyAuthority(p.Digest)
	escrow := r.auctions.CustodyAuthority(a.Digest)
	if err := r.custody.Transfer(kv, prepared, p.BaseFeeToken, p.BaseFee); err != nil {
		return nil, err
	}
	if err := r.custody.Transfer(kv, prepared, info.BestOffer.Token, principal); err != nil {
		return nil, err
	}
	if err := r.custody.Transfer(kv, escrow, info.BestOffer.Token, deposit); err != nil {
		return nil, err
	}
	if err := r.custody.Transfer(kv, escrow, status.Executor, status.Penalty); err != nil {
		return nil, err
	}
	if err := r.release(kv, p); err != nil {
		return nil, err
	}

	a.Status = auction.Status{
		Kind:         auction.StatusSettled,
		Fee:          p.BaseFee,
		TotalPenalty: forfeit,
	}
	if err := r.auctions.Put(kv, a); err != nil {
		return nil, err
	}

	r.log.Info("auction settled",
		log.String("digest", a.Digest.Hex()),
		log.String("bestOffer", info.BestOffer.Token.Hex()),
		log.Int("baseFee", int(p.BaseFee)),
		log.Int("penalty", int(status.Penalty)),
	)
	return &Disbursement{
		BestOffer:       info.BestOffer.Token,
		BestOfferAmount: bestAmount,
		Executor:        status.Executor,
		ExecutorAmount:  status.Penalty,
		BaseFeeToken:    p.BaseFeeToken,
		BaseFee:         p.BaseFee,
	}, nil
}

// SettleNone settles an order nobody bid on. The fee recipient keeps the base
// fee and the rest is moved to outbound for delivery to the redeemer. An
// auction record is written as settled so the order can never be auctioned.
func (r *Reconciler) SettleNone(kv state.KV, preparedDigest common.Hash, feeRecipient, outbound common.Address) (*Disbursement, *PreparedOrderResponse, error) {
	p, err := r.Get(kv, preparedDigest)
	if err != nil {
		return nil, nil, err
	}
	if existing, err := r.auctions.Get(kv, p.Digest); err == nil {
		if existing.Status.Kind == auction.StatusSettled {
			return nil, nil, fmt.Errorf("%w: %s", ErrAlreadySettled, p.Digest.Hex())
		}
		return nil, nil, fmt.Errorf("%w: %s has an auction", ErrAlreadyExists, p.Digest.Hex())
	} else if !isNotFound(err) {
		return nil, nil, err
	}

	principal, ok := checkedSub(p.AmountIn, p.BaseFee)
	if !ok {
		return nil, nil, fmt.Errorf("%w: base fee %d exceeds amount in %d", ErrOverflow, p.BaseFee, p.AmountIn)
	}
	prepared := r.CustodyAuthority(p.Digest)
	if err := r.custody.Transfer(kv, prepared, feeRecipient, p.BaseFee); err != nil {
		return nil, nil, err
	}
	if err := r.custody.Transfer(kv, prepared, outbound, principal); err != nil {
		return nil, nil, err
	}
	if err := r.release(kv, p); err != nil {
		return nil, nil, err
	}

	a := &auction.Auction{
		Digest:         p.Digest,
		Status:         auction.Status{Kind: auction.StatusSettled, Fee: p.BaseFee},
		TargetProtocol: p.ToEndpoint.Protocol,
		PreparedBy:     p.PreparedBy,
		VaaTimestamp:   p.FastVaaTimestamp,
		VaaSequence:    p.FastVaaSequence,
	}
	if err := r.auctions.Put(kv, a); err != nil {
		return nil, nil, err
	}

	r.log.Info("order settled without auction",
		log.String("digest", p.Digest.Hex()),
		log.Int("baseFee", int(p.BaseFee)),
	)
	return &Disbursement{
		BaseFeeToken: feeRecipient,
		BaseFee:      p.BaseFee,
		UserAmount:   principal,
	}, p, nil
}

// Helper functions

func (r *Reconciler) release(kv state.KV, p *PreparedOrderResponse) error {
	if err := r.custody.Close(kv, r.CustodyAuthority(p.Digest)); err != nil {
		return err
	}
	return kv.Delete(preparedKey(p.Digest))
}

func preparedKey(digest common.Hash) []byte {
	return state.Key(preparedPrefix, digest[:])
}

func isNotFound(err error) bool {
	return errors.Is(err, auction.ErrAuctionNotFound)
}

func checkedAdd(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}
	return a + b, true
}

func checkedSub(a, b uint64) (uint64, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}
