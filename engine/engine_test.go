// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"context"
	"math"
	"testing"

	log "github.com/luxfi/log"
	"github.com/luxfi/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/matchingengine/auction"
	"github.com/luxfi/matchingengine/cctp"
	"github.com/luxfi/matchingengine/custody"
	"github.com/luxfi/matchingengine/guardian"
	"github.com/luxfi/matchingengine/messages"
	"github.com/luxfi/matchingengine/router"
	"github.com/luxfi/matchingengine/vaa"
	"github.com/stretchr/testify/require"
)

const localDomain = 7

var (
	programAddr  = common.HexToAddress("0x0000000000000000000000000000000000000800")
	localRouter  = common.HexToAddress("0x0000000000000000000000000000000000000801")
	feeRecipient = common.HexToAddress("0x0000000000000000000000000000000000000FEE")
	alice        = common.HexToAddress("0xA11CE00000000000000000000000000000000000")
	bob          = common.HexToAddress("0xB0B0000000000000000000000000000000000000")
	carol        = common.HexToAddress("0xCA20100000000000000000000000000000000000")
	dave         = common.HexToAddress("0xDA7E000000000000000000000000000000000000")
	redeemer     = common.HexToAddress("0x0000000000000000000000000000000000000777")

	token      = common.Hash{0xaa}
	ethEmitter = vaa.UniversalAddress{0xee}
	ethMinter  = vaa.UniversalAddress{0x77}
	arbMinter  = vaa.UniversalAddress{0x99}
)

var testParams = auction.Parameters{
	UserPenaltyRewardBps: 250_000,
	InitialPenaltyBps:    250_000,
	Duration:             2,
	GracePeriod:          5,
	PenaltyPeriod:        10,
	MinOfferDeltaBps:     10_000,
	SecurityDepositBase:  4_000,
	SecurityDepositBps:   5_000,
}

type testClock struct {
	slot uint64
	ts   uint64
}

func (c *testClock) Slot() uint64      { return c.slot }
func (c *testClock) Timestamp() uint64 { return c.ts }

type testEnv struct {
	*Engine
	clock     *testClock
	messenger *cctp.Memory
	keys      []*guardian.Key
	nonce     uint64
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Program = programAddr
	cfg.LocalChain = vaa.ChainLux
	cfg.CctpDomain = localDomain
	cfg.Token = token
	cfg.FeeRecipient = feeRecipient
	cfg.AuctionParameters = testParams
	return cfg
}

func newTestEnv(t *testing.T, cfg *Config) *testEnv {
	t.Helper()
	db := memdb.New()
	t.Cleanup(func() { db.Close() })

	keys := make([]*guardian.Key, 3)
	var err error
	for i := range keys {
		keys[i], err = guardian.GenerateKey()
		require.NoError(t, err)
	}
	set := guardian.NewSet(func() uint64 { return 1_700_000_100 })
	require.NoError(t, set.Register(0, guardian.Addresses(keys), 0))

	clock := &testClock{slot: 100, ts: 1_700_000_100}
	messenger := cctp.NewMemory(localDomain, vaa.UniversalAddress(token), vaa.AddressFromHost(programAddr))
	e, err := New(cfg, Deps{
		DB:         db,
		Authority:  set,
		Messenger:  messenger,
		Clock:      clock,
		Registerer: prometheus.NewRegistry(),
		Log:        log.NewTestLogger(level.Info),
	})
	require.NoError(t, err)

	for _, ep := range []router.Endpoint{
		{Chain: vaa.ChainEthereum, Address: ethEmitter, MintRecipient: ethMinter, Protocol: router.Cctp(0)},
		{Chain: vaa.ChainArbitrum, Address: vaa.UniversalAddress{0x88}, MintRecipient: arbMinter, Protocol: router.Cctp(3)},
		{Chain: vaa.ChainLux, Address: vaa.UniversalAddress{0x55}, MintRecipient: vaa.AddressFromHost(programAddr), Protocol: router.Local(localRouter)},
	} {
		require.NoError(t, e.AddEndpoint(ep))
	}
	for _, who := range []common.Address{alice, bob, carol} {
		require.NoError(t, e.custody.Mint(db, who, 2_000_000))
	}

	return &testEnv{
		Engine:    e,
		clock:     clock,
		messenger: messenger,
		keys:      keys,
		nonce:     40,
	}
}

// order returns a signed fast market order from Ethereum to target
func (env *testEnv) order(t *testing.T, target uint16, sequence uint64, edits ...func(*messages.FastMarketOrder)) SignedMessage {
	t.Helper()
	order := messages.FastMarketOrder{
		AmountIn:        1_000_000,
		TargetChain:     target,
		Redeemer:        vaa.AddressFromHost(redeemer),
		Sender:          vaa.UniversalAddress{0x02},
		RefundAddress:   vaa.UniversalAddress{0x03},
		MaxFee:          5_000,
		InitAuctionFee:  100,
		RedeemerMessage: []byte("hello"),
	}
	for _, edit := range edits {
		edit(&order)
	}
	payload, err := order.Encode()
	require.NoError(t, err)
	body := &vaa.Body{
		Timestamp:        1_700_000_000,
		EmitterChain:     vaa.ChainEthereum,
		EmitterAddress:   ethEmitter,
		Sequence:         sequence,
		ConsistencyLevel: 200,
		Payload:          payload,
	}
	sigs, err := guardian.SignQuorum(env.keys, body.Digest())
	require.NoError(t, err)
	return SignedMessage{Body: body, Signatures: sigs}
}

func (env *testEnv) prepareArgs(t *testing.T, fast SignedMessage) PrepareArgs {
	t.Helper()
	desc, err := messages.NewOrderDescriptor(fast.Body)
	require.NoError(t, err)

	env.nonce++
	minter := vaa.AddressFromHost(programAddr)
	msg, att := cctp.Deliver(0, localDomain, env.nonce, vaa.UniversalAddress(token), minter, desc.Order.AmountIn)
	finalized := messages.FinalizedBody(desc, messages.FinalizedArgs{
		ConsistencyLevel:      1,
		BaseFee:               250,
		TokenAddress:          vaa.UniversalAddress(token),
		SourceCctpDomain:      0,
		DestinationCctpDomain: localDomain,
		CctpNonce:             env.nonce,
		BurnSource:            ethMinter,
		MintRecipient:         minter,
	})
	sigs, err := guardian.SignQuorum(env.keys, finalized.Digest())
	require.NoError(t, err)
	return PrepareArgs{
		ConsistencyLevel: 1,
		BaseFee:          250,
		Signatures:       sigs,
		CctpMessage:      msg,
		CctpAttestation:  att,
		PreparedBy:       dave,
		BaseFeeToken:     dave,
	}
}

func (env *testEnv) balance(t *testing.T, who common.Address) uint64 {
	t.Helper()
	bal, err := env.Balance(who)
	require.NoError(t, err)
	return bal
}

func TestEngine_CctpLifecycle(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	fast := env.order(t, vaa.ChainArbitrum, 10)
	digest := fast.Body.Digest()

	a, err := env.PlaceInitialOffer(ctx, fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000})
	require.NoError(t, err)
	require.Equal(t, digest, a.Digest)
	require.Equal(t, router.ProtocolCctp, a.TargetProtocol.Kind)

	env.clock.slot = 101
	_, err = env.ImproveOffer(ctx, digest, auction.OfferArgs{Participant: bob, Token: bob, Price: 8_000})
	require.NoError(t, err)

	env.clock.slot = 102
	res, err := env.ExecuteOrder(ctx, digest, auction.Offer{Participant: bob, Token: bob})
	require.NoError(t, err)
	require.False(t, res.Penalized())
	require.Equal(t, uint64(991_900), res.UserAmount)
	require.Nil(t, res.Outbound.FastFill)

	// User funds were burned and sent to Arbitrum
	sent := env.messenger.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, uint64(991_900), sent[0].Amount)
	require.Equal(t, uint32(3), sent[0].DestinationDomain)
	require.Equal(t, arbMinter, sent[0].MintRecipient)
	require.Zero(t, env.balance(t, programAddr))

	body, err := env.Message(res.Outbound.MessageSequence)
	require.NoError(t, err)
	require.Equal(t, vaa.ChainLux, body.EmitterChain)
	deposit, err := messages.DecodeDeposit(body.Payload)
	require.NoError(t, err)
	require.Equal(t, uint64(991_900), deposit.Amount)
	require.Equal(t, res.Outbound.CctpNonce, deposit.CctpNonce)
	fill, err := messages.DecodeFill(deposit.Payload)
	require.NoError(t, err)
	require.Equal(t, vaa.ChainEthereum, fill.SourceChain)
	require.Equal(t, vaa.AddressFromHost(redeemer), fill.Redeemer)
	require.Equal(t, []byte("hello"), fill.RedeemerMessage)

	_, err = env.PrepareOrderResponse(ctx, fast, env.prepareArgs(t, fast))
	require.NoError(t, err)

	settled, err := env.SettleComplete(ctx, digest, digest)
	require.NoError(t, err)
	require.Equal(t, bob, settled.Disbursement.BestOffer)
	require.Equal(t, uint64(999_750+14_000), settled.Disbursement.BestOfferAmount)

	require.Equal(t, uint64(2_000_100), env.balance(t, alice))
	require.Equal(t, uint64(2_000_000-1_014_000+8_000+999_750+14_000), env.balance(t, bob))
	require.Equal(t, uint64(250), env.balance(t, dave))
	require.Zero(t, env.balance(t, custody.AuctionCustody(programAddr, digest)))

	require.NoError(t, env.CloseAuction(ctx, digest))
	closed, err := env.Auction(digest)
	require.NoError(t, err)
	require.Equal(t, auction.StatusSettled, closed.Status.Kind)
	require.Nil(t, closed.Info)
	require.ErrorIs(t, env.CloseAuction(ctx, digest), ErrAuctionClosed)

	_, err = env.PlaceInitialOffer(ctx, fast, auction.OfferArgs{Participant: carol, Token: carol, Price: 9_000})
	require.ErrorIs(t, err, ErrAlreadyExists)

	require.Equal(t, 1.0, testutil.ToFloat64(env.metrics.auctionsOpened))
	require.Equal(t, 1.0, testutil.ToFloat64(env.metrics.offersImproved))
	require.Equal(t, 1.0, testutil.ToFloat64(env.metrics.ordersExecuted.WithLabelValues("false")))
	require.Equal(t, 1.0, testutil.ToFloat64(env.metrics.auctionsSettled.WithLabelValues("complete")))
	require.Equal(t, 1.0, testutil.ToFloat64(env.metrics.rejected.WithLabelValues(OpPlaceInitialOffer)))

	// AuctionUpdated x2, OrderExecuted, OrderResponsePrepared, AuctionSettled, AuctionClosed
	require.Len(t, env.Logs(), 6)
}

func TestEngine_LocalFastFill(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	fast := env.order(t, vaa.ChainLux, 11)
	digest := fast.Body.Digest()

	a, err := env.PlaceInitialOffer(ctx, fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000})
	require.NoError(t, err)
	require.Equal(t, router.ProtocolLocal, a.TargetProtocol.Kind)

	env.clock.slot = 102
	res, err := env.ExecuteOrder(ctx, digest, auction.Offer{Participant: alice, Token: alice})
	require.NoError(t, err)
	require.Empty(t, env.messenger.Sent())

	ff := res.Outbound.FastFill
	require.NotNil(t, ff)
	require.Equal(t, uint64(0), ff.Sequence)
	require.Equal(t, uint64(989_900), ff.Message.Amount)
	require.Equal(t, uint64(989_900), env.balance(t, custody.FastFillCustody(programAddr, digest)))

	_, err = env.RedeemFastFill(ctx, digest, carol)
	require.ErrorIs(t, err, ErrNotRedeemer)

	redeemed, err := env.RedeemFastFill(ctx, digest, redeemer)
	require.NoError(t, err)
	require.True(t, redeemed.Redeemed)
	require.Equal(t, uint64(989_900), env.balance(t, redeemer))
	require.Zero(t, env.balance(t, custody.FastFillCustody(programAddr, digest)))

	_, err = env.RedeemFastFill(ctx, digest, redeemer)
	require.ErrorIs(t, err, ErrAlreadyRedeemed)

	_, err = env.RedeemFastFill(ctx, common.Hash{0x01}, redeemer)
	require.ErrorIs(t, err, ErrFastFillNotFound)

	require.Equal(t, 1.0, testutil.ToFloat64(env.metrics.fastFills.WithLabelValues("created")))
	require.Equal(t, 1.0, testutil.ToFloat64(env.metrics.fastFills.WithLabelValues("redeemed")))
}

func TestEngine_FastFillSequence(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	require.NoError(t, env.custody.Mint(env.db, alice, 2_000_000))

	for i, seq := range []uint64{20, 21} {
		fast := env.order(t, vaa.ChainLux, seq)
		_, err := env.PlaceInitialOffer(ctx, fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000})
		require.NoError(t, err)
		env.clock.slot += 2
		res, err := env.ExecuteOrder(ctx, fast.Body.Digest(), auction.Offer{Participant: alice, Token: alice})
		require.NoError(t, err)
		require.Equal(t, uint64(i), res.Outbound.FastFill.Sequence)
	}
}

func TestEngine_RejectionsLeaveNoState(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	fast := env.order(t, vaa.ChainArbitrum, 12)
	digest := fast.Body.Digest()
	offer := auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000}

	forged := fast
	other, err := guardian.GenerateKey()
	require.NoError(t, err)
	forged.Signatures, err = guardian.SignQuorum([]*guardian.Key{other, other, other}, digest)
	require.NoError(t, err)
	_, err = env.PlaceInitialOffer(ctx, forged, offer)
	require.ErrorIs(t, err, ErrUnverified)

	unknown := env.order(t, vaa.ChainArbitrum, 12)
	unknown.Body.EmitterAddress = vaa.UniversalAddress{0x66}
	unknown.Signatures, err = guardian.SignQuorum(env.keys, unknown.Body.Digest())
	require.NoError(t, err)
	_, err = env.PlaceInitialOffer(ctx, unknown, offer)
	require.ErrorIs(t, err, ErrInvalidEndpoint)

	_, err = env.PlaceInitialOffer(ctx, fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 999_950})
	require.ErrorIs(t, err, ErrOfferPriceTooHigh)

	_, err = env.Auction(digest)
	require.ErrorIs(t, err, ErrAuctionNotFound)
	require.Equal(t, uint64(2_000_000), env.balance(t, alice))
	require.Equal(t, 3.0, testutil.ToFloat64(env.metrics.rejected.WithLabelValues(OpPlaceInitialOffer)))

	env.SetPaused(true)
	_, err = env.PlaceInitialOffer(ctx, fast, offer)
	require.ErrorIs(t, err, ErrPaused)
	env.SetPaused(false)
	_, err = env.PlaceInitialOffer(ctx, fast, offer)
	require.NoError(t, err)

	// Only the winner may execute before the auction ends
	_, err = env.ExecuteOrder(ctx, digest, auction.Offer{Participant: carol, Token: carol})
	require.ErrorIs(t, err, ErrDeadlineNotReached)
	a, err := env.Auction(digest)
	require.NoError(t, err)
	require.Equal(t, auction.StatusActive, a.Status.Kind)
	require.Equal(t, uint64(1_014_000), env.balance(t, custody.AuctionCustody(programAddr, digest)))
}

func TestEngine_UnrepresentableEscrowRejected(t *testing.T) {
	env := newTestEnv(t, testConfig())
	fast := env.order(t, vaa.ChainArbitrum, 13, func(o *messages.FastMarketOrder) {
		o.MaxFee = math.MaxUint64 - 1
	})
	digest := fast.Body.Digest()

	_, err := env.PlaceInitialOffer(context.Background(), fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000})
	require.ErrorIs(t, err, ErrOverflow)

	_, err = env.Auction(digest)
	require.ErrorIs(t, err, ErrAuctionNotFound)
	require.Equal(t, uint64(2_000_000), env.balance(t, alice))
	require.Zero(t, env.balance(t, custody.AuctionCustody(programAddr, digest)))
	require.Equal(t, 1.0, testutil.ToFloat64(env.metrics.rejected.WithLabelValues(OpPlaceInitialOffer)))
}

func TestEngine_BalanceOverflowIsOverflow(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	full := common.HexToAddress("0x0000000000000000000000000000000000000123")
	require.NoError(t, env.custody.Mint(env.db, full, math.MaxUint64))

	fast := env.order(t, vaa.ChainArbitrum, 15)
	a, err := env.PlaceInitialOffer(ctx, fast, auction.OfferArgs{Participant: alice, Token: full, Price: 10_000})
	require.NoError(t, err)

	// The refund to the outbid token cannot be credited
	_, err = env.ImproveOffer(ctx, a.Digest, auction.OfferArgs{Participant: bob, Token: bob, Price: 9_000})
	require.ErrorIs(t, err, ErrOverflow)
	require.Equal(t, uint64(2_000_000), env.balance(t, bob))
	got, err := env.Auction(a.Digest)
	require.NoError(t, err)
	require.Equal(t, alice, got.Info.BestOffer.Participant)
}

func TestEngine_ProposedConfigSurvivesRestart(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()

	next := testParams
	next.Duration = 40
	require.NoError(t, env.ProposeAuctionConfig(auction.Config{ID: 2, Parameters: next}))
	require.ErrorIs(t, env.ProposeAuctionConfig(auction.Config{ID: 2, Parameters: next}), auction.ErrInvalidParameters)

	fast := env.order(t, vaa.ChainArbitrum, 14)
	a, err := env.PlaceInitialOffer(ctx, fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000})
	require.NoError(t, err)
	require.Equal(t, uint32(2), a.Info.ConfigID)

	restarted, err := New(testConfig(), Deps{
		DB:         env.db,
		Messenger:  env.messenger,
		Clock:      env.clock,
		Registerer: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	env.clock.slot = 130
	improved, err := restarted.ImproveOffer(ctx, a.Digest, auction.OfferArgs{Participant: bob, Token: bob, Price: 9_000})
	require.NoError(t, err)
	require.Equal(t, uint64(9_000), improved.Info.OfferPrice)
}

func TestEngine_SettleNone(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	fast := env.order(t, vaa.ChainArbitrum, 13)
	digest := fast.Body.Digest()

	_, err := env.PrepareOrderResponse(ctx, fast, env.prepareArgs(t, fast))
	require.NoError(t, err)

	res, err := env.SettleNone(ctx, digest)
	require.NoError(t, err)
	require.Equal(t, uint64(999_750), res.Disbursement.UserAmount)
	require.NotNil(t, res.Outbound)
	require.Equal(t, uint64(250), env.balance(t, feeRecipient))

	sent := env.messenger.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, uint64(999_750), sent[0].Amount)

	_, err = env.PlaceInitialOffer(ctx, fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000})
	require.ErrorIs(t, err, ErrAlreadyExists)
	_, err = env.SettleNone(ctx, digest)
	require.ErrorIs(t, err, ErrPreparedNotFound)
	require.ErrorIs(t, env.CloseAuction(ctx, digest), ErrAuctionClosed)
	require.Equal(t, 1.0, testutil.ToFloat64(env.metrics.auctionsSettled.WithLabelValues("none")))
}

func TestEngine_SettleNoneLocal(t *testing.T) {
	env := newTestEnv(t, testConfig())
	ctx := context.Background()
	fast := env.order(t, vaa.ChainLux, 14)
	digest := fast.Body.Digest()

	_, err := env.PrepareOrderResponse(ctx, fast, env.prepareArgs(t, fast))
	require.NoError(t, err)
	res, err := env.SettleNone(ctx, digest)
	require.NoError(t, err)
	require.NotNil(t, res.Outbound.FastFill)

	_, err = env.RedeemFastFill(ctx, digest, redeemer)
	require.NoError(t, err)
	require.Equal(t, uint64(999_750), env.balance(t, redeemer))
}

func TestEngine_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Upgrade.Disable = true
	env := newTestEnv(t, cfg)
	fast := env.order(t, vaa.ChainArbitrum, 15)
	_, err := env.PlaceInitialOffer(context.Background(), fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000})
	require.ErrorIs(t, err, ErrDisabled)

	cfg = testConfig()
	activation := uint64(1_800_000_000)
	cfg.Upgrade.BlockTimestamp = &activation
	env = newTestEnv(t, cfg)
	fast = env.order(t, vaa.ChainArbitrum, 15)
	_, err = env.PlaceInitialOffer(context.Background(), fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000})
	require.ErrorIs(t, err, ErrDisabled)

	env.clock.ts = activation
	_, err = env.PlaceInitialOffer(context.Background(), fast, auction.OfferArgs{Participant: alice, Token: alice, Price: 10_000})
	require.NoError(t, err)
}

func TestEngine_MetricsRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	deps := Deps{
		DB:         memdb.New(),
		Messenger:  cctp.NewMemory(localDomain, vaa.UniversalAddress(token), vaa.AddressFromHost(programAddr)),
		Clock:      &testClock{},
		Registerer: reg,
	}
	_, err := New(testConfig(), deps)
	require.NoError(t, err)
	_, err = New(testConfig(), deps)
	require.Error(t, err)

	deps.Clock = nil
	deps.Registerer = nil
	_, err = New(testConfig(), deps)
	require.ErrorIs(t, err, ErrInvalidConfig)
}
