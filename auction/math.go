// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"math"

	"github.com/holiman/uint256"
)

// MulBps returns amount * bps / FeePrecisionMax. bps above the precision is
// clamped, so the result always fits in amount.
func MulBps(amount uint64, bps uint32) uint64 {
	if bps > FeePrecisionMax {
		bps = FeePrecisionMax
	}
	x := new(uint256.Int).SetUint64(amount)
	x.Mul(x, uint256.NewInt(uint64(bps)))
	x.Div(x, uint256.NewInt(uint64(FeePrecisionMax)))
	return x.Uint64()
}

// NotionalDeposit is the part of the security deposit proportional to the order size
func NotionalDeposit(params *Parameters, amountIn uint64) uint64 {
	return saturatingAdd(MulBps(amountIn, params.SecurityDepositBps), params.SecurityDepositBase)
}

// SecurityDeposit is max fee plus the notional deposit. It saturates; the
// checked add at escrow time rejects totals that cannot be represented.
func SecurityDeposit(params *Parameters, amountIn, maxFee uint64) uint64 {
	return saturatingAdd(maxFee, NotionalDeposit(params, amountIn))
}

// MinOfferDelta is the smallest improvement over price a new offer must make
func MinOfferDelta(params *Parameters, price uint64) uint64 {
	return MulBps(price, params.MinOfferDeltaBps)
}

// ComputeDepositPenalty returns what an executor earns at currentSlot. Nothing
// is forfeited until the grace period after the auction end has passed. The
// penalty then starts at InitialPenaltyBps of the deposit and grows linearly
// to the whole deposit over PenaltyPeriod slots. The user's share of the
// forfeit is UserPenaltyRewardBps.
func ComputeDepositPenalty(params *Parameters, info *Info, currentSlot uint64) DepositPenalty {
	end := saturatingAdd(info.StartSlot, uint64(params.Duration))
	if currentSlot <= end {
		return DepositPenalty{}
	}
	late := currentSlot - end
	if late <= uint64(params.GracePeriod) {
		return DepositPenalty{}
	}

	deposit := info.SecurityDeposit
	elapsed := late - uint64(params.GracePeriod)
	if elapsed >= uint64(params.PenaltyPeriod) || params.InitialPenaltyBps == FeePrecisionMax {
		return splitUserReward(params, deposit)
	}

	base := MulBps(deposit, params.InitialPenaltyBps)
	growth := new(uint256.Int).SetUint64(deposit - base)
	growth.Mul(growth, uint256.NewInt(elapsed))
	growth.Div(growth, uint256.NewInt(uint64(params.PenaltyPeriod)))
	return splitUserReward(params, base+growth.Uint64())
}

// Helper functions

func splitUserReward(params *Parameters, amount uint64) DepositPenalty {
	reward := MulBps(amount, params.UserPenaltyRewardBps)
	return DepositPenalty{
		Penalty:    amount - reward,
		UserReward: reward,
	}
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
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
