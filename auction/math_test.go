// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package auction

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMulBps(t *testing.T) {
	require.Equal(t, uint64(5_000), MulBps(1_000_000, 5_000))
	require.Equal(t, uint64(1_000_000), MulBps(1_000_000, FeePrecisionMax))
	require.Equal(t, uint64(1_000_000), MulBps(1_000_000, FeePrecisionMax+1))
	require.Zero(t, MulBps(99, 10_000))
	require.Equal(t, uint64(math.MaxUint64), MulBps(math.MaxUint64, FeePrecisionMax))
	require.Equal(t, uint64(math.MaxUint64/2), MulBps(math.MaxUint64, FeePrecisionMax/2))
}

func TestSecurityDeposit(t *testing.T) {
	params := testParameters()
	require.Equal(t, uint64(9_000), NotionalDeposit(&params, 1_000_000))
	require.Equal(t, uint64(14_000), SecurityDeposit(&params, 1_000_000, 5_000))

	// Accrual saturates rather than wrapping
	require.Equal(t, uint64(math.MaxUint64), SecurityDeposit(&params, 1_000_000, math.MaxUint64-1))
	params.SecurityDepositBase = math.MaxUint64
	require.Equal(t, uint64(math.MaxUint64), NotionalDeposit(&params, 1))
}

func TestMinOfferDelta(t *testing.T) {
	params := testParameters()
	require.Equal(t, uint64(100), MinOfferDelta(&params, 10_000))
	require.Equal(t, uint64(80), MinOfferDelta(&params, 8_000))
	params.MinOfferDeltaBps = 0
	require.Zero(t, MinOfferDelta(&params, 8_000))
}

func TestComputeDepositPenalty(t *testing.T) {
	params := testParameters()
	info := &Info{StartSlot: 100, SecurityDeposit: 14_000}

	tests := []struct {
		name    string
		slot    uint64
		penalty uint64
		reward  uint64
	}{
		{"before end", 101, 0, 0},
		{"at end", 102, 0, 0},
		{"end of grace", 107, 0, 0},
		{"first penalized slot", 108, 3_413, 1_137},
		{"half way", 112, 6_563, 2_187},
		{"penalty period over", 117, 10_500, 3_500},
		{"long after", 10_000, 10_500, 3_500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeDepositPenalty(&params, info, tt.slot)
			require.Equal(t, DepositPenalty{Penalty: tt.penalty, UserReward: tt.reward}, got)
		})
	}
}

func TestComputeDepositPenalty_FullInitialPenalty(t *testing.T) {
	params := testParameters()
	params.InitialPenaltyBps = FeePrecisionMax
	require.NoError(t, params.Verify())

	got := ComputeDepositPenalty(&params, &Info{StartSlot: 0, SecurityDeposit: 1_000}, 8)
	require.Equal(t, DepositPenalty{Penalty: 750, UserReward: 250}, got)
}

func TestComputeDepositPenalty_NeverExceedsDeposit(t *testing.T) {
	params := testParameters()
	info := &Info{StartSlot: 0, SecurityDeposit: math.MaxUint64}
	for slot := uint64(0); slot < 30; slot++ {
		got := ComputeDepositPenalty(&params, info, slot)
		require.LessOrEqual(t, got.UserReward, math.MaxUint64-got.Penalty)
	}
}

func TestParameters_Verify(t *testing.T) {
	params := testParameters()
	require.NoError(t, params.Verify())

	bad := params
	bad.Duration = 0
	require.ErrorIs(t, bad.Verify(), ErrInvalidParameters)

	bad = params
	bad.MinOfferDeltaBps = FeePrecisionMax + 1
	require.ErrorIs(t, bad.Verify(), ErrInvalidParameters)

	bad = params
	bad.PenaltyPeriod = 0
	require.ErrorIs(t, bad.Verify(), ErrInvalidParameters)

	bad = params
	bad.PenaltyPeriod = 0
	bad.InitialPenaltyBps = FeePrecisionMax
	require.ErrorIs(t, bad.Verify(), ErrInvalidParameters)

	bad = params
	bad.GracePeriod = 0
	require.ErrorIs(t, bad.Verify(), ErrInvalidParameters)

	bad = params
	bad.SecurityDepositBase = 0
	require.ErrorIs(t, bad.Verify(), ErrInvalidParameters)
}

func TestStatusKind_String(t *testing.T) {
	require.Equal(t, "active", StatusActive.String())
	require.Equal(t, "completed", StatusCompleted.String())
	require.Equal(t, "settled", StatusSettled.String())
	require.Equal(t, "status(7)", StatusKind(7).String())
}
