package ledger

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeYield(t *testing.T) {
	tests := []struct {
		name      string
		principal uint64
		elapsed   uint64
		rateBps   uint16
		want      uint64
	}{
		{"one day at 5%", 1_000_000, 144, 500, 50_000},
		{"two days at 5%", 1_000_000, 288, 500, 100_000},
		{"partial day truncates to day", 1_000_000, 287, 500, 50_000},
		{"zero principal", 0, 1_440, 500, 0},
		{"zero rate", 1_000_000, 1_440, 0, 0},
		{"full rate one day", 1_000_000, 144, 10_000, 1_000_000},
		{"sub-unit principal rounds down", 19, 144, 500, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComputeYield(tt.principal, tt.elapsed, tt.rateBps))
		})
	}
}

func TestComputeYieldUnderOneDayIsZero(t *testing.T) {
	for _, principal := range []uint64{1, 1_000_000, math.MaxUint64} {
		for _, rate := range []uint16{1, 500, 10_000} {
			for elapsed := uint64(0); elapsed < 144; elapsed += 13 {
				require.Zero(t, ComputeYield(principal, elapsed, rate),
					"principal=%d elapsed=%d rate=%d", principal, elapsed, rate)
			}
			require.Zero(t, ComputeYield(principal, 143, rate))
		}
	}
}

func TestComputeYieldOverflowDegradesToZero(t *testing.T) {
	// principal * rate overflows uint64; the distribution must not abort.
	require.Zero(t, ComputeYield(math.MaxUint64, 144, 2))
	// principal * rate fits but the timeFactor multiply overflows.
	require.Zero(t, ComputeYield(math.MaxUint64/10_000, math.MaxUint64, 10_000))
}

// TestComputeYieldNeverExceedsExact checks the round-down guarantee against
// exact rational arithmetic.
func TestComputeYieldNeverExceedsExact(t *testing.T) {
	cases := []struct {
		principal uint64
		elapsed   uint64
		rateBps   uint16
	}{
		{1, 144, 1},
		{999, 145, 3},
		{1_000_000, 144, 500},
		{123_456_789, 1_000, 777},
		{math.MaxUint64 / 10_001, 288, 10_000},
	}
	for _, c := range cases {
		got := ComputeYield(c.principal, c.elapsed, c.rateBps)

		exact := new(big.Int).SetUint64(c.principal)
		exact.Mul(exact, new(big.Int).SetUint64(uint64(c.rateBps)))
		exact.Mul(exact, new(big.Int).SetUint64(c.elapsed))
		exact.Div(exact, big.NewInt(144*10_000))

		require.LessOrEqual(t, new(big.Int).SetUint64(got).Cmp(exact), 0,
			"principal=%d elapsed=%d rate=%d", c.principal, c.elapsed, c.rateBps)
	}
}
