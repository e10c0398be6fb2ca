package ledger

import "github.com/stakeline/stakeline/internal/domain"

// ComputeYield returns the yield owed on principal for elapsed blocks at the
// given basis-point rate:
//
//	timeFactor = elapsed / 144      (whole days only)
//	yield      = principal * rate * timeFactor / 10000
//
// Every division truncates toward zero, so rounding always favors the pool
// over the staker, and any span under 144 blocks yields exactly zero.
// A multiplication overflow degrades the result to zero instead of erroring,
// so a distribution can never be blocked by a pathological principal.
func ComputeYield(principal, elapsedBlocks uint64, rateBps uint16) uint64 {
	timeFactor := elapsedBlocks / domain.BlocksPerDay
	if timeFactor == 0 || principal == 0 || rateBps == 0 {
		return 0
	}
	base, err := CheckedMul(principal, uint64(rateBps))
	if err != nil {
		return 0
	}
	scaled, err := CheckedMul(base, timeFactor)
	if err != nil {
		return 0
	}
	return scaled / bpsDenominator
}

// bpsDenominator converts basis points back to a fraction.
const bpsDenominator uint64 = 10_000
