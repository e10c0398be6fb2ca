// Package ledger implements the deterministic state-transition core of the
// staking pool: overflow-checked arithmetic, the receipt-token ledger, risk
// scoring, insurance coverage, yield accrual, and the pool state machine that
// composes them. The package performs no I/O; every mutating operation is an
// atomic transition driven by a caller identity and block height injected per
// call.
package ledger

import (
	"math/bits"

	"github.com/stakeline/stakeline/internal/domain"
)

// CheckedAdd returns a+b or domain.ErrOverflow. It never wraps.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, domain.ErrOverflow
	}
	return sum, nil
}

// CheckedMul returns a*b or domain.ErrOverflow. It never wraps.
func CheckedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, domain.ErrOverflow
	}
	return lo, nil
}
