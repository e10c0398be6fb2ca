package ledger

import "github.com/stakeline/stakeline/internal/domain"

// InsuranceBook tracks per-account insurance coverage. Coverage mirrors stake
// changes only while insurance is enabled; while disabled it is frozen in
// both directions, and toggling the flag never retroactively rewrites
// existing coverage.
type InsuranceBook struct {
	coverage map[domain.Account]uint64
}

// NewInsuranceBook returns an empty insurance book.
func NewInsuranceBook() *InsuranceBook {
	return &InsuranceBook{coverage: make(map[domain.Account]uint64)}
}

// PlanProvision computes the account's post-stake coverage without writing,
// so the caller can validate the whole transition before its first commit.
// Returns the current coverage unchanged when disabled.
func (b *InsuranceBook) PlanProvision(account domain.Account, amount uint64, enabled bool) (uint64, error) {
	current := b.coverage[account]
	if !enabled {
		return current, nil
	}
	return CheckedAdd(current, amount)
}

// ReduceOnUnstake shrinks the account's coverage by amount, floored at zero,
// when enabled. A no-op when disabled.
func (b *InsuranceBook) ReduceOnUnstake(account domain.Account, amount uint64, enabled bool) {
	if !enabled {
		return
	}
	current := b.coverage[account]
	if amount >= current {
		b.coverage[account] = 0
		return
	}
	b.coverage[account] = current - amount
}

// Coverage returns the account's coverage, zero when absent.
func (b *InsuranceBook) Coverage(account domain.Account) uint64 {
	return b.coverage[account]
}

// set overwrites an account's coverage with an already-validated value.
// Used to commit a precomputed provision and to rehydrate snapshots.
func (b *InsuranceBook) set(account domain.Account, coverage uint64) {
	b.coverage[account] = coverage
}
