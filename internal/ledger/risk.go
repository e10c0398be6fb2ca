package ledger

import "github.com/stakeline/stakeline/internal/domain"

// RiskBook tracks a cumulative risk score per account. The score measures
// "ever having staked this much", not current exposure: it grows by one point
// per whole token staked and never decreases, including on unstake. That
// asymmetry is a product decision carried over intact.
type RiskBook struct {
	scores map[domain.Account]uint64
}

// NewRiskBook returns an empty risk book.
func NewRiskBook() *RiskBook {
	return &RiskBook{scores: make(map[domain.Account]uint64)}
}

// RecordStake bumps the account's score by amount/1e8 (truncating, so stakes
// below one whole token contribute nothing) and returns the new score.
// Accumulation saturates at the uint64 maximum rather than erroring.
func (r *RiskBook) RecordStake(account domain.Account, amount uint64) uint64 {
	delta := amount / domain.UnitsPerToken
	score, err := CheckedAdd(r.scores[account], delta)
	if err != nil {
		score = ^uint64(0)
	}
	r.scores[account] = score
	return score
}

// Score returns the account's current score, zero when absent.
func (r *RiskBook) Score(account domain.Account) uint64 {
	return r.scores[account]
}

// restore seeds a score during rehydration.
func (r *RiskBook) restore(account domain.Account, score uint64) {
	r.scores[account] = score
}
