package ledger

import (
	"sort"

	"github.com/stakeline/stakeline/internal/domain"
)

// Call carries the environment facts the host injects into every state
// transition: who is calling and at what block height. The pool never reads a
// clock or an identity source itself.
type Call struct {
	Caller domain.Account
	Height uint64
}

// Pool is the staking pool state machine. It owns the scalar pool state and
// every per-account map, and composes the token ledger, risk book, insurance
// book, and yield math under authorization and lifecycle checks.
//
// Pool is not safe for concurrent use. The host (the service layer) serializes
// calls, mirroring the one-transaction-per-block execution model, and each
// call either fully commits or leaves no trace: every operation finishes all
// checked arithmetic before its first map write.
type Pool struct {
	owner  domain.Account
	name   string
	symbol string

	state   domain.PoolState
	token   *TokenLedger
	risk    *RiskBook
	insure  *InsuranceBook
	rewards map[domain.Account]uint64
	history map[uint64]domain.Distribution
}

// NewPool creates an uninitialized pool owned by owner. The owner identity is
// fixed for the pool's lifetime; there is no transfer-ownership operation.
func NewPool(owner domain.Account, name, symbol string) *Pool {
	return &Pool{
		owner:   owner.Normalize(),
		name:    name,
		symbol:  symbol,
		token:   NewTokenLedger(),
		risk:    NewRiskBook(),
		insure:  NewInsuranceBook(),
		rewards: make(map[domain.Account]uint64),
		history: make(map[uint64]domain.Distribution),
	}
}

// Initialize activates the pool with the given yield rate and anchors the
// distribution clock at the current height. It can succeed exactly once.
func (p *Pool) Initialize(call Call, rateBps uint16) error {
	if call.Caller.Normalize() != p.owner {
		return domain.ErrUnauthorized
	}
	if p.state.Active {
		return domain.ErrAlreadyInitialized
	}
	if rateBps > domain.MaxRateBps {
		return domain.ErrInvalidAmount
	}
	p.state.Active = true
	p.state.YieldRateBps = rateBps
	p.state.LastDistribution = call.Height
	return nil
}

// Stake mints amount receipt tokens to the caller, grows the staked total,
// records the risk score, and provisions insurance coverage when enabled.
func (p *Pool) Stake(call Call, amount uint64) error {
	if !p.state.Active {
		return domain.ErrPoolInactive
	}
	if p.state.Paused {
		return domain.ErrPoolPaused
	}
	if amount < domain.MinStake {
		return domain.ErrMinimumStakeNotMet
	}
	caller := call.Caller.Normalize()

	// Validate every checked step before the first write.
	newTotal, err := CheckedAdd(p.state.TotalStaked, amount)
	if err != nil {
		return domain.ErrOverflow
	}
	newCoverage, err := p.insure.PlanProvision(caller, amount, p.state.InsuranceEnabled)
	if err != nil {
		return domain.ErrOverflow
	}
	if err := p.token.Mint(caller, amount); err != nil {
		return domain.ErrMintFailed
	}

	// Everything below is infallible; the transition is committed.
	p.state.TotalStaked = newTotal
	p.risk.RecordStake(caller, amount)
	if p.state.InsuranceEnabled {
		p.insure.set(caller, newCoverage)
	}
	return nil
}

// Unstake burns amount receipt tokens from the caller, shrinks the staked
// total, and reduces insurance coverage (floored at zero) when enabled.
// Pending rewards are left untouched; claiming is a separate call.
func (p *Pool) Unstake(call Call, amount uint64) error {
	if !p.state.Active {
		return domain.ErrPoolInactive
	}
	if p.state.Paused {
		return domain.ErrPoolPaused
	}
	if amount == 0 {
		return domain.ErrInvalidAmount
	}
	caller := call.Caller.Normalize()
	if p.token.BalanceOf(caller) < amount {
		return domain.ErrInsufficientBalance
	}

	if err := p.token.Burn(caller, amount); err != nil {
		return domain.ErrBurnFailed
	}
	// TotalStaked equals the supply, so the burn check covers this subtraction.
	p.state.TotalStaked -= amount
	p.insure.ReduceOnUnstake(caller, amount, p.state.InsuranceEnabled)
	return nil
}

// DistributeYield accrues yield over the whole staked total for the blocks
// elapsed since the last distribution, records a history entry at the current
// height, and advances the distribution clock. Owner-only, at most once per
// 144-block window.
func (p *Pool) DistributeYield(call Call) (uint64, error) {
	if call.Caller.Normalize() != p.owner {
		return 0, domain.ErrUnauthorized
	}
	if !p.state.Active {
		return 0, domain.ErrPoolInactive
	}
	elapsed := heightDelta(call.Height, p.state.LastDistribution)
	if elapsed < domain.BlocksPerDay {
		return 0, domain.ErrYieldNotYetDue
	}

	amount := ComputeYield(p.state.TotalStaked, elapsed, p.state.YieldRateBps)
	newAccrued, err := CheckedAdd(p.state.TotalYieldAccrued, amount)
	if err != nil {
		return 0, domain.ErrOverflow
	}

	p.state.TotalYieldAccrued = newAccrued
	p.history[call.Height] = domain.Distribution{
		Height:  call.Height,
		Amount:  amount,
		RateBps: p.state.YieldRateBps,
	}
	p.state.LastDistribution = call.Height
	return amount, nil
}

// ClaimRewards mints the caller's accumulated yield into their balance and
// clears their pending rewards. The fresh portion is recomputed from the
// balance held now over the blocks since the last distribution, so every
// staker claiming after the same distribution gets the same rate scaled by
// their own current balance. The minted amount also joins TotalStaked,
// keeping the staked total equal to the token supply.
func (p *Pool) ClaimRewards(call Call) (uint64, error) {
	if !p.state.Active {
		return 0, domain.ErrPoolInactive
	}
	caller := call.Caller.Normalize()

	fresh := ComputeYield(
		p.token.BalanceOf(caller),
		heightDelta(call.Height, p.state.LastDistribution),
		p.state.YieldRateBps,
	)
	total, err := CheckedAdd(p.rewards[caller], fresh)
	if err != nil {
		return 0, domain.ErrOverflow
	}
	if total == 0 {
		return 0, domain.ErrNoYieldAvailable
	}
	newTotal, err := CheckedAdd(p.state.TotalStaked, total)
	if err != nil {
		return 0, domain.ErrOverflow
	}
	if err := p.token.Mint(caller, total); err != nil {
		return 0, domain.ErrMintFailed
	}

	p.state.TotalStaked = newTotal
	p.rewards[caller] = 0
	return total, nil
}

// Transfer moves receipt tokens between accounts. The caller must be the
// sender; the memo is an opaque side-channel surfaced only in the event log.
func (p *Pool) Transfer(call Call, from, to domain.Account, amount uint64) error {
	from = from.Normalize()
	to = to.Normalize()
	if call.Caller.Normalize() != from {
		return domain.ErrUnauthorized
	}
	if amount == 0 || from == to {
		return domain.ErrInvalidAmount
	}
	return p.token.Transfer(from, to, amount)
}

// Pause blocks stake and unstake until Unpause. Owner-only; fails when the
// pool is already paused.
func (p *Pool) Pause(call Call) error {
	if call.Caller.Normalize() != p.owner {
		return domain.ErrUnauthorized
	}
	if !p.state.Active {
		return domain.ErrPoolInactive
	}
	if p.state.Paused {
		return domain.ErrPoolPaused
	}
	p.state.Paused = true
	return nil
}

// Unpause lifts a pause. Owner-only; fails when the pool is not paused.
func (p *Pool) Unpause(call Call) error {
	if call.Caller.Normalize() != p.owner {
		return domain.ErrUnauthorized
	}
	if !p.state.Paused {
		return domain.ErrNotPaused
	}
	p.state.Paused = false
	return nil
}

// UpdateYieldRate sets a new basis-point yield rate. Owner-only.
func (p *Pool) UpdateYieldRate(call Call, rateBps uint16) error {
	if call.Caller.Normalize() != p.owner {
		return domain.ErrUnauthorized
	}
	if !p.state.Active {
		return domain.ErrNotInitialized
	}
	if rateBps > domain.MaxRateBps {
		return domain.ErrInvalidAmount
	}
	p.state.YieldRateBps = rateBps
	return nil
}

// ToggleInsurance flips the insurance flag. Existing coverage balances are
// never rewritten retroactively. Owner-only.
func (p *Pool) ToggleInsurance(call Call, enabled bool) error {
	if call.Caller.Normalize() != p.owner {
		return domain.ErrUnauthorized
	}
	if !p.state.Active {
		return domain.ErrNotInitialized
	}
	p.state.InsuranceEnabled = enabled
	return nil
}

// SetTokenURI sets or clears the receipt-token metadata URI. The URI lives in
// the scalar pool state so it survives snapshot and restore. Owner-only.
func (p *Pool) SetTokenURI(call Call, uri *string) error {
	if call.Caller.Normalize() != p.owner {
		return domain.ErrUnauthorized
	}
	p.state.TokenURI = uri
	return nil
}

// ---------------------------------------------------------------------------
// Read-only queries
// ---------------------------------------------------------------------------

// Owner returns the fixed deploy-time owner.
func (p *Pool) Owner() domain.Account { return p.owner }

// BalanceOf returns the receipt-token balance of account.
func (p *Pool) BalanceOf(account domain.Account) uint64 {
	return p.token.BalanceOf(account.Normalize())
}

// TotalSupply returns the receipt-token total supply.
func (p *Pool) TotalSupply() uint64 { return p.token.TotalSupply() }

// PendingRewards returns the account's banked (not yet claimed) rewards.
func (p *Pool) PendingRewards(account domain.Account) uint64 {
	return p.rewards[account.Normalize()]
}

// RiskScore returns the account's cumulative risk score.
func (p *Pool) RiskScore(account domain.Account) uint64 {
	return p.risk.Score(account.Normalize())
}

// Coverage returns the account's insurance coverage.
func (p *Pool) Coverage(account domain.Account) uint64 {
	return p.insure.Coverage(account.Normalize())
}

// Stats returns the aggregate pool snapshot.
func (p *Pool) Stats() domain.PoolStats {
	return domain.PoolStats{
		TotalStaked:      p.state.TotalStaked,
		TotalSupply:      p.token.TotalSupply(),
		TotalYield:       p.state.TotalYieldAccrued,
		RateBps:          p.state.YieldRateBps,
		Active:           p.state.Active,
		Paused:           p.state.Paused,
		InsuranceEnabled: p.state.InsuranceEnabled,
		InsuranceFund:    p.state.InsuranceFund,
		LastDistribution: p.state.LastDistribution,
	}
}

// TokenInfo returns the receipt-token metadata.
func (p *Pool) TokenInfo() domain.TokenInfo {
	return domain.TokenInfo{
		Name:        p.name,
		Symbol:      p.symbol,
		Decimals:    domain.Decimals,
		TotalSupply: p.token.TotalSupply(),
		URI:         p.state.TokenURI,
	}
}

// State returns a copy of the scalar pool state.
func (p *Pool) State() domain.PoolState { return p.state }

// AccountState returns the full per-account row for persistence.
func (p *Pool) AccountState(account domain.Account) domain.AccountState {
	account = account.Normalize()
	return domain.AccountState{
		Account:        account,
		Balance:        p.token.BalanceOf(account),
		PendingRewards: p.rewards[account],
		RiskScore:      p.risk.Score(account),
		Coverage:       p.insure.Coverage(account),
	}
}

// History returns all recorded distributions ordered by ascending height.
func (p *Pool) History() []domain.Distribution {
	out := make([]domain.Distribution, 0, len(p.history))
	for _, d := range p.history {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out
}

// ---------------------------------------------------------------------------
// Rehydration
// ---------------------------------------------------------------------------

// RestoreState seeds the scalar pool state from a snapshot.
func (p *Pool) RestoreState(state domain.PoolState) {
	p.state = state
}

// RestoreAccount seeds one per-account row from a snapshot.
func (p *Pool) RestoreAccount(row domain.AccountState) {
	account := row.Account.Normalize()
	p.token.restore(account, row.Balance)
	p.risk.restore(account, row.RiskScore)
	p.insure.set(account, row.Coverage)
	if row.PendingRewards > 0 {
		p.rewards[account] = row.PendingRewards
	}
}

// RestoreDistribution seeds one history entry from a snapshot.
func (p *Pool) RestoreDistribution(d domain.Distribution) {
	p.history[d.Height] = d
}

// heightDelta returns to-from, clamped at zero for out-of-order heights.
func heightDelta(to, from uint64) uint64 {
	if to < from {
		return 0
	}
	return to - from
}
