package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stakeline/stakeline/internal/domain"
)

const owner = domain.Account("0x00000000000000000000000000000000000f00d0")

func newActivePool(t *testing.T, rateBps uint16) *Pool {
	t.Helper()
	p := NewPool(owner, "Stakeline Receipt", "sSTK")
	require.NoError(t, p.Initialize(Call{Caller: owner, Height: 0}, rateBps))
	return p
}

// checkConservation asserts totalStaked == totalSupply == sum of balances.
func checkConservation(t *testing.T, p *Pool) {
	t.Helper()
	var sum uint64
	for _, account := range p.token.Accounts() {
		sum += p.token.BalanceOf(account)
	}
	require.Equal(t, p.TotalSupply(), sum)
	require.Equal(t, p.State().TotalStaked, p.TotalSupply())
}

func TestInitialize(t *testing.T) {
	p := NewPool(owner, "Stakeline Receipt", "sSTK")

	err := p.Initialize(Call{Caller: alice, Height: 10}, 500)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.False(t, p.State().Active)

	err = p.Initialize(Call{Caller: owner, Height: 10}, 10_001)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	require.NoError(t, p.Initialize(Call{Caller: owner, Height: 10}, 500))
	state := p.State()
	require.True(t, state.Active)
	require.Equal(t, uint16(500), state.YieldRateBps)
	require.Equal(t, uint64(10), state.LastDistribution)

	err = p.Initialize(Call{Caller: owner, Height: 20}, 500)
	require.ErrorIs(t, err, domain.ErrAlreadyInitialized)
}

func TestStakeLifecycleChecks(t *testing.T) {
	p := NewPool(owner, "Stakeline Receipt", "sSTK")
	err := p.Stake(Call{Caller: alice, Height: 0}, domain.MinStake)
	require.ErrorIs(t, err, domain.ErrPoolInactive)

	p = newActivePool(t, 500)
	require.NoError(t, p.Pause(Call{Caller: owner, Height: 1}))
	err = p.Stake(Call{Caller: alice, Height: 1}, domain.MinStake)
	require.ErrorIs(t, err, domain.ErrPoolPaused)
	require.Zero(t, p.BalanceOf(alice))
}

func TestStakeMinimumBoundary(t *testing.T) {
	p := newActivePool(t, 500)

	err := p.Stake(Call{Caller: alice, Height: 1}, 999_999)
	require.ErrorIs(t, err, domain.ErrMinimumStakeNotMet)
	require.Zero(t, p.BalanceOf(alice))

	require.NoError(t, p.Stake(Call{Caller: alice, Height: 1}, 1_000_000))
	require.Equal(t, uint64(1_000_000), p.BalanceOf(alice))
	require.Equal(t, uint64(1_000_000), p.TotalSupply())
	checkConservation(t, p)
}

func TestRiskScoreMonotonic(t *testing.T) {
	p := newActivePool(t, 500)

	// A stake of exactly one whole token scores one point.
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 1}, domain.UnitsPerToken))
	require.Equal(t, uint64(1), p.RiskScore(alice))

	// Stakes under one whole token score nothing.
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 2}, 1_000_000))
	require.Equal(t, uint64(1), p.RiskScore(alice))

	// 2.5 tokens score two more points.
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 3}, domain.UnitsPerToken*2+domain.UnitsPerToken/2))
	require.Equal(t, uint64(3), p.RiskScore(alice))

	// Unstake and transfer never lower the score.
	require.NoError(t, p.Unstake(Call{Caller: alice, Height: 4}, domain.UnitsPerToken*3))
	require.Equal(t, uint64(3), p.RiskScore(alice))
	require.NoError(t, p.Transfer(Call{Caller: alice, Height: 5}, alice, bob, 500_000))
	require.Equal(t, uint64(3), p.RiskScore(alice))
	require.Zero(t, p.RiskScore(bob))
	checkConservation(t, p)
}

func TestDistributeYield(t *testing.T) {
	p := newActivePool(t, 500)
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 0}, 1_000_000))

	// Non-owner cannot distribute, and the clock does not move.
	_, err := p.DistributeYield(Call{Caller: alice, Height: 144})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.Zero(t, p.State().LastDistribution)

	// Too early.
	_, err = p.DistributeYield(Call{Caller: owner, Height: 143})
	require.ErrorIs(t, err, domain.ErrYieldNotYetDue)

	amount, err := p.DistributeYield(Call{Caller: owner, Height: 144})
	require.NoError(t, err)
	require.Equal(t, uint64(50_000), amount)
	require.Equal(t, uint64(50_000), p.Stats().TotalYield)
	require.Equal(t, uint64(144), p.State().LastDistribution)

	history := p.History()
	require.Len(t, history, 1)
	require.Equal(t, domain.Distribution{Height: 144, Amount: 50_000, RateBps: 500}, history[0])

	// The window restarts after each distribution.
	_, err = p.DistributeYield(Call{Caller: owner, Height: 287})
	require.ErrorIs(t, err, domain.ErrYieldNotYetDue)
}

func TestClaimRewardsScenario(t *testing.T) {
	p := newActivePool(t, 500)
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 0}, 1_000_000))
	require.Equal(t, uint64(1_000_000), p.BalanceOf(alice))
	require.Equal(t, uint64(1_000_000), p.TotalSupply())
	require.Zero(t, p.RiskScore(alice)) // 1_000_000 / 1e8 truncates to 0

	_, err := p.DistributeYield(Call{Caller: owner, Height: 144})
	require.NoError(t, err)
	require.Equal(t, uint64(50_000), p.Stats().TotalYield)

	// Claiming right at the distribution height accrues nothing new.
	_, err = p.ClaimRewards(Call{Caller: alice, Height: 144})
	require.ErrorIs(t, err, domain.ErrNoYieldAvailable)

	// One full window later the claim mints 5% of the balance for one day.
	claimed, err := p.ClaimRewards(Call{Caller: alice, Height: 288})
	require.NoError(t, err)
	require.Equal(t, uint64(50_000), claimed)
	require.Equal(t, uint64(1_050_000), p.BalanceOf(alice))
	require.Zero(t, p.PendingRewards(alice))
	checkConservation(t, p)

	// Full exit burns everything that was staked plus claimed.
	require.NoError(t, p.Unstake(Call{Caller: alice, Height: 288}, 1_050_000))
	require.Zero(t, p.TotalSupply())
	require.Zero(t, p.BalanceOf(alice))
	checkConservation(t, p)

	err = p.Unstake(Call{Caller: alice, Height: 289}, 1)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
}

func TestClaimWithNoStake(t *testing.T) {
	p := newActivePool(t, 500)
	_, err := p.ClaimRewards(Call{Caller: alice, Height: 1_000})
	require.ErrorIs(t, err, domain.ErrNoYieldAvailable)
}

func TestUnstakeValidation(t *testing.T) {
	p := newActivePool(t, 500)
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 0}, 1_000_000))

	err := p.Unstake(Call{Caller: alice, Height: 1}, 0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	err = p.Unstake(Call{Caller: alice, Height: 1}, 1_000_001)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// Partial unstake leaves the rest intact.
	require.NoError(t, p.Unstake(Call{Caller: alice, Height: 1}, 400_000))
	require.Equal(t, uint64(600_000), p.BalanceOf(alice))
	checkConservation(t, p)
}

func TestPauseUnpause(t *testing.T) {
	p := newActivePool(t, 500)

	err := p.Pause(Call{Caller: alice, Height: 1})
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	err = p.Unpause(Call{Caller: owner, Height: 1})
	require.ErrorIs(t, err, domain.ErrNotPaused)

	require.NoError(t, p.Pause(Call{Caller: owner, Height: 1}))
	err = p.Pause(Call{Caller: owner, Height: 2})
	require.ErrorIs(t, err, domain.ErrPoolPaused)

	require.NoError(t, p.Unpause(Call{Caller: owner, Height: 3}))
	err = p.Unpause(Call{Caller: owner, Height: 4})
	require.ErrorIs(t, err, domain.ErrNotPaused)

	// Staking works again after unpause.
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 5}, domain.MinStake))
}

func TestTransferAuthorization(t *testing.T) {
	p := newActivePool(t, 500)
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 0}, 2_000_000))

	err := p.Transfer(Call{Caller: bob, Height: 1}, alice, bob, 100)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	err = p.Transfer(Call{Caller: alice, Height: 1}, alice, alice, 100)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	err = p.Transfer(Call{Caller: alice, Height: 1}, alice, bob, 0)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	require.NoError(t, p.Transfer(Call{Caller: alice, Height: 1}, alice, bob, 500_000))
	require.Equal(t, uint64(1_500_000), p.BalanceOf(alice))
	require.Equal(t, uint64(500_000), p.BalanceOf(bob))
	checkConservation(t, p)
}

func TestInsuranceCoverage(t *testing.T) {
	p := newActivePool(t, 500)

	// Disabled by default: staking provisions nothing.
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 0}, 1_000_000))
	require.Zero(t, p.Coverage(alice))

	err := p.ToggleInsurance(Call{Caller: alice, Height: 1}, true)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	require.NoError(t, p.ToggleInsurance(Call{Caller: owner, Height: 1}, true))
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 1}, 2_000_000))
	require.Equal(t, uint64(2_000_000), p.Coverage(alice))

	// Unstake while enabled reduces coverage, floored at zero.
	require.NoError(t, p.Unstake(Call{Caller: alice, Height: 2}, 2_500_000))
	require.Zero(t, p.Coverage(alice))

	require.NoError(t, p.Stake(Call{Caller: alice, Height: 3}, 1_000_000))
	require.Equal(t, uint64(1_000_000), p.Coverage(alice))

	// While disabled, coverage is frozen in both directions.
	require.NoError(t, p.ToggleInsurance(Call{Caller: owner, Height: 4}, false))
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 4}, 1_000_000))
	require.NoError(t, p.Unstake(Call{Caller: alice, Height: 5}, 2_000_000))
	require.Equal(t, uint64(1_000_000), p.Coverage(alice))

	// Re-enabling never rewrites existing coverage retroactively.
	require.NoError(t, p.ToggleInsurance(Call{Caller: owner, Height: 6}, true))
	require.Equal(t, uint64(1_000_000), p.Coverage(alice))
	checkConservation(t, p)
}

func TestUpdateYieldRate(t *testing.T) {
	p := newActivePool(t, 500)

	err := p.UpdateYieldRate(Call{Caller: alice, Height: 1}, 100)
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	err = p.UpdateYieldRate(Call{Caller: owner, Height: 1}, 10_001)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	require.NoError(t, p.UpdateYieldRate(Call{Caller: owner, Height: 1}, 1_000))
	require.Equal(t, uint16(1_000), p.Stats().RateBps)
}

func TestSetTokenURI(t *testing.T) {
	p := newActivePool(t, 500)

	uri := "https://assets.stakeline.io/sstk.json"
	err := p.SetTokenURI(Call{Caller: alice, Height: 1}, &uri)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.Nil(t, p.TokenInfo().URI)

	require.NoError(t, p.SetTokenURI(Call{Caller: owner, Height: 1}, &uri))
	info := p.TokenInfo()
	require.NotNil(t, info.URI)
	require.Equal(t, uri, *info.URI)
	require.Equal(t, uint8(8), info.Decimals)

	require.NoError(t, p.SetTokenURI(Call{Caller: owner, Height: 2}, nil))
	require.Nil(t, p.TokenInfo().URI)
}

func TestConservationAcrossSequence(t *testing.T) {
	p := newActivePool(t, 750)

	ops := []func() error{
		func() error { return p.Stake(Call{Caller: alice, Height: 0}, 5_000_000) },
		func() error { return p.Stake(Call{Caller: bob, Height: 10}, 3_000_000) },
		func() error { return p.Transfer(Call{Caller: alice, Height: 20}, alice, carol, 1_000_000) },
		func() error { return p.Unstake(Call{Caller: bob, Height: 30}, 1_500_000) },
		func() error {
			_, err := p.DistributeYield(Call{Caller: owner, Height: 144})
			return err
		},
		func() error {
			_, err := p.ClaimRewards(Call{Caller: alice, Height: 300})
			return err
		},
		func() error { return p.Unstake(Call{Caller: carol, Height: 301}, 1_000_000) },
	}
	for i, op := range ops {
		require.NoError(t, op(), "op %d", i)
		checkConservation(t, p)
	}
}

func TestRehydrationRoundTrip(t *testing.T) {
	p := newActivePool(t, 500)
	require.NoError(t, p.ToggleInsurance(Call{Caller: owner, Height: 0}, true))
	require.NoError(t, p.Stake(Call{Caller: alice, Height: 0}, 150_000_000))
	require.NoError(t, p.Stake(Call{Caller: bob, Height: 5}, 2_000_000))
	_, err := p.DistributeYield(Call{Caller: owner, Height: 144})
	require.NoError(t, err)
	uri := "https://assets.stakeline.io/sstk.json"
	require.NoError(t, p.SetTokenURI(Call{Caller: owner, Height: 145}, &uri))

	restored := NewPool(owner, "Stakeline Receipt", "sSTK")
	restored.RestoreState(p.State())
	for _, account := range []domain.Account{alice, bob} {
		restored.RestoreAccount(p.AccountState(account))
	}
	for _, d := range p.History() {
		restored.RestoreDistribution(d)
	}

	require.Equal(t, p.State(), restored.State())
	require.Equal(t, p.TotalSupply(), restored.TotalSupply())
	require.Equal(t, p.BalanceOf(alice), restored.BalanceOf(alice))
	require.Equal(t, p.RiskScore(alice), restored.RiskScore(alice))
	require.Equal(t, p.Coverage(bob), restored.Coverage(bob))
	require.Equal(t, p.History(), restored.History())
	require.NotNil(t, restored.TokenInfo().URI)
	require.Equal(t, uri, *restored.TokenInfo().URI)
	checkConservation(t, restored)

	// The restored pool keeps transitioning correctly.
	require.NoError(t, restored.Unstake(Call{Caller: alice, Height: 200}, 150_000_000))
	checkConservation(t, restored)
}
