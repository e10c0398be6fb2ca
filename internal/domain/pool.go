package domain

import "time"

const (
	// Decimals is the fixed decimal precision of both the base asset and the
	// receipt token. One whole token is 1e8 base units.
	Decimals = 8

	// UnitsPerToken is 10^Decimals.
	UnitsPerToken uint64 = 100_000_000

	// MinStake is the smallest stake the pool accepts, in base units.
	MinStake uint64 = 1_000_000

	// BlocksPerDay is the block granularity of yield accrual. Elapsed spans
	// shorter than one day truncate to zero yield.
	BlocksPerDay uint64 = 144

	// MaxRateBps caps the yield rate at 100%.
	MaxRateBps uint16 = 10_000
)

// PoolState is the scalar register file of the staking pool. The per-account
// maps live in the ledger core; this struct is what gets snapshotted.
type PoolState struct {
	TotalStaked       uint64
	TotalYieldAccrued uint64
	YieldRateBps      uint16
	Active            bool
	Paused            bool
	InsuranceEnabled  bool
	InsuranceFund     uint64
	LastDistribution  uint64  // block height of the last yield distribution
	TokenURI          *string // receipt-token metadata URI, nil when unset
}

// AccountState is the full per-account row: receipt balance, pending rewards,
// cumulative risk score, and insurance coverage. Used for persistence and
// rehydration; the authoritative copy lives in the ledger core maps.
type AccountState struct {
	Account        Account `json:"account"`
	Balance        uint64  `json:"balance"`
	PendingRewards uint64  `json:"pending_rewards"`
	RiskScore      uint64  `json:"risk_score"`
	Coverage       uint64  `json:"coverage"`
}

// Distribution is one owner-triggered yield distribution, keyed by the block
// height at which it occurred.
type Distribution struct {
	Height  uint64 `json:"height"`
	Amount  uint64 `json:"amount"`
	RateBps uint16 `json:"rate_bps"`
}

// PoolStats is the aggregate snapshot served by the stats query.
type PoolStats struct {
	TotalStaked      uint64 `json:"total_staked"`
	TotalSupply      uint64 `json:"total_supply"`
	TotalYield       uint64 `json:"total_yield"`
	RateBps          uint16 `json:"rate_bps"`
	Active           bool   `json:"active"`
	Paused           bool   `json:"paused"`
	InsuranceEnabled bool   `json:"insurance_enabled"`
	InsuranceFund    uint64 `json:"insurance_fund"`
	LastDistribution uint64 `json:"last_distribution"`
}

// TokenInfo is the receipt-token metadata surface.
type TokenInfo struct {
	Name        string  `json:"name"`
	Symbol      string  `json:"symbol"`
	Decimals    uint8   `json:"decimals"`
	TotalSupply uint64  `json:"total_supply"`
	URI         *string `json:"uri,omitempty"`
}

// ListOpts provides pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}
