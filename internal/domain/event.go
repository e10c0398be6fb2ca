package domain

import "time"

// EventKind names a pool state transition that external indexers care about.
type EventKind string

const (
	EventStake            EventKind = "stake"
	EventUnstake          EventKind = "unstake"
	EventTransfer         EventKind = "transfer"
	EventDistributeYield  EventKind = "distribute_yield"
	EventClaimRewards     EventKind = "claim_rewards"
	EventPoolPaused       EventKind = "pool_paused"
	EventPoolUnpaused     EventKind = "pool_unpaused"
	EventRateUpdated      EventKind = "yield_rate_updated"
	EventInsuranceToggled EventKind = "insurance_toggled"
	EventPoolInitialized  EventKind = "pool_initialized"
)

// Event is a fire-and-forget record of a committed state transition. Delivery
// failures never roll back the transition that produced the event.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Account   Account   `json:"account,omitempty"`
	Recipient Account   `json:"recipient,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	RateBps   uint16    `json:"rate_bps,omitempty"`
	Enabled   *bool     `json:"enabled,omitempty"`
	Height    uint64    `json:"height"`
	Memo      *string   `json:"memo,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
