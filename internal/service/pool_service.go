package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stakeline/stakeline/internal/chain"
	"github.com/stakeline/stakeline/internal/domain"
	"github.com/stakeline/stakeline/internal/ledger"
	"github.com/stakeline/stakeline/internal/notify"
)

// EventsChannel is the signal bus channel committed pool events are
// published on.
const EventsChannel = "pool:events"

// PoolService drives the in-memory pool core. It serializes every state
// transition behind a mutex, resolves the caller and the current block height
// into the core's Call environment, and after a committed transition persists
// snapshots, appends and publishes events, and refreshes the stats cache.
//
// The core is the source of truth. Persistence is write-behind: a store or
// bus failure after a committed transition is logged, never rolled back.
type PoolService struct {
	mu    sync.Mutex
	pool  *ledger.Pool
	clock *chain.Clock

	snapshots     domain.SnapshotStore
	distributions domain.DistributionStore
	events        domain.EventStore
	stats         domain.StatsCache
	bus           domain.SignalBus
	notifier      *notify.Notifier

	logger *slog.Logger
}

// NewPoolService creates a PoolService with all required dependencies. The
// notifier may be nil when no notification channels are configured.
func NewPoolService(
	pool *ledger.Pool,
	clock *chain.Clock,
	snapshots domain.SnapshotStore,
	distributions domain.DistributionStore,
	events domain.EventStore,
	stats domain.StatsCache,
	bus domain.SignalBus,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *PoolService {
	return &PoolService{
		pool:          pool,
		clock:         clock,
		snapshots:     snapshots,
		distributions: distributions,
		events:        events,
		stats:         stats,
		bus:           bus,
		notifier:      notifier,
		logger:        logger.With(slog.String("component", "pool_service")),
	}
}

// Rehydrate loads the persisted pool snapshot and per-account rows into the
// in-memory core. A missing snapshot means first boot and is not an error.
func (s *PoolService) Rehydrate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.snapshots.LoadPoolState(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.InfoContext(ctx, "no snapshot found, starting fresh")
		return nil
	}
	if err != nil {
		return fmt.Errorf("pool_service: load snapshot: %w", err)
	}
	s.pool.RestoreState(state)

	accounts, err := s.snapshots.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("pool_service: load accounts: %w", err)
	}
	for _, row := range accounts {
		s.pool.RestoreAccount(row)
	}

	history, err := s.distributions.List(ctx, domain.ListOpts{})
	if err != nil {
		return fmt.Errorf("pool_service: load distributions: %w", err)
	}
	for _, d := range history {
		s.pool.RestoreDistribution(d)
	}

	s.logger.InfoContext(ctx, "rehydrated pool",
		slog.Int("accounts", len(accounts)),
		slog.Int("distributions", len(history)),
		slog.Uint64("total_staked", state.TotalStaked),
	)
	return nil
}

// Height returns the current block height.
func (s *PoolService) Height() uint64 {
	return s.clock.Height()
}

// Owner returns the pool's fixed owner account.
func (s *PoolService) Owner() domain.Account {
	return s.pool.Owner()
}

// ---------------------------------------------------------------------------
// State transitions
// ---------------------------------------------------------------------------

// Initialize activates the pool with the given yield rate.
func (s *PoolService) Initialize(ctx context.Context, caller domain.Account, rateBps uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	if err := s.pool.Initialize(call, rateBps); err != nil {
		return fmt.Errorf("pool_service: initialize: %w", err)
	}

	s.persistPool(ctx)
	s.emit(ctx, domain.Event{
		Kind:    domain.EventPoolInitialized,
		Account: call.Caller,
		RateBps: rateBps,
		Height:  call.Height,
	})
	s.logger.InfoContext(ctx, "pool initialized",
		slog.Uint64("height", call.Height),
		slog.Int("rate_bps", int(rateBps)),
	)
	return nil
}

// Stake deposits amount base units for the caller.
func (s *PoolService) Stake(ctx context.Context, caller domain.Account, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	if err := s.pool.Stake(call, amount); err != nil {
		return fmt.Errorf("pool_service: stake: %w", err)
	}

	s.persistPool(ctx, call.Caller)
	s.emit(ctx, domain.Event{
		Kind:    domain.EventStake,
		Account: call.Caller,
		Amount:  amount,
		Height:  call.Height,
	})
	s.logger.InfoContext(ctx, "stake",
		slog.String("account", call.Caller.String()),
		slog.Uint64("amount", amount),
		slog.Uint64("height", call.Height),
	)
	return nil
}

// Unstake withdraws amount base units for the caller.
func (s *PoolService) Unstake(ctx context.Context, caller domain.Account, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	if err := s.pool.Unstake(call, amount); err != nil {
		return fmt.Errorf("pool_service: unstake: %w", err)
	}

	s.persistPool(ctx, call.Caller)
	s.emit(ctx, domain.Event{
		Kind:    domain.EventUnstake,
		Account: call.Caller,
		Amount:  amount,
		Height:  call.Height,
	})
	s.logger.InfoContext(ctx, "unstake",
		slog.String("account", call.Caller.String()),
		slog.Uint64("amount", amount),
		slog.Uint64("height", call.Height),
	)
	return nil
}

// DistributeYield runs an owner-triggered yield distribution and returns the
// recorded distribution, including the height it was booked at.
func (s *PoolService) DistributeYield(ctx context.Context, caller domain.Account) (domain.Distribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	amount, err := s.pool.DistributeYield(call)
	if err != nil {
		return domain.Distribution{}, fmt.Errorf("pool_service: distribute yield: %w", err)
	}

	dist := domain.Distribution{
		Height:  call.Height,
		Amount:  amount,
		RateBps: s.pool.Stats().RateBps,
	}

	s.persistPool(ctx)
	if err := s.distributions.Insert(ctx, dist); err != nil {
		s.logger.ErrorContext(ctx, "distribution insert failed",
			slog.Uint64("height", dist.Height),
			slog.String("error", err.Error()),
		)
	}
	s.emit(ctx, domain.Event{
		Kind:   domain.EventDistributeYield,
		Amount: dist.Amount,
		Height: dist.Height,
	})
	s.logger.InfoContext(ctx, "yield distributed",
		slog.Uint64("amount", dist.Amount),
		slog.Uint64("height", dist.Height),
	)
	return dist, nil
}

// ClaimRewards mints the caller's accumulated yield and returns the amount.
func (s *PoolService) ClaimRewards(ctx context.Context, caller domain.Account) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	amount, err := s.pool.ClaimRewards(call)
	if err != nil {
		return 0, fmt.Errorf("pool_service: claim rewards: %w", err)
	}

	s.persistPool(ctx, call.Caller)
	s.emit(ctx, domain.Event{
		Kind:    domain.EventClaimRewards,
		Account: call.Caller,
		Amount:  amount,
		Height:  call.Height,
	})
	s.logger.InfoContext(ctx, "rewards claimed",
		slog.String("account", call.Caller.String()),
		slog.Uint64("amount", amount),
		slog.Uint64("height", call.Height),
	)
	return amount, nil
}

// Transfer moves receipt tokens from the caller to the recipient. The memo is
// an opaque note surfaced only in the event log.
func (s *PoolService) Transfer(ctx context.Context, caller, to domain.Account, amount uint64, memo *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	to = to.Normalize()
	if err := s.pool.Transfer(call, call.Caller, to, amount); err != nil {
		return fmt.Errorf("pool_service: transfer: %w", err)
	}

	s.persistPool(ctx, call.Caller, to)
	s.emit(ctx, domain.Event{
		Kind:      domain.EventTransfer,
		Account:   call.Caller,
		Recipient: to,
		Amount:    amount,
		Height:    call.Height,
		Memo:      memo,
	})
	s.logger.InfoContext(ctx, "transfer",
		slog.String("from", call.Caller.String()),
		slog.String("to", to.String()),
		slog.Uint64("amount", amount),
	)
	return nil
}

// Pause blocks staking operations until Unpause.
func (s *PoolService) Pause(ctx context.Context, caller domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	if err := s.pool.Pause(call); err != nil {
		return fmt.Errorf("pool_service: pause: %w", err)
	}

	s.persistPool(ctx)
	s.emit(ctx, domain.Event{Kind: domain.EventPoolPaused, Account: call.Caller, Height: call.Height})
	s.logger.WarnContext(ctx, "pool paused", slog.Uint64("height", call.Height))
	return nil
}

// Unpause lifts a pause.
func (s *PoolService) Unpause(ctx context.Context, caller domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	if err := s.pool.Unpause(call); err != nil {
		return fmt.Errorf("pool_service: unpause: %w", err)
	}

	s.persistPool(ctx)
	s.emit(ctx, domain.Event{Kind: domain.EventPoolUnpaused, Account: call.Caller, Height: call.Height})
	s.logger.InfoContext(ctx, "pool unpaused", slog.Uint64("height", call.Height))
	return nil
}

// UpdateYieldRate sets a new yield rate in basis points.
func (s *PoolService) UpdateYieldRate(ctx context.Context, caller domain.Account, rateBps uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	if err := s.pool.UpdateYieldRate(call, rateBps); err != nil {
		return fmt.Errorf("pool_service: update yield rate: %w", err)
	}

	s.persistPool(ctx)
	s.emit(ctx, domain.Event{
		Kind:    domain.EventRateUpdated,
		Account: call.Caller,
		RateBps: rateBps,
		Height:  call.Height,
	})
	s.logger.InfoContext(ctx, "yield rate updated", slog.Int("rate_bps", int(rateBps)))
	return nil
}

// ToggleInsurance flips the insurance provisioning flag.
func (s *PoolService) ToggleInsurance(ctx context.Context, caller domain.Account, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	if err := s.pool.ToggleInsurance(call, enabled); err != nil {
		return fmt.Errorf("pool_service: toggle insurance: %w", err)
	}

	s.persistPool(ctx)
	s.emit(ctx, domain.Event{
		Kind:    domain.EventInsuranceToggled,
		Account: call.Caller,
		Enabled: &enabled,
		Height:  call.Height,
	})
	s.logger.InfoContext(ctx, "insurance toggled", slog.Bool("enabled", enabled))
	return nil
}

// SetTokenURI sets or clears the receipt-token metadata URI.
func (s *PoolService) SetTokenURI(ctx context.Context, caller domain.Account, uri *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.call(caller)
	if err := s.pool.SetTokenURI(call, uri); err != nil {
		return fmt.Errorf("pool_service: set token uri: %w", err)
	}

	s.persistPool(ctx)
	return nil
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// Stats returns the aggregate pool snapshot, served from the cache when
// fresh enough.
func (s *PoolService) Stats(ctx context.Context) (domain.PoolStats, error) {
	if stats, err := s.stats.GetStats(ctx); err == nil {
		return stats, nil
	}

	s.mu.Lock()
	stats := s.pool.Stats()
	s.mu.Unlock()

	if err := s.stats.SetStats(ctx, stats); err != nil {
		s.logger.WarnContext(ctx, "stats cache set failed", slog.String("error", err.Error()))
	}
	return stats, nil
}

// TokenInfo returns the receipt-token metadata.
func (s *PoolService) TokenInfo(_ context.Context) domain.TokenInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.TokenInfo()
}

// AccountState returns the full per-account row.
func (s *PoolService) AccountState(_ context.Context, account domain.Account) domain.AccountState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pool.AccountState(account)
}

// Distributions returns the persisted distribution history, newest first.
func (s *PoolService) Distributions(ctx context.Context, opts domain.ListOpts) ([]domain.Distribution, error) {
	out, err := s.distributions.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("pool_service: list distributions: %w", err)
	}
	return out, nil
}

// Events returns the persisted event log, newest first.
func (s *PoolService) Events(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	out, err := s.events.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("pool_service: list events: %w", err)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

// call resolves the injected environment facts for one transition.
func (s *PoolService) call(caller domain.Account) ledger.Call {
	return ledger.Call{Caller: caller.Normalize(), Height: s.clock.Height()}
}

// persistPool write-behinds the pool snapshot, the touched account rows, and
// the stats cache. Failures are logged; the committed transition stands.
func (s *PoolService) persistPool(ctx context.Context, touched ...domain.Account) {
	if err := s.snapshots.SavePoolState(ctx, s.pool.State()); err != nil {
		s.logger.ErrorContext(ctx, "snapshot save failed", slog.String("error", err.Error()))
	}
	for _, account := range touched {
		if err := s.snapshots.UpsertAccount(ctx, s.pool.AccountState(account)); err != nil {
			s.logger.ErrorContext(ctx, "account upsert failed",
				slog.String("account", account.String()),
				slog.String("error", err.Error()),
			)
		}
	}
	if err := s.stats.SetStats(ctx, s.pool.Stats()); err != nil {
		s.logger.WarnContext(ctx, "stats cache set failed", slog.String("error", err.Error()))
	}
}

// emit records a committed event in the event store, publishes it on the
// signal bus, and forwards it to the notifier. All three are fire-and-forget.
func (s *PoolService) emit(ctx context.Context, e domain.Event) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now().UTC()

	if err := s.events.Append(ctx, e); err != nil {
		s.logger.ErrorContext(ctx, "event append failed",
			slog.String("kind", string(e.Kind)),
			slog.String("error", err.Error()),
		)
	}

	payload, err := json.Marshal(e)
	if err != nil {
		s.logger.ErrorContext(ctx, "event marshal failed", slog.String("error", err.Error()))
		return
	}
	if err := s.bus.Publish(ctx, EventsChannel, payload); err != nil {
		s.logger.WarnContext(ctx, "event publish failed",
			slog.String("kind", string(e.Kind)),
			slog.String("error", err.Error()),
		)
	}

	if s.notifier != nil {
		title := fmt.Sprintf("stakeline: %s", e.Kind)
		if err := s.notifier.Notify(ctx, e.Kind, title, string(payload)); err != nil {
			s.logger.WarnContext(ctx, "notify failed", slog.String("error", err.Error()))
		}
	}
}
