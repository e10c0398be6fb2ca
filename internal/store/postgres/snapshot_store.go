package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stakeline/stakeline/internal/domain"
)

// SnapshotStore implements domain.SnapshotStore using PostgreSQL. The pool
// scalar state lives in a singleton row; per-account rows are keyed by the
// normalized account string.
type SnapshotStore struct {
	pool *pgxpool.Pool
}

// NewSnapshotStore creates a new SnapshotStore backed by the given connection pool.
func NewSnapshotStore(pool *pgxpool.Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// SavePoolState upserts the singleton pool state row.
func (s *SnapshotStore) SavePoolState(ctx context.Context, state domain.PoolState) error {
	const query = `
		INSERT INTO pool_state (
			id, total_staked, total_yield_accrued, yield_rate_bps,
			active, paused, insurance_enabled, insurance_fund,
			last_distribution, token_uri, updated_at
		) VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (id) DO UPDATE SET
			total_staked = EXCLUDED.total_staked,
			total_yield_accrued = EXCLUDED.total_yield_accrued,
			yield_rate_bps = EXCLUDED.yield_rate_bps,
			active = EXCLUDED.active,
			paused = EXCLUDED.paused,
			insurance_enabled = EXCLUDED.insurance_enabled,
			insurance_fund = EXCLUDED.insurance_fund,
			last_distribution = EXCLUDED.last_distribution,
			token_uri = EXCLUDED.token_uri,
			updated_at = NOW()`
	_, err := s.pool.Exec(ctx, query,
		int64(state.TotalStaked),
		int64(state.TotalYieldAccrued),
		int32(state.YieldRateBps),
		state.Active,
		state.Paused,
		state.InsuranceEnabled,
		int64(state.InsuranceFund),
		int64(state.LastDistribution),
		state.TokenURI,
	)
	if err != nil {
		return fmt.Errorf("postgres: save pool state: %w", err)
	}
	return nil
}

// LoadPoolState reads the singleton pool state row. A missing row maps to
// domain.ErrNotFound so the caller can distinguish first boot from failure.
func (s *SnapshotStore) LoadPoolState(ctx context.Context) (domain.PoolState, error) {
	const query = `
		SELECT total_staked, total_yield_accrued, yield_rate_bps,
		       active, paused, insurance_enabled, insurance_fund,
		       last_distribution, token_uri
		FROM pool_state WHERE id = TRUE`

	var (
		totalStaked, totalYield, insuranceFund, lastDist int64
		rateBps                                          int32
		state                                            domain.PoolState
	)
	err := s.pool.QueryRow(ctx, query).Scan(
		&totalStaked, &totalYield, &rateBps,
		&state.Active, &state.Paused, &state.InsuranceEnabled,
		&insuranceFund, &lastDist, &state.TokenURI,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PoolState{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PoolState{}, fmt.Errorf("postgres: load pool state: %w", err)
	}

	state.TotalStaked = uint64(totalStaked)
	state.TotalYieldAccrued = uint64(totalYield)
	state.YieldRateBps = uint16(rateBps)
	state.InsuranceFund = uint64(insuranceFund)
	state.LastDistribution = uint64(lastDist)
	return state, nil
}

// UpsertAccount writes one per-account row.
func (s *SnapshotStore) UpsertAccount(ctx context.Context, row domain.AccountState) error {
	const query = `
		INSERT INTO accounts (account, balance, pending_rewards, risk_score, coverage, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (account) DO UPDATE SET
			balance = EXCLUDED.balance,
			pending_rewards = EXCLUDED.pending_rewards,
			risk_score = EXCLUDED.risk_score,
			coverage = EXCLUDED.coverage,
			updated_at = NOW()`
	_, err := s.pool.Exec(ctx, query,
		string(row.Account),
		int64(row.Balance),
		int64(row.PendingRewards),
		int64(row.RiskScore),
		int64(row.Coverage),
	)
	if err != nil {
		return fmt.Errorf("postgres: upsert account %s: %w", row.Account, err)
	}
	return nil
}

// ListAccounts returns every stored account row.
func (s *SnapshotStore) ListAccounts(ctx context.Context) ([]domain.AccountState, error) {
	const query = `
		SELECT account, balance, pending_rewards, risk_score, coverage
		FROM accounts ORDER BY account`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: list accounts: %w", err)
	}
	defer rows.Close()

	var out []domain.AccountState
	for rows.Next() {
		var (
			account                           string
			balance, pending, score, coverage int64
		)
		if err := rows.Scan(&account, &balance, &pending, &score, &coverage); err != nil {
			return nil, fmt.Errorf("postgres: scan account: %w", err)
		}
		out = append(out, domain.AccountState{
			Account:        domain.Account(account),
			Balance:        uint64(balance),
			PendingRewards: uint64(pending),
			RiskScore:      uint64(score),
			Coverage:       uint64(coverage),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list accounts rows: %w", err)
	}
	return out, nil
}
