package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stakeline/stakeline/internal/domain"
)

// DistributionStore implements domain.DistributionStore using PostgreSQL.
type DistributionStore struct {
	pool *pgxpool.Pool
}

// NewDistributionStore creates a new DistributionStore backed by the given
// connection pool.
func NewDistributionStore(pool *pgxpool.Pool) *DistributionStore {
	return &DistributionStore{pool: pool}
}

// Insert appends one distribution record. Heights are unique; replaying the
// same distribution is a no-op.
func (s *DistributionStore) Insert(ctx context.Context, d domain.Distribution) error {
	const query = `
		INSERT INTO distributions (height, amount, rate_bps)
		VALUES ($1, $2, $3)
		ON CONFLICT (height) DO NOTHING`
	_, err := s.pool.Exec(ctx, query, int64(d.Height), int64(d.Amount), int32(d.RateBps))
	if err != nil {
		return fmt.Errorf("postgres: insert distribution at height %d: %w", d.Height, err)
	}
	return nil
}

// List returns distributions with pagination and optional time filtering,
// newest first.
func (s *DistributionStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Distribution, error) {
	query := `SELECT height, amount, rate_bps FROM distributions WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY height DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list distributions: %w", err)
	}
	defer rows.Close()

	var out []domain.Distribution
	for rows.Next() {
		var (
			height, amount int64
			rateBps        int32
		)
		if err := rows.Scan(&height, &amount, &rateBps); err != nil {
			return nil, fmt.Errorf("postgres: scan distribution: %w", err)
		}
		out = append(out, domain.Distribution{
			Height:  uint64(height),
			Amount:  uint64(amount),
			RateBps: uint16(rateBps),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list distributions rows: %w", err)
	}
	return out, nil
}
