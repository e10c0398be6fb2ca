package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stakeline/stakeline/internal/domain"
)

// EventStore implements domain.EventStore using PostgreSQL. The event log is
// append-only; rows only leave through the archiver's DeleteBefore.
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append inserts one event row.
func (s *EventStore) Append(ctx context.Context, e domain.Event) error {
	const query = `
		INSERT INTO pool_events (id, kind, account, recipient, amount, rate_bps, enabled, height, memo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.pool.Exec(ctx, query,
		e.ID,
		string(e.Kind),
		nullStr(string(e.Account)),
		nullStr(string(e.Recipient)),
		int64(e.Amount),
		int32(e.RateBps),
		e.Enabled,
		int64(e.Height),
		e.Memo,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: append event %s: %w", e.Kind, err)
	}
	return nil
}

// List returns events with pagination and optional time filtering, newest first.
func (s *EventStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.Event, error) {
	query := selectEvents + ` WHERE 1=1`
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

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	return s.query(ctx, query, args...)
}

// ListBefore returns events created strictly before the cutoff, oldest first.
func (s *EventStore) ListBefore(ctx context.Context, before time.Time) ([]domain.Event, error) {
	query := selectEvents + ` WHERE created_at < $1 ORDER BY created_at ASC`
	return s.query(ctx, query, before)
}

// DeleteBefore removes events created strictly before the cutoff.
func (s *EventStore) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM pool_events WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("postgres: delete events before %s: %w", before.Format(time.RFC3339), err)
	}
	return tag.RowsAffected(), nil
}

const selectEvents = `
	SELECT id, kind, account, recipient, amount, rate_bps, enabled, height, memo, created_at
	FROM pool_events`

func (s *EventStore) query(ctx context.Context, query string, args ...any) ([]domain.Event, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list events: %w", err)
	}
	defer rows.Close()

	var out []domain.Event
	for rows.Next() {
		var (
			e                  domain.Event
			kind               string
			account, recipient *string
			amount, height     int64
			rateBps            int32
		)
		if err := rows.Scan(&e.ID, &kind, &account, &recipient, &amount, &rateBps, &e.Enabled, &height, &e.Memo, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan event: %w", err)
		}
		e.Kind = domain.EventKind(kind)
		if account != nil {
			e.Account = domain.Account(*account)
		}
		if recipient != nil {
			e.Recipient = domain.Account(*recipient)
		}
		e.Amount = uint64(amount)
		e.RateBps = uint16(rateBps)
		e.Height = uint64(height)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list events rows: %w", err)
	}
	return out, nil
}

// nullStr maps an empty string to SQL NULL.
func nullStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
