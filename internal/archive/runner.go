// Package archive schedules cold-storage runs that move aged event-log rows
// from the database to object storage.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/stakeline/stakeline/internal/domain"
)

// Runner drives periodic archive runs against the event log.
type Runner struct {
	archiver      domain.Archiver
	retentionDays int
	interval      time.Duration
	logger        *slog.Logger
}

// NewRunner creates a new Runner. retentionDays sets the cutoff for each run;
// interval is the pause between runs in RunLoop.
func NewRunner(archiver domain.Archiver, retentionDays int, interval time.Duration, logger *slog.Logger) *Runner {
	return &Runner{
		archiver:      archiver,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        logger.With(slog.String("component", "archive_runner")),
	}
}

// Run executes a single archive run. It calculates the cutoff time from the
// retention window and archives all events older than the cutoff.
func (r *Runner) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-time.Duration(r.retentionDays) * 24 * time.Hour)
	r.logger.InfoContext(ctx, "starting archive run",
		slog.Time("cutoff", cutoff),
		slog.Int("retention_days", r.retentionDays),
	)

	archived, err := r.archiver.ArchiveEvents(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("archive: events before %v: %w", cutoff, err)
	}

	r.logger.InfoContext(ctx, "archive run complete", slog.Int("events_archived", archived))
	return nil
}

// RunLoop runs once immediately and then on every interval tick until the
// context is cancelled. A failed run is logged and retried on the next tick.
func (r *Runner) RunLoop(ctx context.Context) error {
	r.logger.InfoContext(ctx, "archive loop started", slog.Duration("interval", r.interval))

	if err := r.Run(ctx); err != nil {
		r.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "archive loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.Run(ctx); err != nil {
				r.logger.ErrorContext(ctx, "archive run failed", slog.String("error", err.Error()))
			}
		}
	}
}
