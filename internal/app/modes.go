package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stakeline/stakeline/internal/archive"
	"github.com/stakeline/stakeline/internal/domain"
	"github.com/stakeline/stakeline/internal/ledger"
	"github.com/stakeline/stakeline/internal/server"
	"github.com/stakeline/stakeline/internal/server/handler"
	"github.com/stakeline/stakeline/internal/server/ws"
	"github.com/stakeline/stakeline/internal/service"
)

// ServeMode rehydrates the pool core from the database and runs the HTTP and
// WebSocket API until the context is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	if !a.cfg.Server.Enabled {
		return fmt.Errorf("serve mode: server.enabled is false")
	}

	g, ctx := errgroup.WithContext(ctx)

	svc, err := a.buildPoolService(ctx, deps)
	if err != nil {
		return fmt.Errorf("serve mode: %w", err)
	}
	a.startAPI(ctx, g, deps, svc)

	return g.Wait()
}

// ArchiveMode runs the event-log archiver on its configured interval and
// nothing else. The pool core is not rehydrated.
func (a *App) ArchiveMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting archive mode")

	if !a.cfg.Archive.Enabled {
		a.logger.WarnContext(ctx, "archive.enabled is false, but archive mode always runs the archiver")
	}

	runner := archive.NewRunner(
		deps.Archiver,
		a.cfg.Archive.RetentionDays,
		a.cfg.Archive.Interval.Duration,
		a.logger,
	)
	return runner.RunLoop(ctx)
}

// FullMode runs the API server and the periodic archiver together.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	g, ctx := errgroup.WithContext(ctx)

	svc, err := a.buildPoolService(ctx, deps)
	if err != nil {
		return fmt.Errorf("full mode: %w", err)
	}
	if a.cfg.Server.Enabled {
		a.startAPI(ctx, g, deps, svc)
	}

	runner := archive.NewRunner(
		deps.Archiver,
		a.cfg.Archive.RetentionDays,
		a.cfg.Archive.Interval.Duration,
		a.logger,
	)
	g.Go(func() error {
		return runner.RunLoop(ctx)
	})

	return g.Wait()
}

// buildPoolService constructs the in-memory pool core for the configured
// owner and token identity, wraps it in the service layer, and rehydrates it
// from the persisted snapshot.
func (a *App) buildPoolService(ctx context.Context, deps *Dependencies) (*service.PoolService, error) {
	owner := domain.Account(a.cfg.Pool.Owner).Normalize()
	core := ledger.NewPool(owner, a.cfg.Pool.Name, a.cfg.Pool.Symbol)

	svc := service.NewPoolService(
		core,
		deps.Clock,
		deps.Snapshots,
		deps.Distributions,
		deps.Events,
		deps.Stats,
		deps.Bus,
		deps.Notifier,
		a.logger,
	)
	if err := svc.Rehydrate(ctx); err != nil {
		return nil, fmt.Errorf("rehydrate pool: %w", err)
	}

	a.logger.InfoContext(ctx, "pool core ready",
		slog.String("owner", owner.String()),
		slog.Uint64("height", svc.Height()),
	)
	return svc, nil
}

// startAPI spins up the WebSocket hub and the HTTP server on the errgroup.
func (a *App) startAPI(ctx context.Context, g *errgroup.Group, deps *Dependencies, svc *service.PoolService) {
	hub := ws.NewHub(deps.Bus, service.EventsChannel, svc.Height, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(
		server.Config{
			Port:        a.cfg.Server.Port,
			CORSOrigins: a.cfg.Server.CORSOrigins,
			AuthToken:   a.cfg.Server.AuthToken,
		},
		server.Handlers{
			Health:   handler.NewHealthHandler(svc.Height, a.logger),
			Pool:     handler.NewPoolHandler(svc, a.logger),
			Accounts: handler.NewAccountHandler(svc, a.logger),
			Events:   handler.NewEventsHandler(svc, a.logger),
		},
		hub,
		deps.RateLimiter,
		a.logger,
	)

	g.Go(func() error {
		a.logger.InfoContext(ctx, "HTTP server listening",
			slog.Int("port", a.cfg.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", a.cfg.Server.Port)),
		)
		return srv.Start()
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}
