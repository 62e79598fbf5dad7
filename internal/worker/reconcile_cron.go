package worker

// reconcile_cron.go
// Background goroutine that periodically recomputes the pending-sale count
// from the database and re-pushes it to admin_room. Dashboards that missed
// a push (reconnect, dropped message) converge within one tick.

import (
	"context"
	"time"

	"stocksync/internal/realtime"
	"stocksync/internal/repository"

	"github.com/rs/zerolog/log"
)

// ReconcileCronConfig holds the dependencies for the reconcile goroutine.
type ReconcileCronConfig struct {
	SaleRepo repository.SaleRepository
	Router   *realtime.Router
	Interval time.Duration
}

// StartReconcileCron launches a goroutine that ticks every Interval and
// pushes the fresh pending count with action "reconcile" and no delta.
// An Interval <= 0 disables it. Respects the context for graceful shutdown.
func StartReconcileCron(ctx context.Context, cfg ReconcileCronConfig) {
	if cfg.Interval <= 0 {
		log.Info().Msg("reconcile_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("reconcile_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("reconcile_cron: shutting down")
				return
			case <-ticker.C:
				count, err := cfg.SaleRepo.CountPending(ctx, nil)
				if err != nil {
					log.Error().Err(err).Msg("reconcile_cron: failed to count pending sales")
					continue
				}
				cfg.Router.PendingCount(ctx, count, "reconcile", nil)
			}
		}
	}()
}
