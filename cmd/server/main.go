package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stocksync/internal/config"
	"stocksync/internal/infra"
	"stocksync/internal/realtime"
	"stocksync/internal/repository"
	"stocksync/internal/router"
	"stocksync/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Realtime pipeline: hub holds local sockets, the bridge feeds it from
	// the room pub/sub channels, the delivery pool drains the outbox into
	// those channels through the circuit breaker.
	hub := realtime.NewHub()
	go hub.Run(ctx)
	realtime.StartBridge(ctx, rdb, hub)

	deliveryCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	worker.StartDeliveryPool(ctx, rdb, deliveryCB, cfg.WorkerPoolSize)

	// Periodic pending-count reconcile for admin dashboards
	saleRepo := repository.NewSaleRepository(db)
	worker.StartReconcileCron(ctx, worker.ReconcileCronConfig{
		SaleRepo: saleRepo,
		Router:   realtime.NewRouter(worker.NewDispatcher(rdb)),
		Interval: time.Duration(cfg.PendingReconcileSeconds) * time.Second,
	})

	r := router.New(cfg, db, rdb, hub, deliveryCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("stocksync backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
