package worker

import (
	"context"
	"encoding/json"
	"time"

	"stocksync/internal/infra"
	"stocksync/internal/realtime"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	maxDeliveryAttempts = 3
	deliveryBackoffBase = 200 * time.Millisecond
)

// StartDeliveryPool launches numWorkers goroutines consuming the outbox.
// Each goroutine blocks on BRPOP — zero CPU when idle. Every Redis publish
// goes through the circuit breaker so a downed broker fast-fails instead
// of stalling the whole pool.
func StartDeliveryPool(ctx context.Context, rdb *redis.Client, cb *infra.CircuitBreaker, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runDeliveryWorker(ctx, rdb, cb, i)
	}
	log.Info().Msgf("delivery pool started with %d workers", numWorkers)
}

func runDeliveryWorker(ctx context.Context, rdb *redis.Client, cb *infra.CircuitBreaker, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("delivery worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, OutboxQueue).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			deliver(ctx, rdb, cb, result[1])
		}
	}
}

// deliver publishes one envelope to its room channel, retrying with backoff.
// Delivery is best-effort: after maxDeliveryAttempts the envelope goes to
// the DLQ and the worker moves on. A lost event never blocks the queue.
func deliver(ctx context.Context, rdb *redis.Client, cb *infra.CircuitBreaker, raw string) {
	var env realtime.Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		log.Error().Err(err).Msg("delivery: failed to unmarshal envelope")
		return
	}

	channel := realtime.RoomChannel(env.Room)
	var lastErr error
	for attempt := 1; attempt <= maxDeliveryAttempts; attempt++ {
		lastErr = cb.Execute(func() error {
			return rdb.Publish(ctx, channel, raw).Err()
		})
		if lastErr == nil {
			return
		}
		if lastErr == infra.ErrCircuitOpen {
			// Breaker tripped — no point retrying inline
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(deliveryBackoffBase * time.Duration(attempt)):
		}
	}

	log.Error().
		Err(lastErr).
		Str("room", env.Room).
		Str("event", env.Event).
		Msg("delivery: giving up on envelope")
	SendToDLQ(ctx, rdb, OutboxQueue, env.Event, json.RawMessage(raw), lastErr.Error(), maxDeliveryAttempts)
}
