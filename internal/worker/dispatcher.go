package worker

import (
	"context"
	"encoding/json"

	"stocksync/internal/realtime"

	"github.com/redis/go-redis/v9"
)

// OutboxQueue is the Redis list holding events awaiting delivery.
// The delivery pool dequeues them via BRPOP.
const OutboxQueue = "notify:outbox"

// Dispatcher enqueues realtime events into the outbox list instead of
// publishing them inline. A request handler only pays for one LPUSH; the
// actual fan-out to room channels happens in the delivery pool.
// Dispatcher satisfies realtime.Publisher.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// Publish marshals the envelope and pushes it onto the outbox queue.
func (d *Dispatcher) Publish(ctx context.Context, env realtime.Envelope) error {
	encoded, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, OutboxQueue, encoded).Err()
}
