package realtime

import (
	"context"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Room events travel through one Redis pub/sub channel per room, so every
// server instance with connected clients sees every delivery.
const roomChannelPrefix = "room:"

// RoomChannel names the Redis pub/sub channel for a room.
func RoomChannel(room string) string { return roomChannelPrefix + room }

// StartBridge subscribes to all room channels and forwards each message to
// the local hub. Runs until the context is cancelled.
func StartBridge(ctx context.Context, rdb *redis.Client, hub *Hub) {
	go func() {
		pubsub := rdb.PSubscribe(ctx, roomChannelPrefix+"*")
		defer pubsub.Close()

		log.Info().Msg("realtime: room bridge started")
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("realtime: room bridge shutting down")
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				room := strings.TrimPrefix(msg.Channel, roomChannelPrefix)
				hub.Broadcast(room, []byte(msg.Payload))
			}
		}
	}()
}
