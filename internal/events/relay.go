package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"reelcast/internal/logging"
	"reelcast/internal/project"
	"reelcast/internal/project/redisstore"
)

// Relay republishes project updates broadcast by the redis store so
// websocket clients see runs executed by workers in other processes. It
// returns when ctx ends.
func Relay(ctx context.Context, client *redis.Client, hub *Hub, logger *slog.Logger) error {
	logger = logging.NewComponentLogger(logger, "events")
	sub := client.PSubscribe(ctx, redisstore.EventPattern())
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var p project.Project
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				logger.Debug("dropping undecodable project event",
					logging.String("channel", msg.Channel),
					logging.Error(err),
				)
				continue
			}
			hub.Status(&p)
		}
	}
}
