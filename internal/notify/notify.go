// Package notify surfaces human-readable engine failures to the client. The
// publisher pushes messages on a redis channel the mobile app's push relay
// listens to; without redis it degrades to the server log.
package notify

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

const Channel = "stride:notifications"

type Publisher struct {
	redis *redis.Client
}

func NewPublisher(redisClient *redis.Client) *Publisher {
	return &Publisher{redis: redisClient}
}

// Notify publishes the message. Delivery failures are logged, never
// propagated: a lost notification must not affect the session lifecycle.
func (p *Publisher) Notify(ctx context.Context, message string) {
	if p.redis == nil {
		log.Printf("notification: %s", message)
		return
	}
	if err := p.redis.Publish(ctx, Channel, message).Err(); err != nil {
		log.Printf("notification publish error: %v", err)
	}
}
