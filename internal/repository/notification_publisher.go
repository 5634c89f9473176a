package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/sma-leave-api/internal/models"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// NotificationPublisher pushes stored notifications to per-user Redis channels.
type NotificationPublisher struct {
	client redisPublisher
	prefix string
}

// NewNotificationPublisher constructs a publisher writing to "<prefix>:<userID>".
func NewNotificationPublisher(client redisPublisher, prefix string) *NotificationPublisher {
	if prefix == "" {
		prefix = "notifications"
	}
	return &NotificationPublisher{client: client, prefix: prefix}
}

// Channel returns the channel a recipient subscribes to.
func (p *NotificationPublisher) Channel(userID string) string {
	return p.prefix + ":" + userID
}

// Publish serialises the notification and sends it to the recipient channel.
func (p *NotificationPublisher) Publish(ctx context.Context, n models.Notification) error {
	if p.client == nil {
		return nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification %s: %w", n.ID, err)
	}
	channel := p.Channel(n.RecipientUserID)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", channel, err)
	}
	return nil
}
