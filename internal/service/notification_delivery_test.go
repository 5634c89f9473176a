package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-leave-api/internal/models"
	"github.com/noah-isme/sma-leave-api/pkg/jobs"
)

type publisherFunc func(ctx context.Context, n models.Notification) error

func (f publisherFunc) Publish(ctx context.Context, n models.Notification) error { return f(ctx, n) }

func TestQueuedDeliveryPublishes(t *testing.T) {
	published := make(chan models.Notification, 1)
	d := NewQueuedDelivery(publisherFunc(func(ctx context.Context, n models.Notification) error {
		published <- n
		return nil
	}), jobs.QueueConfig{Workers: 1}, nil, nil)
	d.Start(context.Background())
	defer d.Stop()

	d.Deliver(context.Background(), models.Notification{ID: "n-1", RecipientUserID: "u-1"})

	select {
	case n := <-published:
		assert.Equal(t, "u-1", n.RecipientUserID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not published")
	}
}

func TestQueuedDeliveryCountsDroppedPushes(t *testing.T) {
	var calls int32
	metrics := NewMetricsService()
	d := NewQueuedDelivery(publisherFunc(func(ctx context.Context, n models.Notification) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("redis down")
	}), jobs.QueueConfig{Workers: 1, MaxRetries: 1, RetryDelay: time.Millisecond}, metrics, nil)
	d.Start(context.Background())
	defer d.Stop()

	d.Deliver(context.Background(), models.Notification{ID: "n-1", RecipientUserID: "u-1"})

	require.Eventually(t, func() bool {
		return counterValue(t, metrics, "leave_notification_failures_total", map[string]string{"stage": "deliver"}) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestQueuedDeliveryBeforeStartIsNonFatal(t *testing.T) {
	metrics := NewMetricsService()
	d := NewQueuedDelivery(publisherFunc(func(context.Context, models.Notification) error { return nil }), jobs.QueueConfig{}, metrics, nil)

	d.Deliver(context.Background(), models.Notification{ID: "n-1"})

	assert.Equal(t, float64(1), counterValue(t, metrics, "leave_notification_failures_total", map[string]string{"stage": "deliver"}))
}
