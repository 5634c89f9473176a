package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-leave-api/internal/models"
	"github.com/noah-isme/sma-leave-api/pkg/jobs"
)

const jobTypeNotificationPush = "notification.push"

type notificationPublisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// QueuedDelivery publishes stored notifications from a background worker pool so a slow
// broker never delays a leave transition.
type QueuedDelivery struct {
	queue     *jobs.Queue
	publisher notificationPublisher
	metrics   notificationRecorder
	logger    *zap.Logger
	timeout   time.Duration
}

// NewQueuedDelivery wires a worker pool around the publisher.
func NewQueuedDelivery(publisher notificationPublisher, cfg jobs.QueueConfig, metrics *MetricsService, logger *zap.Logger) *QueuedDelivery {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &QueuedDelivery{
		publisher: publisher,
		metrics:   noopNotificationRecorder{},
		logger:    logger,
		timeout:   5 * time.Second,
	}
	if metrics != nil {
		d.metrics = metrics
	}
	cfg.Logger = logger
	cfg.OnDrop = func(job jobs.Job, err error) {
		d.metrics.RecordNotificationFailure("deliver")
	}
	d.queue = jobs.NewQueue("notification-push", d.handle, cfg)
	return d
}

// Start launches the workers.
func (d *QueuedDelivery) Start(ctx context.Context) {
	d.queue.Start(ctx)
}

// Stop halts the workers; undelivered notifications stay readable through the API.
func (d *QueuedDelivery) Stop() {
	d.queue.Stop()
}

// Deliver enqueues the notification without blocking.
func (d *QueuedDelivery) Deliver(_ context.Context, n models.Notification) {
	job := jobs.Job{ID: n.ID, Type: jobTypeNotificationPush, Payload: n}
	if err := d.queue.Offer(job); err != nil {
		d.metrics.RecordNotificationFailure("deliver")
		d.logger.Warn("notification push not queued", zap.String("notification_id", n.ID), zap.Error(err))
	}
}

func (d *QueuedDelivery) handle(ctx context.Context, job jobs.Job) error {
	n, ok := job.Payload.(models.Notification)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	return d.publisher.Publish(ctx, n)
}
