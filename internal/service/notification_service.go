package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/config"
	"github.com/spec-kit/automation-service/internal/domain"
	"github.com/spec-kit/automation-service/internal/observability"
)

// NotificationService publishes notification requests onto a Redis stream
// consumed by the delivery pipeline. Enqueue is fire-and-forget: a stream
// failure is logged and counted, never surfaced to the caller, so a broken
// broker cannot stall rule execution or SLA sweeps.
type NotificationService struct {
	client  *redis.Client
	cfg     config.NotificationConfig
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewNotificationService creates the service.
func NewNotificationService(client *redis.Client, cfg config.NotificationConfig, logger *zap.Logger, metrics *observability.Metrics) *NotificationService {
	return &NotificationService{client: client, cfg: cfg, logger: logger, metrics: metrics}
}

// Enqueue appends one notification request to the stream, assigning its id
// and timestamp. The stream is length-capped so a stalled consumer cannot
// grow it without bound.
func (n *NotificationService) Enqueue(ctx context.Context, notification domain.Notification) {
	notification.ID = uuid.NewString()
	notification.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(notification)
	if err != nil {
		n.logger.Error("cannot serialize notification",
			zap.String("ticket_id", notification.TicketID),
			zap.Error(err))
		n.metrics.RecordNotification(string(notification.Kind), true)
		return
	}

	err = n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.cfg.Stream,
		MaxLen: n.cfg.MaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"id":      notification.ID,
			"kind":    string(notification.Kind),
			"payload": payload,
		},
	}).Err()
	if err != nil {
		n.logger.Error("failed to enqueue notification",
			zap.String("stream", n.cfg.Stream),
			zap.String("ticket_id", notification.TicketID),
			zap.String("kind", string(notification.Kind)),
			zap.Error(err))
		n.metrics.RecordNotification(string(notification.Kind), true)
		return
	}

	n.metrics.RecordNotification(string(notification.Kind), false)
}
