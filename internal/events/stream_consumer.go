package events

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/automation-service/internal/config"
	"github.com/spec-kit/automation-service/internal/observability"
)

// StreamConsumer reads ticket events published by the ticket platform on a
// Redis stream and republishes them on the in-process bus. Entries are read
// through a consumer group so multiple service instances share the stream
// without double-processing.
type StreamConsumer struct {
	client  *redis.Client
	bus     Dispatcher
	cfg     config.IngestConfig
	logger  *zap.Logger
	metrics *observability.Metrics
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewStreamConsumer constructs the consumer.
func NewStreamConsumer(client *redis.Client, bus Dispatcher, cfg config.IngestConfig, logger *zap.Logger, metrics *observability.Metrics) *StreamConsumer {
	return &StreamConsumer{client: client, bus: bus, cfg: cfg, logger: logger, metrics: metrics}
}

// Start creates the consumer group if needed and launches the read loop.
func (c *StreamConsumer) Start(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.Contains(err.Error(), "BUSYGROUP") {
		return err
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.readLoop(ctx)

	c.logger.Info("ticket event consumer started",
		zap.String("stream", c.cfg.Stream),
		zap.String("group", c.cfg.Group),
		zap.String("consumer", c.cfg.Consumer))
	return nil
}

// Stop cancels the read loop and waits for it to finish. In-flight handlers
// are drained by the engine dispatcher, not here.
func (c *StreamConsumer) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}

func (c *StreamConsumer) readLoop(ctx context.Context) {
	defer c.wg.Done()
	for {
		if ctx.Err() != nil {
			return
		}
		streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    c.cfg.Group,
			Consumer: c.cfg.Consumer,
			Streams:  []string{c.cfg.Stream, ">"},
			Count:    c.cfg.BatchSize,
			Block:    c.cfg.Block(),
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("reading ticket event stream failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}

		for _, stream := range streams {
			for _, entry := range stream.Messages {
				c.handleEntry(ctx, entry.Values)
				// malformed entries are acked too: redelivery cannot fix them
				if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, entry.ID).Err(); err != nil {
					c.logger.Warn("failed to ack ticket event",
						zap.String("entry_id", entry.ID),
						zap.Error(err))
				}
			}
		}
	}
}

func (c *StreamConsumer) handleEntry(ctx context.Context, values map[string]interface{}) {
	raw, ok := values["event"].(string)
	if !ok {
		c.logger.Warn("ticket event entry has no event field")
		c.metrics.RecordEventIngested("unknown", false)
		return
	}

	event, err := DecodeEvent([]byte(raw))
	if err != nil {
		c.logger.Warn("skipping undecodable ticket event", zap.Error(err))
		c.metrics.RecordEventIngested("unknown", false)
		return
	}

	if err := c.bus.Publish(ctx, event); err != nil {
		c.logger.Warn("publishing ticket event failed",
			zap.String("ticket_id", event.TicketID),
			zap.Error(err))
		c.metrics.RecordEventIngested(string(event.Type), false)
		return
	}
	c.metrics.RecordEventIngested(string(event.Type), true)
}
