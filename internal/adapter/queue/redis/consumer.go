package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/metrics"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

// Consumer reads deliveries from a Redis Stream consumer group and hands
// them to the processing pipeline. The pipeline's error classification
// drives the redelivery policy:
//
//   - success (processed or skipped): XACK, no redelivery
//   - terminal failure: copy to the DLQ stream, then XACK
//   - retryable failure: leave pending; the reclaim loop redelivers it
type Consumer struct {
	client         *redis.Client
	logger         *slog.Logger
	processor      domain.DeliveryProcessor
	metrics        *metrics.WorkerMetrics
	stream         string
	dlqStream      string
	group          string
	consumer       string
	batchSize      int
	reclaimMinIdle time.Duration
}

// NewConsumer creates a stream consumer and ensures the consumer group
// exists.
func NewConsumer(
	client *redis.Client,
	logger *slog.Logger,
	processor domain.DeliveryProcessor,
	m *metrics.WorkerMetrics,
	stream, dlqStream, group, consumer string,
	batchSize int,
	reclaimMinIdle time.Duration,
) (*Consumer, error) {
	c := &Consumer{
		client:         client,
		logger:         logger.With("component", "redis_consumer"),
		processor:      processor,
		metrics:        m,
		stream:         stream,
		dlqStream:      dlqStream,
		group:          group,
		consumer:       consumer,
		batchSize:      batchSize,
		reclaimMinIdle: reclaimMinIdle,
	}

	err := client.XGroupCreateMkStream(context.Background(), stream, group, "0").Err()
	if err != nil && !isBusyGroupError(err) {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}
	return c, nil
}

// Run consumes deliveries until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started", "stream", c.stream, "group", c.group, "consumer", c.consumer)

	reclaimTicker := time.NewTicker(c.reclaimMinIdle)
	defer reclaimTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopping")
			return ctx.Err()
		case <-reclaimTicker.C:
			c.reclaimPending(ctx)
		default:
			if err := c.readBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				c.logger.Error("failed to read from stream", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (c *Consumer) readBatch(ctx context.Context) error {
	args := &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, ">"},
		Count:    int64(c.batchSize),
		Block:    2 * time.Second,
	}

	streams, err := c.client.XReadGroup(ctx, args).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("XREADGROUP failed: %w", err)
	}

	for _, stream := range streams {
		for _, msg := range stream.Messages {
			c.handle(ctx, msg)
		}
	}
	return nil
}

// reclaimPending takes over deliveries another consumer read but never
// acknowledged, so retryable failures and crashed workers get redelivered.
func (c *Consumer) reclaimPending(ctx context.Context) {
	start := "0-0"
	for {
		messages, next, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   c.stream,
			Group:    c.group,
			Consumer: c.consumer,
			MinIdle:  c.reclaimMinIdle,
			Start:    start,
			Count:    int64(c.batchSize),
		}).Result()
		if err != nil {
			c.logger.Error("XAUTOCLAIM failed", "error", err)
			return
		}

		for _, msg := range messages {
			c.handle(ctx, msg)
		}

		if next == "0-0" || len(messages) == 0 {
			return
		}
		start = next
	}
}

func (c *Consumer) handle(ctx context.Context, msg redis.XMessage) {
	delivery, err := deliveryFromMessage(msg)
	if err != nil {
		// Not a well-formed stream entry; park it in the DLQ.
		c.logger.Error("invalid stream entry", "message_id", msg.ID, "error", err)
		c.moveToDLQ(ctx, msg)
		c.ack(ctx, msg.ID)
		c.count("terminal")
		return
	}

	started := time.Now()
	outcome, err := c.processor.Process(ctx, delivery)
	c.observe(time.Since(started))
	switch {
	case err == nil:
		c.ack(ctx, msg.ID)
		c.count(string(outcome.Status))
	case domain.IsTerminal(err):
		c.logger.Error("terminal processing failure, moving to DLQ",
			"message_id", msg.ID,
			"tenant_id", delivery.Attributes[domain.AttrTenantID],
			"log_id", delivery.Attributes[domain.AttrLogID],
			"error", err,
		)
		c.moveToDLQ(ctx, msg)
		c.ack(ctx, msg.ID)
		c.count("terminal")
	default:
		// Retryable: leave the entry pending so the reclaim loop
		// redelivers it later.
		c.logger.Warn("retryable processing failure, leaving delivery pending",
			"message_id", msg.ID,
			"tenant_id", delivery.Attributes[domain.AttrTenantID],
			"log_id", delivery.Attributes[domain.AttrLogID],
			"error", err,
		)
		c.count("retryable")
	}
}

func (c *Consumer) ack(ctx context.Context, messageID string) {
	if err := c.client.XAck(ctx, c.stream, c.group, messageID).Err(); err != nil {
		c.logger.Error("failed to XACK message", "message_id", messageID, "error", err)
	}
}

func (c *Consumer) moveToDLQ(ctx context.Context, msg redis.XMessage) {
	values := make(map[string]interface{}, len(msg.Values)+2)
	for k, v := range msg.Values {
		values[k] = v
	}
	values["original_msg_id"] = msg.ID
	values["failed_at"] = time.Now().UTC().Format(time.RFC3339)

	args := &redis.XAddArgs{Stream: c.dlqStream, Values: values}
	if err := c.client.XAdd(ctx, args).Err(); err != nil {
		c.logger.Error("failed to move message to DLQ", "message_id", msg.ID, "error", err)
	}
}

func (c *Consumer) count(outcome string) {
	if c.metrics != nil {
		c.metrics.DeliveriesTotal.WithLabelValues(outcome).Inc()
	}
}

func (c *Consumer) observe(d time.Duration) {
	if c.metrics != nil {
		c.metrics.ProcessingSeconds.Observe(d.Seconds())
	}
}

// deliveryFromMessage maps a stream entry back to a queue delivery: the
// payload field carries the text, every other field is an attribute.
func deliveryFromMessage(msg redis.XMessage) (domain.Delivery, error) {
	payload, ok := msg.Values[payloadField].(string)
	if !ok {
		return domain.Delivery{}, fmt.Errorf("stream entry %s has no payload field", msg.ID)
	}

	attrs := make(map[string]string, len(msg.Values)-1)
	for k, v := range msg.Values {
		if k == payloadField {
			continue
		}
		if s, ok := v.(string); ok {
			attrs[k] = s
		}
	}

	return domain.Delivery{
		Payload:    []byte(payload),
		Attributes: attrs,
		MessageID:  msg.ID,
	}, nil
}

func isBusyGroupError(err error) bool {
	return err != nil && err.Error() == "BUSYGROUP Consumer Group name already exists"
}
