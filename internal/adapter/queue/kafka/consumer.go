package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/metrics"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

const (
	maxInlineRetries = 3
	retryBackoff     = 1 * time.Second
)

// Consumer reads deliveries from a Kafka consumer group and hands them to
// the processing pipeline. Success and terminal failures commit the offset;
// terminal failures are additionally logged and counted. Retryable failures
// are retried in place with backoff, and the offset is left uncommitted if
// they never succeed, so the message is redelivered after a rebalance.
type Consumer struct {
	reader    *kafka.Reader
	logger    *slog.Logger
	processor domain.DeliveryProcessor
	metrics   *metrics.WorkerMetrics
}

// NewConsumer creates a Kafka consumer-group reader.
func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger, processor domain.DeliveryProcessor, m *metrics.WorkerMetrics) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{
		reader:    reader,
		logger:    logger.With("component", "kafka_consumer"),
		processor: processor,
		metrics:   m,
	}
}

// Run consumes deliveries until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started")
	defer c.reader.Close()

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				c.logger.Info("consumer stopping")
				return ctx.Err()
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}

		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	delivery := deliveryFromMessage(msg)

	var outcome domain.Outcome
	var err error
	for attempt := 0; attempt < maxInlineRetries; attempt++ {
		started := time.Now()
		outcome, err = c.processor.Process(ctx, delivery)
		c.observe(time.Since(started))
		if err == nil || domain.IsTerminal(err) {
			break
		}
		c.logger.Warn("retryable processing failure, retrying",
			"attempt", attempt+1,
			"tenant_id", delivery.Attributes[domain.AttrTenantID],
			"log_id", delivery.Attributes[domain.AttrLogID],
			"error", err,
		)
		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return
		}
	}

	switch {
	case err == nil:
		c.commit(ctx, msg)
		c.count(string(outcome.Status))
	case domain.IsTerminal(err):
		c.logger.Error("terminal processing failure, dropping delivery",
			"tenant_id", delivery.Attributes[domain.AttrTenantID],
			"log_id", delivery.Attributes[domain.AttrLogID],
			"error", err,
		)
		c.commit(ctx, msg)
		c.count("terminal")
	default:
		// Leave uncommitted; the message comes back after a rebalance
		// or restart.
		c.logger.Error("processing failed after retries, leaving offset uncommitted",
			"tenant_id", delivery.Attributes[domain.AttrTenantID],
			"log_id", delivery.Attributes[domain.AttrLogID],
			"error", err,
		)
		c.count("retryable")
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("failed to commit offset", "error", err)
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

func deliveryFromMessage(msg kafka.Message) domain.Delivery {
	attrs := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		attrs[h.Key] = string(h.Value)
	}
	return domain.Delivery{
		Payload:    msg.Value,
		Attributes: attrs,
	}
}
