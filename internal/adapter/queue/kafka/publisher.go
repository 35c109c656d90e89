package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/metrics"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

// Publisher implements domain.QueuePublisher on Kafka. The writer runs in
// async mode, so Publish returns as soon as the message is enqueued locally;
// delivery failures surface through the completion callback into logs and
// metrics, never to the caller.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher creates an async Kafka publisher for the given topic.
func NewPublisher(brokers []string, topic string, logger *slog.Logger, m *metrics.GatewayMetrics) *Publisher {
	log := logger.With("component", "kafka_publisher")

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err == nil {
				return
			}
			if m != nil {
				m.PublishFailures.Add(float64(len(messages)))
			}
			for _, msg := range messages {
				log.Error("publish failed",
					"error", err,
					"key", string(msg.Key),
				)
			}
		},
	}

	return &Publisher{writer: writer, logger: log}
}

// Publish enqueues one record. The message key is the tenant id so one
// tenant's records land on one partition; attributes travel as headers.
func (p *Publisher) Publish(ctx context.Context, record domain.LogRecord) error {
	attrs := record.Attributes()
	headers := make([]kafka.Header, 0, len(attrs))
	for k, v := range attrs {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}

	msg := kafka.Message{
		Key:     []byte(record.TenantID),
		Value:   []byte(record.Text),
		Headers: headers,
	}

	// Async mode: WriteMessages returns once the message is buffered.
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes buffered messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
