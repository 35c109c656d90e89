package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/metrics"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

const payloadField = "payload"

// Publisher implements domain.QueuePublisher on a Redis Stream.
//
// Publish is a fire-and-forget submit: records are handed to a background
// goroutine and XADDed from there, so the HTTP caller never waits on the
// broker. Broker failures are reported through logs and metrics only, and
// records are diverted to the WAL while Redis is unreachable.
type Publisher struct {
	client      *redis.Client
	logger      *slog.Logger
	stream      string
	wal         domain.WALRepository
	metrics     *metrics.GatewayMetrics
	submissions chan domain.LogRecord
	isAvailable atomic.Bool
}

// NewPublisher creates a Redis Stream publisher. The WAL is optional; pass
// nil to disable the fallback.
func NewPublisher(client *redis.Client, logger *slog.Logger, stream string, wal domain.WALRepository, m *metrics.GatewayMetrics) *Publisher {
	p := &Publisher{
		client:      client,
		logger:      logger.With("component", "redis_publisher"),
		stream:      stream,
		wal:         wal,
		metrics:     m,
		submissions: make(chan domain.LogRecord, 1024),
	}
	p.isAvailable.Store(true)
	return p
}

// Publish submits a record for asynchronous delivery. It returns
// domain.ErrPublisherBusy when the submission queue is full.
func (p *Publisher) Publish(ctx context.Context, record domain.LogRecord) error {
	select {
	case p.submissions <- record:
		return nil
	default:
		return domain.ErrPublisherBusy
	}
}

// Start runs the delivery loop until ctx is cancelled.
func (p *Publisher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("stopping publisher delivery loop")
			return
		case record := <-p.submissions:
			p.deliver(ctx, record)
		}
	}
}

// deliver XADDs one record, falling back to the WAL when Redis is down.
// Failures never propagate to the original caller.
func (p *Publisher) deliver(ctx context.Context, record domain.LogRecord) {
	if !p.isAvailable.Load() {
		p.writeToWAL(ctx, record)
		return
	}

	if err := p.add(ctx, record); err != nil {
		if p.metrics != nil {
			p.metrics.PublishFailures.Inc()
		}
		if isNetworkError(err) {
			if p.isAvailable.CompareAndSwap(true, false) {
				p.logger.Error("redis connection lost during publish", "error", err)
				if p.metrics != nil {
					p.metrics.WALActive.Set(1)
				}
			}
			p.writeToWAL(ctx, record)
			return
		}
		p.logger.Error("publish failed",
			"error", err,
			"tenant_id", record.TenantID,
			"log_id", record.LogID,
			"correlation_id", record.CorrelationID,
		)
	}
}

func (p *Publisher) add(ctx context.Context, record domain.LogRecord) error {
	values := make(map[string]interface{}, 7)
	values[payloadField] = record.Text
	for k, v := range record.Attributes() {
		values[k] = v
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: values,
	}
	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to XADD to stream %s: %w", p.stream, err)
	}
	return nil
}

func (p *Publisher) writeToWAL(ctx context.Context, record domain.LogRecord) {
	if p.wal == nil {
		p.logger.Error("redis unavailable and WAL not configured, dropping record",
			"tenant_id", record.TenantID, "log_id", record.LogID)
		return
	}
	if err := p.wal.Write(ctx, record); err != nil {
		p.logger.Error("failed to write record to WAL",
			"error", err, "tenant_id", record.TenantID, "log_id", record.LogID)
	}
}

// StartHealthCheck monitors Redis connectivity and replays the WAL once the
// connection recovers.
func (p *Publisher) StartHealthCheck(ctx context.Context, interval time.Duration) {
	if p.wal == nil {
		p.logger.Info("WAL is not configured, skipping health check/replayer")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.client.Ping(ctx).Err(); err != nil {
				if p.isAvailable.CompareAndSwap(true, false) {
					p.logger.Error("redis connection lost", "error", err)
					if p.metrics != nil {
						p.metrics.WALActive.Set(1)
					}
				}
				continue
			}
			if p.isAvailable.CompareAndSwap(false, true) {
				p.logger.Info("redis connection recovered")
				if err := p.replayWAL(ctx); err != nil {
					p.logger.Error("failed to replay WAL after recovery", "error", err)
					p.isAvailable.Store(false)
					continue
				}
				if p.metrics != nil {
					p.metrics.WALActive.Set(0)
				}
			}
		}
	}
}

func (p *Publisher) replayWAL(ctx context.Context) error {
	if err := p.wal.Replay(ctx, func(record domain.LogRecord) error {
		return p.add(ctx, record)
	}); err != nil {
		return fmt.Errorf("WAL replay failed: %w", err)
	}
	if err := p.wal.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate WAL after replay: %w", err)
	}
	return nil
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed)
}
