package domain

import "context"

// ProcessedLogRepository is the tenant-scoped document store the pipeline
// commits to. Implementations must provide strong per-document consistency;
// no cross-tenant queries or transactions are required.
type ProcessedLogRepository interface {
	// Get reads the record at (tenant id, log id). Returns ErrRecordNotFound
	// when no record exists at that key.
	Get(ctx context.Context, tenantID, logID string) (*ProcessedRecord, error)

	// Put writes the record at (tenant id, log id), overwriting any prior
	// body. Writes must be idempotent; last-write-wins resolves concurrent
	// duplicate deliveries.
	Put(ctx context.Context, record ProcessedRecord) error
}

// QueuePublisher publishes validated records to the message queue.
// Publish is a non-blocking submit: it returns once the record is accepted
// for delivery, and broker-side failures surface only to logs and metrics,
// never to the caller.
type QueuePublisher interface {
	Publish(ctx context.Context, record LogRecord) error
}

// DeliveryProcessor handles a single queue delivery. The returned error's
// classification (IsTerminal) tells the consumer whether redelivery is
// appropriate.
type DeliveryProcessor interface {
	Process(ctx context.Context, delivery Delivery) (Outcome, error)
}

// WALRepository is the local write-ahead fallback used by the gateway when
// the broker is unreachable. Replayed records are re-published once
// connectivity returns.
type WALRepository interface {
	// Write appends a record to the local WAL.
	Write(ctx context.Context, record LogRecord) error

	// Replay reads buffered records and hands them to the handler, which is
	// responsible for re-publishing them.
	Replay(ctx context.Context, handler func(record LogRecord) error) error

	// Truncate removes WAL segments that have been successfully replayed.
	Truncate(ctx context.Context) error
}
