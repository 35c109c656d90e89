package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/google/uuid"

	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

// IngestLogUseCase enriches a validated log record and submits it to the
// queue. The submit is fire-and-forget: a broker-side failure never reaches
// the HTTP caller.
type IngestLogUseCase struct {
	publisher domain.QueuePublisher
	logger    *slog.Logger
}

// NewIngestLogUseCase creates a new IngestLogUseCase.
func NewIngestLogUseCase(publisher domain.QueuePublisher, logger *slog.Logger) *IngestLogUseCase {
	return &IngestLogUseCase{
		publisher: publisher,
		logger:    logger,
	}
}

// Ingest stamps the record with its schema version, a correlation id if the
// caller supplied none, and the content fingerprint, then publishes it.
// The fingerprint is computed over the exact text bytes that are published;
// the worker relies on it for deduplication.
func (uc *IngestLogUseCase) Ingest(ctx context.Context, record *domain.LogRecord) error {
	if record.CorrelationID == "" {
		record.CorrelationID = uuid.NewString()
	}
	record.SchemaVersion = domain.SchemaVersion

	sum := sha256.Sum256([]byte(record.Text))
	record.Fingerprint = hex.EncodeToString(sum[:])

	if err := uc.publisher.Publish(ctx, *record); err != nil {
		uc.logger.Error("failed to submit record for publishing",
			"error", err,
			"tenant_id", record.TenantID,
			"log_id", record.LogID,
			"correlation_id", record.CorrelationID,
		)
		return err
	}

	return nil
}
