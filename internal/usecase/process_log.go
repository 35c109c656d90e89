package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/redact"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

// ProcessLogUseCase is the worker-side pipeline for a single queue delivery:
// attribute validation, duplicate detection by content fingerprint, simulated
// processing cost, redaction, and an idempotent commit.
//
// Steps within one invocation are strictly sequential, but each delivery is
// an independent unit of work; nothing here holds state across invocations,
// so any number of deliveries can be in flight concurrently.
type ProcessLogUseCase struct {
	store        domain.ProcessedLogRepository
	logger       *slog.Logger
	sleepPerChar time.Duration
}

// NewProcessLogUseCase creates the processing pipeline. sleepPerChar is the
// simulated per-character processing cost.
func NewProcessLogUseCase(store domain.ProcessedLogRepository, logger *slog.Logger, sleepPerChar time.Duration) *ProcessLogUseCase {
	return &ProcessLogUseCase{
		store:        store,
		logger:       logger,
		sleepPerChar: sleepPerChar,
	}
}

// Process handles one delivery. A nil error with StatusSkipped means the
// delivery was a duplicate and no write was performed. Returned errors are
// classified by domain.IsTerminal: validation failures must not be
// redelivered, everything else is transient and should be.
func (uc *ProcessLogUseCase) Process(ctx context.Context, delivery domain.Delivery) (domain.Outcome, error) {
	tenantID := delivery.Attributes[domain.AttrTenantID]
	logID := delivery.Attributes[domain.AttrLogID]
	if tenantID == "" || logID == "" {
		uc.logger.Error("delivery rejected: missing required attributes", "attributes", delivery.Attributes)
		return domain.Outcome{}, domain.ErrMissingAttributes
	}

	source := delivery.Attributes[domain.AttrSource]
	if source == "" {
		source = "unknown"
	}
	fingerprint := delivery.Attributes[domain.AttrContentHash]
	correlationID := delivery.Attributes[domain.AttrCorrelationID]

	log := uc.logger.With(
		"tenant_id", tenantID,
		"log_id", logID,
		"correlation_id", correlationID,
	)

	text := string(delivery.Payload)

	// Idempotency gate: an empty fingerprint cannot deduplicate, so it
	// always processes. A matching stored fingerprint is a duplicate
	// delivery and a normal success, not an error.
	if fingerprint != "" {
		existing, err := uc.store.Get(ctx, tenantID, logID)
		switch {
		case errors.Is(err, domain.ErrRecordNotFound):
			// First delivery for this key.
		case err != nil:
			return domain.Outcome{}, fmt.Errorf("duplicate check failed: %w", err)
		case existing.Fingerprint == fingerprint:
			log.Info("skipping duplicate delivery", "content_hash", fingerprint)
			return domain.Outcome{Status: domain.StatusSkipped, LogID: logID}, nil
		}
		// A differing fingerprint is a content update and processes
		// normally.
	}

	// Simulated downstream cost, proportional to the text length. The
	// sleep suspends only this invocation.
	delay := time.Duration(len(text)) * uc.sleepPerChar
	log.Info("processing delivery", "chars", len(text), "delay", delay)
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return domain.Outcome{}, ctx.Err()
	}

	record := domain.ProcessedRecord{
		TenantID:      tenantID,
		LogID:         logID,
		Source:        source,
		OriginalText:  text,
		RedactedText:  redact.Redact(text),
		ProcessedAt:   time.Now().UTC(),
		Fingerprint:   fingerprint,
		CorrelationID: correlationID,
	}

	if err := uc.store.Put(ctx, record); err != nil {
		return domain.Outcome{}, fmt.Errorf("failed to persist processed log: %w", err)
	}

	log.Info("stored processed log")
	return domain.Outcome{Status: domain.StatusProcessed, LogID: logID}, nil
}
