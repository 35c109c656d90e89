package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain/mocks"
)

func makeDelivery(tenantID, logID, text, hash string) domain.Delivery {
	return domain.Delivery{
		Payload: []byte(text),
		Attributes: map[string]string{
			domain.AttrTenantID:      tenantID,
			domain.AttrLogID:         logID,
			domain.AttrSource:        "json_upload",
			domain.AttrContentHash:   hash,
			domain.AttrCorrelationID: "corr-1",
		},
	}
}

func TestProcessLogUseCase_Process(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Successful Processing", func(t *testing.T) {
		store := &mocks.MockProcessedLogRepository{}
		uc := NewProcessLogUseCase(store, logger, 0)

		outcome, err := uc.Process(context.Background(), makeDelivery("acme", "log-1", "User 555-0199 accessed the system", "hash-1"))

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if outcome.Status != domain.StatusProcessed {
			t.Errorf("expected status processed, got %s", outcome.Status)
		}
		if store.Puts != 1 {
			t.Fatalf("expected 1 store write, got %d", store.Puts)
		}

		rec := store.Records["acme/log-1"]
		if rec.RedactedText != "User [REDACTED] accessed the system" {
			t.Errorf("unexpected redacted text: %q", rec.RedactedText)
		}
		if rec.OriginalText != "User 555-0199 accessed the system" {
			t.Errorf("original text must be preserved: %q", rec.OriginalText)
		}
		if rec.Fingerprint != "hash-1" {
			t.Errorf("unexpected fingerprint: %q", rec.Fingerprint)
		}
		if rec.ProcessedAt.Location() != time.UTC {
			t.Error("processed timestamp must be UTC")
		}
	})

	t.Run("Missing Required Attributes", func(t *testing.T) {
		store := &mocks.MockProcessedLogRepository{}
		uc := NewProcessLogUseCase(store, logger, 0)

		delivery := makeDelivery("", "log-1", "text", "hash-1")
		_, err := uc.Process(context.Background(), delivery)

		if !errors.Is(err, domain.ErrMissingAttributes) {
			t.Fatalf("expected ErrMissingAttributes, got %v", err)
		}
		if !domain.IsTerminal(err) {
			t.Error("missing attributes must be a terminal failure")
		}
		if store.Gets != 0 || store.Puts != 0 {
			t.Error("store must not be touched for invalid deliveries")
		}
	})

	t.Run("Duplicate Delivery Is Skipped Without Write", func(t *testing.T) {
		store := &mocks.MockProcessedLogRepository{}
		uc := NewProcessLogUseCase(store, logger, 0)
		delivery := makeDelivery("acme", "log-1", "same content", "hash-1")

		if _, err := uc.Process(context.Background(), delivery); err != nil {
			t.Fatalf("first delivery failed: %v", err)
		}

		outcome, err := uc.Process(context.Background(), delivery)
		if err != nil {
			t.Fatalf("second delivery failed: %v", err)
		}
		if outcome.Status != domain.StatusSkipped {
			t.Errorf("expected status skipped, got %s", outcome.Status)
		}
		if store.Puts != 1 {
			t.Errorf("duplicate must not write: got %d writes", store.Puts)
		}
	})

	t.Run("Different Fingerprint Is A Content Update", func(t *testing.T) {
		store := &mocks.MockProcessedLogRepository{}
		uc := NewProcessLogUseCase(store, logger, 0)

		if _, err := uc.Process(context.Background(), makeDelivery("acme", "log-1", "first version", "hash-1")); err != nil {
			t.Fatalf("first delivery failed: %v", err)
		}
		outcome, err := uc.Process(context.Background(), makeDelivery("acme", "log-1", "second version", "hash-2"))
		if err != nil {
			t.Fatalf("second delivery failed: %v", err)
		}

		if outcome.Status != domain.StatusProcessed {
			t.Errorf("expected status processed, got %s", outcome.Status)
		}
		if store.Puts != 2 {
			t.Errorf("expected 2 writes, got %d", store.Puts)
		}
		if rec := store.Records["acme/log-1"]; rec.OriginalText != "second version" {
			t.Errorf("store must end with the second content, got %q", rec.OriginalText)
		}
	})

	t.Run("Empty Fingerprint Always Processes", func(t *testing.T) {
		store := &mocks.MockProcessedLogRepository{}
		uc := NewProcessLogUseCase(store, logger, 0)
		delivery := makeDelivery("acme", "log-1", "content", "")

		for i := 0; i < 2; i++ {
			outcome, err := uc.Process(context.Background(), delivery)
			if err != nil {
				t.Fatalf("delivery %d failed: %v", i, err)
			}
			if outcome.Status != domain.StatusProcessed {
				t.Errorf("delivery %d: expected processed, got %s", i, outcome.Status)
			}
		}
		if store.Gets != 0 {
			t.Errorf("no duplicate check possible without a fingerprint, got %d reads", store.Gets)
		}
		if store.Puts != 2 {
			t.Errorf("expected 2 writes, got %d", store.Puts)
		}
	})

	t.Run("Store Read Failure Is Retryable", func(t *testing.T) {
		store := &mocks.MockProcessedLogRepository{GetErr: errors.New("store unreachable")}
		uc := NewProcessLogUseCase(store, logger, 0)

		_, err := uc.Process(context.Background(), makeDelivery("acme", "log-1", "content", "hash-1"))

		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if domain.IsTerminal(err) {
			t.Errorf("store failures must be retryable, got terminal: %v", err)
		}
	})

	t.Run("Store Write Failure Is Retryable", func(t *testing.T) {
		store := &mocks.MockProcessedLogRepository{PutErr: errors.New("write timeout")}
		uc := NewProcessLogUseCase(store, logger, 0)

		_, err := uc.Process(context.Background(), makeDelivery("acme", "log-1", "content", "hash-1"))

		if err == nil {
			t.Fatal("expected an error, got nil")
		}
		if domain.IsTerminal(err) {
			t.Errorf("store failures must be retryable, got terminal: %v", err)
		}
	})

	t.Run("Cancelled Context Aborts The Delay", func(t *testing.T) {
		store := &mocks.MockProcessedLogRepository{}
		uc := NewProcessLogUseCase(store, logger, time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := uc.Process(ctx, makeDelivery("acme", "log-1", strings.Repeat("x", 100), "hash-1"))
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected context deadline error, got %v", err)
		}
		if store.Puts != 0 {
			t.Error("no write must happen after an aborted delay")
		}
	})
}

func TestProcessLogUseCase_DelayScalesWithLength(t *testing.T) {
	store := &mocks.MockProcessedLogRepository{}
	perChar := 2 * time.Millisecond
	uc := NewProcessLogUseCase(store, slog.New(slog.NewTextHandler(io.Discard, nil)), perChar)

	text := strings.Repeat("a", 100)
	minDelay := time.Duration(len(text)) * perChar

	start := time.Now()
	if _, err := uc.Process(context.Background(), makeDelivery("acme", "log-1", text, "hash-1")); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < minDelay {
		t.Errorf("delay too short: %v < %v", elapsed, minDelay)
	}
}

func TestProcessLogUseCase_DelaysDoNotBlockEachOther(t *testing.T) {
	store := &mocks.MockProcessedLogRepository{}
	perChar := 2 * time.Millisecond
	uc := NewProcessLogUseCase(store, slog.New(slog.NewTextHandler(io.Discard, nil)), perChar)

	text := strings.Repeat("a", 100)
	minDelay := time.Duration(len(text)) * perChar // 200ms each

	var wg sync.WaitGroup
	start := time.Now()
	for i, logID := range []string{"log-a", "log-b"} {
		wg.Add(1)
		go func(i int, logID string) {
			defer wg.Done()
			if _, err := uc.Process(context.Background(), makeDelivery("acme", logID, text, "hash-1")); err != nil {
				t.Errorf("delivery %d failed: %v", i, err)
			}
		}(i, logID)
	}
	wg.Wait()
	elapsed := time.Since(start)

	if elapsed < minDelay {
		t.Errorf("each delivery must still incur its own delay: %v < %v", elapsed, minDelay)
	}
	// Two sequential delays would take at least 2×minDelay; concurrent
	// invocations must not serialize behind each other.
	if elapsed >= 2*minDelay {
		t.Errorf("concurrent delays appear serialized: %v >= %v", elapsed, 2*minDelay)
	}
}
