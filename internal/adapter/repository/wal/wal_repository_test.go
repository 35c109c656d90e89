package wal

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

func setupTestWAL(t *testing.T, maxSegmentSize, maxTotalSize int64) *WALRepository {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := NewWALRepository(t.TempDir(), maxSegmentSize, maxTotalSize, logger)
	if err != nil {
		t.Fatalf("failed to create WALRepository: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	return w
}

func testRecord(text string) domain.LogRecord {
	return domain.LogRecord{
		TenantID:    "acme_corp",
		LogID:       uuid.NewString(),
		Text:        text,
		Source:      "json_upload",
		Fingerprint: "hash-" + text,
	}
}

func TestWAL_WriteAndReplay(t *testing.T) {
	w := setupTestWAL(t, 1024, 10*1024)

	records := []domain.LogRecord{
		testRecord("record 1"),
		testRecord("record 2"),
		testRecord("record 3"),
	}

	for _, record := range records {
		if err := w.Write(context.Background(), record); err != nil {
			t.Fatalf("failed to write record: %v", err)
		}
	}
	w.Close()

	// Re-open the WAL to simulate a restart.
	w2, err := NewWALRepository(w.dir, 1024, 10*1024, w.logger)
	if err != nil {
		t.Fatalf("failed to re-open WAL: %v", err)
	}
	defer w2.Close()

	var replayed []domain.LogRecord
	if err := w2.Replay(context.Background(), func(record domain.LogRecord) error {
		replayed = append(replayed, record)
		return nil
	}); err != nil {
		t.Fatalf("failed to replay records: %v", err)
	}

	if len(replayed) != len(records) {
		t.Fatalf("expected %d replayed records, got %d", len(records), len(replayed))
	}
	for i, record := range records {
		if replayed[i].LogID != record.LogID || replayed[i].Text != record.Text {
			t.Errorf("replayed record mismatch at index %d: got %+v, want %+v", i, replayed[i], record)
		}
	}
}

func TestWAL_SegmentRotation(t *testing.T) {
	// A tiny segment size forces rotation on every couple of writes.
	w := setupTestWAL(t, 100, 10*1024)

	record := testRecord("a record long enough to trip the rotation threshold")
	data, _ := json.Marshal(record)
	writes := (300 / len(data)) + 2

	for i := 0; i < writes; i++ {
		if err := w.Write(context.Background(), testRecord("a record long enough to trip the rotation threshold")); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	segments, err := w.sortedSegments()
	if err != nil {
		t.Fatalf("failed to list segments: %v", err)
	}
	if len(segments) < 2 {
		t.Errorf("expected rotation to create multiple segments, got %d", len(segments))
	}
}

func TestWAL_MaxDiskSizeEnforced(t *testing.T) {
	w := setupTestWAL(t, 1024, 200)

	var writeErr error
	for i := 0; i < 20; i++ {
		if writeErr = w.Write(context.Background(), testRecord("filler record to exhaust the WAL budget")); writeErr != nil {
			break
		}
	}

	if writeErr == nil {
		t.Fatal("expected a write to fail once the WAL budget is exhausted")
	}
}

func TestWAL_TruncateClearsSegments(t *testing.T) {
	w := setupTestWAL(t, 1024, 10*1024)

	if err := w.Write(context.Background(), testRecord("doomed record")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := w.Truncate(context.Background()); err != nil {
		t.Fatalf("truncate failed: %v", err)
	}

	var replayed int
	if err := w.Replay(context.Background(), func(record domain.LogRecord) error {
		replayed++
		return nil
	}); err != nil {
		t.Fatalf("replay after truncate failed: %v", err)
	}
	if replayed != 0 {
		t.Errorf("expected no records after truncate, got %d", replayed)
	}
}
