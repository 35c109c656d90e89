package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

// MockIngestor is a mock implementation of LogIngestor.
type MockIngestor struct {
	IngestFunc func(ctx context.Context, record *domain.LogRecord) error
	LastRecord *domain.LogRecord
}

func (m *MockIngestor) Ingest(ctx context.Context, record *domain.LogRecord) error {
	m.LastRecord = record
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, record)
	}
	return nil
}

func TestIngestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		contentType    string
		headers        map[string]string
		body           string
		ingestErr      error
		expectedStatus int
		expectedCode   string
	}{
		{
			name:           "Valid JSON",
			contentType:    "application/json",
			body:           `{"tenant_id":"acme_corp","log_id":"log-001","text":"hello"}`,
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "JSON missing tenant_id",
			contentType:    "application/json",
			body:           `{"log_id":"log-001","text":"hello"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   CodeValidationError,
		},
		{
			name:           "JSON missing log_id",
			contentType:    "application/json",
			body:           `{"tenant_id":"acme_corp","text":"hello"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   CodeValidationError,
		},
		{
			name:           "JSON missing text",
			contentType:    "application/json",
			body:           `{"tenant_id":"acme_corp","log_id":"log-001"}`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   CodeValidationError,
		},
		{
			name:           "Invalid JSON",
			contentType:    "application/json",
			body:           `{"tenant_id":`,
			expectedStatus: http.StatusBadRequest,
			expectedCode:   CodeInvalidJSON,
		},
		{
			name:           "Plain text with tenant header",
			contentType:    "text/plain",
			headers:        map[string]string{"X-Tenant-ID": "acme_corp"},
			body:           "raw log line",
			expectedStatus: http.StatusAccepted,
		},
		{
			name:           "Plain text without tenant header",
			contentType:    "text/plain",
			body:           "raw log line",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   CodeValidationError,
		},
		{
			name:           "Plain text with blank body",
			contentType:    "text/plain",
			headers:        map[string]string{"X-Tenant-ID": "acme_corp"},
			body:           "   \n",
			expectedStatus: http.StatusBadRequest,
			expectedCode:   CodeValidationError,
		},
		{
			name:           "Unsupported content type",
			contentType:    "application/xml",
			body:           `<log/>`,
			expectedStatus: http.StatusUnsupportedMediaType,
			expectedCode:   CodeUnsupportedContentType,
		},
		{
			name:           "Text over the length limit",
			contentType:    "application/json",
			body:           `{"tenant_id":"t","log_id":"l","text":"` + strings.Repeat("x", 5001) + `"}`,
			expectedStatus: http.StatusRequestEntityTooLarge,
			expectedCode:   CodePayloadTooLarge,
		},
		{
			name:           "Publisher unavailable",
			contentType:    "application/json",
			body:           `{"tenant_id":"t","log_id":"l","text":"hello"}`,
			ingestErr:      domain.ErrPublisherBusy,
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   CodeServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockIngestor{IngestFunc: func(ctx context.Context, record *domain.LogRecord) error {
				return tt.ingestErr
			}}
			h := NewIngestHandler(mock, logger, nil, 5000)

			req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d (body: %s)", rr.Code, tt.expectedStatus, rr.Body.String())
			}

			var resp APIResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("response is not valid JSON: %v", err)
			}

			if tt.expectedCode != "" {
				if resp.Success {
					t.Error("expected success=false")
				}
				if resp.Error == nil || resp.Error.Code != tt.expectedCode {
					t.Errorf("error code = %+v, want %s", resp.Error, tt.expectedCode)
				}
			} else if !resp.Success {
				t.Errorf("expected success=true, got %+v", resp)
			}
		})
	}
}

func TestIngestHandler_PlainTextGeneratesLogID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mock := &MockIngestor{}
	h := NewIngestHandler(mock, logger, nil, 5000)

	req := httptest.NewRequest(http.MethodPost, "/ingest", strings.NewReader("raw line"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("X-Tenant-ID", "acme_corp")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rr.Code)
	}
	if mock.LastRecord == nil {
		t.Fatal("ingestor was not called")
	}
	if mock.LastRecord.LogID == "" {
		t.Error("expected a generated log id for text uploads")
	}
	if mock.LastRecord.Source != "text_upload" {
		t.Errorf("source = %q, want text_upload", mock.LastRecord.Source)
	}
}

func TestIngestHandler_CorrelationIDFromHeader(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mock := &MockIngestor{}
	h := NewIngestHandler(mock, logger, nil, 5000)

	req := httptest.NewRequest(http.MethodPost, "/ingest",
		strings.NewReader(`{"tenant_id":"t","log_id":"l","text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "req-42")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	if mock.LastRecord == nil || mock.LastRecord.CorrelationID != "req-42" {
		t.Errorf("correlation id not taken from X-Request-ID: %+v", mock.LastRecord)
	}
}
