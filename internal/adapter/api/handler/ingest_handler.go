package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/metrics"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

// LogIngestor is the gateway-side use case contract the handler depends on.
type LogIngestor interface {
	Ingest(ctx context.Context, record *domain.LogRecord) error
}

// IngestHandler accepts log records over HTTP and queues them for async
// processing. It supports JSON bodies and raw text/plain with the tenant id
// in a header.
type IngestHandler struct {
	useCase       LogIngestor
	logger        *slog.Logger
	metrics       *metrics.GatewayMetrics
	maxTextLength int
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(uc LogIngestor, logger *slog.Logger, m *metrics.GatewayMetrics, maxTextLength int) *IngestHandler {
	return &IngestHandler{
		useCase:       uc,
		logger:        logger,
		metrics:       m,
		maxTextLength: maxTextLength,
	}
}

type ingestRequest struct {
	TenantID string `json:"tenant_id"`
	LogID    string `json:"log_id"`
	Text     string `json:"text"`
}

// ServeHTTP processes incoming ingestion requests and responds 202 once the
// record has been accepted for publishing. It never waits on the broker.
func (h *IngestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	record, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	if len(record.Text) > h.maxTextLength {
		h.count("error_size")
		writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
			fmt.Sprintf("text exceeds %d characters", h.maxTextLength))
		return
	}

	record.CorrelationID = r.Header.Get("X-Request-ID")

	if err := h.useCase.Ingest(r.Context(), record); err != nil {
		h.count("error_publish")
		writeError(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "failed to queue message")
		return
	}

	h.count("accepted")
	if h.metrics != nil {
		h.metrics.BytesTotal.Add(float64(len(record.Text)))
	}
	writeSuccess(w, http.StatusAccepted, map[string]string{
		"status":         "accepted",
		"log_id":         record.LogID,
		"correlation_id": record.CorrelationID,
	})
}

func (h *IngestHandler) parseRequest(w http.ResponseWriter, r *http.Request) (*domain.LogRecord, bool) {
	contentType := strings.ToLower(r.Header.Get("Content-Type"))

	switch {
	case strings.HasPrefix(contentType, "application/json"):
		return h.parseJSON(w, r)
	case strings.HasPrefix(contentType, "text/plain"):
		return h.parseText(w, r)
	default:
		h.count("error_media_type")
		writeError(w, http.StatusUnsupportedMediaType, CodeUnsupportedContentType, "unsupported Content-Type")
		return nil, false
	}
}

func (h *IngestHandler) parseJSON(w http.ResponseWriter, r *http.Request) (*domain.LogRecord, bool) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.count("error_validation")
		writeError(w, http.StatusBadRequest, CodeInvalidJSON, "invalid JSON")
		return nil, false
	}

	for _, field := range []struct{ name, value string }{
		{"tenant_id", req.TenantID},
		{"log_id", req.LogID},
		{"text", req.Text},
	} {
		if field.value == "" {
			h.count("error_validation")
			writeError(w, http.StatusBadRequest, CodeValidationError, field.name+" required")
			return nil, false
		}
	}

	return &domain.LogRecord{
		TenantID: req.TenantID,
		LogID:    req.LogID,
		Text:     req.Text,
		Source:   "json_upload",
	}, true
}

func (h *IngestHandler) parseText(w http.ResponseWriter, r *http.Request) (*domain.LogRecord, bool) {
	tenantID := r.Header.Get("X-Tenant-ID")
	if tenantID == "" {
		h.count("error_validation")
		writeError(w, http.StatusBadRequest, CodeValidationError, "X-Tenant-ID header required")
		return nil, false
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.count("error_validation")
		writeError(w, http.StatusBadRequest, CodeValidationError, "failed to read body")
		return nil, false
	}

	text := string(body)
	if strings.TrimSpace(text) == "" {
		h.count("error_validation")
		writeError(w, http.StatusBadRequest, CodeValidationError, "text required")
		return nil, false
	}

	return &domain.LogRecord{
		TenantID: tenantID,
		LogID:    uuid.NewString(),
		Text:     text,
		Source:   "text_upload",
	}, true
}

func (h *IngestHandler) count(status string) {
	if h.metrics != nil {
		h.metrics.RecordsTotal.WithLabelValues(status).Inc()
	}
}
