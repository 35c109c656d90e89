package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/akashshetty1997/memory-machines-backend/internal/adapter/queue"
	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

// ProcessHandler is the worker's push delivery endpoint. The broker POSTs a
// push envelope here and interprets the response status as the redelivery
// signal: 2xx acknowledges (including skipped duplicates), 400 acknowledges
// without retry for structurally invalid messages, 5xx requests redelivery.
type ProcessHandler struct {
	processor domain.DeliveryProcessor
	logger    *slog.Logger
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(processor domain.DeliveryProcessor, logger *slog.Logger) *ProcessHandler {
	return &ProcessHandler{processor: processor, logger: logger}
}

// ServeHTTP decodes the push envelope, runs the pipeline, and maps the
// result onto the response taxonomy.
func (h *ProcessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidEnvelope, "failed to read request body")
		return
	}

	delivery, err := queue.DecodePushEnvelope(body)
	if err != nil {
		h.logger.Error("failed to decode push envelope", "error", err)
		code, message := decodeErrorDetails(err)
		writeError(w, http.StatusBadRequest, code, message)
		return
	}

	outcome, err := h.processor.Process(r.Context(), delivery)
	if err != nil {
		if domain.IsTerminal(err) {
			writeError(w, http.StatusBadRequest, CodeMissingAttributes, "missing tenant_id or log_id")
			return
		}
		// Transient failure: a 5xx tells the broker to redeliver.
		writeError(w, http.StatusInternalServerError, CodeProcessingError, "failed to persist processed log")
		return
	}

	data := map[string]string{
		"status": string(outcome.Status),
		"log_id": outcome.LogID,
	}
	if outcome.Status == domain.StatusSkipped {
		data["reason"] = "duplicate"
	}
	writeSuccess(w, http.StatusOK, data)
}

func decodeErrorDetails(err error) (code, message string) {
	switch {
	case errors.Is(err, domain.ErrMissingPayload):
		return CodeMissingMessage, "missing 'message' in envelope"
	case errors.Is(err, domain.ErrPayloadDecode):
		return CodeInvalidBase64, "failed to decode message data"
	default:
		return CodeInvalidEnvelope, "invalid JSON envelope"
	}
}
