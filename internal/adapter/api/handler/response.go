package handler

import (
	"encoding/json"
	"net/http"
)

// Standardized error codes, shared by both services' APIs.
const (
	CodeValidationError        = "VALIDATION_ERROR"
	CodeInvalidJSON            = "INVALID_JSON"
	CodeUnsupportedContentType = "UNSUPPORTED_CONTENT_TYPE"
	CodePayloadTooLarge        = "PAYLOAD_TOO_LARGE"
	CodeServiceUnavailable     = "SERVICE_UNAVAILABLE"
	CodeInvalidEnvelope        = "INVALID_ENVELOPE"
	CodeMissingMessage         = "MISSING_MESSAGE"
	CodeInvalidBase64          = "INVALID_BASE64"
	CodeMissingAttributes      = "MISSING_ATTRIBUTES"
	CodeProcessingError        = "PROCESSING_ERROR"
)

// ErrorDetail carries a machine-readable code plus a human-readable message.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIResponse is the uniform response envelope for both services.
type APIResponse struct {
	Success bool         `json:"success"`
	Data    any          `json:"data"`
	Error   *ErrorDetail `json:"error"`
}

func writeSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, APIResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, APIResponse{Success: false, Error: &ErrorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
