package domain

import "time"

// Schema version stamped on every published record, for forward compatibility.
const SchemaVersion = "1"

// Attribute keys carried alongside the payload on every queue delivery.
const (
	AttrTenantID      = "tenant_id"
	AttrLogID         = "log_id"
	AttrSource        = "source"
	AttrContentHash   = "content_hash"
	AttrSchemaVersion = "schema_version"
	AttrCorrelationID = "correlation_id"
)

// LogRecord is the transient, validated record the gateway publishes.
// It is never persisted itself; only the derived ProcessedRecord is.
type LogRecord struct {
	TenantID      string `json:"tenant_id"`
	LogID         string `json:"log_id"`
	Text          string `json:"text"`
	Source        string `json:"source"`
	Fingerprint   string `json:"content_hash"`
	CorrelationID string `json:"correlation_id"`
	SchemaVersion string `json:"schema_version"`
}

// Attributes returns the attribute mapping published with the record.
func (r LogRecord) Attributes() map[string]string {
	return map[string]string{
		AttrTenantID:      r.TenantID,
		AttrLogID:         r.LogID,
		AttrSource:        r.Source,
		AttrContentHash:   r.Fingerprint,
		AttrSchemaVersion: r.SchemaVersion,
		AttrCorrelationID: r.CorrelationID,
	}
}

// Delivery is a single queue delivery as seen by the processing pipeline:
// opaque payload bytes plus the attribute mapping. The queue may deliver the
// same envelope more than once; the pipeline deduplicates by fingerprint.
type Delivery struct {
	Payload    []byte
	Attributes map[string]string
	MessageID  string
}

// ProcessedRecord is the persisted result of processing one log record,
// keyed by (tenant id, log id). Tenant id is always part of the storage key
// path, so one tenant's records are never visible to another's pipeline.
type ProcessedRecord struct {
	TenantID      string    `json:"tenant_id"`
	LogID         string    `json:"log_id"`
	Source        string    `json:"source"`
	OriginalText  string    `json:"original_text"`
	RedactedText  string    `json:"redacted_text"`
	ProcessedAt   time.Time `json:"processed_at"`
	Fingerprint   string    `json:"content_hash"`
	CorrelationID string    `json:"correlation_id"`
}

// Status is the terminal outcome of a successful pipeline invocation.
type Status string

const (
	// StatusProcessed means the record was redacted and committed.
	StatusProcessed Status = "processed"
	// StatusSkipped means the delivery was a duplicate of already-stored
	// content and no write was performed.
	StatusSkipped Status = "skipped"
)

// Outcome reports how a delivery was resolved.
type Outcome struct {
	Status Status
	LogID  string
}
