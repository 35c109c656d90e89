package domain

import "errors"

// Terminal (non-retryable) failures. Redelivery cannot fix a structurally
// invalid message, so the queue must not retry these.
var (
	// ErrMalformedEnvelope indicates the transport envelope was not parseable.
	ErrMalformedEnvelope = errors.New("malformed push envelope")

	// ErrMissingPayload indicates the envelope carried no inner message.
	ErrMissingPayload = errors.New("envelope is missing the message field")

	// ErrPayloadDecode indicates the payload could not be decoded from its
	// transport encoding.
	ErrPayloadDecode = errors.New("payload is not valid base64")

	// ErrMissingAttributes indicates tenant_id or log_id is absent or empty.
	// These are the only mandatory attributes.
	ErrMissingAttributes = errors.New("missing tenant_id or log_id attribute")
)

// ErrRecordNotFound is returned by the store when no processed record exists
// at the requested (tenant id, log id) key. It is a normal pipeline outcome,
// not a failure.
var ErrRecordNotFound = errors.New("processed record not found")

// ErrPublisherBusy is returned when the fire-and-forget publisher cannot
// accept another submission.
var ErrPublisherBusy = errors.New("publisher submission queue is full")

// IsTerminal reports whether err is a malformed-input error that must not be
// redelivered. Everything else (store and network failures) is considered
// transient and eligible for redelivery.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrMalformedEnvelope) ||
		errors.Is(err, ErrMissingPayload) ||
		errors.Is(err, ErrPayloadDecode) ||
		errors.Is(err, ErrMissingAttributes)
}
