// Package queue contains the transport envelope codec shared by the queue
// adapters and the worker's push endpoint.
package queue

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/akashshetty1997/memory-machines-backend/internal/domain"
)

// pushMessage mirrors the inner message of a push delivery: base64 payload
// plus the attribute mapping.
type pushMessage struct {
	Data       string            `json:"data"`
	Attributes map[string]string `json:"attributes"`
	MessageID  string            `json:"messageId"`
}

// pushEnvelope is the wire structure the broker POSTs to the worker.
type pushEnvelope struct {
	Message      *pushMessage `json:"message"`
	Subscription string       `json:"subscription"`
}

// EncodePushEnvelope builds the push wire form for a record. Used by tests
// and the load tester to drive the worker directly.
func EncodePushEnvelope(record domain.LogRecord, messageID string) ([]byte, error) {
	env := pushEnvelope{
		Message: &pushMessage{
			Data:       base64.StdEncoding.EncodeToString([]byte(record.Text)),
			Attributes: record.Attributes(),
			MessageID:  messageID,
		},
	}
	return json.Marshal(env)
}

// DecodePushEnvelope extracts payload bytes and attributes from a push
// delivery body. It is a pure function of its input. Failures are terminal:
// domain.ErrMalformedEnvelope for unparseable bodies, domain.ErrMissingPayload
// when the message field is absent, domain.ErrPayloadDecode for invalid
// base64. Attribute validation happens in the pipeline, which is shared with
// the stream consumers.
func DecodePushEnvelope(body []byte) (domain.Delivery, error) {
	var env pushEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.Delivery{}, fmt.Errorf("%w: %v", domain.ErrMalformedEnvelope, err)
	}

	if env.Message == nil {
		return domain.Delivery{}, domain.ErrMissingPayload
	}

	payload, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return domain.Delivery{}, fmt.Errorf("%w: %v", domain.ErrPayloadDecode, err)
	}

	attrs := env.Message.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}

	return domain.Delivery{
		Payload:    payload,
		Attributes: attrs,
		MessageID:  env.Message.MessageID,
	}, nil
}
