package kafka

import (
	"encoding/json"
	"fmt"

	"github.com/ariefcatur/go-retail-gudang/internal/events"
)

func MustMarshal(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

// PublishEvent wraps payload in a v1 envelope and publishes it with the
// standard headers, keyed by correlationID.
func PublishEvent(p Publisher, eventType, producer, correlationID, traceID string, payload any) {
	if p == nil {
		return
	}
	env := events.New(eventType, producer, correlationID, traceID, MustMarshal(payload))
	p.Publish(events.PartitionKey(correlationID), MustMarshal(env), Headers(eventType)...)
}

func DecodeEnvelope(b []byte) (events.Envelope, error) {
	var env events.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return env, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// Unwrap memudahkan decode payload spesifik
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
