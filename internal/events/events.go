package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	EventTransactionPaid = "TransactionPaid"
	EventStockCredited   = "StockCredited"
	EventShipmentStatus  = "ShipmentStatusChanged"
)

type Envelope struct {
	EventID       string          `json:"event_id"`      // uuid
	EventType     string          `json:"event_type"`    // salah satu const di atas
	EventVersion  int             `json:"event_version"` // 1
	OccurredAt    time.Time       `json:"occurred_at"`   // RFC3339
	Producer      string          `json:"producer"`      // e.g., "retail-api"
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"` // transaction id / shipment no
	Payload       json.RawMessage `json:"payload"`
}

// New builds a version 1 envelope around an already encoded payload.
func New(eventType, producer, correlationID, traceID string, payload json.RawMessage) Envelope {
	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       payload,
	}
}

// ---- Payload tipe per event ----

type ItemQty struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type TransactionPaidPayload struct {
	TransactionID int64     `json:"transaction_id"`
	Method        string    `json:"method"`
	Total         int64     `json:"total"`
	Items         []ItemQty `json:"items"`
}

// StockCreditedPayload is emitted once per (shipment, sku) delivery.
type StockCreditedPayload struct {
	ShipmentNo string `json:"shipment_no"`
	SKU        string `json:"sku"`
	Qty        int    `json:"qty"`
	Source     string `json:"source"` // webhook | manual | kafka
}
