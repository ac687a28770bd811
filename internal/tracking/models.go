package tracking

import (
	"strings"
	"time"
)

// StatusDelivered is terminal for a (shipment, sku) key. The ledger is
// credited exactly once, on the transition into it.
const StatusDelivered = "DELIVERED"

// Record is one row of the resi table.
type Record struct {
	ShipmentNo  string    `json:"shipment_no"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	Qty         int       `json:"qty"`
	Supplier    string    `json:"supplier"`
	Distributor string    `json:"distributor"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type EventItem struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

// Event is a shipment status change as posted by a distributor.
type Event struct {
	ShipmentNo  string      `json:"shipment_no"`
	Status      string      `json:"status"`
	Items       []EventItem `json:"items"`
	Supplier    string      `json:"supplier"`
	Distributor string      `json:"distributor"`
	OccurredAt  *time.Time  `json:"occurred_at,omitempty"`
}

type Credit struct {
	SKU string `json:"sku"`
	Qty int    `json:"qty"`
}

type Result struct {
	ShipmentNo string   `json:"shipment_no"`
	Status     string   `json:"status,omitempty"`
	Ignored    bool     `json:"ignored"`
	Credited   []Credit `json:"credited"`
}

// NormalizeStatus upper-cases and trims a status; inner spaces and dashes
// become underscores so "in transit" and "IN-TRANSIT" are one value.
func NormalizeStatus(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
