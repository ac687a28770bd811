package pos

import (
	"strings"
	"time"
)

const DefaultCustomer = "Umum"

// Header is one row of the transaksi table.
type Header struct {
	ID        int64     `json:"transaction_id"`
	Customer  string    `json:"customer"`
	Total     int64     `json:"total"`
	Method    string    `json:"method"`
	Status    Status    `json:"status"`
	Paid      int64     `json:"amount_tendered"`
	Change    int64     `json:"change"`
	CreatedAt time.Time `json:"created_at"`
}

// Line is a keranjang row joined with the live SKU name and stock.
type Line struct {
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Qty       int    `json:"qty"`
	UnitPrice int64  `json:"price"`
	Subtotal  int64  `json:"subtotal"`
	Stock     int    `json:"stock"`
}

type Detail struct {
	Header Header    `json:"header"`
	Items  []Line    `json:"items"`
	Calc   Breakdown `json:"calc"`
}

type AddItemInput struct {
	SKU   string `json:"sku"`
	Qty   int    `json:"qty"`
	Price *int64 `json:"price,omitempty"`
}

type PayInput struct {
	Method   string `json:"method"`
	Tendered int64  `json:"amount_tendered"`
}

// Receipt is the outcome of a successful Pay.
type Receipt struct {
	TransactionID int64  `json:"transaction_id"`
	Method        string `json:"method"`
	Subtotal      int64  `json:"subtotal"`
	Tax           int64  `json:"tax"`
	Total         int64  `json:"total"`
	Tendered      int64  `json:"amount_tendered"`
	Change        int64  `json:"change"`
	Items         []Line `json:"items"`
}

type ListFilter struct {
	Status string
	Q      string
	Limit  int
}

// NormalizeMethod maps CASH, QRIS and CARD (any case) to their stored
// form. Anything else is cash.
func NormalizeMethod(v string) string {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "QRIS":
		return "qris"
	case "CARD":
		return "card"
	default:
		return "cash"
	}
}
