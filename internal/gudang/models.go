package gudang

import "time"

// LowStockThreshold is the quantity below which a SKU counts as low stock.
const LowStockThreshold = 10

// Item is one SKU row of the barang table.
type Item struct {
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	SupplierID    int       `json:"supplier_id"`
	Quantity      int       `json:"stock"`
	SellPrice     int64     `json:"sell_price"`
	SupplierPrice int64     `json:"supplier_price"`
	WeightGrams   int       `json:"weight_grams"`
	UpdatedAt     time.Time `json:"last_restock"`
}

type Stats struct {
	TotalProducts int64 `json:"total_products"`
	TotalStock    int64 `json:"total_stock"`
	LowStock      int64 `json:"low_stock"`
}

// RestockInput adds Qty to the on-hand quantity and optionally
// overwrites the sell price.
type RestockInput struct {
	SKU       string `json:"sku"`
	Qty       int    `json:"qty"`
	SellPrice *int64 `json:"sell_price,omitempty"`
}

// PatchInput is a partial update. Nil fields are left untouched;
// Quantity is an absolute value, not a delta.
type PatchInput struct {
	Name          *string `json:"name,omitempty"`
	SupplierID    *int    `json:"supplier_id,omitempty"`
	SellPrice     *int64  `json:"sell_price,omitempty"`
	SupplierPrice *int64  `json:"supplier_price,omitempty"`
	Quantity      *int    `json:"stock,omitempty"`
	WeightGrams   *int    `json:"weight_grams,omitempty"`
}

func (p PatchInput) empty() bool {
	return p.Name == nil && p.SupplierID == nil && p.SellPrice == nil &&
		p.SupplierPrice == nil && p.Quantity == nil && p.WeightGrams == nil
}
