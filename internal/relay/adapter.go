package relay

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/cart"
	"github.com/shopspring/decimal"
)

// Product is a supplier catalog entry in our own shape.
type Product struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Category    string `json:"category"`
	Description string `json:"description"`
	ExpiredDate string `json:"expired_date"`
	SupplierID  string `json:"supplier_id"`
	WeightGrams int    `json:"weight_grams,omitempty"`
}

type DistributorOption struct {
	ID       string `json:"id_distributor"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Estimate string `json:"estimate"`
}

// CheckoutResult is a supplier's answer to a checkout, normalized.
type CheckoutResult struct {
	OrderID string
	Status  string
	Message string
	Options []DistributorOption
}

// Adapter is one supplier integration. Each known supplier has exactly
// one implementation; see AdapterFor.
type Adapter interface {
	ID() string
	ProductsPath() string
	CheckoutPath() string
	ChoosePath(orderID string) string
	BuildCheckoutPayload(retailID string, items []cart.Item) any
	BuildChoosePayload(retailID, orderID, distributorID string) any
	NormalizeProducts(raw []byte) ([]Product, error)
	NormalizeCheckout(raw []byte) (CheckoutResult, error)
}

func AdapterFor(supplierID string) (Adapter, error) {
	switch supplierID {
	case "1":
		return supplierOne{}, nil
	case "2":
		return supplierTwo{}, nil
	default:
		return nil, apperr.NotFound("unknown supplier %q", supplierID)
	}
}

// TotalWeightKg sums item weights (grams × qty) into kilograms.
func TotalWeightKg(items []cart.Item) decimal.Decimal {
	var grams int64
	for _, it := range items {
		grams += int64(it.WeightGrams) * int64(it.Qty)
	}
	return decimal.New(grams, -3)
}

func itemCount(items []cart.Item) int {
	n := 0
	for _, it := range items {
		n += it.Qty
	}
	return n
}

// wireProduct is the catalog entry both suppliers emit.
type wireProduct struct {
	ID          FlexString `json:"id_product"`
	Name        string     `json:"nama_product"`
	Price       FlexInt    `json:"harga"`
	Stock       FlexInt    `json:"stok"`
	Category    string     `json:"kategori"`
	Description string     `json:"deskripsi"`
	ExpiredDate string     `json:"expired_date"`
	Weight      FlexInt    `json:"berat"` // gram
	SupplierID  FlexString `json:"id_supplier"`
}

func (w wireProduct) product(defaultSupplier string) Product {
	sup := w.SupplierID.String()
	if sup == "" {
		sup = defaultSupplier
	}
	return Product{
		SKU:         w.ID.String(),
		Name:        w.Name,
		Price:       int64(w.Price),
		Stock:       int(w.Stock),
		Category:    orDash(w.Category),
		Description: orDash(w.Description),
		ExpiredDate: orDash(w.ExpiredDate),
		SupplierID:  sup,
		WeightGrams: int(w.Weight),
	}
}

func toProducts(in []wireProduct, supplierID string) []Product {
	out := make([]Product, 0, len(in))
	for _, w := range in {
		if w.ID == "" {
			continue
		}
		out = append(out, w.product(supplierID))
	}
	return out
}

type wireDistributor struct {
	ID       FlexString `json:"id_distributor"`
	Name     string     `json:"nama_distributor"`
	Price    FlexInt    `json:"harga_pengiriman"`
	Estimate string     `json:"estimasi"`
}

func toOptions(in []wireDistributor) []DistributorOption {
	out := make([]DistributorOption, 0, len(in))
	for _, w := range in {
		if w.ID == "" {
			continue
		}
		out = append(out, DistributorOption{ID: w.ID.String(), Name: w.Name, Price: int64(w.Price), Estimate: w.Estimate})
	}
	return out
}

// ---- supplier 1 ----
//
// GET  /api/retail/products            -> [product...] or {"data": [product...]}
// POST /api/retail/checkout            -> {"id_order", "status", "message", "distributor_options"}
// POST /api/retail/choose-distributor  -> 2xx, body ignored
type supplierOne struct{}

func (supplierOne) ID() string { return "1" }
func (supplierOne) ProductsPath() string { return "/api/retail/products" }
func (supplierOne) CheckoutPath() string { return "/api/retail/checkout" }
func (supplierOne) ChoosePath(string) string { return "/api/retail/choose-distributor" }

type oneCheckoutItem struct {
	ID    string `json:"id_product"`
	Name  string `json:"nama_product"`
	Qty   int    `json:"qty"`
	Price int64  `json:"harga"`
}

func (supplierOne) BuildCheckoutPayload(retailID string, items []cart.Item) any {
	lines := make([]oneCheckoutItem, 0, len(items))
	for _, it := range items {
		lines = append(lines, oneCheckoutItem{ID: it.SKU, Name: it.Name, Qty: it.Qty, Price: it.Price})
	}
	return map[string]any{
		"id_retail":   retailID,
		"items":       lines,
		"jumlah_item": itemCount(items),
		"total_berat": json.Number(TotalWeightKg(items).StringFixed(3)),
	}
}

func (supplierOne) BuildChoosePayload(retailID, orderID, distributorID string) any {
	return map[string]string{"id_order": orderID, "id_retail": retailID, "id_distributor": distributorID}
}

func (s supplierOne) NormalizeProducts(raw []byte) ([]Product, error) {
	var list []wireProduct
	if err := json.Unmarshal(raw, &list); err == nil {
		return toProducts(list, s.ID()), nil
	}
	var env struct {
		Data []wireProduct `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, decodeError(fmt.Errorf("supplier 1 products: %w", err))
	}
	return toProducts(env.Data, s.ID()), nil
}

func (supplierOne) NormalizeCheckout(raw []byte) (CheckoutResult, error) {
	var resp struct {
		OrderID FlexString        `json:"id_order"`
		Status  string            `json:"status"`
		Message string            `json:"message"`
		Options []wireDistributor `json:"distributor_options"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return CheckoutResult{}, decodeError(fmt.Errorf("supplier 1 checkout: %w", err))
	}
	return CheckoutResult{OrderID: resp.OrderID.String(), Status: resp.Status, Message: resp.Message, Options: toOptions(resp.Options)}, nil
}

// ---- supplier 2 ----
//
// GET  /api/retail/products                -> {"products": [product...]}
// POST /api/retail/orders                  -> {"order": {"id_order", "status"}, "message"}
// POST /api/retail/orders/{id}/distributor -> 2xx, body ignored
//
// Distributor options always arrive later through the order callback.
type supplierTwo struct{}

func (supplierTwo) ID() string { return "2" }
func (supplierTwo) ProductsPath() string { return "/api/retail/products" }
func (supplierTwo) CheckoutPath() string { return "/api/retail/orders" }
func (supplierTwo) ChoosePath(orderID string) string {
	return "/api/retail/orders/" + url.PathEscape(orderID) + "/distributor"
}

type twoCheckoutItem struct {
	ID  string `json:"id_product"`
	Qty int    `json:"jumlah"`
}

func (supplierTwo) BuildCheckoutPayload(retailID string, items []cart.Item) any {
	lines := make([]twoCheckoutItem, 0, len(items))
	var total int64
	for _, it := range items {
		lines = append(lines, twoCheckoutItem{ID: it.SKU, Qty: it.Qty})
		total += it.Price * int64(it.Qty)
	}
	return map[string]any{
		"retail_id":       retailID,
		"products":        lines,
		"total_harga":     total,
		"total_weight_kg": json.Number(TotalWeightKg(items).StringFixed(3)),
	}
}

func (supplierTwo) BuildChoosePayload(retailID, _, distributorID string) any {
	return map[string]string{"retail_id": retailID, "id_distributor": distributorID}
}

func (s supplierTwo) NormalizeProducts(raw []byte) ([]Product, error) {
	var env struct {
		Products []wireProduct `json:"products"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, decodeError(fmt.Errorf("supplier 2 products: %w", err))
	}
	return toProducts(env.Products, s.ID()), nil
}

func (supplierTwo) NormalizeCheckout(raw []byte) (CheckoutResult, error) {
	var resp struct {
		Order struct {
			OrderID FlexString `json:"id_order"`
			Status  string     `json:"status"`
		} `json:"order"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return CheckoutResult{}, decodeError(fmt.Errorf("supplier 2 checkout: %w", err))
	}
	return CheckoutResult{
		OrderID: resp.Order.OrderID.String(),
		Status:  strings.ToUpper(resp.Order.Status),
		Message: resp.Message,
		Options: []DistributorOption{},
	}, nil
}
