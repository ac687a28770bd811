// Package relay forwards carts to supplier services and tracks the
// resulting orders as drafts fed by supplier callbacks.
package relay

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/cart"
	"github.com/shopspring/decimal"
)

// CartStore is the part of the cart the relay reads and clears.
type CartStore interface {
	Get(ctx context.Context, owner string) (cart.Cart, error)
	Clear(ctx context.Context, owner string) error
}

type Service struct {
	Client    *Client
	Suppliers map[string]string // supplier id -> base URL
	RetailID  string
	Drafts    DraftStore
	Cart      CartStore
}

// OrderCallback is posted by a supplier once it has priced an order.
type OrderCallback struct {
	OrderID            FlexString        `json:"id_order"`
	RetailID           FlexString        `json:"id_retail"`
	SupplierID         FlexString        `json:"id_supplier"`
	TotalWeightKg      decimal.Decimal   `json:"total_berat"`
	ItemCount          FlexInt           `json:"jumlah_item"`
	Message            string            `json:"message"`
	DistributorOptions []wireDistributor `json:"distributor_options"`
}

// ResiCallback is posted by a supplier once a distributor has a shipment
// number for the order.
type ResiCallback struct {
	OrderID      FlexString `json:"id_order"`
	RetailID     FlexString `json:"id_retail"`
	ShipmentNo   FlexString `json:"no_resi"`
	TotalPayment FlexInt    `json:"total_pembayaran"`
	ETA          string     `json:"eta_delivery_date"`
}

func (s *Service) supplier(id string) (Adapter, string, error) {
	a, err := AdapterFor(id)
	if err != nil {
		return nil, "", err
	}
	base, ok := s.Suppliers[id]
	if !ok || base == "" {
		return nil, "", apperr.NotFound("supplier %s is not configured", id)
	}
	return a, base, nil
}

func (s *Service) ListProducts(ctx context.Context, supplierID string) ([]Product, error) {
	a, base, err := s.supplier(supplierID)
	if err != nil {
		return nil, err
	}
	raw, err := s.Client.Do(ctx, http.MethodGet, base+a.ProductsPath(), nil)
	if err != nil {
		return nil, err
	}
	return a.NormalizeProducts(raw)
}

// Checkout sends owner's cart to the supplier and records the order as a
// draft. The cart is cleared only after the supplier accepted the order.
func (s *Service) Checkout(ctx context.Context, owner, supplierID string) (Draft, error) {
	a, base, err := s.supplier(supplierID)
	if err != nil {
		return Draft{}, err
	}
	c, err := s.Cart.Get(ctx, owner)
	if err != nil {
		return Draft{}, err
	}
	if len(c.Items) == 0 {
		return Draft{}, apperr.InvalidArgument("cart is empty")
	}

	raw, err := s.Client.Do(ctx, http.MethodPost, base+a.CheckoutPath(), a.BuildCheckoutPayload(s.RetailID, c.Items))
	if err != nil {
		return Draft{}, err
	}
	res, err := a.NormalizeCheckout(raw)
	if err != nil {
		return Draft{}, err
	}
	if res.OrderID == "" {
		return Draft{}, decodeError(errors.New("supplier response has no order id"))
	}

	apply := func(d *Draft) {
		d.SupplierID = a.ID()
		d.Owner = owner
		d.Items = c.Items
		d.ItemCount = itemCount(c.Items)
		d.TotalWeightKg = TotalWeightKg(c.Items)
		if res.Message != "" {
			d.Message = res.Message
		}
		if len(res.Options) > 0 {
			d.DistributorOptions = res.Options
			d.Advance(DraftQuoted)
		}
		d.Advance(DraftCheckedOut)
	}
	d, err := s.Drafts.Update(ctx, res.OrderID, apply)
	if err != nil {
		// order sudah diterima supplier; draft lokal gagal disimpan tapi
		// keranjang tetap dikosongkan supaya tidak double order
		log.Printf("store draft %s: %v", res.OrderID, err)
		d = Draft{OrderID: res.OrderID}
		apply(&d)
	}
	if err := s.Cart.Clear(ctx, owner); err != nil {
		log.Printf("clear cart %s after order %s: %v", owner, res.OrderID, err)
	}
	return d, nil
}

func (s *Service) ChooseDistributor(ctx context.Context, orderID, distributorID string) (Draft, error) {
	orderID, distributorID = strings.TrimSpace(orderID), strings.TrimSpace(distributorID)
	if orderID == "" || distributorID == "" {
		return Draft{}, apperr.InvalidArgument("order id and distributor_id are required")
	}
	d, err := s.Drafts.Get(ctx, orderID)
	if err != nil {
		return Draft{}, err
	}
	if len(d.DistributorOptions) > 0 && !hasOption(d.DistributorOptions, distributorID) {
		return Draft{}, apperr.InvalidArgument("distributor %s is not offered for order %s", distributorID, orderID)
	}
	a, base, err := s.supplier(d.SupplierID)
	if err != nil {
		return Draft{}, err
	}
	if _, err := s.Client.Do(ctx, http.MethodPost, base+a.ChoosePath(orderID), a.BuildChoosePayload(s.RetailID, orderID, distributorID)); err != nil {
		return Draft{}, err
	}
	return s.Drafts.Update(ctx, orderID, func(d *Draft) {
		d.ChosenDistributor = distributorID
		d.Advance(DraftDistributorChosen)
	})
}

func hasOption(opts []DistributorOption, id string) bool {
	for _, o := range opts {
		if o.ID == id {
			return true
		}
	}
	return false
}

// HandleOrderCallback merges a supplier's quote into the draft, creating
// it when the callback beats the checkout response.
func (s *Service) HandleOrderCallback(ctx context.Context, cb OrderCallback) (Draft, error) {
	id := cb.OrderID.String()
	if id == "" {
		return Draft{}, apperr.InvalidArgument("id_order is required")
	}
	return s.Drafts.Update(ctx, id, func(d *Draft) {
		if d.SupplierID == "" {
			d.SupplierID = cb.SupplierID.String()
		}
		if cb.ItemCount > 0 {
			d.ItemCount = int(cb.ItemCount)
		}
		if !cb.TotalWeightKg.IsZero() {
			d.TotalWeightKg = cb.TotalWeightKg
		}
		if cb.Message != "" {
			d.Message = cb.Message
		}
		if opts := toOptions(cb.DistributorOptions); len(opts) > 0 {
			d.DistributorOptions = opts
		}
		d.Advance(DraftQuoted)
	})
}

func (s *Service) HandleResiCallback(ctx context.Context, cb ResiCallback) (Draft, error) {
	id, resi := cb.OrderID.String(), cb.ShipmentNo.String()
	if id == "" || resi == "" {
		return Draft{}, apperr.InvalidArgument("id_order and no_resi are required")
	}
	return s.Drafts.Update(ctx, id, func(d *Draft) {
		d.ShipmentNo = resi
		if cb.ETA != "" {
			d.ETA = cb.ETA
		}
		if cb.TotalPayment > 0 {
			d.TotalPayment = int64(cb.TotalPayment)
		}
		d.Advance(DraftShipped)
	})
}

func (s *Service) GetDraft(ctx context.Context, orderID string) (Draft, error) {
	return s.Drafts.Get(ctx, orderID)
}

func (s *Service) ListDrafts(ctx context.Context) ([]Draft, error) { return s.Drafts.List(ctx) }
