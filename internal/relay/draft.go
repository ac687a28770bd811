package relay

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/cart"
	"github.com/shopspring/decimal"
)

// Draft lifecycle. A draft only moves forward: the checkout response and
// the supplier callback may arrive in either order.
const (
	DraftCheckedOut        = "CHECKED_OUT"
	DraftQuoted            = "QUOTED"
	DraftDistributorChosen = "DISTRIBUTOR_CHOSEN"
	DraftShipped           = "SHIPPED"
)

var draftRank = map[string]int{
	DraftCheckedOut:        1,
	DraftQuoted:            2,
	DraftDistributorChosen: 3,
	DraftShipped:           4,
}

// Draft is the local view of an order placed with a supplier.
type Draft struct {
	OrderID            string              `json:"order_id"`
	SupplierID         string              `json:"supplier_id"`
	Owner              string              `json:"owner,omitempty"`
	Status             string              `json:"status"`
	Message            string              `json:"message,omitempty"`
	Items              []cart.Item         `json:"items,omitempty"`
	ItemCount          int                 `json:"item_count"`
	TotalWeightKg      decimal.Decimal     `json:"total_weight_kg"`
	DistributorOptions []DistributorOption `json:"distributor_options"`
	ChosenDistributor  string              `json:"chosen_distributor,omitempty"`
	ShipmentNo         string              `json:"shipment_no,omitempty"`
	ETA                string              `json:"eta_delivery_date,omitempty"`
	TotalPayment       int64               `json:"total_payment,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// Advance moves the draft to status unless it is already further along.
func (d *Draft) Advance(status string) {
	if draftRank[status] > draftRank[d.Status] {
		d.Status = status
	}
}

// DraftStore holds drafts until they expire. Update creates the draft
// when absent and applies fn under the store's own serialization.
type DraftStore interface {
	Update(ctx context.Context, orderID string, fn func(d *Draft)) (Draft, error)
	Get(ctx context.Context, orderID string) (Draft, error)
	List(ctx context.Context) ([]Draft, error)
}

func touch(d *Draft, orderID string, now time.Time) {
	d.OrderID = orderID
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	if d.DistributorOptions == nil {
		d.DistributorOptions = []DistributorOption{}
	}
}

func sortNewest(ds []Draft) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].UpdatedAt.After(ds[j].UpdatedAt) })
}

type memEntry struct {
	d       Draft
	expires time.Time
}

// MemoryDrafts is a process-local DraftStore. Drafts are lost on restart.
type MemoryDrafts struct {
	mu  sync.Mutex
	m   map[string]memEntry
	ttl time.Duration
	now func() time.Time
}

func NewMemoryDrafts(ttl time.Duration) *MemoryDrafts {
	return &MemoryDrafts{m: map[string]memEntry{}, ttl: ttl, now: time.Now}
}

func (s *MemoryDrafts) Update(ctx context.Context, orderID string, fn func(d *Draft)) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	e, ok := s.m[orderID]
	if !ok || now.After(e.expires) {
		e = memEntry{}
	}
	fn(&e.d)
	touch(&e.d, orderID, now)
	e.expires = now.Add(s.ttl)
	s.m[orderID] = e
	return e.d, nil
}

func (s *MemoryDrafts) Get(ctx context.Context, orderID string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.m[orderID]
	if !ok || s.now().After(e.expires) {
		delete(s.m, orderID)
		return Draft{}, apperr.NotFound("draft %s not found", orderID)
	}
	return e.d, nil
}

// List returns live drafts newest first and evicts expired ones.
func (s *MemoryDrafts) List(ctx context.Context) ([]Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	out := make([]Draft, 0, len(s.m))
	for id, e := range s.m {
		if now.After(e.expires) {
			delete(s.m, id)
			continue
		}
		out = append(out, e.d)
	}
	sortNewest(out)
	return out, nil
}
