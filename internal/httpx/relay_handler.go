package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-retail-gudang/internal/relay"
	"github.com/go-chi/chi/v5"
)

type Relay interface {
	ListProducts(ctx context.Context, supplierID string) ([]relay.Product, error)
	Checkout(ctx context.Context, owner, supplierID string) (relay.Draft, error)
	ChooseDistributor(ctx context.Context, orderID, distributorID string) (relay.Draft, error)
	HandleOrderCallback(ctx context.Context, cb relay.OrderCallback) (relay.Draft, error)
	HandleResiCallback(ctx context.Context, cb relay.ResiCallback) (relay.Draft, error)
	GetDraft(ctx context.Context, orderID string) (relay.Draft, error)
	ListDrafts(ctx context.Context) ([]relay.Draft, error)
}

// RelayHandler serves the supplier catalog proxy, checkout and the
// supplier callbacks. Outbound calls are bounded by the relay client's
// own timeout.
type RelayHandler struct {
	Svc            Relay
	JWTSecret      []byte
	CallbackSecret string
}

func (h *RelayHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequireSecret(h.CallbackSecret))
		r.Post("/orders/callback", h.orderCallback)
		r.Post("/orders/resi", h.resiCallback)
	})
	r.Group(func(r chi.Router) {
		r.Use(RequireOwner(h.JWTSecret))
		r.Get("/suppliers/{id}/products", h.products)
		r.Post("/orders/checkout", h.checkout)
		r.Post("/orders/{id}/distributor", h.chooseDistributor)
		r.Get("/orders/drafts", h.listDrafts)
		r.Get("/orders/drafts/{id}", h.getDraft)
	})
}

func (h *RelayHandler) products(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Svc.ListProducts(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ps})
}

func (h *RelayHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SupplierID relay.FlexString `json:"supplier_id"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Svc.Checkout(r.Context(), ownerFrom(r.Context()), req.SupplierID.String())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *RelayHandler) chooseDistributor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DistributorID relay.FlexString `json:"distributor_id"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Svc.ChooseDistributor(r.Context(), chi.URLParam(r, "id"), req.DistributorID.String())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *RelayHandler) orderCallback(w http.ResponseWriter, r *http.Request) {
	var cb relay.OrderCallback
	if err := decodeJSON(w, r, &cb, false); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Svc.HandleOrderCallback(r.Context(), cb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "order_id": d.OrderID, "draft_status": d.Status})
}

func (h *RelayHandler) resiCallback(w http.ResponseWriter, r *http.Request) {
	var cb relay.ResiCallback
	if err := decodeJSON(w, r, &cb, false); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.Svc.HandleResiCallback(r.Context(), cb)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "success",
		"order_id":          d.OrderID,
		"no_resi":           d.ShipmentNo,
		"eta_delivery_date": d.ETA,
		"total_payment":     d.TotalPayment,
	})
}

func (h *RelayHandler) listDrafts(w http.ResponseWriter, r *http.Request) {
	ds, err := h.Svc.ListDrafts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": ds})
}

func (h *RelayHandler) getDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.Svc.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
