package httpx

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/events"
	kafkax "github.com/ariefcatur/go-retail-gudang/internal/kafka"
	"github.com/ariefcatur/go-retail-gudang/internal/pos"
	"github.com/go-chi/chi/v5"
)

type POS interface {
	Open(ctx context.Context, customer, method string) (int64, error)
	AddItem(ctx context.Context, id int64, in pos.AddItemInput) error
	UpdateItem(ctx context.Context, id int64, sku string, qty int) error
	Detail(ctx context.Context, id int64) (pos.Detail, error)
	Pay(ctx context.Context, id int64, in pos.PayInput) (pos.Receipt, error)
	Void(ctx context.Context, id int64) error
	List(ctx context.Context, f pos.ListFilter) ([]pos.Header, error)
}

type POSHandler struct {
	Repo     POS
	Producer kafkax.Publisher // pos.transaction.paid; nil = off
	Service  string
}

type openReq struct {
	Customer string `json:"customer"`
	Method   string `json:"method"`
}

type qtyReq struct {
	Qty int `json:"qty"`
}

func (h *POSHandler) Register(r chi.Router) {
	r.Get("/pos", h.list)
	r.Post("/pos/open", h.open)
	r.Get("/pos/{id}", h.detail)
	r.Post("/pos/{id}/items", h.addItem)
	r.Patch("/pos/{id}/items/{sku}", h.updateItem)
	r.Post("/pos/{id}/pay", h.pay)
	r.Post("/pos/{id}/void", h.void)
}

func (h *POSHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	hs, err := h.Repo.List(ctx, pos.ListFilter{Status: q.Get("status"), Q: q.Get("q"), Limit: limit})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": hs})
}

func (h *POSHandler) open(w http.ResponseWriter, r *http.Request) {
	var req openReq
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Repo.Open(ctx, req.Customer, req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"transaction_id": id})
}

func (h *POSHandler) detail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	h.writeDetail(ctx, w, r, id)
}

func (h *POSHandler) writeDetail(ctx context.Context, w http.ResponseWriter, r *http.Request, id int64) {
	d, err := h.Repo.Detail(ctx, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *POSHandler) addItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in pos.AddItemInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.AddItem(ctx, id, in); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(ctx, w, r, id)
}

func (h *POSHandler) updateItem(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req qtyReq
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.UpdateItem(ctx, id, chi.URLParam(r, "sku"), req.Qty); err != nil {
		writeError(w, r, err)
		return
	}
	h.writeDetail(ctx, w, r, id)
}

func (h *POSHandler) pay(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in pos.PayInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rc, err := h.Repo.Pay(ctx, id, in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	// publish setelah commit; stok sudah terdebit di DB
	items := make([]events.ItemQty, 0, len(rc.Items))
	for _, l := range rc.Items {
		items = append(items, events.ItemQty{SKU: l.SKU, Qty: l.Qty})
	}
	kafkax.PublishEvent(h.Producer, events.EventTransactionPaid, h.Service, strconv.FormatInt(id, 10), traceID(r),
		events.TransactionPaidPayload{TransactionID: id, Method: rc.Method, Total: rc.Total, Items: items})

	writeJSON(w, http.StatusOK, rc)
}

func (h *POSHandler) void(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Repo.Void(ctx, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction_id": id, "status": pos.StatusVoid})
}
