package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/cart"
	"github.com/go-chi/chi/v5"
)

type Carts interface {
	Get(ctx context.Context, owner string) (cart.Cart, error)
	Add(ctx context.Context, owner string, it cart.Item) (cart.Cart, error)
	Update(ctx context.Context, owner, sku string, qty int) (cart.Cart, error)
	BulkAdd(ctx context.Context, owner string, items []cart.Item) (cart.Cart, error)
	Clear(ctx context.Context, owner string) error
}

type CartHandler struct {
	Store     Carts
	JWTSecret []byte
}

func (h *CartHandler) Register(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(RequireOwner(h.JWTSecret))
		r.Get("/", h.get)
		r.Post("/items", h.add)
		r.Post("/bulk", h.bulk)
		r.Patch("/items/{sku}", h.update)
		r.Delete("/", h.clear)
	})
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.Get(ctx, ownerFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	var it cart.Item
	if err := decodeJSON(w, r, &it, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.Add(ctx, ownerFrom(r.Context()), it)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) bulk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Items []cart.Item `json:"items"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.BulkAdd(ctx, ownerFrom(r.Context()), req.Items)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) update(w http.ResponseWriter, r *http.Request) {
	var req qtyReq
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Store.Update(ctx, ownerFrom(r.Context()), chi.URLParam(r, "sku"), req.Qty)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Store.Clear(ctx, ownerFrom(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
