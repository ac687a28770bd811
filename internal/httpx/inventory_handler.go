package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/gudang"
	"github.com/go-chi/chi/v5"
)

type Inventory interface {
	List(ctx context.Context, q string) ([]gudang.Item, error)
	Stats(ctx context.Context) (gudang.Stats, error)
	Restock(ctx context.Context, in gudang.RestockInput) (gudang.Item, error)
	Patch(ctx context.Context, sku string, in gudang.PatchInput) (gudang.Item, error)
}

type InventoryHandler struct {
	Repo Inventory
}

func (h *InventoryHandler) Register(r chi.Router) {
	r.Get("/inventory", h.list)
	r.Get("/inventory/stats", h.stats)
	r.Post("/inventory/restock", h.restock)
	r.Patch("/inventory/{sku}", h.patch)
}

func (h *InventoryHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := h.Repo.List(ctx, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *InventoryHandler) stats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, err := h.Repo.Stats(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *InventoryHandler) restock(w http.ResponseWriter, r *http.Request) {
	var in gudang.RestockInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Repo.Restock(ctx, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}

func (h *InventoryHandler) patch(w http.ResponseWriter, r *http.Request) {
	var in gudang.PatchInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.Repo.Patch(ctx, chi.URLParam(r, "sku"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, it)
}
