package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/tracking"
	"github.com/go-chi/chi/v5"
)

type Tracking interface {
	Ingest(ctx context.Context, ev tracking.Event, source, traceID string) (tracking.Result, error)
	MarkDelivered(ctx context.Context, shipmentNo, traceID string) (tracking.Result, error)
	ListActive(ctx context.Context) ([]tracking.Record, error)
	GetByShipment(ctx context.Context, shipmentNo string) ([]tracking.Record, error)
}

type TrackingHandler struct {
	Svc           Tracking
	WebhookSecret string
}

func (h *TrackingHandler) Register(r chi.Router) {
	r.With(RequireSecret(h.WebhookSecret)).Post("/webhooks/shipment-events", h.webhook)
	r.Get("/tracking/active", h.active)
	r.Post("/tracking/mark-delivered", h.markDelivered)
	r.Get("/tracking/{shipment_no}", h.byShipment)
}

func (h *TrackingHandler) webhook(w http.ResponseWriter, r *http.Request) {
	var ev tracking.Event
	if err := decodeJSON(w, r, &ev, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.Ingest(ctx, ev, tracking.SourceWebhook, traceID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TrackingHandler) active(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.Svc.ListActive(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": recs})
}

func (h *TrackingHandler) byShipment(w http.ResponseWriter, r *http.Request) {
	no := chi.URLParam(r, "shipment_no")
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	recs, err := h.Svc.GetByShipment(ctx, no)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if len(recs) == 0 {
		writeError(w, r, apperr.NotFound("shipment %s not found", no))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"shipment_no": no, "items": recs})
}

func (h *TrackingHandler) markDelivered(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ShipmentNo string `json:"shipment_no"`
	}
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Svc.MarkDelivered(ctx, req.ShipmentNo, traceID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
