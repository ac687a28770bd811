package httpx

import (
	"context"
	"net/http"
	"testing"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/tracking"
)

type fakeTracking struct {
	ev     tracking.Event
	source string
	marked string
}

func (f *fakeTracking) Ingest(ctx context.Context, ev tracking.Event, source, traceID string) (tracking.Result, error) {
	f.ev, f.source = ev, source
	if ev.ShipmentNo == "" {
		return tracking.Result{Ignored: true, Credited: []tracking.Credit{}}, nil
	}
	return tracking.Result{ShipmentNo: ev.ShipmentNo, Status: "DELIVERED", Credited: []tracking.Credit{{SKU: "A1", Qty: 5}}}, nil
}

func (f *fakeTracking) MarkDelivered(ctx context.Context, shipmentNo, traceID string) (tracking.Result, error) {
	f.marked = shipmentNo
	if shipmentNo != "R1" {
		return tracking.Result{}, apperr.NotFound("shipment %s not found", shipmentNo)
	}
	return tracking.Result{ShipmentNo: shipmentNo, Credited: []tracking.Credit{}}, nil
}

func (f *fakeTracking) ListActive(ctx context.Context) ([]tracking.Record, error) {
	return []tracking.Record{{ShipmentNo: "R2", Status: "IN_TRANSIT"}}, nil
}

func (f *fakeTracking) GetByShipment(ctx context.Context, no string) ([]tracking.Record, error) {
	if no != "R1" {
		return []tracking.Record{}, nil
	}
	return []tracking.Record{{ShipmentNo: "R1", SKU: "A1"}}, nil
}

func trackingRouter(f *fakeTracking) http.Handler {
	r := NewRouter(nil)
	(&TrackingHandler{Svc: f, WebhookSecret: "s3cret"}).Register(r)
	return r
}

func TestShipmentWebhook(t *testing.T) {
	f := &fakeTracking{}
	h := trackingRouter(f)
	body := `{"shipment_no":"R1","status":"DELIVERED","items":[{"sku":"A1","name":"Apel","qty":5}],"supplier":"S1","distributor":"JNE"}`

	if rec := request(t, h, http.MethodPost, "/webhooks/shipment-events", body, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no secret = %d", rec.Code)
	}
	if rec := request(t, h, http.MethodPost, "/webhooks/shipment-events", body, map[string]string{CallbackSecretHeader: "nope"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong secret = %d", rec.Code)
	}

	rec := request(t, h, http.MethodPost, "/webhooks/shipment-events", body, map[string]string{CallbackSecretHeader: "s3cret"})
	if rec.Code != http.StatusOK {
		t.Fatalf("webhook = %d %s", rec.Code, rec.Body)
	}
	if f.source != tracking.SourceWebhook || len(f.ev.Items) != 1 || f.ev.Items[0].Qty != 5 {
		t.Errorf("ingested %+v from %s", f.ev, f.source)
	}
	res := decode[tracking.Result](t, rec)
	if len(res.Credited) != 1 {
		t.Errorf("result = %+v", res)
	}

	rec = request(t, h, http.MethodPost, "/webhooks/shipment-events", `{"status":"DELIVERED"}`, map[string]string{CallbackSecretHeader: "s3cret"})
	if rec.Code != http.StatusOK || !decode[tracking.Result](t, rec).Ignored {
		t.Errorf("empty shipment = %d %s", rec.Code, rec.Body)
	}
}

func TestTrackingReads(t *testing.T) {
	h := trackingRouter(&fakeTracking{})

	rec := request(t, h, http.MethodGet, "/tracking/active", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("active = %d", rec.Code)
	}
	if rec := request(t, h, http.MethodGet, "/tracking/R1", "", nil); rec.Code != http.StatusOK {
		t.Errorf("R1 = %d", rec.Code)
	}
	if rec := request(t, h, http.MethodGet, "/tracking/R9", "", nil); rec.Code != http.StatusNotFound {
		t.Errorf("R9 = %d", rec.Code)
	}
}

func TestMarkDelivered(t *testing.T) {
	f := &fakeTracking{}
	h := trackingRouter(f)
	if rec := request(t, h, http.MethodPost, "/tracking/mark-delivered", `{"shipment_no":"R1"}`, nil); rec.Code != http.StatusOK || f.marked != "R1" {
		t.Errorf("mark R1 = %d", rec.Code)
	}
	if rec := request(t, h, http.MethodPost, "/tracking/mark-delivered", `{"shipment_no":"R9"}`, nil); rec.Code != http.StatusNotFound {
		t.Errorf("mark R9 = %d", rec.Code)
	}
}
