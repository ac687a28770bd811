package tracking

import (
	"context"
	"fmt"
	"log"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/events"
	kafkax "github.com/ariefcatur/go-retail-gudang/internal/kafka"
	"github.com/ariefcatur/go-retail-gudang/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Credit sources recorded on StockCredited events.
const (
	SourceWebhook = "webhook"
	SourceManual  = "manual"
	SourceKafka   = "kafka"
)

type Store interface {
	IngestEvent(ctx context.Context, ev Event) (Result, error)
	MarkDelivered(ctx context.Context, shipmentNo string) (Result, error)
	ListActive(ctx context.Context) ([]Record, error)
	GetByShipment(ctx context.Context, shipmentNo string) ([]Record, error)
}

type Service struct {
	Repo        Store
	Redis       *redis.Client    // dedup event_id kafka; nil = off
	Producer    kafkax.Publisher  // publish inventory.stock.credited
	ServiceName string
}

// Ingest reconciles one event and announces every credit it caused.
func (s *Service) Ingest(ctx context.Context, ev Event, source, traceID string) (Result, error) {
	res, err := s.Repo.IngestEvent(ctx, ev)
	if err != nil {
		return Result{}, err
	}
	s.publishCredits(res, source, traceID)
	return res, nil
}

func (s *Service) MarkDelivered(ctx context.Context, shipmentNo, traceID string) (Result, error) {
	res, err := s.Repo.MarkDelivered(ctx, shipmentNo)
	if err != nil {
		return Result{}, err
	}
	s.publishCredits(res, SourceManual, traceID)
	return res, nil
}

func (s *Service) ListActive(ctx context.Context) ([]Record, error) { return s.Repo.ListActive(ctx) }

func (s *Service) GetByShipment(ctx context.Context, shipmentNo string) ([]Record, error) {
	return s.Repo.GetByShipment(ctx, shipmentNo)
}

func (s *Service) publishCredits(res Result, source, traceID string) {
	for _, c := range res.Credited {
		kafkax.PublishEvent(s.Producer, events.EventStockCredited, s.ServiceName, res.ShipmentNo, traceID,
			events.StockCreditedPayload{ShipmentNo: res.ShipmentNo, SKU: c.SKU, Qty: c.Qty, Source: source})
	}
}

// HandleShipmentMessage: dipasang sebagai handler consumer shipment.events.
// Redis dedup hanya short-circuit; kebenaran tetap di status resi.
func (s *Service) HandleShipmentMessage(ctx context.Context, m kafkago.Message) error {
	// 1) decode envelope
	env, err := kafkax.DecodeEnvelope(m.Value)
	if err != nil {
		log.Printf("drop undecodable message offset=%d: %v", m.Offset, err)
		return nil
	}
	if env.EventType != events.EventShipmentStatus {
		return nil
	} // ignore

	// 2) dedup via Redis (pakai event_id)
	dkey := fmt.Sprintf(redisx.KeyDedup, "tracking", env.EventID)
	if s.Redis != nil && env.EventID != "" {
		if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
			return nil
		}
	}

	// 3) decode payload
	ev, err := kafkax.UnwrapPayload[Event](env.Payload)
	if err != nil {
		log.Printf("drop event %s: %v", env.EventID, err)
		return nil
	}

	// 4) reconcile; event yang invalid tidak akan pernah sukses, jadi jangan di-retry
	res, err := s.Ingest(ctx, ev, SourceKafka, env.TraceID)
	switch apperr.KindOf(err) {
	case "":
	case apperr.KindInvalidArgument, apperr.KindNotFound:
		log.Printf("drop event %s shipment=%s: %v", env.EventID, ev.ShipmentNo, err)
		return nil
	default:
		return err
	}

	if s.Redis != nil && env.EventID != "" {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	if len(res.Credited) > 0 {
		log.Printf("shipment %s %s: credited %d sku", res.ShipmentNo, res.Status, len(res.Credited))
	}
	return nil
}
