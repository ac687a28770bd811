package kafka

import (
	"testing"

	"github.com/ariefcatur/go-retail-gudang/internal/events"
	"github.com/segmentio/kafka-go"
)

type capture struct {
	keys    [][]byte
	values  [][]byte
	headers [][]kafka.Header
}

func (c *capture) Publish(key, value []byte, headers ...kafka.Header) {
	c.keys = append(c.keys, key)
	c.values = append(c.values, value)
	c.headers = append(c.headers, headers)
}

func TestPublishEventRoundTrip(t *testing.T) {
	c := &capture{}
	PublishEvent(c, events.EventTransactionPaid, "retail-api", "42", "trace-1",
		events.TransactionPaidPayload{TransactionID: 42, Total: 5500, Items: []events.ItemQty{{SKU: "A1", Qty: 5}}})

	if len(c.values) != 1 {
		t.Fatalf("published %d messages", len(c.values))
	}
	if string(c.keys[0]) != "42" {
		t.Errorf("key = %q", c.keys[0])
	}
	if len(c.headers[0]) != 2 || string(c.headers[0][0].Value) != events.EventTransactionPaid {
		t.Errorf("headers = %+v", c.headers[0])
	}

	env, err := DecodeEnvelope(c.values[0])
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	p, err := UnwrapPayload[events.TransactionPaidPayload](env.Payload)
	if err != nil {
		t.Fatalf("UnwrapPayload: %v", err)
	}
	if p.TransactionID != 42 || p.Total != 5500 || len(p.Items) != 1 {
		t.Errorf("payload = %+v", p)
	}
}

func TestPublishEventNilPublisher(t *testing.T) {
	PublishEvent(nil, events.EventStockCredited, "x", "R1", "", events.StockCreditedPayload{})
}

func TestDecodeEnvelopeInvalid(t *testing.T) {
	if _, err := DecodeEnvelope([]byte("{not json")); err == nil {
		t.Fatal("expected error")
	}
}
