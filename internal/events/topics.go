package events

const (
	TopicTransactionPaid = "pos.transaction.paid"
	TopicStockCredited   = "inventory.stock.credited"
	TopicShipmentEvents  = "shipment.events"
)

// Partition key = transaction id / shipment no, supaya event satu entitas tetap berurutan.
func PartitionKey(id string) []byte { return []byte(id) }
