package redisx

import "time"

const (
	// Keranjang per user: cart:{user_id} -> hash sku -> item JSON
	KeyCart = "cart:%s"

	// Draft order supplier: draft:{order_id} -> draft JSON
	KeyDraft = "draft:%s"

	// Index draft (sorted set, score = updated_at unix)
	KeyDraftIndex = "drafts"

	// Dedup event processing: dedup:{service}:{id} (id = event_id)
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLDedup = 48 * time.Hour
)
