// Package cart keeps one shopping cart per owner in Redis.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/redisx"
	"github.com/redis/go-redis/v9"
)

// maxRetries bounds optimistic retries when two requests of the same
// owner race on the cart key.
const maxRetries = 5

// Item is one cart line. Price and Stock are snapshots from the catalog
// the item was picked from.
type Item struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Stock       int    `json:"stock"`
	Qty         int    `json:"qty"`
	WeightGrams int    `json:"weight_grams,omitempty"`
}

type Cart struct {
	Items []Item `json:"items"`
	Total int64  `json:"total"`
}

func newCart(items []Item) Cart {
	if items == nil {
		items = []Item{}
	}
	var total int64
	for _, it := range items {
		total += it.Price * int64(it.Qty)
	}
	return Cart{Items: items, Total: total}
}

type Store struct {
	Redis *redis.Client
	TTL   time.Duration
}

func key(owner string) string { return fmt.Sprintf(redisx.KeyCart, owner) }

func (s *Store) Get(ctx context.Context, owner string) (Cart, error) {
	b, err := s.Redis.Get(ctx, key(owner)).Bytes()
	if errors.Is(err, redis.Nil) {
		return newCart(nil), nil
	}
	if err != nil {
		return Cart{}, fmt.Errorf("get cart %s: %w", owner, err)
	}
	var items []Item
	if err := json.Unmarshal(b, &items); err != nil {
		return Cart{}, fmt.Errorf("decode cart %s: %w", owner, err)
	}
	return newCart(items), nil
}

// Add puts it in the cart. A qty of zero or less counts as one; an SKU
// already in the cart has its quantity incremented.
func (s *Store) Add(ctx context.Context, owner string, it Item) (Cart, error) {
	it.SKU = strings.TrimSpace(it.SKU)
	if it.SKU == "" {
		return Cart{}, apperr.InvalidArgument("sku is required")
	}
	if it.Qty <= 0 {
		it.Qty = 1
	}
	return s.mutate(ctx, owner, func(items []Item) []Item { return merge(items, it) })
}

// BulkAdd adds every entry that has a sku and a positive qty; the rest
// are skipped.
func (s *Store) BulkAdd(ctx context.Context, owner string, in []Item) (Cart, error) {
	if len(in) == 0 {
		return Cart{}, apperr.InvalidArgument("items is empty")
	}
	return s.mutate(ctx, owner, func(items []Item) []Item {
		for _, it := range in {
			it.SKU = strings.TrimSpace(it.SKU)
			if it.SKU == "" || it.Qty <= 0 {
				continue
			}
			items = merge(items, it)
		}
		return items
	})
}

// Update sets the absolute quantity of sku; qty of zero or less removes it.
func (s *Store) Update(ctx context.Context, owner, sku string, qty int) (Cart, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return Cart{}, apperr.InvalidArgument("sku is required")
	}
	return s.mutate(ctx, owner, func(items []Item) []Item {
		out := items[:0]
		for _, it := range items {
			if it.SKU == sku {
				if qty <= 0 {
					continue
				}
				it.Qty = qty
			}
			out = append(out, it)
		}
		return out
	})
}

func (s *Store) Clear(ctx context.Context, owner string) error {
	if err := s.Redis.Del(ctx, key(owner)).Err(); err != nil {
		return fmt.Errorf("clear cart %s: %w", owner, err)
	}
	return nil
}

func merge(items []Item, it Item) []Item {
	for i := range items {
		if items[i].SKU == it.SKU {
			items[i].Qty += it.Qty
			return items
		}
	}
	return append(items, it)
}

// mutate applies fn under WATCH so concurrent writers on one cart never
// lose each other's lines.
func (s *Store) mutate(ctx context.Context, owner string, fn func([]Item) []Item) (Cart, error) {
	k := key(owner)
	var result []Item
	txf := func(tx *redis.Tx) error {
		var items []Item
		b, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(b, &items); err != nil {
				return fmt.Errorf("decode cart: %w", err)
			}
		}
		result = fn(items)
		enc, err := json.Marshal(result)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, enc, s.TTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.Redis.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Cart{}, fmt.Errorf("update cart %s: %w", owner, err)
		}
		return newCart(result), nil
	}
	return Cart{}, apperr.Conflict("cart %s is being modified concurrently, retry", owner)
}
