package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ariefcatur/go-retail-gudang/internal/apperr"
	"github.com/ariefcatur/go-retail-gudang/internal/redisx"
	"github.com/redis/go-redis/v9"
)

const draftRetries = 5

// RedisDrafts keeps each draft as JSON under draft:{id} with a TTL, and
// an index sorted set scored by last update.
type RedisDrafts struct {
	Redis *redis.Client
	TTL   time.Duration
	now   func() time.Time
}

func NewRedisDrafts(rdb *redis.Client, ttl time.Duration) *RedisDrafts {
	return &RedisDrafts{Redis: rdb, TTL: ttl, now: time.Now}
}

func draftKey(id string) string { return fmt.Sprintf(redisx.KeyDraft, id) }

func (s *RedisDrafts) Update(ctx context.Context, orderID string, fn func(d *Draft)) (Draft, error) {
	k := draftKey(orderID)
	var out Draft
	txf := func(tx *redis.Tx) error {
		var d Draft
		b, err := tx.Get(ctx, k).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(b, &d); err != nil {
				return fmt.Errorf("decode draft: %w", err)
			}
		}
		now := s.now()
		fn(&d)
		touch(&d, orderID, now)
		enc, err := json.Marshal(d)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, k, enc, s.TTL)
			pipe.ZAdd(ctx, redisx.KeyDraftIndex, redis.Z{Score: float64(now.Unix()), Member: orderID})
			// index entri yang lebih tua dari TTL pasti sudah expired
			pipe.ZRemRangeByScore(ctx, redisx.KeyDraftIndex, "-inf", strconv.FormatInt(now.Add(-s.TTL).Unix()-1, 10))
			return nil
		})
		out = d
		return err
	}
	for i := 0; i < draftRetries; i++ {
		err := s.Redis.Watch(ctx, txf, k)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Draft{}, fmt.Errorf("update draft %s: %w", orderID, err)
		}
		return out, nil
	}
	return Draft{}, apperr.Conflict("draft %s is being modified concurrently, retry", orderID)
}

func (s *RedisDrafts) Get(ctx context.Context, orderID string) (Draft, error) {
	b, err := s.Redis.Get(ctx, draftKey(orderID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Draft{}, apperr.NotFound("draft %s not found", orderID)
	}
	if err != nil {
		return Draft{}, fmt.Errorf("get draft %s: %w", orderID, err)
	}
	var d Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return Draft{}, fmt.Errorf("decode draft %s: %w", orderID, err)
	}
	return d, nil
}

// List returns live drafts newest first. Index entries whose draft has
// expired are removed.
func (s *RedisDrafts) List(ctx context.Context) ([]Draft, error) {
	ids, err := s.Redis.ZRevRange(ctx, redisx.KeyDraftIndex, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	out := []Draft{}
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = draftKey(id)
	}
	vals, err := s.Redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load drafts: %w", err)
	}
	var stale []any
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var d Draft
		if err := json.Unmarshal([]byte(str), &d); err != nil {
			return nil, fmt.Errorf("decode draft %s: %w", ids[i], err)
		}
		out = append(out, d)
	}
	if len(stale) > 0 {
		_ = s.Redis.ZRem(ctx, redisx.KeyDraftIndex, stale...).Err()
	}
	sortNewest(out)
	return out, nil
}
