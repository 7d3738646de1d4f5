package repo

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	errx "github.com/vijaylaxmi/flourmill/internal/core/error"
	"github.com/vijaylaxmi/flourmill/internal/model"
	logx "github.com/vijaylaxmi/flourmill/pkg/logger"
)

// RedisCatalogSource keeps a price list shared by several counters. Prices
// live in the hash <key>, display order in the list <key>:order.
type RedisCatalogSource struct {
	rdb redis.Cmdable
	key string
}

func NewRedisCatalogSource(rdb redis.Cmdable, key string) *RedisCatalogSource {
	return &RedisCatalogSource{rdb: rdb, key: key}
}

func (r *RedisCatalogSource) orderKey() string {
	return fmt.Sprintf("%s:order", r.key)
}

func (r *RedisCatalogSource) Load(ctx context.Context) ([]model.CatalogEntry, error) {
	names, err := r.rdb.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", r.orderKey()).Msg("failed to load catalog order from redis")
		return nil, errx.WrapRedis(err)
	}
	if len(names) == 0 {
		return nil, errx.WrapRedis(redis.Nil)
	}

	prices, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", r.key).Msg("failed to load catalog prices from redis")
		return nil, errx.WrapRedis(err)
	}

	entries := make([]model.CatalogEntry, 0, len(names))
	for i, name := range names {
		raw, ok := prices[name]
		if !ok {
			return nil, fmt.Errorf("catalog item %q (position %d) has no price", name, i+1)
		}
		price, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("catalog item %q: parse price %q: %w", name, raw, err)
		}
		entries = append(entries, model.CatalogEntry{Name: name, Price: price})
	}
	return entries, nil
}

// Save replaces the shared price list in a single transaction.
func (r *RedisCatalogSource) Save(ctx context.Context, entries []model.CatalogEntry) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key, r.orderKey())
		for _, e := range entries {
			pipe.HSet(ctx, r.key, e.Name, e.Price.String())
			pipe.RPush(ctx, r.orderKey(), e.Name)
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", r.key).Msg("failed to save catalog to redis")
		return errx.WrapRedis(err)
	}
	logx.Info().Str("key", r.key).Int("items", len(entries)).Msg("catalog saved to redis")
	return nil
}
