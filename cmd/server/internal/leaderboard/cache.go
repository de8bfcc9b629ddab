package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stegosaurus21/minicms-sub001/internal/logger"
)

const cachePrefix = "minicms:leaderboard:"

// Cache keeps built leaderboards in redis. Redis failures fall through to the wrapped provider.
type Cache struct {
	next Provider
	rdb  redis.UniversalClient
	ttl  time.Duration
}

var _ Provider = (*Cache)(nil)

func NewCache(next Provider, rdb redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{next: next, rdb: rdb, ttl: ttl}
}

func cacheKey(contestID uuid.UUID) string {
	return cachePrefix + contestID.String()
}

// up to 10% extra so entries built together do not expire together
func jitter(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttl
	}
	return ttl + time.Duration(rand.Int64N(int64(ttl)/10+1))
}

func (c *Cache) Build(ctx context.Context, contestID uuid.UUID) (*Leaderboard, error) {
	ctx, span := tracer.Start(ctx, "Cache.Build", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	key := cacheKey(contestID)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var lb Leaderboard
		if err := json.Unmarshal(raw, &lb); err == nil {
			span.AddEvent("cache_hit")
			span.SetStatus(codes.Ok, "served from cache")
			return &lb, nil
		}
		logger.Logger.WarnContext(ctx, "dropping undecodable leaderboard cache entry", "key", key)
	case errors.Is(err, redis.Nil):
		span.AddEvent("cache_miss")
	default:
		logger.Logger.WarnContext(ctx, "leaderboard cache read failed", "key", key, "error", err)
	}

	lb, err := c.next.Build(ctx, contestID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build leaderboard")
		return nil, err
	}

	encoded, err := json.Marshal(lb)
	if err == nil {
		err = c.rdb.Set(ctx, key, encoded, jitter(c.ttl)).Err()
	}
	if err != nil {
		logger.Logger.WarnContext(ctx, "leaderboard cache write failed", "key", key, "error", err)
	}

	span.SetStatus(codes.Ok, "built and cached")
	return lb, nil
}

func (c *Cache) Invalidate(ctx context.Context, contestID uuid.UUID) error {
	ctx, span := tracer.Start(ctx, "Cache.Invalidate", trace.WithAttributes(
		attribute.String("contest.id", contestID.String()),
	))
	defer span.End()

	if err := c.rdb.Del(ctx, cacheKey(contestID)).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to invalidate")
		return err
	}

	span.SetStatus(codes.Ok, "invalidated")
	return nil
}

// Drops every cached leaderboard
func (c *Cache) InvalidateAll(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Cache.InvalidateAll")
	defer span.End()

	iter := c.rdb.Scan(ctx, 0, cachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to invalidate")
			return err
		}
	}
	if err := iter.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to scan cache keys")
		return err
	}

	span.SetStatus(codes.Ok, "invalidated all")
	return nil
}

// Invalidator is satisfied by Cache. Noop is used when no cache is configured.
type Invalidator interface {
	Invalidate(ctx context.Context, contestID uuid.UUID) error
	InvalidateAll(ctx context.Context) error
}

type Noop struct{}

func (Noop) Invalidate(context.Context, uuid.UUID) error { return nil }
func (Noop) InvalidateAll(context.Context) error         { return nil }
