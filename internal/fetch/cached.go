package fetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stegosaurus21/minicms-sub001/internal/logger"
)

// Ensure CachedFetcher implements Fetcher interface.
var _ Fetcher = (*CachedFetcher)(nil)

// Objects larger than this are never cached
const maxCachedObject = 1 << 20

// CachedFetcher keeps small objects in redis in front of a slower fetcher. Test data is
// immutable once uploaded so entries are never invalidated, only expired.
type CachedFetcher struct {
	next   Fetcher
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewCachedFetcher(next Fetcher, rdb redis.UniversalClient, prefix string, ttl time.Duration) *CachedFetcher {
	return &CachedFetcher{next: next, rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *CachedFetcher) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	ctx, span := tracer.Start(ctx, "CachedFetcher.Fetch", trace.WithAttributes(
		attribute.String("key", key),
	))
	defer span.End()

	cacheKey := c.prefix + key

	cached, err := c.rdb.Get(ctx, cacheKey).Bytes()
	switch {
	case err == nil:
		span.AddEvent("cache_hit")
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "served from cache")
		return io.NopCloser(bytes.NewReader(cached)), nil
	case errors.Is(err, redis.Nil):
		span.AddEvent("cache_miss")
	default:
		// a broken cache should only cost latency
		logger.Logger.WarnContext(ctx, "testdata cache read failed", "key", key, "error", err)
	}

	body, err := c.next.Fetch(ctx, key)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch from backing store")
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxCachedObject+1))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read object")
		return nil, err
	}

	if len(data) > maxCachedObject {
		rest, err := io.ReadAll(body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to read object")
			return nil, err
		}
		span.AddEvent("too_large_to_cache")
		span.RecordError(nil)
		span.SetStatus(codes.Ok, "fetched uncached")
		return io.NopCloser(bytes.NewReader(append(data, rest...))), nil
	}

	if err := c.rdb.Set(ctx, cacheKey, data, c.ttl).Err(); err != nil {
		logger.Logger.WarnContext(ctx, "testdata cache write failed", "key", key, "error", err)
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "fetched and cached")
	return io.NopCloser(bytes.NewReader(data)), nil
}
