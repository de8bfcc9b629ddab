package leaderboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingProvider struct {
	err   error
	calls int
}

func (p *countingProvider) Build(_ context.Context, contestID uuid.UUID) (*Leaderboard, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return &Leaderboard{
		ContestID:  contestID.String(),
		Challenges: []string{"a"},
		MaxScores:  []float64{100},
		All:        View{"alice": {Scores: []float64{float64(p.calls)}, Counts: []int64{1}}},
		Official:   View{},
	}, nil
}

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCache(t *testing.T) {
	ctx := context.Background()

	t.Run("HitAfterMiss", func(t *testing.T) {
		mr, rdb := newRedis(t)
		p := &countingProvider{}
		c := NewCache(p, rdb, time.Minute)
		id := uuid.New()

		first, err := c.Build(ctx, id)
		require.NoError(t, err)
		second, err := c.Build(ctx, id)
		require.NoError(t, err)

		assert.Equal(t, 1, p.calls)
		assert.Equal(t, first, second)

		ttl := mr.TTL(cacheKey(id))
		assert.GreaterOrEqual(t, ttl, time.Minute)
		assert.LessOrEqual(t, ttl, time.Minute+6*time.Second)
	})

	t.Run("Invalidate", func(t *testing.T) {
		_, rdb := newRedis(t)
		p := &countingProvider{}
		c := NewCache(p, rdb, time.Minute)
		id := uuid.New()

		_, err := c.Build(ctx, id)
		require.NoError(t, err)
		require.NoError(t, c.Invalidate(ctx, id))

		lb, err := c.Build(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, 2, p.calls)
		assert.Equal(t, []float64{2}, lb.All["alice"].Scores)
	})

	t.Run("InvalidateAll", func(t *testing.T) {
		mr, rdb := newRedis(t)
		c := NewCache(&countingProvider{}, rdb, time.Minute)

		for range 3 {
			_, err := c.Build(ctx, uuid.New())
			require.NoError(t, err)
		}
		require.NoError(t, mr.Set("unrelated", "x"))

		require.NoError(t, c.InvalidateAll(ctx))
		assert.Equal(t, []string{"unrelated"}, mr.Keys())
	})

	t.Run("RedisDownFallsThrough", func(t *testing.T) {
		mr, rdb := newRedis(t)
		mr.Close()

		p := &countingProvider{}
		c := NewCache(p, rdb, time.Minute)

		_, err := c.Build(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, 1, p.calls)
	})

	t.Run("ProviderError", func(t *testing.T) {
		_, rdb := newRedis(t)
		boom := errors.New("boom")
		c := NewCache(&countingProvider{err: boom}, rdb, time.Minute)

		_, err := c.Build(ctx, uuid.New())
		assert.ErrorIs(t, err, boom)
	})
}
