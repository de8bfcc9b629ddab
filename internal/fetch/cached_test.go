package fetch_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stegosaurus21/minicms-sub001/internal/fetch"
	mockfetcher "github.com/stegosaurus21/minicms-sub001/internal/fetch/mock"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func body(s string) io.ReadCloser {
	return io.NopCloser(bytes.NewReader([]byte(s)))
}

func TestCachedFetcher(t *testing.T) {
	ctx := context.Background()

	t.Run("MissThenHit", func(t *testing.T) {
		mr, rdb := newRedis(t)
		next := mockfetcher.NewMockFetcher(gomock.NewController(t))
		next.EXPECT().Fetch(gomock.Any(), "a/1.in").Return(body("1 2\n"), nil).Times(1)

		f := fetch.NewCachedFetcher(next, rdb, "testdata:", time.Minute)

		for range 2 {
			got, err := fetch.ReadAll(ctx, f, "a/1.in")
			require.NoError(t, err)
			assert.Equal(t, "1 2\n", string(got))
		}

		cached, err := mr.Get("testdata:a/1.in")
		require.NoError(t, err)
		assert.Equal(t, "1 2\n", cached)
		assert.Greater(t, mr.TTL("testdata:a/1.in"), time.Duration(0))
	})

	t.Run("BackingError", func(t *testing.T) {
		_, rdb := newRedis(t)
		next := mockfetcher.NewMockFetcher(gomock.NewController(t))
		next.EXPECT().Fetch(gomock.Any(), "missing").Return(nil, errors.New("no such key"))

		f := fetch.NewCachedFetcher(next, rdb, "testdata:", time.Minute)
		_, err := f.Fetch(ctx, "missing")
		require.Error(t, err)
	})

	t.Run("CacheDown", func(t *testing.T) {
		mr, rdb := newRedis(t)
		mr.Close()

		next := mockfetcher.NewMockFetcher(gomock.NewController(t))
		next.EXPECT().Fetch(gomock.Any(), "a/1.out").Return(body("3\n"), nil)

		f := fetch.NewCachedFetcher(next, rdb, "testdata:", time.Minute)
		got, err := fetch.ReadAll(ctx, f, "a/1.out")
		require.NoError(t, err)
		assert.Equal(t, "3\n", string(got))
	})

	t.Run("LargeObjectNotCached", func(t *testing.T) {
		mr, rdb := newRedis(t)
		large := bytes.Repeat([]byte("x"), (1<<20)+10)

		next := mockfetcher.NewMockFetcher(gomock.NewController(t))
		next.EXPECT().Fetch(gomock.Any(), "big").
			Return(io.NopCloser(bytes.NewReader(large)), nil)

		f := fetch.NewCachedFetcher(next, rdb, "testdata:", time.Minute)
		got, err := fetch.ReadAll(ctx, f, "big")
		require.NoError(t, err)
		assert.Len(t, got, len(large))
		assert.False(t, mr.Exists("testdata:big"))
	})
}
