package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SpotMap-App/internal/domain/model"
)

func payloadOf(count int) *model.RawFeedPayload {
	spots := make([]model.Spot, count)
	for i := range spots {
		spots[i] = model.Spot{ID: int64(i + 1)}
	}
	return &model.RawFeedPayload{Recommended: spots}
}

func TestFeedCache_GetOrFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("TTL内はキャッシュヒットしてフェッチが走らない", func(t *testing.T) {
		c := NewFeedCache()
		var calls int32

		fetch := func() (*model.RawFeedPayload, error) {
			atomic.AddInt32(&calls, 1)
			return payloadOf(1), nil
		}

		first, err := c.GetOrFetch(ctx, "feed", time.Minute, fetch)
		require.NoError(t, err)
		second, err := c.GetOrFetch(ctx, "feed", time.Minute, fetch)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("TTL経過後は新しいフェッチが走る", func(t *testing.T) {
		c := NewFeedCache()
		var calls int32

		fetch := func() (*model.RawFeedPayload, error) {
			atomic.AddInt32(&calls, 1)
			return payloadOf(1), nil
		}

		_, err := c.GetOrFetch(ctx, "feed", 10*time.Millisecond, fetch)
		require.NoError(t, err)

		time.Sleep(30 * time.Millisecond)

		_, err = c.GetOrFetch(ctx, "feed", 10*time.Millisecond, fetch)
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("同時呼び出しはフェッチ1本に束ねられる", func(t *testing.T) {
		c := NewFeedCache()
		var calls int32
		release := make(chan struct{})

		fetch := func() (*model.RawFeedPayload, error) {
			atomic.AddInt32(&calls, 1)
			<-release
			return payloadOf(2), nil
		}

		const callers = 5
		results := make([]*model.RawFeedPayload, callers)
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				payload, err := c.GetOrFetch(ctx, "feed", time.Minute, fetch)
				assert.NoError(t, err)
				results[idx] = payload
			}(i)
		}

		// 全呼び出し元がフェッチ中に到着してから解放する
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		for _, payload := range results {
			assert.Same(t, results[0], payload)
		}
	})

	t.Run("フェッチ失敗後は実行中ハンドルがクリアされ再試行できる", func(t *testing.T) {
		c := NewFeedCache()
		var calls int32

		failing := func() (*model.RawFeedPayload, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("ネットワークエラー")
		}

		_, err := c.GetOrFetch(ctx, "feed", time.Minute, failing)
		require.Error(t, err)

		payload, err := c.GetOrFetch(ctx, "feed", time.Minute, func() (*model.RawFeedPayload, error) {
			atomic.AddInt32(&calls, 1)
			return payloadOf(3), nil
		})
		require.NoError(t, err)
		assert.Len(t, payload.Recommended, 3)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("キーが違えばキャッシュは独立している", func(t *testing.T) {
		c := NewFeedCache()
		var calls int32

		fetch := func() (*model.RawFeedPayload, error) {
			atomic.AddInt32(&calls, 1)
			return payloadOf(1), nil
		}

		_, err := c.GetOrFetch(ctx, "a", time.Minute, fetch)
		require.NoError(t, err)
		_, err = c.GetOrFetch(ctx, "b", time.Minute, fetch)
		require.NoError(t, err)

		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})

	t.Run("Invalidate後は再フェッチされる", func(t *testing.T) {
		c := NewFeedCache()
		var calls int32

		fetch := func() (*model.RawFeedPayload, error) {
			atomic.AddInt32(&calls, 1)
			return payloadOf(1), nil
		}

		_, err := c.GetOrFetch(ctx, "feed", time.Minute, fetch)
		require.NoError(t, err)

		c.Invalidate("feed")

		_, err = c.GetOrFetch(ctx, "feed", time.Minute, fetch)
		require.NoError(t, err)
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	})
}
