package cache

import (
	"context"
	"sync"
	"time"

	"SpotMap-App/internal/domain/model"
)

// FetchFunc キャッシュミス時に実際のフェッチを行う関数
type FetchFunc func() (*model.RawFeedPayload, error)

// FeedCache フェッチ結果の短命TTLキャッシュ
// キーごとに実行中のフェッチを1つに束ね、同時に到着した呼び出し元は
// 同じ結果を共有する（シングルフライト）
type FeedCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	value    *model.RawFeedPayload
	storedAt time.Time
	hasValue bool
	inflight *inflightCall
}

type inflightCall struct {
	done  chan struct{}
	value *model.RawFeedPayload
	err   error
}

// NewFeedCache FeedCacheの新しいインスタンスを作成
func NewFeedCache() *FeedCache {
	return &FeedCache{
		entries: make(map[string]*cacheEntry),
	}
}

// GetOrFetch TTL内のキャッシュ値を返すか、フェッチを1本だけ起動して結果を返す
// 実行中のフェッチがあれば新しいフェッチは起動せず、その完了を待って同じ結果を返す
// フェッチの成否にかかわらず実行中ハンドルは必ずクリアし、次回の再試行を可能にする
func (c *FeedCache) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) (*model.RawFeedPayload, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if !ok {
		entry = &cacheEntry{}
		c.entries[key] = entry
	}

	// キャッシュヒット: ネットワークアクセスなしで即返す
	if entry.hasValue && time.Since(entry.storedAt) <= ttl {
		value := entry.value
		c.mu.Unlock()
		return value, nil
	}

	// 実行中のフェッチに合流する
	if entry.inflight != nil {
		call := entry.inflight
		c.mu.Unlock()
		return c.wait(ctx, call)
	}

	call := &inflightCall{done: make(chan struct{})}
	entry.inflight = call
	c.mu.Unlock()

	go func() {
		value, err := fetch()

		c.mu.Lock()
		if err == nil {
			entry.value = value
			entry.storedAt = time.Now()
			entry.hasValue = true
		}
		entry.inflight = nil
		c.mu.Unlock()

		call.value = value
		call.err = err
		close(call.done)
	}()

	return c.wait(ctx, call)
}

func (c *FeedCache) wait(ctx context.Context, call *inflightCall) (*model.RawFeedPayload, error) {
	select {
	case <-call.done:
		return call.value, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate キーのキャッシュ値を破棄する（強制リフレッシュやサインアウト時）
func (c *FeedCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok := c.entries[key]; ok {
		entry.value = nil
		entry.hasValue = false
		entry.storedAt = time.Time{}
	}
}
