package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jmvillanueva/grandline/internal/metrics"
	"github.com/jmvillanueva/grandline/internal/model"
)

// fetcher はキャッシュが依存するカタログ取得のインターフェース。
// Clientが実装する。
type fetcher interface {
	Characters(ctx context.Context) ([]model.Character, error)
	Fruits(ctx context.Context) ([]model.Fruit, error)
}

// Cache はカタログ一覧のスナップショットをTTL付きで保持する。
// 期限切れ時の再取得はsingleflightで合流させ、同時リクエストが
// 外部APIを多重に叩かないようにする。
// 再取得に失敗した場合、期限切れのスナップショットがあればそれを返す。
type Cache struct {
	client  fetcher
	ttl     time.Duration
	metrics metrics.MetricsCollector

	mu           sync.RWMutex
	characters   []model.Character
	charactersAt time.Time
	fruits       []model.Fruit
	fruitsAt     time.Time

	group singleflight.Group
}

// NewCache はCacheを生成する。
func NewCache(client fetcher, ttl time.Duration, collector metrics.MetricsCollector) *Cache {
	return &Cache{
		client:  client,
		ttl:     ttl,
		metrics: collector,
	}
}

// Characters はキャラクター一覧のスナップショットを返す。
func (c *Cache) Characters(ctx context.Context) ([]model.Character, error) {
	c.mu.RLock()
	snapshot, at := c.characters, c.charactersAt
	c.mu.RUnlock()

	if snapshot != nil && time.Since(at) < c.ttl {
		c.metrics.RecordCatalogCacheHit("characters")
		return snapshot, nil
	}
	c.metrics.RecordCatalogCacheMiss("characters")

	result, err, _ := c.group.Do("characters", func() (any, error) {
		start := time.Now()
		characters, err := c.client.Characters(ctx)
		c.metrics.RecordCatalogFetchLatency(time.Since(start))
		if err != nil {
			c.metrics.RecordCatalogFetchFailure("characters")
			return nil, err
		}

		c.mu.Lock()
		c.characters = characters
		c.charactersAt = time.Now()
		c.mu.Unlock()
		return characters, nil
	})
	if err != nil {
		// 失敗時は期限切れでも手元のスナップショットで継続する
		if snapshot != nil {
			return snapshot, nil
		}
		return nil, err
	}
	return result.([]model.Character), nil
}

// Fruits は悪魔の実一覧のスナップショットを返す。
func (c *Cache) Fruits(ctx context.Context) ([]model.Fruit, error) {
	c.mu.RLock()
	snapshot, at := c.fruits, c.fruitsAt
	c.mu.RUnlock()

	if snapshot != nil && time.Since(at) < c.ttl {
		c.metrics.RecordCatalogCacheHit("fruits")
		return snapshot, nil
	}
	c.metrics.RecordCatalogCacheMiss("fruits")

	result, err, _ := c.group.Do("fruits", func() (any, error) {
		start := time.Now()
		fruits, err := c.client.Fruits(ctx)
		c.metrics.RecordCatalogFetchLatency(time.Since(start))
		if err != nil {
			c.metrics.RecordCatalogFetchFailure("fruits")
			return nil, err
		}

		c.mu.Lock()
		c.fruits = fruits
		c.fruitsAt = time.Now()
		c.mu.Unlock()
		return fruits, nil
	})
	if err != nil {
		if snapshot != nil {
			return snapshot, nil
		}
		return nil, err
	}
	return result.([]model.Fruit), nil
}

// Refresh は両リソースのスナップショットを強制的に再取得する。
// ワーカーの定期リフレッシュから呼ばれる。
func (c *Cache) Refresh(ctx context.Context) error {
	characters, err := c.client.Characters(ctx)
	if err != nil {
		c.metrics.RecordCatalogFetchFailure("characters")
		return err
	}
	fruits, err := c.client.Fruits(ctx)
	if err != nil {
		c.metrics.RecordCatalogFetchFailure("fruits")
		return err
	}

	now := time.Now()
	c.mu.Lock()
	c.characters = characters
	c.charactersAt = now
	c.fruits = fruits
	c.fruitsAt = now
	c.mu.Unlock()
	return nil
}
