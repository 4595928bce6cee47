package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/example/wordwise/internal/database"
	"github.com/example/wordwise/pkg/models"
)

// Cache is a read-through cache in front of a corpus store.
// The corpus is re-read on every question draw, so hot queries are kept in memory.
type Cache struct {
	store database.CorpusStore
	cache *ristretto.Cache[string, []models.Item]
	ttl   time.Duration
}

var _ database.CorpusStore = (*Cache)(nil)

// NewCache wraps store. maxKeys bounds the number of cached query results.
func NewCache(store database.CorpusStore, maxKeys int64, ttl time.Duration) (*Cache, error) {
	if maxKeys <= 0 {
		maxKeys = 1000
	}
	c, err := ristretto.NewCache(&ristretto.Config[string, []models.Item]{
		NumCounters: maxKeys * 10,
		MaxCost:     maxKeys,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create corpus cache: %w", err)
	}
	return &Cache{store: store, cache: c, ttl: ttl}, nil
}

func (c *Cache) GetAll(ctx context.Context, kind models.Kind) ([]models.Item, error) {
	return c.load(fmt.Sprintf("%s|all", kind), func() ([]models.Item, error) {
		return c.store.GetAll(ctx, kind)
	})
}

func (c *Cache) GetByLevel(ctx context.Context, kind models.Kind, level models.Level) ([]models.Item, error) {
	return c.load(fmt.Sprintf("%s|level|%s", kind, level), func() ([]models.Item, error) {
		return c.store.GetByLevel(ctx, kind, level)
	})
}

func (c *Cache) GetByDifficultyRange(ctx context.Context, kind models.Kind, min, max float64) ([]models.Item, error) {
	return c.load(fmt.Sprintf("%s|range|%g|%g", kind, min, max), func() ([]models.Item, error) {
		return c.store.GetByDifficultyRange(ctx, kind, min, max)
	})
}

// Invalidate drops every cached result; call it after the corpus changes
func (c *Cache) Invalidate() {
	c.cache.Clear()
}

// Close releases the cache goroutines
func (c *Cache) Close() {
	c.cache.Close()
}

// load returns a copy so callers may shuffle the result freely
func (c *Cache) load(key string, fetch func() ([]models.Item, error)) ([]models.Item, error) {
	if items, ok := c.cache.Get(key); ok {
		return cloneItems(items), nil
	}

	items, err := fetch()
	if err != nil {
		return nil, err
	}
	c.cache.SetWithTTL(key, items, 1, c.ttl)
	c.cache.Wait()
	return cloneItems(items), nil
}

func cloneItems(items []models.Item) []models.Item {
	out := make([]models.Item, len(items))
	copy(out, items)
	return out
}
