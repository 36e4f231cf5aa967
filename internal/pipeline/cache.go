package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/observability"
)

// Forecaster produces the prediction for a day.
type Forecaster interface {
	Predict(ctx context.Context, date time.Time) (*Prediction, error)
}

// CachedPredictor wraps a Forecaster with an in-memory LRU cache keyed by
// day and model version, so a reload naturally invalidates old entries.
type CachedPredictor struct {
	inner   Forecaster
	version func() (string, bool)
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedPredictor creates a cache decorator. version reports the model
// version that would serve the next request; ok is false when none is loaded.
func NewCachedPredictor(inner Forecaster, version func() (string, bool), maxEntries int, metrics *observability.Metrics) *CachedPredictor {
	return &CachedPredictor{
		inner:   inner,
		version: version,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedPredictor) Predict(ctx context.Context, date time.Time) (*Prediction, error) {
	day := date.Format(time.DateOnly)
	if v, ok := c.version(); ok {
		if p, hit := c.cache.get(cacheKey(day, v)); hit {
			c.metrics.PredictionCache.WithLabelValues("hit").Inc()
			return p, nil
		}
	}
	c.metrics.PredictionCache.WithLabelValues("miss").Inc()

	p, err := c.inner.Predict(ctx, date)
	if err != nil {
		return nil, err
	}
	c.cache.put(cacheKey(day, p.ModelVersion), p)
	return p, nil
}

func cacheKey(day, version string) string { return day + "|" + version }

// lruCache is a simple thread-safe LRU cache of predictions.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *Prediction
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*Prediction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *Prediction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
