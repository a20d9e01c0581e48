package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CachedCatalog caches catalog reads per test with TTL to avoid repeated DB hits.
// Listings are not cached.
type CachedCatalog struct {
	next  app.Catalog
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	value     any
	expiresAt time.Time
}

func NewCachedCatalog(next app.Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		next:  next,
		ttl:   ttl,
		clock: time.Now,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		cache: make(map[string]cachedEntry),
	}
}

func (c *CachedCatalog) GetTest(ctx context.Context, testID string) (domain.Test, error) {
	v, err := c.load(ctx, "test:"+testID, func() (any, error) {
		return c.next.GetTest(ctx, testID)
	})
	if err != nil {
		return domain.Test{}, err
	}
	return v.(domain.Test), nil
}

func (c *CachedCatalog) GetQuestions(ctx context.Context, testID string) ([]domain.Question, error) {
	v, err := c.load(ctx, "questions:"+testID, func() (any, error) {
		return c.next.GetQuestions(ctx, testID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Question), nil
}

func (c *CachedCatalog) GetResults(ctx context.Context, testID string) ([]domain.Result, error) {
	v, err := c.load(ctx, "results:"+testID, func() (any, error) {
		return c.next.GetResults(ctx, testID)
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Result), nil
}

func (c *CachedCatalog) ListTests(ctx context.Context, search string) ([]domain.Test, error) {
	return c.next.ListTests(ctx, search)
}

// Invalidate drops every cached read for a test.
func (c *CachedCatalog) Invalidate(testID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.cache, "test:"+testID)
	delete(c.cache, "questions:"+testID)
	delete(c.cache, "results:"+testID)
}

func (c *CachedCatalog) load(_ context.Context, key string, fetch func() (any, error)) (any, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	v, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another caller filled it.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cache[key] = cachedEntry{value: v, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return v, nil
	})
	return v, err
}

func (c *CachedCatalog) lookup(key string) (any, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[key]; ok && entry.expiresAt.After(now) {
		return entry.value, true
	}
	return nil, false
}

func (c *CachedCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
