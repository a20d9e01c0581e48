package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"persona-quiz-service/internal/app"
	"persona-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CachedCatalog caches catalog reads in Redis and falls back to the
// wrapped catalog on a miss. Each read is stored as JSON:
//
//	quiz:{testID}:test
//	quiz:{testID}:questions
//	quiz:{testID}:results
type CachedCatalog struct {
	client *redis.Client
	next   app.Catalog
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewCachedCatalog(client *redis.Client, next app.Catalog, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{
		client: client,
		next:   next,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CachedCatalog) GetTest(ctx context.Context, testID string) (domain.Test, error) {
	return cachedRead(ctx, c, testKey(testID), func(ctx context.Context) (domain.Test, error) {
		return c.next.GetTest(ctx, testID)
	})
}

func (c *CachedCatalog) GetQuestions(ctx context.Context, testID string) ([]domain.Question, error) {
	return cachedRead(ctx, c, questionsKey(testID), func(ctx context.Context) ([]domain.Question, error) {
		return c.next.GetQuestions(ctx, testID)
	})
}

func (c *CachedCatalog) GetResults(ctx context.Context, testID string) ([]domain.Result, error) {
	return cachedRead(ctx, c, resultsKey(testID), func(ctx context.Context) ([]domain.Result, error) {
		return c.next.GetResults(ctx, testID)
	})
}

// ListTests is not cached; listings change with every published test.
func (c *CachedCatalog) ListTests(ctx context.Context, search string) ([]domain.Test, error) {
	return c.next.ListTests(ctx, search)
}

// Invalidate drops the cached reads for a test after it is edited.
func (c *CachedCatalog) Invalidate(ctx context.Context, testID string) error {
	if err := c.client.Del(ctx, testKey(testID), questionsKey(testID), resultsKey(testID)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", testID, err)
	}
	return nil
}

func cachedRead[T any](ctx context.Context, c *CachedCatalog, key string, fetch func(context.Context) (T, error)) (T, error) {
	if v, ok := c.lookup(ctx, key); ok {
		var out T
		if err := json.Unmarshal(v, &out); err == nil {
			return out, nil
		}
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if v, ok := c.lookup(ctx, key); ok {
			var out T
			if err := json.Unmarshal(v, &out); err == nil {
				return out, nil
			}
		}

		v, err := fetch(ctx)
		if err != nil {
			return v, err
		}
		payload, err := json.Marshal(v)
		if err != nil {
			return v, nil
		}
		if err := c.client.Set(ctx, key, payload, c.ttlWithJitter()).Err(); err != nil {
			log.Printf("cache %s: %v", key, err)
		}
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

// lookup treats any Redis failure as a miss so the catalog keeps serving.
func (c *CachedCatalog) lookup(ctx context.Context, key string) ([]byte, bool) {
	v, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache lookup %s: %v", key, err)
		}
		return nil, false
	}
	return v, true
}

func testKey(testID string) string {
	return "quiz:" + testID + ":test"
}

func questionsKey(testID string) string {
	return "quiz:" + testID + ":questions"
}

func resultsKey(testID string) string {
	return "quiz:" + testID + ":results"
}

func (c *CachedCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
