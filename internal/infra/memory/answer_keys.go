package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quizha-server/internal/domain"

	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches the answer key of an activity from the database.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, activityID int64) (domain.AnswerKey, error)
}

// AnswerKeyCache caches per-activity answer keys with TTL to avoid repeated DB hits.
type AnswerKeyCache struct {
	loader AnswerKeyLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[int64]cachedKey
	// gen is bumped by Invalidate; a load that started before the bump is not cached.
	gen map[int64]uint64
}

type cachedKey struct {
	key       domain.AnswerKey
	expiresAt time.Time
}

func NewAnswerKeyCache(loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[int64]cachedKey),
		gen:    make(map[int64]uint64),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, activityID int64) (domain.AnswerKey, error) {
	if key, ok := c.lookup(activityID); ok {
		return key, nil
	}

	result, err, _ := c.sf.Do(strconv.FormatInt(activityID, 10), func() (interface{}, error) {
		if key, ok := c.lookup(activityID); ok {
			return key, nil
		}

		c.mu.RLock()
		gen := c.gen[activityID]
		c.mu.RUnlock()

		key, err := c.loader.LoadAnswerKey(ctx, activityID)
		if err != nil {
			return domain.AnswerKey{}, err
		}

		c.mu.Lock()
		if c.gen[activityID] == gen {
			c.cache[activityID] = cachedKey{
				key:       key,
				expiresAt: c.clock().Add(c.ttlWithJitter()),
			}
		}
		c.mu.Unlock()
		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate drops the cached key so the next read reloads it.
func (c *AnswerKeyCache) Invalidate(_ context.Context, activityID int64) {
	c.mu.Lock()
	delete(c.cache, activityID)
	c.gen[activityID]++
	c.mu.Unlock()
	c.sf.Forget(strconv.FormatInt(activityID, 10))
}

func (c *AnswerKeyCache) lookup(activityID int64) (domain.AnswerKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[activityID]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.AnswerKey{}, false
	}
	return entry.key, true
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticAnswerKeys is a loader backed by an in-memory map (useful for tests/demos).
type StaticAnswerKeys struct {
	keys map[int64]map[int64]string
}

func NewStaticAnswerKeys(keys map[int64]map[int64]string) *StaticAnswerKeys {
	return &StaticAnswerKeys{keys: keys}
}

func (l *StaticAnswerKeys) LoadAnswerKey(_ context.Context, activityID int64) (domain.AnswerKey, error) {
	correct, ok := l.keys[activityID]
	if !ok {
		return domain.AnswerKey{}, domain.ErrActivityNotFound
	}
	return domain.AnswerKey{ActivityID: activityID, Correct: correct}, nil
}
