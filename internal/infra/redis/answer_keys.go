package redis

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"quizha-server/internal/domain"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// AnswerKeyLoader fetches the answer key of an activity from the database.
type AnswerKeyLoader interface {
	LoadAnswerKey(ctx context.Context, activityID int64) (domain.AnswerKey, error)
}

// AnswerKeyCache caches answer keys in Redis (hash per activity) and falls back to a loader on miss.
// Keys are stored as: HSET quizha:activity:{activityID}:answers {questionID} {option}
// An activity without questions is never cached and always hits the loader.
type AnswerKeyCache struct {
	client *redis.Client
	loader AnswerKeyLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAnswerKeyCache(client *redis.Client, loader AnswerKeyLoader, ttl time.Duration) *AnswerKeyCache {
	return &AnswerKeyCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *AnswerKeyCache) AnswerKey(ctx context.Context, activityID int64) (domain.AnswerKey, error) {
	hashKey := answersKey(activityID)

	cached, err := c.client.HGetAll(ctx, hashKey).Result()
	if err == nil && len(cached) > 0 {
		return buildKeyFromCache(activityID, cached), nil
	}

	result, err, _ := c.sf.Do(hashKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		cached, err := c.client.HGetAll(ctx, hashKey).Result()
		if err == nil && len(cached) > 0 {
			return buildKeyFromCache(activityID, cached), nil
		}

		gen, genErr := generation(ctx, c.client, activityID)

		key, err := c.loader.LoadAnswerKey(ctx, activityID)
		if err != nil {
			return domain.AnswerKey{}, err
		}
		if len(key.Correct) == 0 || genErr != nil {
			return key, nil
		}
		c.store(ctx, activityID, gen, key)

		return key, nil
	})
	if err != nil {
		return domain.AnswerKey{}, err
	}
	return result.(domain.AnswerKey), nil
}

// Invalidate removes the cached hash so the next read reloads from the database.
// It also bumps the activity's generation so loads already in flight do not write back.
func (c *AnswerKeyCache) Invalidate(ctx context.Context, activityID int64) {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, answersKey(activityID))
	pipe.Incr(ctx, generationKey(activityID))
	_, _ = pipe.Exec(ctx)
	c.sf.Forget(answersKey(activityID))
}

// store writes key to the hash only if the generation is still gen.
// The generation key is watched so an Invalidate racing the write aborts it.
func (c *AnswerKeyCache) store(ctx context.Context, activityID, gen int64, key domain.AnswerKey) {
	hashKey := answersKey(activityID)
	fields := make(map[string]interface{}, len(key.Correct))
	for questionID, option := range key.Correct {
		fields[strconv.FormatInt(questionID, 10)] = option
	}

	_ = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := generation(ctx, tx, activityID)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, hashKey, fields)
			if ttl := c.ttlWithJitter(); ttl > 0 {
				pipe.Expire(ctx, hashKey, ttl)
			}
			return nil
		})
		return err
	}, generationKey(activityID))
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func generation(ctx context.Context, g getter, activityID int64) (int64, error) {
	n, err := g.Get(ctx, generationKey(activityID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func answersKey(activityID int64) string {
	return "quizha:activity:" + strconv.FormatInt(activityID, 10) + ":answers"
}

func generationKey(activityID int64) string {
	return "quizha:activity:" + strconv.FormatInt(activityID, 10) + ":answers:gen"
}

func buildKeyFromCache(activityID int64, cached map[string]string) domain.AnswerKey {
	key := domain.AnswerKey{ActivityID: activityID, Correct: make(map[int64]string, len(cached))}
	for field, option := range cached {
		questionID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			continue
		}
		key.Correct[questionID] = option
	}
	return key
}

func (c *AnswerKeyCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
