package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizha-server/internal/domain"
	"quizha-server/internal/infra/memory"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestAnswerKeyCacheStoresHashInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		AnswerKeyLoader: memory.NewStaticAnswerKeys(map[int64]map[int64]string{
			7: {70: "A", 71: "D"},
		}),
	}
	cache := NewAnswerKeyCache(client, loader, time.Minute)

	key, err := cache.AnswerKey(context.Background(), 7)
	if err != nil {
		t.Fatalf("answer key: %v", err)
	}
	if key.Correct[71] != "D" {
		t.Fatalf("expected D for question 71, got %q", key.Correct[71])
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if got := mr.HGet("quizha:activity:7:answers", "70"); got != "A" {
		t.Fatalf("expected cached option A, got %q", got)
	}

	// Second call should hit cache, loader not incremented.
	key, _ = cache.AnswerKey(context.Background(), 7)
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if len(key.Correct) != 2 {
		t.Fatalf("expected 2 cached answers, got %d", len(key.Correct))
	}
}

func TestAnswerKeyCacheInvalidateDeletesHash(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &countingLoader{
		AnswerKeyLoader: memory.NewStaticAnswerKeys(map[int64]map[int64]string{7: {70: "A"}}),
	}
	cache := NewAnswerKeyCache(newClient(mr), loader, time.Minute)

	_, _ = cache.AnswerKey(context.Background(), 7)
	cache.Invalidate(context.Background(), 7)
	if mr.Exists("quizha:activity:7:answers") {
		t.Fatalf("expected redis hash to be removed")
	}
	_, _ = cache.AnswerKey(context.Background(), 7)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestInvalidateDuringLoadSkipsStaleWrite(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	loader := &gatedLoader{
		correct: map[int64]string{10: "A"},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	cache := NewAnswerKeyCache(newClient(mr), loader, time.Minute)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = cache.AnswerKey(context.Background(), 1)
	}()
	<-loader.started

	loader.set(11, "C")
	cache.Invalidate(context.Background(), 1)
	close(loader.release)
	<-done

	if mr.Exists("quizha:activity:1:answers") {
		t.Fatalf("stale load must not be written back after invalidate")
	}
	key, err := cache.AnswerKey(context.Background(), 1)
	if err != nil {
		t.Fatalf("answer key: %v", err)
	}
	if key.Correct[11] != "C" {
		t.Fatalf("expected question 11 after invalidate, got %v", key.Correct)
	}
	if got := mr.HGet("quizha:activity:1:answers", "11"); got != "C" {
		t.Fatalf("expected fresh key cached, got %q", got)
	}
}

// gatedLoader snapshots its answers, then blocks the first load until release is closed.
type gatedLoader struct {
	mu      sync.Mutex
	correct map[int64]string
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func (l *gatedLoader) set(questionID int64, option string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.correct[questionID] = option
}

func (l *gatedLoader) LoadAnswerKey(_ context.Context, activityID int64) (domain.AnswerKey, error) {
	l.mu.Lock()
	snapshot := make(map[int64]string, len(l.correct))
	for id, opt := range l.correct {
		snapshot[id] = opt
	}
	l.mu.Unlock()

	first := false
	l.once.Do(func() { first = true })
	if first {
		close(l.started)
		<-l.release
	}
	return domain.AnswerKey{ActivityID: activityID, Correct: snapshot}, nil
}

type countingLoader struct {
	AnswerKeyLoader
	calls int
}

func (l *countingLoader) LoadAnswerKey(ctx context.Context, activityID int64) (domain.AnswerKey, error) {
	l.calls++
	return l.AnswerKeyLoader.LoadAnswerKey(ctx, activityID)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
