package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quizha-server/internal/domain"
)

func TestAnswerKeyCacheCaches(t *testing.T) {
	loader := &countingLoader{
		AnswerKeyLoader: NewStaticAnswerKeys(map[int64]map[int64]string{
			1: {10: "A", 11: "C"},
		}),
	}
	cache := NewAnswerKeyCache(loader, time.Minute)

	key, err := cache.AnswerKey(context.Background(), 1)
	if err != nil {
		t.Fatalf("answer key: %v", err)
	}
	if key.Correct[11] != "C" {
		t.Fatalf("expected C for question 11, got %q", key.Correct[11])
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected loader once, got %d", loader.calls.Load())
	}

	if _, err := cache.AnswerKey(context.Background(), 1); err != nil {
		t.Fatalf("answer key 2: %v", err)
	}
	if loader.calls.Load() != 1 {
		t.Fatalf("expected cache hit, loader calls %d", loader.calls.Load())
	}
}

func TestAnswerKeyCacheInvalidate(t *testing.T) {
	loader := &countingLoader{
		AnswerKeyLoader: NewStaticAnswerKeys(map[int64]map[int64]string{1: {10: "B"}}),
	}
	cache := NewAnswerKeyCache(loader, time.Minute)

	_, _ = cache.AnswerKey(context.Background(), 1)
	cache.Invalidate(context.Background(), 1)
	_, _ = cache.AnswerKey(context.Background(), 1)

	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after invalidate, loader calls %d", loader.calls.Load())
	}
}

func TestInvalidateDuringLoadIsNotLost(t *testing.T) {
	loader := newGatedLoader(map[int64]string{10: "A"})
	cache := NewAnswerKeyCache(loader, time.Minute)

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

	key, err := cache.AnswerKey(context.Background(), 1)
	if err != nil {
		t.Fatalf("answer key: %v", err)
	}
	if key.Correct[11] != "C" {
		t.Fatalf("expected question 11 after invalidate, got %v", key.Correct)
	}
}

func TestAnswerKeyCacheExpires(t *testing.T) {
	loader := &countingLoader{
		AnswerKeyLoader: NewStaticAnswerKeys(map[int64]map[int64]string{1: {10: "B"}}),
	}
	cache := NewAnswerKeyCache(loader, time.Minute)
	now := time.Now()
	cache.clock = func() time.Time { return now }

	_, _ = cache.AnswerKey(context.Background(), 1)
	now = now.Add(2 * time.Minute)
	_, _ = cache.AnswerKey(context.Background(), 1)

	if loader.calls.Load() != 2 {
		t.Fatalf("expected reload after ttl, loader calls %d", loader.calls.Load())
	}
}

func TestAnswerKeyCacheUnknownActivity(t *testing.T) {
	cache := NewAnswerKeyCache(NewStaticAnswerKeys(nil), time.Minute)
	if _, err := cache.AnswerKey(context.Background(), 99); err != domain.ErrActivityNotFound {
		t.Fatalf("expected activity not found, got %v", err)
	}
}

type countingLoader struct {
	AnswerKeyLoader
	calls atomic.Int32
}

func (l *countingLoader) LoadAnswerKey(ctx context.Context, activityID int64) (domain.AnswerKey, error) {
	l.calls.Add(1)
	return l.AnswerKeyLoader.LoadAnswerKey(ctx, activityID)
}

// gatedLoader snapshots its answers, then blocks the first load until release is closed.
type gatedLoader struct {
	mu      sync.Mutex
	correct map[int64]string
	once    sync.Once
	started chan struct{}
	release chan struct{}
}

func newGatedLoader(correct map[int64]string) *gatedLoader {
	return &gatedLoader{correct: correct, started: make(chan struct{}), release: make(chan struct{})}
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
