package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"quizha-server/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []statusEvent
	seen   chan struct{}
}

func (r *recordingBroadcaster) Broadcast(_ context.Context, activityID int64, status domain.ActivityStatus) {
	r.mu.Lock()
	r.events = append(r.events, statusEvent{ActivityID: activityID, Status: status})
	r.mu.Unlock()
	r.seen <- struct{}{}
}

func TestStatusRelayDeliversThroughRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	local := &recordingBroadcaster{seen: make(chan struct{}, 4)}
	relay := NewStatusRelay(redis.NewClient(&redis.Options{Addr: mr.Addr()}), local)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = relay.Run(ctx) }()

	select {
	case <-relay.Ready():
	case <-time.After(5 * time.Second):
		t.Fatalf("relay never subscribed")
	}

	relay.Broadcast(ctx, 9, domain.StatusPaused)

	select {
	case <-local.seen:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected relayed event")
	}
	local.mu.Lock()
	defer local.mu.Unlock()
	if len(local.events) != 1 || local.events[0].ActivityID != 9 || local.events[0].Status != domain.StatusPaused {
		t.Fatalf("unexpected events %+v", local.events)
	}
}

func TestStatusRelayFallsBackToLocalWhenRedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	mr.Close()

	local := &recordingBroadcaster{seen: make(chan struct{}, 1)}
	relay := NewStatusRelay(client, local)

	relay.Broadcast(context.Background(), 1, domain.StatusOngoing)

	select {
	case <-local.seen:
	case <-time.After(5 * time.Second):
		t.Fatalf("expected local delivery on publish failure")
	}
}
