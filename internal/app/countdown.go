package app

import (
	"context"
	"sync"
	"time"
)

// countdown is one running timer for an activity. remaining is in seconds.
type countdown struct {
	activityID int64
	cancel     context.CancelFunc

	mu        sync.Mutex
	remaining int
}

func (c *countdown) left() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// decrement lowers remaining by one and reports whether it reached zero.
func (c *countdown) decrement() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.remaining > 0 {
		c.remaining--
	}
	return c.remaining == 0
}

// countdownRegistry holds at most one timer per activity id.
type countdownRegistry struct {
	tick time.Duration

	mu     sync.Mutex
	timers map[int64]*countdown
	wg     sync.WaitGroup
}

func newCountdownRegistry(tick time.Duration) *countdownRegistry {
	if tick <= 0 {
		tick = time.Second
	}
	return &countdownRegistry{
		tick:   tick,
		timers: make(map[int64]*countdown),
	}
}

// start registers a new timer for activityID, cancelling any previous one in the
// same critical section. onZero runs on the timer goroutine when it reaches zero;
// it must check current() before acting since the timer may have been replaced.
func (r *countdownRegistry) start(parent context.Context, activityID int64, seconds int, onZero func(*countdown)) *countdown {
	ctx, cancel := context.WithCancel(parent)
	c := &countdown{activityID: activityID, cancel: cancel, remaining: seconds}

	r.mu.Lock()
	if prev, ok := r.timers[activityID]; ok {
		prev.cancel()
	}
	r.timers[activityID] = c
	r.wg.Add(1)
	r.mu.Unlock()

	go r.run(ctx, c, onZero)
	return c
}

func (r *countdownRegistry) run(ctx context.Context, c *countdown, onZero func(*countdown)) {
	defer r.wg.Done()
	defer c.cancel()

	if c.left() <= 0 {
		onZero(c)
		return
	}

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			if c.decrement() {
				onZero(c)
				return
			}
		}
	}
}

// stop cancels and forgets the timer for activityID, returning its remaining seconds.
func (r *countdownRegistry) stop(activityID int64) (int, bool) {
	r.mu.Lock()
	c, ok := r.timers[activityID]
	if ok {
		delete(r.timers, activityID)
	}
	r.mu.Unlock()
	if !ok {
		return 0, false
	}
	c.cancel()
	return c.left(), true
}

// release forgets c if it is still the registered timer for its activity.
func (r *countdownRegistry) release(c *countdown) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timers[c.activityID] == c {
		delete(r.timers, c.activityID)
	}
}

func (r *countdownRegistry) current(c *countdown) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers[c.activityID] == c
}

func (r *countdownRegistry) remaining(activityID int64) (int, bool) {
	r.mu.Lock()
	c, ok := r.timers[activityID]
	r.mu.Unlock()
	if !ok {
		return 0, false
	}
	return c.left(), true
}

func (r *countdownRegistry) active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.timers)
}

// stopAll cancels every timer and waits for their goroutines to exit.
func (r *countdownRegistry) stopAll() {
	r.mu.Lock()
	for id, c := range r.timers {
		c.cancel()
		delete(r.timers, id)
	}
	r.mu.Unlock()
	r.wg.Wait()
}
