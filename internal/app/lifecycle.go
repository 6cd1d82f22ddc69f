package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"quizha-server/internal/domain"
	"quizha-server/internal/infra/sqldb"
)

// Notifier pushes activity status changes to live subscribers.
type Notifier interface {
	Broadcast(ctx context.Context, activityID int64, status domain.ActivityStatus)
}

// LifecycleManager enforces the activity state machine and drives the countdowns.
//
//	pending -> ongoing -> {paused <-> ongoing} -> completed
//
// Transitions for one activity are serialized; the countdown checkpoint
// (remaining_seconds, ends_at) is persisted with every transition so Recover
// can resume timers after a restart.
type LifecycleManager struct {
	store    *sqldb.Store
	notifier Notifier
	clock    func() time.Time

	locks  *keyedMutex
	timers *countdownRegistry

	ctx    context.Context
	cancel context.CancelFunc
}

// NewLifecycleManager builds a manager whose countdowns decrement once per tick.
// Production uses one second; tests pass a millisecond.
func NewLifecycleManager(store *sqldb.Store, notifier Notifier, tick time.Duration) *LifecycleManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &LifecycleManager{
		store:    store,
		notifier: notifier,
		clock:    func() time.Time { return time.Now().UTC() },
		locks:    newKeyedMutex(),
		timers:   newCountdownRegistry(tick),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start moves a pending activity to ongoing. durationMinutes 0 keeps the stored duration.
func (m *LifecycleManager) Start(ctx context.Context, id int64, durationMinutes int) (domain.Activity, error) {
	if durationMinutes < 0 {
		return domain.Activity{}, domain.InvalidInput("duration must be positive")
	}
	unlock := m.locks.lock(id)
	defer unlock()

	a, err := m.store.GetActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	if a.Status != domain.StatusPending {
		return domain.Activity{}, transitionError(a.Status, domain.StatusOngoing)
	}
	if durationMinutes == 0 {
		durationMinutes = a.DurationMinutes
	}
	if durationMinutes <= 0 {
		return domain.Activity{}, domain.InvalidInput("duration must be positive")
	}

	seconds := durationMinutes * 60
	err = m.store.RunInTx(ctx, func(ctx context.Context, tx *sqldb.Store) error {
		if durationMinutes != a.DurationMinutes {
			if err := tx.UpdateActivityDetails(ctx, id, a.Title, durationMinutes); err != nil {
				return err
			}
		}
		return tx.UpdateActivityState(ctx, id, m.runningState(seconds))
	})
	if err != nil {
		return domain.Activity{}, fmt.Errorf("start activity %d: %w", id, err)
	}

	m.schedule(id, seconds)
	m.notifier.Broadcast(ctx, id, domain.StatusOngoing)
	return m.store.GetActivity(ctx, id)
}

// Pause stops the countdown of an ongoing activity and checkpoints its remaining time.
func (m *LifecycleManager) Pause(ctx context.Context, id int64) (domain.Activity, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	a, err := m.store.GetActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	if a.Status != domain.StatusOngoing {
		return domain.Activity{}, transitionError(a.Status, domain.StatusPaused)
	}

	remaining, ok := m.timers.stop(id)
	if !ok {
		remaining = m.persistedRemaining(a)
	}
	state := sqldb.ActivityState{Status: domain.StatusPaused, RemainingSeconds: &remaining}
	if err := m.store.UpdateActivityState(ctx, id, state); err != nil {
		return domain.Activity{}, fmt.Errorf("pause activity %d: %w", id, err)
	}

	m.notifier.Broadcast(ctx, id, domain.StatusPaused)
	return m.store.GetActivity(ctx, id)
}

// Resume restarts the countdown of a paused activity from where it stopped.
func (m *LifecycleManager) Resume(ctx context.Context, id int64) (domain.Activity, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	a, err := m.store.GetActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	if a.Status != domain.StatusPaused {
		return domain.Activity{}, transitionError(a.Status, domain.StatusOngoing)
	}

	remaining := a.DurationMinutes * 60
	if a.RemainingSeconds != nil {
		remaining = *a.RemainingSeconds
	}
	if err := m.store.UpdateActivityState(ctx, id, m.runningState(remaining)); err != nil {
		return domain.Activity{}, fmt.Errorf("resume activity %d: %w", id, err)
	}

	m.schedule(id, remaining)
	m.notifier.Broadcast(ctx, id, domain.StatusOngoing)
	return m.store.GetActivity(ctx, id)
}

// Complete ends an ongoing or paused activity. Completed is terminal.
func (m *LifecycleManager) Complete(ctx context.Context, id int64) (domain.Activity, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	if err := m.completeLocked(ctx, id); err != nil {
		return domain.Activity{}, err
	}
	return m.store.GetActivity(ctx, id)
}

func (m *LifecycleManager) completeLocked(ctx context.Context, id int64) error {
	a, err := m.store.GetActivity(ctx, id)
	if err != nil {
		return err
	}
	if a.Status != domain.StatusOngoing && a.Status != domain.StatusPaused {
		return transitionError(a.Status, domain.StatusCompleted)
	}

	m.timers.stop(id)
	if err := m.store.UpdateActivityState(ctx, id, sqldb.ActivityState{Status: domain.StatusCompleted}); err != nil {
		return fmt.Errorf("complete activity %d: %w", id, err)
	}
	m.notifier.Broadcast(ctx, id, domain.StatusCompleted)
	return nil
}

// Edit changes title and duration. Only pending activities can be edited.
func (m *LifecycleManager) Edit(ctx context.Context, id int64, title string, durationMinutes int) (domain.Activity, error) {
	unlock := m.locks.lock(id)
	defer unlock()

	a, err := m.store.GetActivity(ctx, id)
	if err != nil {
		return domain.Activity{}, err
	}
	if a.Status != domain.StatusPending {
		return domain.Activity{}, domain.ErrActivityLocked
	}
	if err := m.store.UpdateActivityDetails(ctx, id, title, durationMinutes); err != nil {
		return domain.Activity{}, err
	}
	return m.store.GetActivity(ctx, id)
}

// Delete removes the activity and everything that belongs to it, stopping its countdown.
func (m *LifecycleManager) Delete(ctx context.Context, id int64) error {
	unlock := m.locks.lock(id)
	defer unlock()

	m.timers.stop(id)
	return m.store.DeleteActivity(ctx, id)
}

// Remaining returns the seconds left on the activity clock.
func (m *LifecycleManager) Remaining(ctx context.Context, id int64) (int, error) {
	a, err := m.store.GetActivity(ctx, id)
	if err != nil {
		return 0, err
	}
	switch a.Status {
	case domain.StatusPending:
		return a.DurationMinutes * 60, nil
	case domain.StatusCompleted:
		return 0, nil
	}
	if left, ok := m.timers.remaining(id); ok {
		return left, nil
	}
	return m.persistedRemaining(a), nil
}

// Recover restarts countdowns for activities left ongoing by a previous process.
// Activities whose end time already passed are completed.
func (m *LifecycleManager) Recover(ctx context.Context) error {
	ongoing, err := m.store.ListActivitiesByStatus(ctx, domain.StatusOngoing)
	if err != nil {
		return fmt.Errorf("list ongoing activities: %w", err)
	}
	for _, a := range ongoing {
		remaining := m.persistedRemaining(a)
		if remaining <= 0 {
			log.Printf("countdown: activity %d expired while offline, completing", a.ID)
			unlock := m.locks.lock(a.ID)
			err := m.completeLocked(ctx, a.ID)
			unlock()
			if err != nil && !errors.Is(err, domain.ErrConflict) {
				return err
			}
			continue
		}
		log.Printf("countdown: recovering activity %d with %ds left", a.ID, remaining)
		m.schedule(a.ID, remaining)
	}
	return nil
}

// Shutdown cancels every countdown and waits for the timer goroutines.
func (m *LifecycleManager) Shutdown() {
	m.cancel()
	m.timers.stopAll()
}

// ActiveCountdowns reports how many timers are running.
func (m *LifecycleManager) ActiveCountdowns() int {
	return m.timers.active()
}

func (m *LifecycleManager) schedule(id int64, seconds int) {
	m.timers.start(m.ctx, id, seconds, m.expire)
}

// expire runs on the timer goroutine when a countdown reaches zero.
func (m *LifecycleManager) expire(c *countdown) {
	unlock := m.locks.lock(c.activityID)
	defer unlock()

	if !m.timers.current(c) {
		return
	}
	m.timers.release(c)
	if err := m.completeLocked(m.ctx, c.activityID); err != nil {
		if !errors.Is(err, context.Canceled) {
			log.Printf("countdown: auto-complete activity %d: %v", c.activityID, err)
		}
		return
	}
	log.Printf("countdown: activity %d completed", c.activityID)
}

func (m *LifecycleManager) runningState(seconds int) sqldb.ActivityState {
	endsAt := m.clock().Add(time.Duration(seconds) * time.Second)
	return sqldb.ActivityState{
		Status:           domain.StatusOngoing,
		RemainingSeconds: &seconds,
		EndsAt:           &endsAt,
	}
}

// persistedRemaining derives remaining seconds from the stored checkpoint.
func (m *LifecycleManager) persistedRemaining(a domain.Activity) int {
	if a.EndsAt != nil {
		left := math.Ceil(a.EndsAt.Sub(m.clock()).Seconds())
		if left < 0 {
			return 0
		}
		return int(left)
	}
	if a.RemainingSeconds != nil {
		return *a.RemainingSeconds
	}
	return a.DurationMinutes * 60
}

func transitionError(from, to domain.ActivityStatus) error {
	return fmt.Errorf("%s -> %s: %w", from, to, domain.ErrInvalidTransition)
}

// keyedMutex hands out one mutex per activity id and drops it when unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*refMutex)}
}

func (k *keyedMutex) lock(id int64) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &refMutex{}
		k.locks[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
