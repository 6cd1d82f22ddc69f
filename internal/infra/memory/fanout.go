package memory

import (
	"context"
	"log"
	"sync"

	"quizha-server/internal/domain"
)

// StatusPrefix is the literal prefix of every status message pushed to clients.
const StatusPrefix = "STATUS_UPDATE:"

// StatusMessage renders the wire text for a status change.
func StatusMessage(status domain.ActivityStatus) string {
	return StatusPrefix + string(status)
}

// Subscriber is one live connection listening to an activity.
// Send must not block; implementations drop or fail instead.
type Subscriber interface {
	ID() string
	Send(msg string) error
	Close() error
}

// Hub tracks live subscribers per activity and fans out status changes.
type Hub struct {
	mu   sync.RWMutex
	subs map[int64]map[Subscriber]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subs: make(map[int64]map[Subscriber]struct{}),
	}
}

// Subscribe adds s to the set for activityID.
func (h *Hub) Subscribe(activityID int64, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[activityID]
	if !ok {
		set = make(map[Subscriber]struct{})
		h.subs[activityID] = set
	}
	set[s] = struct{}{}
	log.Printf("ws: subscriber %s joined activity %d (total: %d)", s.ID(), activityID, len(set))
}

// Unsubscribe removes s and drops the activity entry once its set is empty.
func (h *Hub) Unsubscribe(activityID int64, s Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subs[activityID]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, activityID)
	}
	log.Printf("ws: subscriber %s left activity %d", s.ID(), activityID)
}

// Broadcast sends the status message to every live subscriber of activityID.
// Failures are logged and otherwise ignored; with no subscribers it is a no-op.
func (h *Hub) Broadcast(_ context.Context, activityID int64, status domain.ActivityStatus) {
	receivers := h.snapshot(activityID)
	if len(receivers) == 0 {
		return
	}
	msg := StatusMessage(status)
	for _, s := range receivers {
		if err := s.Send(msg); err != nil {
			log.Printf("ws: send to %s failed: %v", s.ID(), err)
		}
	}
}

// Count returns the number of live subscribers for activityID.
func (h *Hub) Count(activityID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[activityID])
}

// CloseAll closes and forgets every subscriber. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	all := h.subs
	h.subs = make(map[int64]map[Subscriber]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for s := range set {
			_ = s.Close()
		}
	}
}

// snapshot copies the receivers so sends happen without holding the lock.
func (h *Hub) snapshot(activityID int64) []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.subs[activityID]
	out := make([]Subscriber, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	return out
}
