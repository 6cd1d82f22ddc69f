package redis

import (
	"context"
	"encoding/json"
	"log"

	"quizha-server/internal/domain"

	"github.com/redis/go-redis/v9"
)

// StatusChannel is the pub/sub channel carrying activity status changes.
const StatusChannel = "quizha:activity-status"

// LocalBroadcaster delivers a status change to the subscribers connected to this process.
type LocalBroadcaster interface {
	Broadcast(ctx context.Context, activityID int64, status domain.ActivityStatus)
}

type statusEvent struct {
	ActivityID int64                 `json:"activityId"`
	Status     domain.ActivityStatus `json:"status"`
}

// StatusRelay publishes status changes to Redis so every server instance, this
// one included, pushes them to its own WebSocket subscribers.
// Notes:
//   - Delivery stays best-effort: a lost publish or a relay that is not yet
//     subscribed simply misses the event, same as a dropped socket write.
//   - If publishing fails the event is delivered locally only.
type StatusRelay struct {
	client *redis.Client
	local  LocalBroadcaster
	ready  chan struct{}
}

func NewStatusRelay(client *redis.Client, local LocalBroadcaster) *StatusRelay {
	return &StatusRelay{
		client: client,
		local:  local,
		ready:  make(chan struct{}),
	}
}

// Broadcast publishes the change; Run delivers it.
func (r *StatusRelay) Broadcast(ctx context.Context, activityID int64, status domain.ActivityStatus) {
	payload, err := json.Marshal(statusEvent{ActivityID: activityID, Status: status})
	if err == nil {
		err = r.client.Publish(ctx, StatusChannel, payload).Err()
	}
	if err != nil {
		log.Printf("relay: publish failed, delivering locally: %v", err)
		r.local.Broadcast(ctx, activityID, status)
	}
}

// Ready is closed once Run has an active subscription.
func (r *StatusRelay) Ready() <-chan struct{} {
	return r.ready
}

// Run subscribes to the status channel and relays events until ctx is done.
func (r *StatusRelay) Run(ctx context.Context) error {
	sub := r.client.Subscribe(ctx, StatusChannel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}
	close(r.ready)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev statusEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				log.Printf("relay: dropping malformed event: %v", err)
				continue
			}
			r.local.Broadcast(ctx, ev.ActivityID, ev.Status)
		}
	}
}
