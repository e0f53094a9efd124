// Package notifications fans suggestion events out over Redis pub/sub to
// live websocket clients.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"beatbox/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// SuggestionEventsChannel is the Redis channel suggestion events are published on.
const SuggestionEventsChannel = "suggestions:events"

// Event types published for suggestion changes.
const (
	EventSuggestionCreated = "suggestion_created"
	EventSuggestionUpdated = "suggestion_updated"
	EventSuggestionDeleted = "suggestion_deleted"
	EventSuggestionLiked   = "suggestion_liked"
	EventSuggestionUnliked = "suggestion_unliked"
)

// Event is the payload broadcast to live feed subscribers.
type Event struct {
	Type         string    `json:"type"`
	SuggestionID uint      `json:"suggestion_id"`
	ActorID      uint      `json:"actor_id"`
	Likes        *int      `json:"likes,omitempty"`
	At           time.Time `json:"at"`
}

// Notifier publishes events to Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier. A nil client makes publishing a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishEvent publishes ev on SuggestionEventsChannel.
func (n *Notifier) PublishEvent(ctx context.Context, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return n.rdb.Publish(ctx, SuggestionEventsChannel, payload).Err()
}

// StartEventSubscriber subscribes to SuggestionEventsChannel and calls
// onMessage with each raw payload until ctx is cancelled.
func (n *Notifier) StartEventSubscriber(ctx context.Context, onMessage func(payload string)) error {
	if n == nil || n.rdb == nil {
		return fmt.Errorf("redis client is not configured")
	}

	sub := n.rdb.Subscribe(ctx, SuggestionEventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	ch := sub.Channel()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				middleware.Logger.Error("suggestion subscriber panic", "panic", r)
			}
			_ = sub.Close()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				onMessage(msg.Payload)
			}
		}
	}()
	return nil
}
