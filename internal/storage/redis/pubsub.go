package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcoot/fleetgame-go/internal/model"
)

func (s *Storage) Publish(ctx context.Context, event model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.withRetry(ctx, func() error {
		return s.client.Publish(ctx, eventsChannel(event.GameID), data).Err()
	})
}

// Subscribe returns once the subscription is confirmed, so no event
// published after it returns is missed.
func (s *Storage) Subscribe(ctx context.Context, gameID model.GameID) (<-chan model.Event, error) {
	pubsub := s.client.Subscribe(ctx, eventsChannel(gameID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("%w: %v", model.ErrStoreUnavailable, err)
	}

	out := make(chan model.Event, 64)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event model.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
