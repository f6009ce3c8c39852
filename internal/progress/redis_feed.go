package progress

import (
	"context"
	"encoding/json"
	"fmt"

	"carecircle/pkg/logger"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// RedisFeed fans upload progress out over redis pub/sub so the websocket
// endpoint (possibly on another node) can stream it to the client. Publish
// failures are logged and dropped; progress is advisory.
type RedisFeed struct {
	client *goredis.Client
	log    *logger.Logger
}

func NewRedisFeed(client *goredis.Client, log *logger.Logger) *RedisFeed {
	return &RedisFeed{client: client, log: log}
}

func channelFor(uploadID uuid.UUID) string {
	return fmt.Sprintf("upload:progress:%s", uploadID.String())
}

// Sink returns a Sink publishing every event for uploadID to its channel.
func (f *RedisFeed) Sink(ctx context.Context, uploadID uuid.UUID) Sink {
	if f == nil || f.client == nil {
		return nil
	}
	channel := channelFor(uploadID)
	return func(e Event) {
		payload, err := json.Marshal(e)
		if err != nil {
			return
		}
		if err := f.client.Publish(ctx, channel, payload).Err(); err != nil && f.log != nil {
			f.log.Warnf("progress publish failed for %s: %v", uploadID, err)
		}
	}
}

// Subscribe streams events for uploadID until the context ends or a terminal
// stage arrives. The returned channel is closed by the feed.
func (f *RedisFeed) Subscribe(ctx context.Context, uploadID uuid.UUID) (<-chan Event, error) {
	if f == nil || f.client == nil {
		return nil, fmt.Errorf("progress feed not configured")
	}
	sub := f.client.Subscribe(ctx, channelFor(uploadID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("progress subscribe failed: %w", err)
	}

	out := make(chan Event, 8)
	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var e Event
				if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
					continue
				}
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
				if e.Stage == StageCompleted || e.Stage == StageFailed {
					return
				}
			}
		}
	}()
	return out, nil
}
