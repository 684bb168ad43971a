package redis

import (
	"context"
	"fmt"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"
)

const FeedChannel = "journeys:feed"

// LocalHub delivers a payload to the subscribers connected to this instance.
type LocalHub interface {
	Broadcast(payload []byte) int
}

// FeedRelay fans journey events out to admin subscribers on every instance.
// Events are published to a Redis channel and every instance relays what it receives
// to its own hub. Without Redis, events go straight to the local hub.
type FeedRelay struct {
	client  *goredis.Client
	channel string
	hub     LocalHub
	l       logger.Logger
}

func NewFeedRelay(client *goredis.Client, hub LocalHub, l logger.Logger) *FeedRelay {
	return &FeedRelay{
		client:  client,
		channel: FeedChannel,
		hub:     hub,
		l:       l,
	}
}

// Broadcast publishes msg to the live feed.
func (f *FeedRelay) Broadcast(ctx context.Context, msg models.JourneyEventMessage) error {
	ctx = wrap.WithAction(ctx, types.ActionFeedRelay)

	payload, err := json.Marshal(msg)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("marshal feed event: %w", err))
	}

	if f.client == nil {
		f.hub.Broadcast(payload)
		return nil
	}

	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		// Local admins still get the event.
		f.hub.Broadcast(payload)
		return wrap.Error(ctx, fmt.Errorf("publish feed event: %w", err))
	}

	return nil
}

// Serve relays the Redis channel into the local hub until ctx ends.
func (f *FeedRelay) Serve(ctx context.Context) error {
	if f.client == nil {
		<-ctx.Done()
		return nil
	}

	ctx = wrap.WithAction(ctx, types.ActionFeedRelay)

	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed so no event published afterwards is missed.
	if _, err := sub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	f.l.Info(ctx, "live feed relay subscribed", "channel", f.channel)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("feed subscription closed")
			}
			n := f.hub.Broadcast([]byte(msg.Payload))
			f.l.Debug(ctx, "feed event relayed", "subscribers", n)
		}
	}
}

func (f *FeedRelay) String() string {
	return "feed-relay"
}
