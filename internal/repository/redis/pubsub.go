package redisrepo

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/kirinyoku/cineseat/internal/domain"
)

// SeatsSoldPubSub fans out seats-sold notifications to every instance so
// each can drop its cached availability.
type SeatsSoldPubSub struct {
	rdb     *redis.Client
	channel string
}

func NewSeatsSoldPubSub(rdb *redis.Client) *SeatsSoldPubSub {
	return &SeatsSoldPubSub{
		rdb:     rdb,
		channel: ChannelSeatsSold(),
	}
}

func (p *SeatsSoldPubSub) PublishSeatsSold(ctx context.Context, ev domain.SeatsSold) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	return p.rdb.Publish(ctx, p.channel, b).Err()
}

// Subscribe blocks until ctx is done, calling handler for every well-formed
// message.
func (p *SeatsSoldPubSub) Subscribe(ctx context.Context, handler func(ctx context.Context, ev domain.SeatsSold)) error {
	sub := p.rdb.Subscribe(ctx, p.channel)
	defer sub.Close()

	ch := sub.Channel(redis.WithChannelSize(256))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m, ok := <-ch:
			if !ok {
				return nil
			}
			var ev domain.SeatsSold
			if err := json.Unmarshal([]byte(m.Payload), &ev); err == nil &&
				ev.ExternalID != "" {
				handler(ctx, ev)
			}
		}
	}
}
