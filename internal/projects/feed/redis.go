package feed

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
)

// RedisFeed delivers change notifications over Redis Pub/Sub.
type RedisFeed struct {
	client  *redis.Client
	channel string
}

func NewRedisFeed(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client, channel: Channel}
}

func (f *RedisFeed) Publish(ctx context.Context, ch domain.Change) error {
	payload, err := encode(ch)
	if err != nil {
		return err
	}
	if err := f.client.Publish(ctx, f.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context) (Subscription, error) {
	ps := f.client.Subscribe(ctx, f.channel)

	// wait for the subscribe confirmation
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan domain.Change, 16),
		done:   make(chan struct{}),
	}
	go sub.run()
	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan domain.Change
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) run() {
	defer close(s.events)
	log := logging.Named("feed.redis")

	msgs := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			ch, err := decode(msg.Payload)
			if err != nil {
				log.LogWarnf("receive", "dropping malformed change: %v", err)
				continue
			}
			select {
			case s.events <- ch:
			case <-s.done:
				return
			}
		}
	}
}

func (s *redisSubscription) Events() <-chan domain.Change {
	return s.events
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
