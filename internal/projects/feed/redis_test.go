package feed

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Ping(context.Background()).Err())
	return client
}

func TestRedisFeed_PublishReachesEverySubscriber(t *testing.T) {
	client := setupTestRedis(t)
	f := NewRedisFeed(client)
	ctx := context.Background()

	a, err := f.Subscribe(ctx)
	require.NoError(t, err)
	defer a.Close()
	b, err := f.Subscribe(ctx)
	require.NoError(t, err)
	defer b.Close()

	change := domain.Change{Op: domain.OpInsert, ProjectID: "p1", OwnerID: "abc123", At: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, f.Publish(ctx, change))

	for _, sub := range []Subscription{a, b} {
		select {
		case got := <-sub.Events():
			assert.Equal(t, change.Op, got.Op)
			assert.Equal(t, change.ProjectID, got.ProjectID)
			assert.True(t, change.At.Equal(got.At))
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for change")
		}
	}
}

func TestRedisFeed_CloseReleasesSubscription(t *testing.T) {
	client := setupTestRedis(t)
	f := NewRedisFeed(client)
	ctx := context.Background()

	sub, err := f.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, sub.Close())
	// closing twice is harmless
	assert.NoError(t, sub.Close())

	select {
	case _, ok := <-sub.Events():
		assert.False(t, ok, "events channel should be closed")
	case <-time.After(2 * time.Second):
		t.Fatal("events channel not closed after Close")
	}

	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, Channel).Result()
		return err == nil && n[Channel] == 0
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisFeed_IgnoresMalformedPayload(t *testing.T) {
	client := setupTestRedis(t)
	f := NewRedisFeed(client)
	ctx := context.Background()

	sub, err := f.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, client.Publish(ctx, Channel, "not json").Err())
	require.NoError(t, f.Publish(ctx, domain.Change{Op: domain.OpDelete, ProjectID: "p9"}))

	select {
	case got := <-sub.Events():
		assert.Equal(t, "p9", got.ProjectID)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
	}
}
