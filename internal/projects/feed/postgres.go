package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
)

// PostgresChannel is the LISTEN/NOTIFY channel used by PostgresFeed.
const PostgresChannel = "portfolio_projects_changes"

// PostgresFeed delivers change notifications with LISTEN/NOTIFY. Each
// subscription holds one pooled connection until closed.
type PostgresFeed struct {
	pool    *pgxpool.Pool
	channel string
}

func NewPostgresFeed(pool *pgxpool.Pool) *PostgresFeed {
	return &PostgresFeed{pool: pool, channel: PostgresChannel}
}

func (f *PostgresFeed) Publish(ctx context.Context, ch domain.Change) error {
	payload, err := encode(ch)
	if err != nil {
		return err
	}
	if _, err := f.pool.Exec(ctx, "SELECT pg_notify($1, $2)", f.channel, payload); err != nil {
		return fmt.Errorf("notify change: %w", err)
	}
	return nil
}

func (f *PostgresFeed) Subscribe(ctx context.Context) (Subscription, error) {
	conn, err := f.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listen conn: %w", err)
	}

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", f.channel, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	sub := &pgSubscription{
		conn:    conn,
		cancel:  cancel,
		events:  make(chan domain.Change, 16),
		stopped: make(chan struct{}),
	}
	go sub.run(runCtx)
	return sub, nil
}

type pgSubscription struct {
	conn    *pgxpool.Conn
	cancel  context.CancelFunc
	events  chan domain.Change
	stopped chan struct{}
	once    sync.Once
}

func (s *pgSubscription) run(ctx context.Context) {
	defer close(s.stopped)
	defer close(s.events)
	log := logging.Named("feed.postgres")

	for {
		n, err := s.conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				log.LogError("wait_for_notification", err)
			}
			return
		}
		ch, err := decode(n.Payload)
		if err != nil {
			log.LogWarnf("receive", "dropping malformed change: %v", err)
			continue
		}
		select {
		case s.events <- ch:
		case <-ctx.Done():
			return
		}
	}
}

func (s *pgSubscription) Events() <-chan domain.Change {
	return s.events
}

func (s *pgSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.stopped
		// a cancelled wait closes the connection; the pool discards it on release
		if !s.conn.Conn().IsClosed() {
			_, _ = s.conn.Exec(context.Background(), "UNLISTEN *")
		}
		s.conn.Release()
	})
	return nil
}
