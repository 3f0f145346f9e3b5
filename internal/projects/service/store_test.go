package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/feed"
)

// memStore is an in-memory Store used across the service tests.
type memStore struct {
	mu      sync.Mutex
	rows    []domain.Project
	nextID  int
	clock   time.Time
	listErr   error
	insertErr error
	calls     map[string]int

	// blockList, when set, is called after the result is captured and before it is returned.
	blockList func()
}

func newMemStore() *memStore {
	return &memStore{clock: time.Now(), calls: map[string]int{}}
}

func (m *memStore) List(ctx context.Context, ownerID string) ([]domain.Project, error) {
	m.mu.Lock()
	m.calls["list"]++
	if m.listErr != nil {
		err := m.listErr
		m.mu.Unlock()
		return nil, err
	}
	var out []domain.Project
	for _, p := range m.rows {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	block := m.blockList
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if block != nil {
		block()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *memStore) Insert(_ context.Context, ownerID string, f domain.Fields) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["insert"]++
	if m.insertErr != nil {
		return nil, m.insertErr
	}

	m.nextID++
	m.clock = m.clock.Add(time.Millisecond)
	if now := time.Now(); now.After(m.clock) {
		m.clock = now
	}
	p := domain.Project{
		ID:           fmt.Sprintf("p%d", m.nextID),
		Title:        f.Title,
		Description:  f.Description,
		Technologies: f.Technologies,
		GithubURL:    f.GithubURL,
		LiveDemoURL:  f.LiveDemoURL,
		OwnerID:      ownerID,
		CreatedAt:    m.clock,
	}
	m.rows = append(m.rows, p)
	return &p, nil
}

func (m *memStore) Update(_ context.Context, ownerID, id string, f domain.Fields) (*domain.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["update"]++

	for i, p := range m.rows {
		if p.ID == id && p.OwnerID == ownerID {
			p.Title, p.Description, p.Technologies = f.Title, f.Description, f.Technologies
			p.GithubURL, p.LiveDemoURL = f.GithubURL, f.LiveDemoURL
			m.rows[i] = p
			return &p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memStore) Delete(_ context.Context, ownerID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["delete"]++

	for i, p := range m.rows {
		if p.ID == id && p.OwnerID == ownerID {
			m.rows = append(m.rows[:i], m.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) count(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *memStore) setListErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listErr = err
}

func (m *memStore) setInsertErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertErr = err
}

func setupTestRedis(t *testing.T) *redis.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func setupService(t *testing.T) (*ProjectService, *memStore, *redis.Client) {
	client := setupTestRedis(t)
	store := newMemStore()
	return NewProjectService(store, feed.NewRedisFeed(client)), store, client
}

func validFields(title string) domain.Fields {
	return domain.Fields{Title: title, Description: "A thing I built", Technologies: "Go, PostgreSQL"}
}
