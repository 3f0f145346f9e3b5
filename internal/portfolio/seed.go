package portfolio

import (
	"context"
	"sync"
	"time"

	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
)

// ExampleProjects are inserted into an empty showcase once.
func ExampleProjects() []domain.Fields {
	return []domain.Fields{
		{
			Title:        "Portfolio Website",
			Description:  "A server-rendered personal portfolio with a live-updating project showcase and an owner-only management panel.",
			Technologies: "Go, Gin, PostgreSQL, Redis",
			GithubURL:    "https://github.com/Ansen-2255/ansen-portfolio",
		},
		{
			Title:        "Task Queue Dashboard",
			Description:  "Real-time monitoring for background job queues with retry controls and throughput charts.",
			Technologies: "TypeScript, React, Node.js, Redis",
			LiveDemoURL:  "https://queues.ansen.dev",
		},
		{
			Title:        "Weather CLI",
			Description:  "A small command-line client that prints forecasts and severe weather alerts for any city.",
			Technologies: "Go, REST, Cobra",
			GithubURL:    "https://github.com/Ansen-2255/weather-cli",
		},
		{
			Title:        "Recipe Finder",
			Description:  "Search recipes by the ingredients already in your kitchen, with saved favourites and shopping lists.",
			Technologies: "Python, FastAPI, PostgreSQL, Docker",
		},
	}
}

// ProjectWriter is the part of the project service the seeder needs.
type ProjectWriter interface {
	List(ctx context.Context, ownerID string) ([]domain.Project, error)
	Create(ctx context.Context, ownerID string, f domain.Fields) (*domain.Project, error)
}

type seedState int

const (
	seedScheduled seedState = iota + 1
	seedDone
)

// Seeder populates an owner's showcase with ExampleProjects when it is
// observed empty. Each owner is seeded at most once per process, and never
// once any project exists for them.
type Seeder struct {
	writer  ProjectWriter
	delay   time.Duration
	timeout time.Duration
	log     *logging.Logger

	// OnSeeded runs after a successful seed, e.g. to refresh open views.
	OnSeeded func(ownerID string)

	mu     sync.Mutex
	state  map[string]seedState
	timers map[string]*time.Timer
	wg     sync.WaitGroup
	closed bool
}

func NewSeeder(writer ProjectWriter, delay time.Duration) *Seeder {
	return &Seeder{
		writer:  writer,
		delay:   delay,
		timeout: 30 * time.Second,
		log:     logging.Named("portfolio.seed"),
		state:   make(map[string]seedState),
		timers:  make(map[string]*time.Timer),
	}
}

// Observe reports the owner's current list. An empty list schedules the
// seed after the delay; a non-empty one disables seeding for that owner.
// It reports whether a seed was scheduled by this call.
func (s *Seeder) Observe(ownerID string, projects []domain.Project) bool {
	if ownerID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if len(projects) > 0 {
		if s.state[ownerID] != seedScheduled {
			s.state[ownerID] = seedDone
		}
		return false
	}
	if _, ok := s.state[ownerID]; ok {
		return false
	}

	s.state[ownerID] = seedScheduled
	s.wg.Add(1)
	s.timers[ownerID] = time.AfterFunc(s.delay, func() {
		defer s.wg.Done()
		s.run(ownerID)
	})
	return true
}

func (s *Seeder) run(ownerID string) {
	s.mu.Lock()
	delete(s.timers, ownerID)
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	// another writer may have added projects during the delay
	existing, err := s.writer.List(ctx, ownerID)
	if err != nil {
		s.log.LogWarnf("seed", "owner=%s: list failed, will retry on next empty observation: %v", ownerID, err)
		s.forget(ownerID)
		return
	}
	if len(existing) > 0 {
		s.finish(ownerID)
		return
	}

	inserted := 0
	for _, f := range ExampleProjects() {
		if _, err := s.writer.Create(ctx, ownerID, f); err != nil {
			s.log.LogWarnf("seed", "owner=%s: insert %q: %v", ownerID, f.Title, err)
			continue
		}
		inserted++
	}
	if inserted == 0 {
		s.forget(ownerID)
		return
	}
	s.finish(ownerID)
	s.log.LogInfof("seed", "owner=%s: inserted %d example projects", ownerID, inserted)
	if s.OnSeeded != nil {
		s.OnSeeded(ownerID)
	}
}

func (s *Seeder) finish(ownerID string) {
	s.mu.Lock()
	s.state[ownerID] = seedDone
	s.mu.Unlock()
}

func (s *Seeder) forget(ownerID string) {
	s.mu.Lock()
	delete(s.state, ownerID)
	s.mu.Unlock()
}

// Close cancels pending seeds and waits for running ones.
func (s *Seeder) Close() {
	s.mu.Lock()
	s.closed = true
	for id, t := range s.timers {
		if t.Stop() {
			s.wg.Done()
		}
		delete(s.timers, id)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
