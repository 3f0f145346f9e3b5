package service

import (
	"context"
	"strings"
	"time"

	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
	"github.com/Ansen-2255/ansen-portfolio/internal/metrics"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/feed"
)

// Store is the durable copy of the projects table.
type Store interface {
	List(ctx context.Context, ownerID string) ([]domain.Project, error)
	Insert(ctx context.Context, ownerID string, f domain.Fields) (*domain.Project, error)
	Update(ctx context.Context, ownerID, id string, f domain.Fields) (*domain.Project, error)
	Delete(ctx context.Context, ownerID, id string) (bool, error)
}

// ProjectService gates data access on a configured store and a known owner,
// and announces successful writes on the change feed.
type ProjectService struct {
	store Store
	feed  feed.Feed
	now   func() time.Time
}

// NewProjectService creates a new project service. store may be nil when the
// data service is not configured; every operation then returns ErrNotReady.
// feed may be nil when change notifications are disabled.
func NewProjectService(store Store, f feed.Feed) *ProjectService {
	return &ProjectService{store: store, feed: f, now: time.Now}
}

// Ready reports whether the data service handle is set.
func (s *ProjectService) Ready() bool {
	return s != nil && s.store != nil
}

// Feed returns the change feed, or nil.
func (s *ProjectService) Feed() feed.Feed {
	return s.feed
}

func (s *ProjectService) check(ownerID string) error {
	if !s.Ready() || strings.TrimSpace(ownerID) == "" {
		return domain.ErrNotReady
	}
	return nil
}

// List returns all projects for an owner, newest first.
func (s *ProjectService) List(ctx context.Context, ownerID string) ([]domain.Project, error) {
	if err := s.check(ownerID); err != nil {
		return nil, err
	}
	return s.store.List(ctx, ownerID)
}

// Create inserts a project owned by ownerID.
func (s *ProjectService) Create(ctx context.Context, ownerID string, f domain.Fields) (*domain.Project, error) {
	if err := s.check(ownerID); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.Insert(ctx, ownerID, f.Normalize())
	metrics.RecordMutation("create", err)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.OpInsert, p.ID, ownerID)
	return p, nil
}

// Update replaces the mutable fields of a project.
func (s *ProjectService) Update(ctx context.Context, ownerID, id string, f domain.Fields) (*domain.Project, error) {
	if err := s.check(ownerID); err != nil {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}

	p, err := s.store.Update(ctx, ownerID, id, f.Normalize())
	metrics.RecordMutation("update", err)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.OpUpdate, p.ID, ownerID)
	return p, nil
}

// Delete removes a project by id.
func (s *ProjectService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.check(ownerID); err != nil {
		return err
	}

	ok, err := s.store.Delete(ctx, ownerID, id)
	metrics.RecordMutation("delete", err)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	s.publish(ctx, domain.OpDelete, id, ownerID)
	return nil
}

func (s *ProjectService) publish(ctx context.Context, op, id, ownerID string) {
	if s.feed == nil {
		return
	}
	ch := domain.Change{Op: op, ProjectID: id, OwnerID: ownerID, At: s.now().UTC()}
	if err := s.feed.Publish(ctx, ch); err != nil {
		logging.NewLogger(ctx).LogWarnf("publish_change", "change not announced, views converge on next resync: %v", err)
	}
}
