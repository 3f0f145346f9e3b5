package http

import (
	"time"

	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"
)

// Seeder is notified of every synced list the owner sees.
type Seeder interface {
	Observe(ownerID string, projects []domain.Project) bool
}

// Handler bundles the dependencies for projects HTTP endpoints.
type Handler struct {
	views  *service.Registry
	seeder Seeder

	pollInterval time.Duration
	keepAlive    time.Duration
}

// New creates the projects handler. seeder may be nil.
func New(views *service.Registry, seeder Seeder) *Handler {
	return &Handler{
		views:        views,
		seeder:       seeder,
		pollInterval: time.Second,
		keepAlive:    15 * time.Second,
	}
}

type listResp struct {
	OK       bool             `json:"ok"`
	State    service.State    `json:"state"`
	Projects []domain.Project `json:"projects"`
	Tags     []string         `json:"tags"`
	Tag      string           `json:"tag,omitempty"`
	Error    string           `json:"error,omitempty"`
	Version  uint64           `json:"version"`
	// Pending is set while an accepted create has not been submitted yet.
	Pending bool `json:"create_pending"`
}
