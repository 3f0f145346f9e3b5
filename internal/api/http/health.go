package http

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	DB        string    `json:"db"`
	Feed      string    `json:"feed"`
}

// Pinger checks a backing connection.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	serviceName string
	version     string
	db          *sql.DB
	feed        Pinger
}

// NewHealthHandler reports on the store and the change feed; either may be
// nil when not configured.
func NewHealthHandler(serviceName, version string, db *sql.DB, feed Pinger) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		db:          db,
		feed:        feed,
	}
}

func probe(ctx context.Context, ping Pinger) string {
	if ping == nil {
		return "disabled"
	}
	pingCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := ping(pingCtx); err != nil {
		return "down"
	}
	return "up"
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	var dbPing Pinger
	if h.db != nil {
		dbPing = h.db.PingContext
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		DB:        probe(c.Request.Context(), dbPing),
		Feed:      probe(c.Request.Context(), h.feed),
	})
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
