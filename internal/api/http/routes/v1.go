package routes

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	httpapi "github.com/Ansen-2255/ansen-portfolio/internal/api/http"
	drafthttp "github.com/Ansen-2255/ansen-portfolio/internal/drafting/http"
	"github.com/Ansen-2255/ansen-portfolio/internal/portfolio"
	projecthttp "github.com/Ansen-2255/ansen-portfolio/internal/projects/http"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"
)

type V1Deps struct {
	Views    *service.Registry
	Seeder   projecthttp.Seeder
	Profiles *portfolio.ProfileStore
	Drafts   *drafthttp.Handler
}

// RegisterV1 mounts the JSON API under /api/v1. The identity middleware must
// already be installed on r.
func RegisterV1(r gin.IRouter, dep V1Deps) {
	api := r.Group("/api/v1")

	httpapi.NewSiteHandler(dep.Profiles).Register(api)
	projecthttp.New(dep.Views, dep.Seeder).Register(api.Group("/projects"))
	if dep.Drafts != nil {
		dep.Drafts.Register(api)
	}
}

// CORS must be installed on the engine: preflight requests match no route,
// so group middleware never sees them.
//
// No origins means same-origin only. "*" opens the read API to any origin
// without cookies; only an explicit list may send the identity cookie.
func CORS(origins []string) gin.HandlerFunc {
	if len(origins) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders: []string{"X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}
