package bootstrap

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpapi "github.com/Ansen-2255/ansen-portfolio/internal/api/http"
	"github.com/Ansen-2255/ansen-portfolio/internal/api/http/middleware"
	"github.com/Ansen-2255/ansen-portfolio/internal/api/http/routes"
	drafthttp "github.com/Ansen-2255/ansen-portfolio/internal/drafting/http"
	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
	"github.com/Ansen-2255/ansen-portfolio/internal/portfolio"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"
	"github.com/Ansen-2255/ansen-portfolio/internal/ui"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	DB          *sql.DB
	FeedPing    httpapi.Pinger

	Identity    identity.CookieOptions
	OwnerID     string
	CORSOrigins []string

	Views    *service.Registry
	Seeder   *portfolio.Seeder
	Profiles *portfolio.ProfileStore
	Drafts   *drafthttp.Handler
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(routes.CORS(dep.CORSOrigins))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.FeedPing)
	healthHandler.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	site := r.Group("")
	site.Use(identity.Middleware(identity.NewResolver(), identity.NewOwnerGate(dep.OwnerID), dep.Identity))

	// nil pointers must not become non-nil interfaces
	var seeder ui.Seeder
	if dep.Seeder != nil {
		seeder = dep.Seeder
	}

	var drafts ui.Drafter
	if dep.Drafts.Enabled() {
		drafts = dep.Drafts
	}

	ui.NewHandler(dep.Views, dep.Profiles, seeder, drafts, dep.Identity.Secure).Register(site)

	routes.RegisterV1(site, routes.V1Deps{
		Views:    dep.Views,
		Seeder:   seeder,
		Profiles: dep.Profiles,
		Drafts:   dep.Drafts,
	})

	return r
}
