package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
)

// Register attaches project routes to the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("", h.list)
	rg.GET("/stream", h.stream)

	manage := rg.Group("", identity.RequireOwner)
	manage.POST("", h.create)
	manage.PATCH("/:id", h.update)
	manage.DELETE("/:id", h.delete)
}
