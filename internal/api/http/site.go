package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
	"github.com/Ansen-2255/ansen-portfolio/internal/portfolio"
)

// SiteHandler serves the viewer identity and the in-memory profile.
type SiteHandler struct {
	profiles *portfolio.ProfileStore
}

func NewSiteHandler(profiles *portfolio.ProfileStore) *SiteHandler {
	return &SiteHandler{profiles: profiles}
}

func (h *SiteHandler) identity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"identity": identity.From(c),
		"is_owner": identity.IsOwner(c),
	})
}

func (h *SiteHandler) getProfile(c *gin.Context) {
	p := h.profiles.Get()
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p, "meta": portfolio.PageMeta(p)})
}

func (h *SiteHandler) putProfile(c *gin.Context) {
	if !identity.IsOwner(c) {
		c.JSON(http.StatusForbidden, gin.H{"ok": false, "error": "access denied"})
		return
	}

	var req portfolio.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	p := h.profiles.Update(req)
	c.JSON(http.StatusOK, gin.H{"ok": true, "profile": p, "meta": portfolio.PageMeta(p)})
}

// Register attaches identity and profile routes to the given router group.
func (h *SiteHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/identity", h.identity)
	rg.GET("/profile", h.getProfile)
	rg.PUT("/profile", h.putProfile)
}
