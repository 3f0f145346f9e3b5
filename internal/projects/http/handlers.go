package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
	"github.com/Ansen-2255/ansen-portfolio/internal/portfolio"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrMissingFields):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) list(c *gin.Context) {
	id := identity.From(c)
	view, release := h.views.Acquire(c.Request.Context(), id.Token)
	defer release()

	snap := view.Snapshot()
	h.observe(c, snap)

	all := snap.Projects
	tag := strings.TrimSpace(c.Query("tag"))
	resp := listResp{
		OK:       snap.State != service.StateError,
		State:    snap.State,
		Projects: portfolio.FilterByTag(all, tag),
		Tags:     portfolio.DeriveTags(all),
		Tag:      tag,
		Error:    snap.Err,
		Version:  snap.Version,
		Pending:  snap.CreatePending,
	}
	status := http.StatusOK
	if !h.views.Service().Ready() {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

// observe lets the seeder see the owner's synced list.
func (h *Handler) observe(c *gin.Context, snap service.Snapshot) {
	if h.seeder == nil || !identity.IsOwner(c) || snap.State != service.StateSynced {
		return
	}
	h.seeder.Observe(identity.From(c).Token, snap.Projects)
}

func (h *Handler) create(c *gin.Context) {
	var f domain.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	view, release := h.views.Acquire(c.Request.Context(), identity.From(c).Token)
	defer release()

	if err := view.Create(f); err != nil {
		c.JSON(statusFor(err), gin.H{"ok": false, "error": err.Error()})
		return
	}
	// the insert is debounced; the stream or the next list shows the result
	c.JSON(http.StatusAccepted, gin.H{"ok": true, "status": "pending"})
}

func (h *Handler) update(c *gin.Context) {
	projectID := strings.TrimSpace(c.Param("id"))

	var f domain.Fields
	if err := c.ShouldBindJSON(&f); err != nil || projectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	view, release := h.views.Acquire(c.Request.Context(), identity.From(c).Token)
	defer release()

	if err := view.Update(c.Request.Context(), projectID, f); err != nil {
		c.JSON(statusFor(err), gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) delete(c *gin.Context) {
	projectID := strings.TrimSpace(c.Param("id"))

	view, release := h.views.Acquire(c.Request.Context(), identity.From(c).Token)
	defer release()

	if err := view.Delete(c.Request.Context(), projectID); err != nil {
		c.JSON(statusFor(err), gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

