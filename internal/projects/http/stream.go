package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
	"github.com/Ansen-2255/ansen-portfolio/internal/portfolio"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"
)

func streamPayload(snap service.Snapshot) []byte {
	b, _ := json.Marshal(gin.H{
		"state":    snap.State,
		"projects": snap.Projects,
		"tags":     portfolio.DeriveTags(snap.Projects),
		"error":    snap.Err,
		"version":  snap.Version,
	})
	return b
}

// stream pushes the viewer's project list using Server-Sent Events: an
// initial event, then an update whenever the view changes.
func (h *Handler) stream(c *gin.Context) {
	id := identity.From(c)
	if !h.views.Service().Ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": domain.ErrNotReady.Error()})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "streaming unsupported"})
		return
	}

	ctx := c.Request.Context()
	view, release := h.views.Acquire(ctx, id.Token)
	defer release()

	snap := view.Snapshot()
	h.observe(c, snap)
	fmt.Fprintf(c.Writer, "event: initial\ndata: %s\n\n", streamPayload(snap))
	flusher.Flush()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()
	poll := time.NewTicker(h.pollInterval)
	defer poll.Stop()

	last := snap.Version
	for {
		select {
		case <-ctx.Done():
			return

		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case <-poll.C:
			snap := view.Snapshot()
			if snap.Version == last {
				continue
			}
			last = snap.Version
			h.observe(c, snap)
			fmt.Fprintf(c.Writer, "event: update\ndata: %s\n\n", streamPayload(snap))
			flusher.Flush()
		}
	}
}
