package http

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/Ansen-2255/ansen-portfolio/internal/drafting"
	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
)

// Handler serves description drafts. A nil drafter means drafting is not
// configured and every request is answered with 503.
type Handler struct {
	drafter *drafting.Drafter
	limiter *rate.Limiter

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// New builds a handler allowing perMinute drafts across all viewers.
// perMinute <= 0 disables the limit.
func New(drafter *drafting.Drafter, perMinute int) *Handler {
	lim := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		lim = rate.NewLimiter(rate.Limit(float64(perMinute)/60), perMinute)
	}
	return &Handler{drafter: drafter, limiter: lim, inFlight: make(map[string]struct{})}
}

// Enabled reports whether a drafter is configured.
func (h *Handler) Enabled() bool {
	return h != nil && h.drafter != nil
}

type draftReq struct {
	Title        string `json:"title"`
	Technologies string `json:"technologies"`
}

// Register attaches the drafting route to the given router group. Drafts
// spend the operator's API quota, so only the owner may request them.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/drafts", identity.RequireOwner, h.draft)
}

func (h *Handler) draft(c *gin.Context) {
	var req draftReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	text, status, err := h.Run(c, req.Title, req.Technologies)
	if err != nil {
		c.JSON(status, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "description": text})
}

var (
	ErrNotConfigured = errors.New("description drafting is not configured")
	ErrBusy          = errors.New("a draft is already being generated")
	ErrRateLimited   = errors.New("too many draft requests, try again shortly")
)

// Run drafts a description for the current viewer and maps failures to an
// HTTP status. The HTML pages share it with the JSON endpoint.
func (h *Handler) Run(c *gin.Context, title, technologies string) (string, int, error) {
	if err := drafting.Validate(title, technologies); err != nil {
		return "", http.StatusBadRequest, err
	}
	if h.drafter == nil {
		return "", http.StatusServiceUnavailable, ErrNotConfigured
	}

	key := identity.From(c).Token
	if !h.acquire(key) {
		return "", http.StatusConflict, ErrBusy
	}
	defer h.release(key)

	if !h.limiter.Allow() {
		return "", http.StatusTooManyRequests, ErrRateLimited
	}

	text, err := h.drafter.Draft(c.Request.Context(), title, technologies)
	if err != nil {
		return "", http.StatusBadGateway, drafting.ErrDraftFailed
	}
	return text, http.StatusOK, nil
}

func (h *Handler) acquire(key string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inFlight[key]; busy {
		return false
	}
	h.inFlight[key] = struct{}{}
	return true
}

func (h *Handler) release(key string) {
	h.mu.Lock()
	delete(h.inFlight, key)
	h.mu.Unlock()
}
