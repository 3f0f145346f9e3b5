// Package ui serves the server-rendered portfolio page and its manager forms.
package ui

import (
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"maragu.dev/gomponents"

	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
	"github.com/Ansen-2255/ansen-portfolio/internal/portfolio"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"
)

const managerCookie = "manager_mode"

// Drafter produces a description for the add form and the HTTP status that
// goes with a failure.
type Drafter interface {
	Run(c *gin.Context, title, technologies string) (string, int, error)
}

// Seeder is told about every synced list the owner views.
type Seeder interface {
	Observe(ownerID string, projects []domain.Project) bool
}

type Handler struct {
	Views        *service.Registry
	Profiles     *portfolio.ProfileStore
	Seeder       Seeder
	Drafts       Drafter
	SecureCookie bool
}

func NewHandler(views *service.Registry, profiles *portfolio.ProfileStore, seeder Seeder, drafts Drafter, secureCookie bool) *Handler {
	return &Handler{
		Views:        views,
		Profiles:     profiles,
		Seeder:       seeder,
		Drafts:       drafts,
		SecureCookie: secureCookie,
	}
}

//go:embed static
var staticFiles embed.FS

// Register attaches the page routes.
func (h *Handler) Register(r gin.IRouter) {
	assets, _ := fs.Sub(staticFiles, "static")
	r.StaticFS("/static", http.FS(assets))
	r.GET("/", h.index)
	r.POST("/manager/toggle", h.toggleManager)
	r.POST("/projects", h.createProject)
	r.POST("/projects/draft", h.draftDescription)
	r.POST("/projects/:id/update", h.updateProject)
	r.POST("/projects/:id/delete", h.deleteProject)
	r.POST("/profile", h.updateProfile)
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func managerMode(c *gin.Context) bool {
	v, err := c.Cookie(managerCookie)
	return err == nil && v == "on"
}

func (h *Handler) canManage(c *gin.Context) bool {
	return portfolio.CanManage(managerMode(c), identity.IsOwner(c))
}

// page builds the view model for the current request. The flash message,
// if any, is rendered inline above the projects.
func (h *Handler) page(c *gin.Context, flash string, form projectForm) pageData {
	id := identity.From(c)
	view, release := h.Views.Acquire(c.Request.Context(), id.Token)
	defer release()

	snap := view.Snapshot()
	if h.Seeder != nil && identity.IsOwner(c) && snap.State == service.StateSynced {
		h.Seeder.Observe(id.Token, snap.Projects)
	}

	profile := h.Profiles.Get()
	tag := strings.TrimSpace(c.Query("tag"))
	return pageData{
		Meta:         portfolio.PageMeta(profile),
		Profile:      profile,
		State:        snap.State,
		Projects:     portfolio.FilterByTag(snap.Projects, tag),
		Total:        len(snap.Projects),
		Tags:         portfolio.DeriveTags(snap.Projects),
		ActiveTag:    tag,
		IsOwner:      identity.IsOwner(c),
		ManagerMode:  managerMode(c),
		CanManage:    h.canManage(c),
		DraftEnabled: h.Drafts != nil,
		Error:        firstNonEmpty(flash, snap.Err),
		Form:         form,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) index(c *gin.Context) {
	renderHTML(c.Writer, http.StatusOK, indexPage(h.page(c, c.Query("error"), projectForm{})))
}

func (h *Handler) toggleManager(c *gin.Context) {
	if !identity.IsOwner(c) {
		logging.NewLogger(c.Request.Context()).LogWarnf("toggle_manager", "refused for identity %s", identity.From(c).Token)
		renderHTML(c.Writer, http.StatusForbidden, indexPage(h.page(c, accessDenied, projectForm{})))
		return
	}
	next := "on"
	if managerMode(c) {
		next = "off"
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(managerCookie, next, 0, "/", "", h.SecureCookie, true)
	c.Redirect(http.StatusSeeOther, "/")
}

const accessDenied = "Access denied: only the site owner can manage this portfolio."

// guard renders the access-denied page unless the viewer may manage.
func (h *Handler) guard(c *gin.Context) bool {
	if h.canManage(c) {
		return true
	}
	renderHTML(c.Writer, http.StatusForbidden, indexPage(h.page(c, accessDenied, projectForm{})))
	return false
}

func backTo(c *gin.Context) string {
	if tag := c.PostForm("tag"); tag != "" {
		return "/?tag=" + url.QueryEscape(tag)
	}
	return "/"
}

func fieldsFromForm(c *gin.Context) domain.Fields {
	return domain.Fields{
		Title:        c.PostForm("title"),
		Description:  c.PostForm("description"),
		Technologies: c.PostForm("technologies"),
		GithubURL:    c.PostForm("github_url"),
		LiveDemoURL:  c.PostForm("live_demo_url"),
	}
}

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

func (h *Handler) createProject(c *gin.Context) {
	if !h.guard(c) {
		return
	}
	f := fieldsFromForm(c)

	view, release := h.Views.Acquire(c.Request.Context(), identity.From(c).Token)
	err := view.Create(f)
	if err == nil {
		// the redirected page must show the new project
		view.FlushCreate()
	}
	release()
	if err != nil {
		renderHTML(c.Writer, statusFor(err), indexPage(h.page(c, err.Error(), projectForm(f))))
		return
	}
	c.Redirect(http.StatusSeeOther, backTo(c))
}

func (h *Handler) draftDescription(c *gin.Context) {
	if !h.guard(c) {
		return
	}
	f := fieldsFromForm(c)
	if h.Drafts == nil {
		renderHTML(c.Writer, http.StatusServiceUnavailable, indexPage(h.page(c, "Description drafting is not configured.", projectForm(f))))
		return
	}

	text, status, err := h.Drafts.Run(c, f.Title, f.Technologies)
	if err != nil {
		renderHTML(c.Writer, status, indexPage(h.page(c, err.Error(), projectForm(f))))
		return
	}
	f.Description = text
	renderHTML(c.Writer, http.StatusOK, indexPage(h.page(c, "", projectForm(f))))
}

func (h *Handler) updateProject(c *gin.Context) {
	if !h.guard(c) {
		return
	}
	view, release := h.Views.Acquire(c.Request.Context(), identity.From(c).Token)
	defer release()

	if err := view.Update(c.Request.Context(), c.Param("id"), fieldsFromForm(c)); err != nil {
		renderHTML(c.Writer, statusFor(err), indexPage(h.page(c, view.Snapshot().Err, projectForm{})))
		return
	}
	c.Redirect(http.StatusSeeOther, backTo(c))
}

func (h *Handler) deleteProject(c *gin.Context) {
	if !h.guard(c) {
		return
	}
	view, release := h.Views.Acquire(c.Request.Context(), identity.From(c).Token)
	defer release()

	if err := view.Delete(c.Request.Context(), c.Param("id")); err != nil {
		renderHTML(c.Writer, statusFor(err), indexPage(h.page(c, view.Snapshot().Err, projectForm{})))
		return
	}
	c.Redirect(http.StatusSeeOther, backTo(c))
}

func (h *Handler) updateProfile(c *gin.Context) {
	if !h.guard(c) {
		return
	}
	if c.PostForm("reset") != "" {
		h.Profiles.Reset()
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	u := portfolio.ProfileUpdate{}
	for key, dst := range map[string]**string{
		"name":       &u.Name,
		"tagline":    &u.Tagline,
		"bio":        &u.Bio,
		"email":      &u.Email,
		"avatar_url": &u.AvatarURL,
	} {
		if v, ok := c.GetPostForm(key); ok {
			*dst = &v
		}
	}
	if raw, ok := c.GetPostForm("socials"); ok {
		socials := ParseSocials(raw)
		u.Socials = &socials
	}
	h.Profiles.Update(u)
	c.Redirect(http.StatusSeeOther, "/")
}

// ParseSocials reads one "Label | URL" pair per line, skipping malformed lines.
func ParseSocials(raw string) []portfolio.SocialLink {
	out := []portfolio.SocialLink{}
	for _, line := range strings.Split(raw, "\n") {
		label, link, ok := strings.Cut(line, "|")
		label, link = strings.TrimSpace(label), strings.TrimSpace(link)
		if !ok || label == "" || link == "" {
			continue
		}
		out = append(out, portfolio.SocialLink{Label: label, URL: link})
	}
	return out
}

func formatSocials(links []portfolio.SocialLink) string {
	lines := make([]string, len(links))
	for i, l := range links {
		lines[i] = l.Label + " | " + l.URL
	}
	return strings.Join(lines, "\n")
}
