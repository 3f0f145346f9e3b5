package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
	"github.com/Ansen-2255/ansen-portfolio/internal/portfolio"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"
)

const (
	ownerToken = "abc123"
	cookieName = "portfolio_id"
)

type fakeStore struct {
	mu   sync.Mutex
	rows []domain.Project
	seq  int
}

func (s *fakeStore) List(_ context.Context, ownerID string) ([]domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Project{}
	for i := len(s.rows) - 1; i >= 0; i-- {
		if s.rows[i].OwnerID == ownerID {
			out = append(out, s.rows[i])
		}
	}
	return out, nil
}

func (s *fakeStore) Insert(_ context.Context, ownerID string, f domain.Fields) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p := domain.Project{
		ID: fmt.Sprintf("p%d", s.seq), Title: f.Title, Description: f.Description,
		Technologies: f.Technologies, OwnerID: ownerID, CreatedAt: time.Now(),
	}
	s.rows = append(s.rows, p)
	return &p, nil
}

func (s *fakeStore) Update(_ context.Context, ownerID, id string, f domain.Fields) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.rows {
		if p.ID == id && p.OwnerID == ownerID {
			s.rows[i].Title, s.rows[i].Description, s.rows[i].Technologies = f.Title, f.Description, f.Technologies
			out := s.rows[i]
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *fakeStore) Delete(_ context.Context, ownerID, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.rows {
		if p.ID == id && p.OwnerID == ownerID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

type stubDrafter struct {
	text   string
	status int
	err    error
}

func (d stubDrafter) Run(*gin.Context, string, string) (string, int, error) {
	return d.text, d.status, d.err
}

type testApp struct {
	router   *gin.Engine
	store    *fakeStore
	profiles *portfolio.ProfileStore
}

func setupApp(t *testing.T, store service.Store, drafts Drafter) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	// views stay cached between requests, as they do in production
	reg := service.NewRegistry(service.NewProjectService(store, nil), service.Options{CreateDebounce: 300 * time.Millisecond}, 2*time.Minute)
	t.Cleanup(reg.Close)
	profiles := portfolio.NewProfileStore()

	r := gin.New()
	r.Use(identity.Middleware(identity.NewResolver(), identity.NewOwnerGate(ownerToken), identity.CookieOptions{Name: cookieName, MaxAge: 3600}))
	NewHandler(reg, profiles, nil, drafts, false).Register(r)

	app := &testApp{router: r, profiles: profiles}
	if fs, ok := store.(*fakeStore); ok {
		app.store = fs
	}
	return app
}

func (a *testApp) do(method, path, token string, manager bool, form url.Values) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	if manager {
		req.AddCookie(&http.Cookie{Name: managerCookie, Value: "on"})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func formValues(title, tech string) url.Values {
	return url.Values{"title": {title}, "description": {"About " + title}, "technologies": {tech}}
}

func TestIndex_RendersSectionsAndMeta(t *testing.T) {
	app := setupApp(t, &fakeStore{}, nil)

	w := app.do(http.MethodGet, "/", "", false, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	def := portfolio.DefaultProfile()
	assert.Contains(t, body, "<title>"+def.Name+" | Portfolio</title>")
	assert.Contains(t, body, `property="og:title"`)
	for _, id := range []string{`id="hero"`, `id="about"`, `id="projects"`, `id="contact"`} {
		assert.Contains(t, body, id)
	}
	assert.NotContains(t, body, "Add project")

	var idCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			idCookie = c
		}
	}
	require.NotNil(t, idCookie, "identity is generated and persisted on first visit")
	assert.NotEmpty(t, idCookie.Value)
}

func TestToggleManager_Owner(t *testing.T) {
	app := setupApp(t, &fakeStore{}, nil)

	w := app.do(http.MethodPost, "/manager/toggle", ownerToken, false, url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)

	var mode string
	for _, c := range w.Result().Cookies() {
		if c.Name == managerCookie {
			mode = c.Value
		}
	}
	assert.Equal(t, "on", mode)

	w = app.do(http.MethodGet, "/", ownerToken, true, nil)
	body := w.Body.String()
	assert.Contains(t, body, "Add project")
	assert.Contains(t, body, "Edit profile")
	assert.Contains(t, body, "Exit manager mode")
}

func TestToggleManager_NonOwnerIsDenied(t *testing.T) {
	app := setupApp(t, &fakeStore{}, nil)

	w := app.do(http.MethodPost, "/manager/toggle", "xyz", false, url.Values{})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Access denied")
	for _, c := range w.Result().Cookies() {
		assert.NotEqual(t, managerCookie, c.Name)
	}

	// a forged manager cookie does not unlock the panel
	w = app.do(http.MethodGet, "/", "xyz", true, nil)
	assert.NotContains(t, w.Body.String(), "Add project")
}

func TestManageRequiresManagerMode(t *testing.T) {
	app := setupApp(t, &fakeStore{}, nil)

	w := app.do(http.MethodPost, "/projects", ownerToken, false, formValues("Site", "Go"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPost, "/projects", "xyz", true, formValues("Site", "Go"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, app.store.rows)
}

func TestCreateUpdateDelete_ThroughForms(t *testing.T) {
	app := setupApp(t, &fakeStore{}, nil)

	// warm the cached view before writing
	require.Equal(t, http.StatusOK, app.do(http.MethodGet, "/", ownerToken, false, nil).Code)

	w := app.do(http.MethodPost, "/projects", ownerToken, true, formValues("Site", "Go, Redis"))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, app.do(http.MethodGet, "/", ownerToken, false, nil).Body.String(), "About Site")

	id := app.store.rows[0].ID
	w = app.do(http.MethodPost, "/projects/"+id+"/update", ownerToken, true, formValues("Renamed", "Go"))
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, app.do(http.MethodGet, "/", ownerToken, false, nil).Body.String(), "Renamed")

	w = app.do(http.MethodPost, "/projects/"+id+"/delete", ownerToken, true, url.Values{})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, app.do(http.MethodGet, "/", ownerToken, false, nil).Body.String(), "No projects yet.")
}

func TestRedirectedPageShowsEveryUpdate(t *testing.T) {
	store := &fakeStore{}
	created, err := store.Insert(context.Background(), ownerToken, domain.Fields{Title: "v0", Description: "d", Technologies: "Go"})
	require.NoError(t, err)
	app := setupApp(t, store, nil)
	require.Contains(t, app.do(http.MethodGet, "/", ownerToken, false, nil).Body.String(), "<h3>v0</h3>")

	for i := 1; i <= 20; i++ {
		title := fmt.Sprintf("v%d", i)
		w := app.do(http.MethodPost, "/projects/"+created.ID+"/update", ownerToken, true, formValues(title, "Go"))
		require.Equal(t, http.StatusSeeOther, w.Code)

		body := app.do(http.MethodGet, w.Header().Get("Location"), ownerToken, false, nil).Body.String()
		require.Contains(t, body, "<h3>"+title+"</h3>", "update %d", i)
	}
}

func TestCreate_MissingFieldsRendersInline(t *testing.T) {
	app := setupApp(t, &fakeStore{}, nil)

	w := app.do(http.MethodPost, "/projects", ownerToken, true, url.Values{"title": {"Only title"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, domain.ErrMissingFields.Error())
	assert.Contains(t, body, `value="Only title"`, "form keeps what was typed")
}

func TestDeleteMissing_RendersInlineAndKeepsList(t *testing.T) {
	store := &fakeStore{}
	_, _ = store.Insert(context.Background(), ownerToken, domain.Fields{Title: "Kept", Description: "d", Technologies: "Go"})
	app := setupApp(t, store, nil)

	w := app.do(http.MethodPost, "/projects/nope/delete", ownerToken, true, url.Values{})
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "failed to delete project: project not found")
	assert.Contains(t, body, "Kept")
}

func TestTagFilter(t *testing.T) {
	store := &fakeStore{}
	_, _ = store.Insert(context.Background(), ownerToken, domain.Fields{Title: "Backend", Description: "d", Technologies: "Go, PostgreSQL"})
	_, _ = store.Insert(context.Background(), ownerToken, domain.Fields{Title: "Frontend", Description: "d", Technologies: "React"})
	app := setupApp(t, store, nil)

	body := app.do(http.MethodGet, "/?tag=react", ownerToken, false, nil).Body.String()
	assert.Contains(t, body, "Frontend")
	assert.NotContains(t, body, "<h3>Backend</h3>")

	// the active tag links back to the unfiltered list
	body = app.do(http.MethodGet, "/?tag=React", ownerToken, false, nil).Body.String()
	assert.Contains(t, body, `href="/#projects" class="tag active">React</a>`)
}

func TestDraft_FillsDescription(t *testing.T) {
	app := setupApp(t, &fakeStore{}, stubDrafter{text: "A drafted description."})

	w := app.do(http.MethodPost, "/projects/draft", ownerToken, true, url.Values{"title": {"Site"}, "technologies": {"Go"}})
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "A drafted description.")
	assert.Contains(t, body, `value="Site"`)
	assert.NotContains(t, body, `class="error"`)
}

func TestDraft_FailureRendersInline(t *testing.T) {
	app := setupApp(t, &fakeStore{}, stubDrafter{status: http.StatusBadGateway, err: errors.New("failed to generate description")})

	w := app.do(http.MethodPost, "/projects/draft", ownerToken, true, url.Values{"title": {"Site"}, "technologies": {"Go"}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "failed to generate description")
}

func TestProfileUpdate_ChangesMeta(t *testing.T) {
	app := setupApp(t, &fakeStore{}, nil)

	w := app.do(http.MethodPost, "/profile", ownerToken, true, url.Values{
		"name":    {"Jane Doe"},
		"socials": {"GitHub | https://github.com/jane\nbroken line"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	body := app.do(http.MethodGet, "/", "", false, nil).Body.String()
	assert.Contains(t, body, "<title>Jane Doe | Portfolio</title>")
	assert.Equal(t, []portfolio.SocialLink{{Label: "GitHub", URL: "https://github.com/jane"}}, app.profiles.Get().Socials)

	w = app.do(http.MethodPost, "/profile", ownerToken, true, url.Values{"reset": {"1"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, portfolio.DefaultProfile(), app.profiles.Get())
}

func TestDataServiceNotConfigured(t *testing.T) {
	app := setupApp(t, nil, nil)

	body := app.do(http.MethodGet, "/", ownerToken, true, nil).Body.String()
	assert.Contains(t, body, domain.ErrNotReady.Error())

	w := app.do(http.MethodPost, "/projects", ownerToken, true, formValues("Site", "Go"))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrNotReady.Error())
}

func TestParseSocials(t *testing.T) {
	got := ParseSocials("GitHub | https://g\n\n  | nolabel\nLinkedIn|https://l ")
	assert.Equal(t, []portfolio.SocialLink{
		{Label: "GitHub", URL: "https://g"},
		{Label: "LinkedIn", URL: "https://l"},
	}, got)
}
