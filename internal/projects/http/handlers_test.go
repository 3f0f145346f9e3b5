package http

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ansen-2255/ansen-portfolio/internal/identity"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
	"github.com/Ansen-2255/ansen-portfolio/internal/projects/service"
)

const ownerToken = "abc123"

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
			s.rows[i].Title = f.Title
			s.rows[i].Description = f.Description
			s.rows[i].Technologies = f.Technologies
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

type recordingSeeder struct {
	mu       sync.Mutex
	observed []string
}

func (r *recordingSeeder) Observe(ownerID string, _ []domain.Project) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed = append(r.observed, ownerID)
	return false
}

// withViewer stands in for the identity middleware.
func withViewer(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identity.CtxIdentity, identity.Identity{Token: token, Ready: true, Persisted: true})
		c.Set(identity.CtxIsOwner, token == ownerToken)
		c.Next()
	}
}

func setupRouter(t *testing.T, store service.Store, viewer string, seeder Seeder) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := service.NewRegistry(service.NewProjectService(store, nil), service.Options{CreateDebounce: 5 * time.Millisecond}, 0)
	t.Cleanup(reg.Close)

	h := New(reg, seeder)
	h.pollInterval = 5 * time.Millisecond
	r := gin.New()
	r.Use(withViewer(viewer))
	h.Register(r.Group("/api/v1/projects"))
	return r, h
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func listProjects(t *testing.T, r http.Handler, query string) listResp {
	w := doJSON(r, http.MethodGet, "/api/v1/projects"+query, nil)
	var out listResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

var site = domain.Fields{Title: "Site", Description: "My site", Technologies: "Go, Redis"}

func TestProjects_CreateListUpdateDelete(t *testing.T) {
	r, _ := setupRouter(t, &fakeStore{}, ownerToken, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/projects", site)
	require.Equal(t, http.StatusAccepted, w.Code)

	var created domain.Project
	require.Eventually(t, func() bool {
		got := listProjects(t, r, "")
		if len(got.Projects) != 1 {
			return false
		}
		created = got.Projects[0]
		return true
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Site", created.Title)
	assert.Equal(t, ownerToken, created.OwnerID)
	assert.NotEmpty(t, created.ID)

	upd := site
	upd.Title = "Renamed"
	w = doJSON(r, http.MethodPatch, "/api/v1/projects/"+created.ID, upd)
	require.Equal(t, http.StatusOK, w.Code)

	got := listProjects(t, r, "")
	require.Len(t, got.Projects, 1)
	assert.Equal(t, "Renamed", got.Projects[0].Title)
	assert.Equal(t, created.ID, got.Projects[0].ID)
	assert.Equal(t, []string{"Go", "Redis"}, got.Tags)

	w = doJSON(r, http.MethodDelete, "/api/v1/projects/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	got = listProjects(t, r, "")
	assert.Empty(t, got.Projects)
	assert.Empty(t, got.Tags)
}

func TestProjects_TagFilter(t *testing.T) {
	store := &fakeStore{}
	_, _ = store.Insert(context.Background(), ownerToken, site)
	_, _ = store.Insert(context.Background(), ownerToken, domain.Fields{Title: "UI", Description: "d", Technologies: "React"})
	r, _ := setupRouter(t, store, ownerToken, nil)

	got := listProjects(t, r, "?tag=redis")
	require.Len(t, got.Projects, 1)
	assert.Equal(t, "Site", got.Projects[0].Title)
	assert.Equal(t, []string{"Go", "React", "Redis"}, got.Tags)
}

func TestProjects_ValidationAndNotFound(t *testing.T) {
	r, _ := setupRouter(t, &fakeStore{}, ownerToken, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/projects", domain.Fields{Title: "only title"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrMissingFields.Error())

	w = doJSON(r, http.MethodDelete, "/api/v1/projects/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, http.MethodPatch, "/api/v1/projects/missing", site)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjects_NonOwnerCannotMutate(t *testing.T) {
	r, _ := setupRouter(t, &fakeStore{}, "xyz", nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/projects"},
		{http.MethodPatch, "/api/v1/projects/p1"},
		{http.MethodDelete, "/api/v1/projects/p1"},
	} {
		w := doJSON(r, tc.method, tc.path, site)
		assert.Equal(t, http.StatusForbidden, w.Code, tc.method)
		assert.Contains(t, w.Body.String(), "access denied")
	}

	w := doJSON(r, http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProjects_NotReady(t *testing.T) {
	r, _ := setupRouter(t, nil, ownerToken, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/projects", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), domain.ErrNotReady.Error())

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/projects"},
		{http.MethodPatch, "/api/v1/projects/p1"},
		{http.MethodDelete, "/api/v1/projects/p1"},
	} {
		w := doJSON(r, tc.method, tc.path, site)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, tc.method)
		assert.Contains(t, w.Body.String(), domain.ErrNotReady.Error())
	}
}

func TestProjects_SeederSeesOwnerListOnly(t *testing.T) {
	seeder := &recordingSeeder{}
	r, _ := setupRouter(t, &fakeStore{}, ownerToken, seeder)
	listProjects(t, r, "")

	other, _ := setupRouter(t, &fakeStore{}, "xyz", seeder)
	listProjects(t, other, "")

	seeder.mu.Lock()
	defer seeder.mu.Unlock()
	assert.Equal(t, []string{ownerToken}, seeder.observed)
}

func TestProjects_Stream(t *testing.T) {
	store := &fakeStore{}
	r, _ := setupRouter(t, store, ownerToken, nil)
	server := httptest.NewServer(r)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/api/v1/projects/stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 8)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		for sc.Scan() {
			if line := sc.Text(); strings.HasPrefix(line, "event: ") {
				events <- strings.TrimPrefix(line, "event: ")
			}
		}
		close(events)
	}()

	assert.Equal(t, "initial", <-events)

	// a write from outside this view shows up once the view re-queries
	w := doJSON(r, http.MethodPost, "/api/v1/projects", site)
	require.Equal(t, http.StatusAccepted, w.Code)

	select {
	case ev := <-events:
		assert.Equal(t, "update", ev)
	case <-time.After(2 * time.Second):
		t.Fatal("no update event")
	}
}
