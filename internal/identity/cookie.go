package identity

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// CookieOptions controls the cookie used as the browser-local store.
type CookieOptions struct {
	Name   string
	MaxAge int
	Secure bool
}

// CookieStore keeps the identity token in a long-lived cookie on the browser.
type CookieStore struct {
	c    *gin.Context
	opts CookieOptions
}

func NewCookieStore(c *gin.Context, opts CookieOptions) *CookieStore {
	return &CookieStore{c: c, opts: opts}
}

func (s *CookieStore) Load() (string, error) {
	v, err := s.c.Cookie(s.opts.Name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	return v, err
}

func (s *CookieStore) Save(token string) error {
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(s.opts.Name, token, s.opts.MaxAge, "/", "", s.opts.Secure, true)
	return nil
}
