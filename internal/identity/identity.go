// Package identity resolves the per-browser pseudo-identity and decides
// whether the viewer owns the portfolio.
//
// This is a display and capability gate, not authentication: anyone who
// copies the owner token into their cookie becomes the owner.
package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/Ansen-2255/ansen-portfolio/internal/logging"
)

// Identity is the resolved viewer.
type Identity struct {
	Token string `json:"token"`
	// Ready is false until resolution completed.
	Ready bool `json:"ready"`
	// Persisted is false when the token could not be written back to the store.
	Persisted bool `json:"persisted"`
}

// Store is the local persistent key-value slot holding the identity token.
type Store interface {
	Load() (string, error)
	Save(token string) error
}

// Resolver derives an identity from a Store, generating a token on first use.
type Resolver struct {
	newToken func() string
	log      *logging.Logger
}

func NewResolver() *Resolver {
	return &Resolver{
		newToken: func() string { return uuid.NewString() },
		log:      logging.Named("identity"),
	}
}

// Resolve reads the persisted token or generates and persists a fresh one.
// A store that cannot be read or written yields a usable, non-persisted identity.
func (r *Resolver) Resolve(s Store) Identity {
	token, err := s.Load()
	if err != nil {
		r.log.LogWarnf("resolve", "identity store unreadable, generating token: %v", err)
		token = ""
	}
	token = strings.TrimSpace(token)
	if token != "" {
		return Identity{Token: token, Ready: true, Persisted: true}
	}

	token = r.newToken()
	if err := s.Save(token); err != nil {
		r.log.LogWarnf("resolve", "identity store unwritable, continuing with ephemeral token: %v", err)
		return Identity{Token: token, Ready: true, Persisted: false}
	}
	return Identity{Token: token, Ready: true, Persisted: true}
}

// OwnerGate compares identities against the configured owner token.
type OwnerGate struct {
	owner string
}

func NewOwnerGate(ownerToken string) OwnerGate {
	return OwnerGate{owner: ownerToken}
}

// IsOwner is an exact string comparison; an unresolved identity is never the owner.
func (g OwnerGate) IsOwner(id Identity) bool {
	if !id.Ready || id.Token == "" {
		return false
	}
	return id.Token == g.owner
}

// Configured reports whether an owner token was provided at all.
func (g OwnerGate) Configured() bool {
	return g.owner != ""
}
