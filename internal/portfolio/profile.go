package portfolio

import (
	"strings"
	"sync"
)

// SocialLink is one entry of the contact section.
type SocialLink struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// Profile is the page owner's public information. It lives in memory only.
type Profile struct {
	Name      string       `json:"name"`
	Tagline   string       `json:"tagline"`
	Bio       string       `json:"bio"`
	Email     string       `json:"email"`
	Socials   []SocialLink `json:"socials"`
	AvatarURL string       `json:"avatar_url"`
}

func (p Profile) clone() Profile {
	out := p
	out.Socials = append([]SocialLink(nil), p.Socials...)
	return out
}

func DefaultProfile() Profile {
	return Profile{
		Name:    "Ansen",
		Tagline: "Software engineer building fast, reliable web systems",
		Bio: "I design and build backend services and the interfaces on top of them. " +
			"I care about simple architecture, clear APIs and software that stays easy to change.",
		Email: "hello@ansen.dev",
		Socials: []SocialLink{
			{Label: "GitHub", URL: "https://github.com/Ansen-2255"},
			{Label: "LinkedIn", URL: "https://www.linkedin.com/in/ansen"},
		},
		AvatarURL: "https://avatars.githubusercontent.com/u/0?v=4",
	}
}

// ProfileUpdate carries the fields of a profile form. Nil fields are left
// unchanged.
type ProfileUpdate struct {
	Name      *string       `json:"name,omitempty"`
	Tagline   *string       `json:"tagline,omitempty"`
	Bio       *string       `json:"bio,omitempty"`
	Email     *string       `json:"email,omitempty"`
	Socials   *[]SocialLink `json:"socials,omitempty"`
	AvatarURL *string       `json:"avatar_url,omitempty"`
}

// ProfileStore holds the current profile for the lifetime of the process.
// Reset restores the hard-coded default.
type ProfileStore struct {
	mu      sync.RWMutex
	profile Profile
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{profile: DefaultProfile()}
}

func (s *ProfileStore) Get() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile.clone()
}

// Update applies u and returns the resulting profile. A blank name keeps the
// current one so the page always has a title.
func (s *ProfileStore) Update(u ProfileUpdate) Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.profile
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		p.Name = strings.TrimSpace(*u.Name)
	}
	if u.Tagline != nil {
		p.Tagline = strings.TrimSpace(*u.Tagline)
	}
	if u.Bio != nil {
		p.Bio = strings.TrimSpace(*u.Bio)
	}
	if u.Email != nil {
		p.Email = strings.TrimSpace(*u.Email)
	}
	if u.Socials != nil {
		p.Socials = append([]SocialLink(nil), (*u.Socials)...)
	}
	if u.AvatarURL != nil {
		p.AvatarURL = strings.TrimSpace(*u.AvatarURL)
	}
	s.profile = p
	return p.clone()
}

func (s *ProfileStore) Reset() {
	s.mu.Lock()
	s.profile = DefaultProfile()
	s.mu.Unlock()
}

// Meta is the document title and the description / Open-Graph tags of the page.
type Meta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OGTitle     string `json:"og_title"`
	OGDesc      string `json:"og_description"`
	OGImage     string `json:"og_image"`
	OGType      string `json:"og_type"`
}

// PageMeta derives the page metadata from the profile.
func PageMeta(p Profile) Meta {
	title := p.Name + " | Portfolio"
	desc := p.Tagline
	if desc == "" {
		desc = "Projects and contact details of " + p.Name + "."
	}
	return Meta{
		Title:       title,
		Description: desc,
		OGTitle:     title,
		OGDesc:      desc,
		OGImage:     p.AvatarURL,
		OGType:      "website",
	}
}

// CanManage reports whether management affordances render: manager mode must
// be on and the viewer must be the owner.
func CanManage(managerMode, isOwner bool) bool {
	return managerMode && isOwner
}
