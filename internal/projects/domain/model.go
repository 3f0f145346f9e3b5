package domain

import (
	"strings"
	"time"
)

// Project is a single showcase entry owned by one identity.
// ID, OwnerID and CreatedAt are assigned on insert and never change.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Technologies string    `json:"technologies"` // comma-delimited
	GithubURL    string    `json:"github_url,omitempty"`
	LiveDemoURL  string    `json:"live_demo_url,omitempty"`
	OwnerID      string    `json:"owner_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// Fields is the mutable part of a project, as submitted by the manager forms.
type Fields struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Technologies string `json:"technologies"`
	GithubURL    string `json:"github_url"`
	LiveDemoURL  string `json:"live_demo_url"`
}

// Normalize trims surrounding whitespace from every field.
func (f Fields) Normalize() Fields {
	return Fields{
		Title:        strings.TrimSpace(f.Title),
		Description:  strings.TrimSpace(f.Description),
		Technologies: strings.TrimSpace(f.Technologies),
		GithubURL:    strings.TrimSpace(f.GithubURL),
		LiveDemoURL:  strings.TrimSpace(f.LiveDemoURL),
	}
}

// Validate checks the required fields only.
func (f Fields) Validate() error {
	n := f.Normalize()
	if n.Title == "" || n.Description == "" || n.Technologies == "" {
		return ErrMissingFields
	}
	return nil
}

// Fields returns the mutable part of p.
func (p Project) Fields() Fields {
	return Fields{
		Title:        p.Title,
		Description:  p.Description,
		Technologies: p.Technologies,
		GithubURL:    p.GithubURL,
		LiveDemoURL:  p.LiveDemoURL,
	}
}

// Change operations, mirroring the row-level events of the projects table.
const (
	OpInsert = "INSERT"
	OpUpdate = "UPDATE"
	OpDelete = "DELETE"
)

// Change is a notification that some row of the projects table changed.
type Change struct {
	Op        string    `json:"op"`
	ProjectID string    `json:"project_id"`
	OwnerID   string    `json:"owner_id"`
	At        time.Time `json:"at"`
}
