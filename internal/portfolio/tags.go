// Package portfolio holds the presentation rules shared by the HTML pages and
// the JSON API: tag derivation and filtering, the in-memory profile, page
// metadata and one-time example seeding.
package portfolio

import (
	"sort"
	"strings"

	"github.com/Ansen-2255/ansen-portfolio/internal/projects/domain"
)

// SplitTechnologies tokenizes a comma-delimited technology list, dropping empties.
func SplitTechnologies(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// DeriveTags returns every technology used by projects exactly once, sorted.
func DeriveTags(projects []domain.Project) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	for _, p := range projects {
		for _, t := range SplitTechnologies(p.Technologies) {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)
	return tags
}

// FilterByTag keeps projects whose technology text contains tag, ignoring
// case. An empty tag keeps everything.
func FilterByTag(projects []domain.Project, tag string) []domain.Project {
	if tag == "" {
		return projects
	}
	needle := strings.ToLower(tag)
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if strings.Contains(strings.ToLower(p.Technologies), needle) {
			out = append(out, p)
		}
	}
	return out
}

// ToggleTag returns the tag filter after selecting selected while active is
// in effect. Selecting the active tag clears the filter.
func ToggleTag(active, selected string) string {
	if selected == active {
		return ""
	}
	return selected
}
