package domain

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SearchCriteria filters the project listing. Empty fields do not filter.
type SearchCriteria struct {
	Query   string
	Tech    []string
	OwnerID *primitive.ObjectID
}

// ParseTech splits the comma separated tech parameter, dropping blanks.
func ParseTech(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Match is the in-memory form of the listing filter: case-insensitive substring on
// title/description/github url, and every tag must match some required skill.
func (c SearchCriteria) Match(p *Project) bool {
	if c.OwnerID != nil && p.OwnerID != *c.OwnerID {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(c.Query)); q != "" {
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Description), q) &&
			!strings.Contains(strings.ToLower(p.GithubURL), q) {
			return false
		}
	}
	for _, tag := range c.Tech {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		found := false
		for _, s := range p.RequiredSkills {
			if strings.Contains(strings.ToLower(s), tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
