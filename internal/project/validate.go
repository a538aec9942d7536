package project

import (
	"regexp"
	"strings"

	"github.com/Ashisharjun12/devfinder-final/internal/apperr"
	"github.com/Ashisharjun12/devfinder-final/internal/domain"
)

var (
	githubRe   = regexp.MustCompile(`^https?://github\.com/[\w-]+/[\w.-]+/?$`)
	whatsappRe = regexp.MustCompile(`^\+?[1-9]\d{7,14}$`)
	phoneStrip = strings.NewReplacer(" ", "", "-", "")
)

const (
	maxTitle       = 120
	maxDescription = 5000
	maxSkills      = 30
	maxMessage     = 500
)

func cleanTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("title is required")
	}
	if len(s) > maxTitle {
		return "", apperr.Validation("title is too long")
	}
	return s, nil
}

func cleanDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validation("description is required")
	}
	if len(s) > maxDescription {
		return "", apperr.Validation("description is too long")
	}
	return s, nil
}

// cleanSkills trims entries and drops blanks and case-insensitive duplicates.
func cleanSkills(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	if len(out) > maxSkills {
		return nil, apperr.Validation("too many skills")
	}
	return out, nil
}

func cleanGithubURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if !githubRe.MatchString(s) {
		return "", apperr.Validation(s + " is not a valid GitHub repository URL")
	}
	return s, nil
}

func cleanWhatsapp(s string) (string, error) {
	s = phoneStrip.Replace(strings.TrimSpace(s))
	if s == "" {
		return "", nil
	}
	if !whatsappRe.MatchString(s) {
		return "", apperr.Validation("invalid whatsapp number")
	}
	return s, nil
}

// parseStage maps "" to def; anything outside the enum is a validation error.
func parseStage(s string, def domain.Stage) (domain.Stage, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return def, nil
	}
	st := domain.Stage(s)
	if !st.Valid() {
		return "", apperr.Validation("invalid stage: " + s)
	}
	return st, nil
}

func cleanMessage(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.DefaultRequestMessage, nil
	}
	if len(s) > maxMessage {
		return "", apperr.Validation("message is too long")
	}
	return s, nil
}
