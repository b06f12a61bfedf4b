package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateResource validates the resource half of a query key.
// Resources are short dotted identifiers such as "github.repo".
func ValidateResource(resource string) error {
	if resource == "" {
		return New(ErrCodeInvalidKey, "query key resource cannot be empty")
	}
	if len(resource) > 128 {
		return New(ErrCodeInvalidKey, "query key resource too long (max 128 characters)")
	}
	for _, r := range resource {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidKey, "query key resource contains invalid characters: %q", resource)
		}
	}
	return nil
}

// githubNameRegex matches GitHub owner and repository names.
var githubNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ParseRepoSlug splits an "owner/name" slug and validates both halves.
//
// The validation rules are intentionally conservative:
//   - Exactly one slash
//   - No empty owner or name
//   - No path traversal sequences (..)
//   - Maximum length of 100 characters per half
func ParseRepoSlug(slug string) (owner, repo string, err error) {
	slug = strings.TrimSpace(slug)
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || strings.Contains(repo, "/") {
		return "", "", New(ErrCodeInvalidRepo, "repository must be in owner/name form: %q", slug)
	}
	for _, part := range []string{owner, repo} {
		if part == "" {
			return "", "", New(ErrCodeInvalidRepo, "repository owner and name cannot be empty: %q", slug)
		}
		if len(part) > 100 {
			return "", "", New(ErrCodeInvalidRepo, "repository part too long (max 100 characters)")
		}
		if strings.Contains(part, "..") || !githubNameRegex.MatchString(part) {
			return "", "", New(ErrCodeInvalidRepo, "invalid repository part: %q", part)
		}
	}
	return owner, repo, nil
}

// ValidateCategory validates a catalog category name.
// Categories appear in URL paths, so separators and control characters are rejected.
func ValidateCategory(category string) error {
	if strings.TrimSpace(category) == "" {
		return New(ErrCodeInvalidCategory, "category cannot be empty")
	}
	if len(category) > 64 {
		return New(ErrCodeInvalidCategory, "category too long (max 64 characters)")
	}
	for _, r := range category {
		if r == '/' || r == '\\' || r == '?' || r == '#' || unicode.IsControl(r) {
			return New(ErrCodeInvalidCategory, "category contains invalid characters: %q", category)
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
