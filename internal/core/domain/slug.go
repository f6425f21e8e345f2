package domain

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9-]+`)
	slugDashRuns     = regexp.MustCompile(`-+`)
)

// Slugify converts a workload name into a URL-safe slug.
// Lowercases, replaces non-alphanumeric runs with single hyphens,
// and trims leading/trailing hyphens.
//
// Example:
//
//	Slugify("Chat Backend v2") // returns "chat-backend-v2"
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalidChars.ReplaceAllString(s, "-")
	s = slugDashRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
