package dashboard

import (
	"regexp"
	"strings"
)

var (
	slugSpace   = regexp.MustCompile(`\s`)
	slugInvalid = regexp.MustCompile(`[^a-z0-9_-]`)
	slugRepeat  = regexp.MustCompile(`[_-]{2,}`)
)

// Slug turns s into an identifier safe for urls and element ids:
// lowercase ASCII letters, digits, hyphens and underscores, with no leading,
// trailing or repeated separators.
func Slug(s string) string {
	s = strings.ToLower(s)
	s = slugSpace.ReplaceAllString(s, "-")
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugRepeat.ReplaceAllString(s, "-")
	return strings.Trim(s, "-_")
}
