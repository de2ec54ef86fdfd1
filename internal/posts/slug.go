package posts

import (
	"strings"
	"unicode"
)

// Slugify turns a title into a URL-friendly slug: lowercase, runs of
// non-alphanumerics collapse to single hyphens, no leading or trailing
// hyphen. An empty result becomes "untitled".
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "untitled"
	}
	return s
}
