// internal/pipeline/slug.go
package pipeline

import (
	"strings"
	"unicode"
)

// Slugify derives a URL-safe slug: lowercase alphanumerics with single
// hyphens between words. Returns "" if nothing usable remains.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
