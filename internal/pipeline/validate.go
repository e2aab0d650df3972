// internal/pipeline/validate.go
package pipeline

import (
	"fmt"
	"net/url"
	"regexp"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/user/inkwell/internal/types"
)

// validateDraft checks a recovered draft against the content schema. All
// issues are collected so the resulting error names every problem at once.
func validateDraft(d *types.Draft) error {
	var issues []string
	if d.Title == "" {
		issues = append(issues, "title is missing")
	}
	if d.Summary == "" {
		issues = append(issues, "summary is missing")
	}
	if d.BodyMarkdown == "" {
		issues = append(issues, "bodyMarkdown is missing")
	}
	if d.CoverImageURL == "" {
		issues = append(issues, "coverImageUrl is missing")
	} else if u, err := url.Parse(d.CoverImageURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		issues = append(issues, fmt.Sprintf("coverImageUrl is not a valid http(s) URL: %q", d.CoverImageURL))
	}
	if d.EstimatedReadMinutes < 1 {
		issues = append(issues, fmt.Sprintf("estimatedReadMinutes must be >= 1, got %d", d.EstimatedReadMinutes))
	}
	if len(d.Tags) == 0 {
		issues = append(issues, "tags are missing")
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// dedupeTags removes duplicate tags while preserving order. Tags are a set.
func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := tags[:0]
	for _, tag := range tags {
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// htmlTagRe detects bodies the agent wrote as HTML despite being asked for
// markdown.
var htmlTagRe = regexp.MustCompile(`(?i)<(p|h[1-6]|div|ul|ol|li|br|article|section)\b`)

// normalizeBody converts an HTML body to markdown. Non-HTML bodies pass
// through untouched; a failed conversion keeps the original body rather than
// failing the whole pipeline.
func normalizeBody(body string) string {
	if !htmlTagRe.MatchString(body) {
		return body
	}
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return body
	}
	return md
}
