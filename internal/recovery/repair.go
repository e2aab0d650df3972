// internal/recovery/repair.go
package recovery

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/user/inkwell/internal/types"
)

// parser attempts to turn extracted text into a draft.
type parser func(text string) (*types.Draft, bool)

// parsers is the ordered recovery chain: cheapest and most faithful first,
// per-field reconstruction as the last resort. Agents wrap JSON in prose, in
// code fences, or in slightly broken syntax; a single rigid parse would
// reject a large share of otherwise-usable replies.
var parsers = []parser{
	parseDirect,
	parseCleaned,
	parseBalancedSpan,
	parseDeepCleaned,
	reconstructFields,
}

// RecoverDraft runs the extracted text through the recovery chain once.
// There is no internal retrying: the chain is exhausted and the result is
// either a draft or a fatal MalformedResponseError.
func RecoverDraft(text string) (*types.Draft, error) {
	for _, p := range parsers {
		if draft, ok := p(text); ok {
			return draft, nil
		}
	}
	return nil, &MalformedResponseError{Stage: "parse", Reason: "no recovery strategy produced a draft"}
}

// Recover applies text extraction and JSON recovery in sequence.
func Recover(envelope json.RawMessage) (*types.Draft, error) {
	text, err := ExtractText(envelope)
	if err != nil {
		return nil, err
	}
	return RecoverDraft(text)
}

// parseDraft is the shared terminal step of every strategy.
func parseDraft(s string) (*types.Draft, bool) {
	var draft types.Draft
	if err := json.Unmarshal([]byte(s), &draft); err != nil {
		return nil, false
	}
	return &draft, true
}

// parseDirect tries the text as-is.
func parseDirect(text string) (*types.Draft, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	return parseDraft(trimmed)
}

// parseCleaned strips code-fence markers and anything outside the outermost
// braces, then parses.
func parseCleaned(text string) (*types.Draft, bool) {
	cleaned := stripFences(text)
	cleaned, ok := trimToBraces(cleaned)
	if !ok {
		return nil, false
	}
	return parseDraft(cleaned)
}

// parseBalancedSpan extracts the first balanced {...} span and parses it.
// Go's regexp cannot match nested braces, so the span is found with a small
// depth scanner that is aware of string literals.
func parseBalancedSpan(text string) (*types.Draft, bool) {
	span, ok := firstBalancedSpan(text)
	if !ok {
		return nil, false
	}
	return parseDraft(span)
}

var (
	lineCommentRe  = regexp.MustCompile(`(?m)^\s*//[^\n]*$|([,{[]\s*)//[^\n]*`)
	blockCommentRe = regexp.MustCompile(`/\*[\s\S]*?\*/`)
	controlCharRe  = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f]")
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// parseDeepCleaned strips comments, control characters, and excess
// whitespace, then re-trims to the outer braces and parses. Lossy by nature;
// it runs only after the gentler strategies have failed.
func parseDeepCleaned(text string) (*types.Draft, bool) {
	cleaned := stripFences(text)
	cleaned = blockCommentRe.ReplaceAllString(cleaned, " ")
	cleaned = lineCommentRe.ReplaceAllString(cleaned, "$1")
	cleaned = controlCharRe.ReplaceAllString(cleaned, "")
	cleaned = whitespaceRe.ReplaceAllString(cleaned, " ")
	cleaned, ok := trimToBraces(cleaned)
	if !ok {
		return nil, false
	}
	return parseDraft(cleaned)
}

var (
	titleRe   = regexp.MustCompile(`"title"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	summaryRe = regexp.MustCompile(`"summary"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	bodyRe    = regexp.MustCompile(`"bodyMarkdown"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	coverRe   = regexp.MustCompile(`"coverImageUrl"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	slugRe    = regexp.MustCompile(`"suggestedSlug"\s*:\s*"((?:[^"\\]|\\.)*)"`)
	minutesRe = regexp.MustCompile(`"estimatedReadMinutes"\s*:\s*(\d+)`)
	tagsRe    = regexp.MustCompile(`"tags"\s*:\s*\[([^\]]*)\]`)
	tagItemRe = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// reconstructFields regex-extracts each required field independently from the
// raw text and synthesizes a minimal draft. It succeeds only when every
// schema-required field is recoverable; a partially-populated object is never
// returned.
func reconstructFields(text string) (*types.Draft, bool) {
	title, ok := findQuoted(titleRe, text)
	if !ok {
		return nil, false
	}
	summary, ok := findQuoted(summaryRe, text)
	if !ok {
		return nil, false
	}
	body, ok := findQuoted(bodyRe, text)
	if !ok {
		return nil, false
	}
	cover, ok := findQuoted(coverRe, text)
	if !ok {
		return nil, false
	}
	mm := minutesRe.FindStringSubmatch(text)
	if mm == nil {
		return nil, false
	}
	minutes, err := strconv.Atoi(mm[1])
	if err != nil {
		return nil, false
	}
	tm := tagsRe.FindStringSubmatch(text)
	if tm == nil {
		return nil, false
	}
	var tags []string
	for _, item := range tagItemRe.FindAllStringSubmatch(tm[1], -1) {
		if tag, ok := unquote(item[1]); ok {
			tags = append(tags, tag)
		}
	}
	if len(tags) == 0 {
		return nil, false
	}

	draft := &types.Draft{
		Title:                title,
		Summary:              summary,
		BodyMarkdown:         body,
		CoverImageURL:        cover,
		EstimatedReadMinutes: minutes,
		Tags:                 tags,
	}
	if slug, ok := findQuoted(slugRe, text); ok {
		draft.SuggestedSlug = slug
	}
	return draft, true
}

func findQuoted(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return unquote(m[1])
}

// unquote interprets JSON string escapes in a regex-captured field body.
func unquote(s string) (string, bool) {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err != nil {
		return "", false
	}
	return out, true
}

// stripFences removes markdown code-fence markers anywhere in the text.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// trimToBraces cuts the text down to the first '{' and the last '}'.
func trimToBraces(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// firstBalancedSpan finds the first {...} span with balanced braces, ignoring
// braces inside string literals.
func firstBalancedSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start == -1 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
