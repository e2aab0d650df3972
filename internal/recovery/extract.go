// internal/recovery/extract.go

// Package recovery turns the loosely-specified, frequently malformed reply of
// a generative agent into a validated draft. It applies two fallback chains in
// sequence: text extraction over the raw envelope, then JSON recovery over the
// extracted text. Each strategy is a function returning (value, ok); the first
// one that succeeds wins. Failure after both chains is always fatal.
package recovery

import (
	"encoding/json"
	"strings"
)

// minSearchLen is the minimum string length the recursive fallback search
// accepts. Shorter values are too likely to be status strings or labels.
const minSearchLen = 50

// maxSearchDepth caps the recursive object-graph search. The search is a
// documented heuristic, not a contract.
const maxSearchDepth = 10

// extractor attempts to pull a text payload out of a decoded envelope.
type extractor func(v any) (string, bool)

// extractors is the ordered list of known envelope shapes, most specific
// first. The recursive search runs only when every known shape misses.
var extractors = []extractor{
	statusMessageParts, // {"status": {"message": {"parts": [...]}}}
	messageParts,       // {"message": {"parts": [...]}}
	flatKey("content"),
	flatString, // envelope is a bare JSON string
	flatKey("response"),
	flatKey("output"),
	flatKey("text"),
	nestedText, // {"data": {"text": ...}} and friends
}

// ExtractText pulls a text payload from a raw result envelope. The envelope
// shape is not contractually fixed upstream, so known shapes are tried in
// order, then the object graph is searched for any promising string field.
func ExtractText(envelope json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(envelope, &v); err != nil {
		return "", &MalformedResponseError{Stage: "extract", Reason: "envelope is not valid JSON"}
	}

	for _, ex := range extractors {
		if text, ok := ex(v); ok && strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	if text, ok := searchGraph(v, 0); ok {
		return text, nil
	}

	return "", &MalformedResponseError{Stage: "extract", Reason: "no recognizable content in envelope"}
}

func statusMessageParts(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	status, ok := m["status"].(map[string]any)
	if !ok {
		return "", false
	}
	return partsText(status["message"])
}

func messageParts(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	return partsText(m["message"])
}

// partsText joins the text fields of a message's parts array.
func partsText(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	parts, ok := m["parts"].([]any)
	if !ok {
		return "", false
	}
	var b strings.Builder
	for _, p := range parts {
		pm, ok := p.(map[string]any)
		if !ok {
			continue
		}
		if text, ok := pm["text"].(string); ok {
			b.WriteString(text)
		}
	}
	return b.String(), b.Len() > 0
}

// flatKey matches a top-level string field with the given name.
func flatKey(key string) extractor {
	return func(v any) (string, bool) {
		m, ok := v.(map[string]any)
		if !ok {
			return "", false
		}
		s, ok := m[key].(string)
		return s, ok
	}
}

func flatString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

// nestedText matches a one-level-nested text field under common wrapper keys.
func nestedText(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	for _, key := range []string{"data", "result", "payload"} {
		inner, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		for _, textKey := range []string{"text", "content"} {
			if s, ok := inner[textKey].(string); ok {
				return s, true
			}
		}
	}
	return "", false
}

// searchKeys are the field names the recursive fallback considers promising.
var searchKeys = map[string]bool{
	"text":    true,
	"content": true,
	"message": true,
	"data":    true,
	"body":    true,
}

// searchGraph walks the decoded envelope looking for any string field with a
// promising name and enough length to be real content. Best-effort.
func searchGraph(v any, depth int) (string, bool) {
	if depth > maxSearchDepth {
		return "", false
	}
	switch node := v.(type) {
	case map[string]any:
		for key, child := range node {
			if s, ok := child.(string); ok && searchKeys[key] && len(s) > minSearchLen {
				return s, true
			}
		}
		for _, child := range node {
			if s, ok := searchGraph(child, depth+1); ok {
				return s, true
			}
		}
	case []any:
		for _, child := range node {
			if s, ok := searchGraph(child, depth+1); ok {
				return s, true
			}
		}
	}
	return "", false
}
