package recovery

import (
	"encoding/json"
	"errors"
	"testing"
)

const validJSON = `{
	"title": "Going Faster with Go",
	"summary": "A tour of profiling tools.",
	"bodyMarkdown": "# Going Faster\n\nSome body text.",
	"coverImageUrl": "https://example.com/cover.png",
	"estimatedReadMinutes": 7,
	"tags": ["go", "performance"],
	"suggestedSlug": "going-faster-with-go"
}`

func TestRecoverDirectParse(t *testing.T) {
	draft, err := RecoverDraft(validJSON)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if draft.Title != "Going Faster with Go" {
		t.Errorf("unexpected title: %q", draft.Title)
	}
	if draft.EstimatedReadMinutes != 7 {
		t.Errorf("unexpected minutes: %d", draft.EstimatedReadMinutes)
	}
	if len(draft.Tags) != 2 {
		t.Errorf("unexpected tags: %v", draft.Tags)
	}
	if draft.SuggestedSlug != "going-faster-with-go" {
		t.Errorf("unexpected slug: %q", draft.SuggestedSlug)
	}
}

func TestRecoverCodeFences(t *testing.T) {
	text := "```json\n" + validJSON + "\n```"
	draft, err := RecoverDraft(text)
	if err != nil {
		t.Fatalf("expected success for fenced JSON, got %v", err)
	}
	if draft.Title != "Going Faster with Go" {
		t.Errorf("unexpected title: %q", draft.Title)
	}
}

func TestRecoverJSONWrappedInProse(t *testing.T) {
	text := "Sure! Here is the post you asked for:\n\n" + validJSON + "\n\nLet me know if you need edits."
	draft, err := RecoverDraft(text)
	if err != nil {
		t.Fatalf("expected success for prose-wrapped JSON, got %v", err)
	}
	if draft.Summary != "A tour of profiling tools." {
		t.Errorf("unexpected summary: %q", draft.Summary)
	}
}

func TestRecoverBalancedSpanIgnoresTrailingBraces(t *testing.T) {
	// A stray closing brace after the object defeats last-} trimming but not
	// the balanced-span scanner.
	text := "prefix " + validJSON + " }"
	draft, err := RecoverDraft(text)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if draft.Title != "Going Faster with Go" {
		t.Errorf("unexpected title: %q", draft.Title)
	}
}

func TestRecoverStripsComments(t *testing.T) {
	text := `{
	// the title of the post
	"title": "Commented",
	"summary": "s", /* block comment */
	"bodyMarkdown": "body",
	"coverImageUrl": "https://example.com/c.png",
	"estimatedReadMinutes": 3,
	"tags": ["go"]
}`
	draft, err := RecoverDraft(text)
	if err != nil {
		t.Fatalf("expected success for commented JSON, got %v", err)
	}
	if draft.Title != "Commented" {
		t.Errorf("unexpected title: %q", draft.Title)
	}
}

func TestRecoverFieldReconstruction(t *testing.T) {
	// Unbalanced brace and trailing garbage make every parse strategy fail;
	// only per-field reconstruction can save this.
	text := `The model wrote: "title": "Rebuilt", then "summary": "from pieces",
"bodyMarkdown": "body text", "coverImageUrl": "https://example.com/x.png",
"estimatedReadMinutes": 4, "tags": ["a", "b"] and some trailing junk {{{`
	draft, err := RecoverDraft(text)
	if err != nil {
		t.Fatalf("expected reconstruction to succeed, got %v", err)
	}
	if draft.Title != "Rebuilt" {
		t.Errorf("unexpected title: %q", draft.Title)
	}
	if len(draft.Tags) != 2 || draft.Tags[0] != "a" || draft.Tags[1] != "b" {
		t.Errorf("unexpected tags: %v", draft.Tags)
	}
}

func TestRecoverReconstructionRequiresEveryField(t *testing.T) {
	// Missing estimatedReadMinutes: reconstruction must fail outright rather
	// than return a partial draft.
	text := `"title": "T", "summary": "s", "bodyMarkdown": "b",
"coverImageUrl": "https://example.com/x.png", "tags": ["a"] {{{`
	_, err := RecoverDraft(text)
	if err == nil {
		t.Fatal("expected failure when a required field is missing")
	}
	var me *MalformedResponseError
	if !errors.As(err, &me) {
		t.Errorf("expected MalformedResponseError, got %v", err)
	}
}

func TestRecoverGarbageFailsFatally(t *testing.T) {
	_, err := RecoverDraft("complete nonsense with no fields at all")
	if err == nil {
		t.Fatal("expected failure for garbage input")
	}
	var me *MalformedResponseError
	if !errors.As(err, &me) {
		t.Errorf("expected MalformedResponseError, got %v", err)
	}
	if me.Stage != "parse" {
		t.Errorf("expected parse stage, got %q", me.Stage)
	}
}

func TestRecoverFullChain(t *testing.T) {
	// End to end: fenced JSON inside a flat content field.
	fenced, _ := json.Marshal("```json\n" + validJSON + "\n```")
	raw := json.RawMessage(`{"content":` + string(fenced) + `}`)
	draft, err := Recover(raw)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if draft.Title != "Going Faster with Go" {
		t.Errorf("unexpected title: %q", draft.Title)
	}
}

func TestRecoverEscapedStrings(t *testing.T) {
	text := `{"title": "Quotes \"inside\"", "summary": "s", "bodyMarkdown": "line1\nline2",
"coverImageUrl": "https://example.com/c.png", "estimatedReadMinutes": 2, "tags": ["x"]}`
	draft, err := RecoverDraft(text)
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if draft.Title != `Quotes "inside"` {
		t.Errorf("unexpected title: %q", draft.Title)
	}
}
