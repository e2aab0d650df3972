// internal/types/models.go
package types

import (
	"time"
)

// AgentConfig identifies a single generative agent endpoint. Immutable per
// lookup; resolved once at the start of each invocation.
type AgentConfig struct {
	ID         AgentID `json:"id"`
	Endpoint   string  `json:"endpoint"`
	Credential string  `json:"credential"`
	Active     bool    `json:"active"`
}

// InvocationRequest carries one logical call to an agent. CallID and TaskID
// are assigned fresh per invocation and exist only for correlation in logs.
type InvocationRequest struct {
	CallID    CallID
	TaskID    TaskID
	SessionID SessionID
	Prompt    string
}

// NewInvocationRequest creates a request with freshly assigned correlation IDs.
func NewInvocationRequest(sessionID SessionID, prompt string) *InvocationRequest {
	return &InvocationRequest{
		CallID:    NewCallID(),
		TaskID:    NewTaskID(),
		SessionID: sessionID,
		Prompt:    prompt,
	}
}

// Draft is a structured content object recovered from an agent reply. It must
// pass schema validation before it is handed to the content store.
type Draft struct {
	Title                string   `json:"title"`
	Summary              string   `json:"summary"`
	BodyMarkdown         string   `json:"bodyMarkdown"`
	CoverImageURL        string   `json:"coverImageUrl"`
	EstimatedReadMinutes int      `json:"estimatedReadMinutes"`
	Tags                 []string `json:"tags"`
	SuggestedSlug        string   `json:"suggestedSlug,omitempty"`
}

// Post is a persisted Draft. The store assigns the ID and timestamp; the
// pipeline assigns the slug after its collision probe.
type Post struct {
	ID                   PostID    `json:"id"`
	Slug                 string    `json:"slug"`
	Title                string    `json:"title"`
	Summary              string    `json:"summary"`
	BodyMarkdown         string    `json:"body_markdown"`
	CoverImageURL        string    `json:"cover_image_url"`
	EstimatedReadMinutes int       `json:"estimated_read_minutes"`
	Tags                 []string  `json:"tags"`
	CreatedAt            time.Time `json:"created_at"`
}
