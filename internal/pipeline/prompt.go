// internal/pipeline/prompt.go
package pipeline

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// instructionTemplate mandates the exact JSON shape the agent must reply
// with. The reply contract is advisory only: the recovery engine still
// assumes the agent may wrap or break it.
const instructionTemplate = `Write a complete blog post about: %s

Reply with a single JSON object and nothing else, using exactly this shape:
{
  "title": "post title",
  "summary": "one-paragraph summary",
  "bodyMarkdown": "full post body in markdown",
  "coverImageUrl": "https://... cover image",
  "estimatedReadMinutes": 5,
  "tags": ["tag1", "tag2"],
  "suggestedSlug": "url-safe-slug"
}

All fields are required except suggestedSlug. Do not wrap the JSON in code
fences or add commentary.`

// Estimator counts prompt tokens so oversized topics are rejected before an
// invocation is paid for.
type Estimator struct {
	tokenizer *tiktoken.Tiktoken
}

// NewEstimator creates a token estimator for the given model name, falling
// back to cl100k_base for unknown models.
func NewEstimator(model string) (*Estimator, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("get tokenizer: %w", err)
		}
	}
	return &Estimator{tokenizer: enc}, nil
}

// Count returns the token count for a string.
func (e *Estimator) Count(text string) int {
	return len(e.tokenizer.Encode(text, nil, nil))
}

// composeInstruction builds the full prompt for a topic.
func composeInstruction(topic string) string {
	return fmt.Sprintf(instructionTemplate, topic)
}
