// internal/pipeline/pipeline.go

// Package pipeline orchestrates one content generation end to end: resolve
// the agent, invoke it, recover a draft from the reply, validate, assign a
// unique slug, and persist.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"golang.org/x/sync/semaphore"

	"github.com/user/inkwell/internal/agent"
	"github.com/user/inkwell/internal/recovery"
	"github.com/user/inkwell/internal/types"
)

// Config holds pipeline policy.
type Config struct {
	// AgentID names the agent in the directory used for generation.
	AgentID types.AgentID
	// Topics are the default themes a scheduled firing picks from when no
	// caller supplies one.
	Topics []string
	// MaxConcurrent caps simultaneous generations. Zero means 2.
	MaxConcurrent int64
	// MaxPromptTokens rejects oversized prompts before invocation. Zero
	// disables the check.
	MaxPromptTokens int
}

// Pipeline is the single-shot generation path.
type Pipeline struct {
	directory types.AgentDirectory
	client    *agent.Client
	store     types.ContentStore
	estimator *Estimator
	cfg       Config
	sem       *semaphore.Weighted
}

// New creates a Pipeline. estimator may be nil to skip token accounting.
func New(dir types.AgentDirectory, client *agent.Client, store types.ContentStore, estimator *Estimator, cfg Config) *Pipeline {
	concurrency := cfg.MaxConcurrent
	if concurrency <= 0 {
		concurrency = 2
	}
	return &Pipeline{
		directory: dir,
		client:    client,
		store:     store,
		estimator: estimator,
		cfg:       cfg,
		sem:       semaphore.NewWeighted(concurrency),
	}
}

// DefaultTopic picks a theme for caller-less (scheduled) generations.
func (p *Pipeline) DefaultTopic() string {
	if len(p.cfg.Topics) == 0 {
		return "a subject of current interest to the blog's readers"
	}
	return p.cfg.Topics[rand.Intn(len(p.cfg.Topics))]
}

// Generate runs one full generation for the topic and returns the persisted
// post. An empty topic selects a default theme. Errors are surfaced, never
// suppressed; use Classify to report them.
func (p *Pipeline) Generate(ctx context.Context, topic string) (*types.Post, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("acquire generation slot: %w", err)
	}
	defer p.sem.Release(1)

	if topic == "" {
		topic = p.DefaultTopic()
	}

	cfg, err := p.directory.Lookup(p.cfg.AgentID)
	if err != nil {
		return nil, fmt.Errorf("resolve agent config: %w", err)
	}
	if !cfg.Active {
		return nil, fmt.Errorf("agent %s is inactive", cfg.ID)
	}

	prompt := composeInstruction(topic)
	req := types.NewInvocationRequest(types.NewSessionID(), prompt)

	if p.estimator != nil {
		tokens := p.estimator.Count(prompt)
		if p.cfg.MaxPromptTokens > 0 && tokens > p.cfg.MaxPromptTokens {
			return nil, fmt.Errorf("prompt exceeds token budget: %d > %d", tokens, p.cfg.MaxPromptTokens)
		}
		slog.Debug("composed generation prompt",
			"call_id", string(req.CallID),
			"topic", topic,
			"prompt_tokens", tokens,
		)
	}

	envelope, err := p.client.Call(ctx, req, cfg)
	if err != nil {
		return nil, fmt.Errorf("agent invocation: %w", err)
	}

	draft, err := recovery.Recover(envelope)
	if err != nil {
		return nil, err
	}

	draft.Tags = dedupeTags(draft.Tags)
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	draft.BodyMarkdown = normalizeBody(draft.BodyMarkdown)

	slug, err := p.uniqueSlug(ctx, draft)
	if err != nil {
		return nil, err
	}

	post, err := p.store.Create(ctx, slug, draft)
	if err != nil {
		return nil, fmt.Errorf("persist post: %w", err)
	}

	slog.Info("content generated",
		"call_id", string(req.CallID),
		"task_id", string(req.TaskID),
		"slug", post.Slug,
		"title", post.Title,
	)
	return post, nil
}

// uniqueSlug derives the slug (suggested slug first, then title) and probes
// the store for collisions, appending -1, -2, ... until free. The store is
// non-transactional, so the probe loop is the uniqueness mechanism, not the
// store's own constraints. Each suffix is strictly new, so the loop
// terminates.
func (p *Pipeline) uniqueSlug(ctx context.Context, draft *types.Draft) (string, error) {
	base := Slugify(draft.SuggestedSlug)
	if base == "" {
		base = Slugify(draft.Title)
	}
	if base == "" {
		base = "untitled"
	}

	candidate := base
	for n := 1; ; n++ {
		existing, err := p.store.FindBySlug(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("probe slug %q: %w", candidate, err)
		}
		if existing == nil {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}
