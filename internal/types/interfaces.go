// internal/types/interfaces.go
package types

import (
	"context"
)

// ContentStore is the narrow persistence collaborator the pipeline writes to.
// It is treated as non-transactional: slug uniqueness is enforced by the
// pipeline's probe loop, not by the store.
type ContentStore interface {
	Create(ctx context.Context, slug string, draft *Draft) (*Post, error)
	FindBySlug(ctx context.Context, slug string) (*Post, error)
	List(ctx context.Context, limit int) ([]*Post, error)
}

// AgentDirectory resolves an agent identifier to its endpoint and credential.
// Pure lookup; it carries no retry logic of its own.
type AgentDirectory interface {
	Lookup(id AgentID) (*AgentConfig, error)
}
