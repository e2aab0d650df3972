// internal/notify/registry.go

// Package notify routes operator notifications (scheduled-run outcomes) to
// the channel matching the target's prefix, e.g. "telegram:<chat-id>".
package notify

import (
	"fmt"
	"strings"
	"sync"
)

// Handler delivers a message to a target.
type Handler func(target, message string) error

// Registry routes messages to the handler registered for the target's prefix.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty notification registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler for targets starting with prefix.
func (r *Registry) Register(prefix string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[prefix] = handler
}

// Notify finds the handler matching the target prefix and calls it. An empty
// target is a no-op: notifications are optional.
func (r *Registry) Notify(target, message string) error {
	if target == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for prefix, handler := range r.handlers {
		if strings.HasPrefix(target, prefix) {
			return handler(target, message)
		}
	}
	return fmt.Errorf("no notification handler for target: %s", target)
}
