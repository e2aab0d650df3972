// internal/agent/retry.go
package agent

import (
	"math/rand"
	"time"
)

// RetryPolicy controls how failed attempts are retried with exponential
// backoff. MaxRetries counts retries, not attempts: a call makes at most
// MaxRetries+1 attempts.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryPolicy returns the default policy: 3 retries, 1s base delay
// doubling per attempt, capped at 10s.
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
	}
}

// Delay returns the backoff for the given attempt (0-indexed):
// min(MaxDelay, BaseDelay * 2^attempt) plus up to 10% random jitter.
func (p *RetryPolicy) Delay(attempt int) time.Duration {
	base := p.BaseDelay
	for i := 0; i < attempt && base < p.MaxDelay; i++ {
		base *= 2
	}
	if base > p.MaxDelay {
		base = p.MaxDelay
	}
	jitter := time.Duration(rand.Float64() * 0.1 * float64(base))
	return base + jitter
}
