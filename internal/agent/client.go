// internal/agent/client.go
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/user/inkwell/internal/types"
)

const defaultAttemptTimeout = 60 * time.Second

// Client issues logical calls to agent endpoints, applying a hard per-attempt
// timeout, retry with backoff, and error classification. It never touches
// storage; its only side effect is a trace log per attempt.
type Client struct {
	httpClient *http.Client
	retry      *RetryPolicy
	timeout    time.Duration
}

// Option configures optional behavior on a Client.
type Option func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(p *RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

// WithAttemptTimeout overrides the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New creates a Client with default retry policy and per-attempt timeout.
// The underlying http.Client carries no timeout of its own: single-shot
// attempts are bounded per attempt via context, and streaming connections
// are long-lived by design.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		retry:      DefaultRetryPolicy(),
		timeout:    defaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call sends a single-shot message/send request and returns the raw result
// envelope. Transport failures and the retryable subset of upstream errors
// are retried with backoff up to the policy limit; on exhaustion the last
// observed failure is returned. Any returned error is fatal to the caller.
func (c *Client) Call(ctx context.Context, req *types.InvocationRequest, cfg *types.AgentConfig) (json.RawMessage, error) {
	body, err := json.Marshal(newRequest(MethodSend, req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		start := time.Now()
		result, err := c.attempt(ctx, cfg, body)
		elapsed := time.Since(start)

		if err == nil {
			slog.Debug("agent call succeeded",
				"call_id", string(req.CallID),
				"attempt", attempt,
				"elapsed", elapsed,
			)
			return result, nil
		}
		lastErr = err

		if !retryable(err) {
			slog.Warn("agent call failed",
				"call_id", string(req.CallID),
				"attempt", attempt,
				"elapsed", elapsed,
				"error", err,
			)
			return nil, err
		}

		slog.Warn("agent call attempt failed, will retry",
			"call_id", string(req.CallID),
			"attempt", attempt,
			"elapsed", elapsed,
			"error", err,
		)

		if attempt < c.retry.MaxRetries {
			select {
			case <-time.After(c.retry.Delay(attempt)):
			case <-ctx.Done():
				return nil, &TransportError{Err: ctx.Err()}
			}
		}
	}

	return nil, fmt.Errorf("retries exhausted after %d attempts: %w", c.retry.MaxRetries+1, lastErr)
}

// attempt performs one bounded HTTP round trip and classifies the outcome.
func (c *Client) attempt(ctx context.Context, cfg *types.AgentConfig, body []byte) (json.RawMessage, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if cfg.Credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cfg.Credential)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Timeouts, resets, and unreachable hosts all land here.
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{
			HTTPStatus: resp.StatusCode,
			Message:    truncate(string(respBody), 200),
		}
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return nil, &MalformedReplyError{Err: err}
	}
	if rpcResp.Error != nil {
		return nil, &UpstreamError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
		}
	}
	if len(rpcResp.Result) == 0 {
		return nil, &MalformedReplyError{Err: fmt.Errorf("envelope has neither result nor error")}
	}
	return rpcResp.Result, nil
}

// OpenStream sends a message/stream request and returns the raw event-stream
// body. No per-attempt timeout is applied: the stream is long-lived and is
// torn down by cancelling ctx. The caller owns closing the returned body.
func (c *Client) OpenStream(ctx context.Context, req *types.InvocationRequest, cfg *types.AgentConfig) (io.ReadCloser, error) {
	body, err := json.Marshal(newRequest(MethodStream, req))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	if cfg.Credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+cfg.Credential)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &UpstreamError{
			HTTPStatus: resp.StatusCode,
			Message:    truncate(string(msg), 200),
		}
	}
	return resp.Body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
