// internal/agent/errors.go
package agent

import (
	"errors"
	"fmt"
)

// TransportError wraps network-level failures: connection reset, unreachable
// host, per-attempt timeout. Always retryable.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("agent transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError is an application-level failure reported by the agent, either
// as a non-200 HTTP status or as a JSON-RPC error object. Only a fixed subset
// of codes is retryable; everything else is fatal on first occurrence.
type UpstreamError struct {
	HTTPStatus int    // non-zero when the failure was an HTTP status
	Code       int    // non-zero when the failure was a JSON-RPC error
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("agent returned HTTP %d: %s", e.HTTPStatus, e.Message)
	}
	return fmt.Sprintf("agent error %d: %s", e.Code, e.Message)
}

// Retryable reports whether this upstream failure is worth retrying:
// HTTP 5xx, and the JSON-RPC internal-error and server-error code ranges.
func (e *UpstreamError) Retryable() bool {
	if e.HTTPStatus >= 500 {
		return true
	}
	if e.Code == -32603 {
		return true
	}
	return e.Code >= -32099 && e.Code <= -32000
}

// MalformedReplyError means the agent returned a 200 whose body could not be
// parsed as a response envelope. Fatal: retrying will not fix a persistently
// malformed producer.
type MalformedReplyError struct {
	Err error
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("agent reply is not a valid envelope: %v", e.Err)
}

func (e *MalformedReplyError) Unwrap() error {
	return e.Err
}

// retryable classifies an attempt error. Transport failures always retry;
// upstream failures retry only for the known code subset.
func retryable(err error) bool {
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Retryable()
	}
	return false
}
