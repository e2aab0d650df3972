// internal/agent/protocol.go
package agent

import (
	"encoding/json"

	"github.com/user/inkwell/internal/types"
)

// protocolVersion is the JSON-RPC version tag carried by every request envelope.
const protocolVersion = "2.0"

const (
	// MethodSend requests a single-shot reply in one JSON body.
	MethodSend = "message/send"
	// MethodStream negotiates a server-sent-event response instead.
	MethodStream = "message/stream"
)

// rpcRequest is the request envelope sent to an agent endpoint.
type rpcRequest struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      string     `json:"id"`
	Method  string     `json:"method"`
	Params  sendParams `json:"params"`
}

type sendParams struct {
	Message rpcMessage `json:"message"`
}

type rpcMessage struct {
	Role      string    `json:"role"`
	Parts     []rpcPart `json:"parts"`
	MessageID string    `json:"messageId"`
	TaskID    string    `json:"taskId,omitempty"`
	ContextID string    `json:"contextId,omitempty"`
}

type rpcPart struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// rpcResponse is the top-level reply envelope. Result is kept raw: its shape
// is not contractually fixed by the upstream agent and is handed to the
// recovery engine as-is.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// newRequest builds the wire envelope for an invocation. The call ID doubles
// as the JSON-RPC correlation ID.
func newRequest(method string, req *types.InvocationRequest) *rpcRequest {
	return &rpcRequest{
		JSONRPC: protocolVersion,
		ID:      string(req.CallID),
		Method:  method,
		Params: sendParams{
			Message: rpcMessage{
				Role:      "user",
				Parts:     []rpcPart{{Kind: "text", Text: req.Prompt}},
				MessageID: string(req.CallID),
				TaskID:    string(req.TaskID),
				ContextID: string(req.SessionID),
			},
		},
	}
}
