// internal/stream/proxy.go

// Package stream relays a long-lived agent event stream to a subscriber.
// Events are forwarded as they complete; the subscriber always receives
// exactly one terminal event, synthesized locally when the upstream ends
// without one or when the caller cancels.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/user/inkwell/internal/agent"
	"github.com/user/inkwell/internal/types"
)

// EventType classifies a relayed event.
type EventType string

const (
	// EventContent carries an incremental content fragment.
	EventContent EventType = "content"
	// EventStatus carries a non-terminal status update.
	EventStatus EventType = "status"
	// EventCompleted is the terminal event for a finished stream.
	EventCompleted EventType = "completed"
	// EventCancelled is the terminal event emitted locally when the caller
	// cancels mid-stream.
	EventCancelled EventType = "cancelled"
)

// Event is one relayed stream event.
type Event struct {
	Type EventType `json:"type"`
	Text string    `json:"text,omitempty"`
}

// Terminal reports whether this event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventCompleted || e.Type == EventCancelled
}

// Proxy opens streaming sessions against a configured agent.
type Proxy struct {
	directory types.AgentDirectory
	client    *agent.Client
	agentID   types.AgentID
}

// New creates a Proxy for the given agent.
func New(dir types.AgentDirectory, client *agent.Client, agentID types.AgentID) *Proxy {
	return &Proxy{directory: dir, client: client, agentID: agentID}
}

// Open streams agent events to onEvent until the upstream ends or ctx is
// cancelled. Cancelling ctx tears down the upstream connection; no events are
// emitted after the local cancelled terminal. Returns the accumulated content
// text of the session.
func (p *Proxy) Open(ctx context.Context, prompt string, onEvent func(Event)) (string, error) {
	cfg, err := p.directory.Lookup(p.agentID)
	if err != nil {
		return "", fmt.Errorf("resolve agent config: %w", err)
	}
	if !cfg.Active {
		return "", fmt.Errorf("agent %s is inactive", cfg.ID)
	}

	req := types.NewInvocationRequest(types.NewSessionID(), prompt)
	body, err := p.client.OpenStream(ctx, req, cfg)
	if err != nil {
		return "", fmt.Errorf("open agent stream: %w", err)
	}
	defer body.Close()

	slog.Debug("agent stream opened",
		"call_id", string(req.CallID),
		"session_id", string(req.SessionID),
	)

	var content strings.Builder
	var dataLines []string
	sawTerminal := false

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		// A blank line closes the pending event frame.
		if line == "" {
			if len(dataLines) == 0 {
				continue
			}
			payload := strings.Join(dataLines, "\n")
			dataLines = dataLines[:0]

			ev, terminal := classify(payload)
			if ctx.Err() != nil {
				break
			}
			if ev != nil {
				if ev.Type == EventContent {
					content.WriteString(ev.Text)
				}
				onEvent(*ev)
			}
			if terminal {
				sawTerminal = true
				break
			}
			continue
		}

		if rest, ok := strings.CutPrefix(line, "data:"); ok {
			dataLines = append(dataLines, strings.TrimPrefix(rest, " "))
		}
		// "event:", "id:", and comment lines are ignored.
	}

	if ctx.Err() != nil {
		// Caller cancelled: the connection is already torn down via the
		// request context. Emit the local terminal and stop.
		onEvent(Event{Type: EventCancelled})
		slog.Debug("agent stream cancelled", "call_id", string(req.CallID))
		return content.String(), nil
	}

	if err := scanner.Err(); err != nil {
		onEvent(Event{Type: EventCompleted, Text: "stream ended unexpectedly"})
		return content.String(), &agent.TransportError{Err: err}
	}

	if !sawTerminal {
		// Upstream ended without an explicit terminal marker: never leave the
		// subscriber without a termination signal.
		onEvent(Event{Type: EventCompleted, Text: "completed, no explicit result"})
	}

	slog.Debug("agent stream finished",
		"call_id", string(req.CallID),
		"content_bytes", content.Len(),
	)
	return content.String(), nil
}

// wireEvent is the superset of event shapes agents send. Events may arrive
// bare or wrapped in a JSON-RPC response envelope.
type wireEvent struct {
	Kind   string     `json:"kind"`
	Final  bool       `json:"final"`
	Parts  []wirePart `json:"parts"`
	Status *struct {
		State   string `json:"state"`
		Message *struct {
			Parts []wirePart `json:"parts"`
		} `json:"message"`
	} `json:"status"`
	Artifact *struct {
		Parts []wirePart `json:"parts"`
	} `json:"artifact"`
}

type wirePart struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

// terminalStates are the status states that end a stream even without the
// final flag.
var terminalStates = map[string]bool{
	"completed": true,
	"failed":    true,
	"canceled":  true,
	"rejected":  true,
}

// classify parses one SSE data payload into a relayable event. Returns nil
// when the payload carries nothing worth forwarding; terminal is true when
// the payload ends the stream.
func classify(payload string) (*Event, bool) {
	raw := json.RawMessage(payload)

	// Unwrap a JSON-RPC envelope if present.
	var envelope struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && len(envelope.Result) > 0 {
		raw = envelope.Result
	}

	var ev wireEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		slog.Warn("unparseable stream event", "payload_bytes", len(payload))
		return nil, false
	}

	if text := partsText(ev.Parts); text != "" {
		return &Event{Type: EventContent, Text: text}, false
	}
	if ev.Artifact != nil {
		if text := partsText(ev.Artifact.Parts); text != "" {
			return &Event{Type: EventContent, Text: text}, ev.Final
		}
	}
	if ev.Status != nil {
		terminal := ev.Final || terminalStates[ev.Status.State]
		var text string
		if ev.Status.Message != nil {
			text = partsText(ev.Status.Message.Parts)
		}
		if terminal {
			return &Event{Type: EventCompleted, Text: text}, true
		}
		if text == "" {
			text = ev.Status.State
		}
		return &Event{Type: EventStatus, Text: text}, false
	}
	if ev.Final {
		return &Event{Type: EventCompleted}, true
	}
	return nil, false
}

func partsText(parts []wirePart) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String()
}
