package stream

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/user/inkwell/internal/agent"
	"github.com/user/inkwell/internal/types"
)

type fakeDirectory struct {
	cfg *types.AgentConfig
}

func (d *fakeDirectory) Lookup(id types.AgentID) (*types.AgentConfig, error) {
	if d.cfg == nil {
		return nil, fmt.Errorf("unknown agent %q", id)
	}
	return d.cfg, nil
}

func testProxy(endpoint string, active bool) *Proxy {
	dir := &fakeDirectory{cfg: &types.AgentConfig{
		ID:         "writer",
		Endpoint:   endpoint,
		Credential: "k",
		Active:     active,
	}}
	return New(dir, agent.New(), "writer")
}

// sseServer streams the given frames as SSE data events.
func sseServer(t *testing.T, frames []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, frame := range frames {
			fmt.Fprintf(w, "data: %s\n\n", frame)
			flusher.Flush()
		}
	}))
}

func TestOpenForwardsContentAndTerminal(t *testing.T) {
	srv := sseServer(t, []string{
		`{"parts":[{"kind":"text","text":"hello "}]}`,
		`{"parts":[{"kind":"text","text":"world"}]}`,
		`{"status":{"state":"completed"},"final":true}`,
	})
	defer srv.Close()

	var events []Event
	content, err := testProxy(srv.URL, true).Open(context.Background(), "topic", func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if content != "hello world" {
		t.Errorf("unexpected accumulated content: %q", content)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d: %v", len(events), events)
	}
	if events[0].Type != EventContent || events[1].Type != EventContent {
		t.Errorf("expected content events first, got %v", events)
	}
	last := events[len(events)-1]
	if last.Type != EventCompleted {
		t.Errorf("expected completed terminal, got %v", last)
	}
	if !last.Terminal() {
		t.Error("completed event must report Terminal()")
	}
}

func TestOpenUnwrapsRPCEnvelope(t *testing.T) {
	srv := sseServer(t, []string{
		`{"jsonrpc":"2.0","id":"1","result":{"parts":[{"kind":"text","text":"wrapped"}]}}`,
		`{"jsonrpc":"2.0","id":"1","result":{"status":{"state":"completed"},"final":true}}`,
	})
	defer srv.Close()

	content, err := testProxy(srv.URL, true).Open(context.Background(), "topic", func(Event) {})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if content != "wrapped" {
		t.Errorf("unexpected content: %q", content)
	}
}

func TestOpenForwardsStatusUpdates(t *testing.T) {
	srv := sseServer(t, []string{
		`{"status":{"state":"working"}}`,
		`{"status":{"state":"completed"},"final":true}`,
	})
	defer srv.Close()

	var events []Event
	_, err := testProxy(srv.URL, true).Open(context.Background(), "topic", func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %v", events)
	}
	if events[0].Type != EventStatus || events[0].Text != "working" {
		t.Errorf("unexpected status event: %v", events[0])
	}
}

func TestOpenSynthesizesTerminalOnEOF(t *testing.T) {
	// Upstream closes without an explicit terminal marker.
	srv := sseServer(t, []string{
		`{"parts":[{"kind":"text","text":"partial"}]}`,
	})
	defer srv.Close()

	var events []Event
	content, err := testProxy(srv.URL, true).Open(context.Background(), "topic", func(ev Event) {
		events = append(events, ev)
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if content != "partial" {
		t.Errorf("unexpected content: %q", content)
	}
	if len(events) == 0 || !events[len(events)-1].Terminal() {
		t.Fatalf("expected synthesized terminal event, got %v", events)
	}
	if events[len(events)-1].Type != EventCompleted {
		t.Errorf("expected completed terminal, got %v", events[len(events)-1])
	}
}

func TestOpenCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		fmt.Fprintf(w, "data: %s\n\n", `{"parts":[{"kind":"text","text":"first"}]}`)
		flusher.Flush()
		// Hold the stream open until the client goes away.
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	var events []Event
	sawAfterCancel := false
	done := make(chan struct{})

	go func() {
		defer close(done)
		cancelled := false
		_, err := testProxy(srv.URL, true).Open(ctx, "topic", func(ev Event) {
			if cancelled {
				sawAfterCancel = true
			}
			events = append(events, ev)
			if ev.Type == EventCancelled {
				cancelled = true
			}
			if ev.Type == EventContent {
				cancel()
			}
		})
		if err != nil {
			t.Errorf("cancellation must not surface as an error, got %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not terminate after cancellation")
	}
	cancel()

	if len(events) == 0 {
		t.Fatal("expected at least one event")
	}
	last := events[len(events)-1]
	if last.Type != EventCancelled {
		t.Errorf("expected cancelled terminal, got %v", last)
	}
	if sawAfterCancel {
		t.Error("events were emitted after the cancelled terminal")
	}
}

func TestOpenInactiveAgent(t *testing.T) {
	_, err := testProxy("http://127.0.0.1:0", false).Open(context.Background(), "topic", func(Event) {
		t.Error("no events expected for inactive agent")
	})
	if err == nil {
		t.Fatal("expected error for inactive agent")
	}
	if !strings.Contains(err.Error(), "inactive") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOpenIgnoresUnparseableFrames(t *testing.T) {
	srv := sseServer(t, []string{
		`this is not json`,
		`{"parts":[{"kind":"text","text":"good"}]}`,
		`{"status":{"state":"completed"},"final":true}`,
	})
	defer srv.Close()

	content, err := testProxy(srv.URL, true).Open(context.Background(), "topic", func(Event) {})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if content != "good" {
		t.Errorf("unexpected content: %q", content)
	}
}
