package notify

import (
	"errors"
	"testing"
)

func TestRegistryRoutesByPrefix(t *testing.T) {
	r := NewRegistry()

	var gotTarget, gotMessage string
	r.Register("telegram:", func(target, message string) error {
		gotTarget, gotMessage = target, message
		return nil
	})
	r.Register("log:", func(target, message string) error {
		t.Error("wrong handler invoked")
		return nil
	})

	if err := r.Notify("telegram:12345", "post published"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if gotTarget != "telegram:12345" || gotMessage != "post published" {
		t.Errorf("handler saw %q/%q", gotTarget, gotMessage)
	}
}

func TestRegistryEmptyTargetIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Register("telegram:", func(target, message string) error {
		t.Error("handler must not run for empty target")
		return nil
	})
	if err := r.Notify("", "ignored"); err != nil {
		t.Errorf("empty target must not error: %v", err)
	}
}

func TestRegistryUnknownTarget(t *testing.T) {
	r := NewRegistry()
	if err := r.Notify("pager:oncall", "msg"); err == nil {
		t.Error("expected error for unregistered prefix")
	}
}

func TestRegistryPropagatesHandlerError(t *testing.T) {
	r := NewRegistry()
	want := errors.New("delivery failed")
	r.Register("telegram:", func(target, message string) error {
		return want
	})
	if err := r.Notify("telegram:1", "msg"); !errors.Is(err, want) {
		t.Errorf("expected handler error, got %v", err)
	}
}
