package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// everySecond uses the optional seconds field so tests fire quickly.
const everySecond = "* * * * * *"

func waitFor(t *testing.T, counter *atomic.Int32, want int32, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if counter.Load() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected at least %d firings within %v, got %d", want, timeout, counter.Load())
}

func TestSchedulerFires(t *testing.T) {
	var fired atomic.Int32
	s := New(everySecond, func() error {
		fired.Add(1)
		return nil
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	waitFor(t, &fired, 1, 3*time.Second)
}

func TestSchedulerStartIsIdempotent(t *testing.T) {
	var fired atomic.Int32
	s := New(everySecond, func() error {
		fired.Add(1)
		return nil
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("second start: %v", err)
	}
	defer s.Stop()

	if !s.IsArmed() {
		t.Error("expected armed after Start")
	}

	// With a single live trigger, one second of wall time yields at most two
	// firings even with boundary effects. A doubled trigger would yield more.
	waitFor(t, &fired, 1, 3*time.Second)
	base := fired.Load()
	time.Sleep(1100 * time.Millisecond)
	if n := fired.Load() - base; n > 2 {
		t.Errorf("expected a single trigger, observed %d firings in ~1s", n)
	}
}

func TestSchedulerStopDisarms(t *testing.T) {
	var fired atomic.Int32
	s := New(everySecond, func() error {
		fired.Add(1)
		return nil
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, &fired, 1, 3*time.Second)

	s.Stop()
	if s.IsArmed() {
		t.Error("expected disarmed after Stop")
	}
	s.Stop() // idempotent

	base := fired.Load()
	time.Sleep(1500 * time.Millisecond)
	if n := fired.Load(); n != base {
		t.Errorf("trigger fired %d more times after Stop", n-base)
	}
}

func TestSchedulerSurvivesHandlerFailure(t *testing.T) {
	var fired atomic.Int32
	s := New(everySecond, func() error {
		fired.Add(1)
		return errors.New("generation failed")
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	// The trigger keeps firing even though every invocation errors.
	waitFor(t, &fired, 2, 5*time.Second)
	if !s.IsArmed() {
		t.Error("handler failure must not disarm the scheduler")
	}
}

func TestSchedulerRestart(t *testing.T) {
	var fired atomic.Int32
	s := New(everySecond, func() error {
		fired.Add(1)
		return nil
	})
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
	if err := s.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	defer s.Stop()

	waitFor(t, &fired, 1, 3*time.Second)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s := New("not a cron spec", func() error { return nil })
	if err := s.Start(); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if s.IsArmed() {
		t.Error("failed Start must leave the scheduler disarmed")
	}
}

func TestSchedulerDefaultSpec(t *testing.T) {
	s := New("", func() error { return nil })
	if err := s.Start(); err != nil {
		t.Fatalf("default spec must be valid: %v", err)
	}
	s.Stop()
}
