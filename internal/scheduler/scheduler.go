// internal/scheduler/scheduler.go

// Package scheduler fires content generation on a fixed cadence without any
// caller present. The scheduler is an owned object with an explicit
// armed/stopped state machine, not a module-level singleton.
package scheduler

import (
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"
)

// DefaultSpec fires three times per day.
const DefaultSpec = "0 6,12,18 * * *"

// Handler runs one scheduled generation. Its error is logged and swallowed:
// a failed firing never unregisters the trigger.
type Handler func() error

// cronParser accepts both standard 5-field cron expressions and 6-field
// expressions with an optional seconds field.
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Scheduler owns the periodic trigger. It is either stopped or armed; Start
// and Stop are idempotent and safe for concurrent use.
type Scheduler struct {
	spec    string
	handler Handler

	mu    sync.Mutex
	cron  *cron.Cron
	armed bool
}

// New creates a stopped Scheduler with the given cron spec and handler. An
// empty spec uses DefaultSpec.
func New(spec string, handler Handler) *Scheduler {
	if spec == "" {
		spec = DefaultSpec
	}
	return &Scheduler{spec: spec, handler: handler}
}

// Start arms the scheduler and registers the periodic trigger. Calling Start
// while already armed is a no-op: there is never more than one live trigger.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.armed {
		return nil
	}

	c := cron.New(cron.WithParser(cronParser))
	if _, err := c.AddFunc(s.spec, s.fire); err != nil {
		return err
	}
	c.Start()
	s.cron = c
	s.armed = true
	slog.Info("scheduler armed", "spec", s.spec)
	return nil
}

// Stop tears down the trigger and disarms the scheduler. Idempotent.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.armed {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.armed = false
	slog.Info("scheduler stopped")
}

// IsArmed reports whether the periodic trigger is registered.
func (s *Scheduler) IsArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

// fire runs one scheduled generation. Failures are logged and do not affect
// the trigger: the next scheduled firing still occurs.
func (s *Scheduler) fire() {
	slog.Info("scheduled generation firing")
	if err := s.handler(); err != nil {
		slog.Error("scheduled generation failed", "error", err)
	}
}
