package debug

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dshills/exdap/internal/debug/dap"
	"github.com/dshills/exdap/internal/event"
	"github.com/dshills/exdap/internal/exunit"
	"github.com/dshills/exdap/internal/launch"
)

// State is the correlator's position in the session lifecycle.
type State int

const (
	// StateIdle is before the start call has been confirmed.
	StateIdle State = iota
	// StateStarted is after the session id has been bound.
	StateStarted
	// StateTerminated is the terminal state; the outcome is resolved.
	StateTerminated
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarted:
		return "started"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// failureExitCode is assumed until the exited event reports otherwise, so a
// session that dies without reporting resolves as a failure.
const failureExitCode = 1

// Session correlates one debug run: it binds bus events to a single session
// id, forwards test notifications to logical test items, aggregates output
// and resolves the final outcome from the exit code. A Session is single-use;
// allocate a fresh one per run request.
type Session struct {
	starter Starter
	lookup  exunit.Lookup

	mu       sync.Mutex
	state    State
	id       string
	exitCode int
	exitSet  bool
	output   []string
	subs     []*event.Subscription
	pending  []any
	done     chan struct{}
	ran      bool
}

// NewSession creates a correlator for one run.
func NewSession(starter Starter, lookup exunit.Lookup) *Session {
	return &Session{
		starter:  starter,
		lookup:   lookup,
		state:    StateIdle,
		exitCode: failureExitCode,
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run starts the session for cfg and blocks until it terminates, returning
// the debuggee output concatenated in arrival order. A nonzero exit code
// returns an *ExitError carrying the same output; a session that cannot
// start returns ErrStartFailed immediately. All subscriptions are released
// on every path.
func (s *Session) Run(ctx context.Context, cfg *launch.Config) (string, error) {
	s.mu.Lock()
	if s.ran {
		s.mu.Unlock()
		return "", ErrSessionReused
	}
	s.ran = true
	s.mu.Unlock()

	if err := s.subscribe(); err != nil {
		return "", err
	}

	if err := s.starter.Start(ctx, cfg); err != nil {
		s.dispose()
		return "", fmt.Errorf("%w: %v", ErrStartFailed, err)
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		s.dispose()
		return s.outputText(), ctx.Err()
	}

	out := s.outputText()

	s.mu.Lock()
	code := s.exitCode
	s.mu.Unlock()

	if code != 0 {
		return out, &ExitError{Code: code, Output: out}
	}
	return out, nil
}

// subscribe registers every handler before the session starts so no event
// can race past an unregistered topic.
func (s *Session) subscribe() error {
	bus := s.starter.Bus()

	type entry struct {
		topic   event.Topic
		handler event.Handler
	}
	entries := []entry{
		{TopicSessionStarted, s.onBusEvent},
		{TopicSessionTerminated, s.onBusEvent},
		{TopicSessionOutput, s.onBusEvent},
		{TopicSessionExited, s.onBusEvent},
		{TopicSessionTest, s.onBusEvent},
	}

	for _, e := range entries {
		sub, err := bus.Subscribe(e.topic, e.handler)
		if err != nil {
			s.dispose()
			return err
		}
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()
	}
	return nil
}

// onBusEvent is the single entry point for all bus notifications.
func (s *Session) onBusEvent(payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateTerminated:
		// Resolved; late events are ignored.
		return
	case StateIdle:
		if ev, ok := payload.(StartedEvent); ok {
			s.bindLocked(ev.SessionID)
			return
		}
		// The id is not bound yet, so the event cannot be attributed.
		// Hold it; binding replays matching events in arrival order and
		// discards the rest.
		s.pending = append(s.pending, payload)
	case StateStarted:
		s.handleLocked(payload)
	}
}

// bindLocked records the session id exactly once and replays held events.
func (s *Session) bindLocked(id string) {
	s.id = id
	s.state = StateStarted

	held := s.pending
	s.pending = nil
	for _, payload := range held {
		if s.state != StateStarted {
			break // a replayed terminated event resolved the run
		}
		s.handleLocked(payload)
	}
}

// handleLocked dispatches one event attributed by session id equality.
func (s *Session) handleLocked(payload any) {
	switch ev := payload.(type) {
	case StartedEvent:
		// Only the first started notification binds; later ones belong to
		// other sessions on a shared bus.
	case OutputEvent:
		if ev.SessionID == s.id {
			s.output = append(s.output, ev.Output)
		}
	case ExitedEvent:
		if ev.SessionID == s.id && !s.exitSet {
			s.exitCode = ev.ExitCode
			s.exitSet = true
		}
	case TestEvent:
		if ev.SessionID == s.id {
			s.applyTestEventLocked(ev)
		}
	case TerminatedEvent:
		if ev.SessionID == s.id {
			s.terminateLocked()
		}
	}
}

// applyTestEventLocked maps one structured test event onto its logical item.
func (s *Session) applyTestEventLocked(ev TestEvent) {
	ref := exunit.Ref{
		File:     ev.Body.File,
		Module:   ev.Body.Module,
		Describe: ev.Body.Describe,
		Name:     ev.Body.Name,
		Kind:     exunit.Kind(ev.Body.TestType),
	}
	if ref.Kind == "" {
		ref.Kind = exunit.KindTest
	}

	var item exunit.Item
	if s.lookup != nil {
		item = s.lookup(ref)
	}
	if item == nil {
		// Excluded tests are routinely unknown to the caller's test model;
		// anything else not matching is worth a diagnostic.
		if ev.Kind != dap.TestExcluded {
			logger().Warn("test event did not match a known test item",
				"kind", string(ev.Kind), "ref", ref.String())
		}
		return
	}

	switch ev.Kind {
	case dap.TestStarted:
		item.MarkStarted()
	case dap.TestPassed:
		item.MarkPassed(ev.Body.DurationMs / 1000.0)
	case dap.TestFailed:
		item.MarkFailed(ev.Body.Message)
	case dap.TestErrored:
		item.MarkErrored(ev.Body.Message)
	case dap.TestSkipped:
		item.MarkSkipped()
	case dap.TestExcluded:
		item.MarkExcluded()
	}
}

// terminateLocked enters the terminal state and releases all subscriptions.
func (s *Session) terminateLocked() {
	if s.state == StateTerminated {
		return
	}
	s.state = StateTerminated

	subs := s.subs
	s.subs = nil
	for _, sub := range subs {
		sub.Cancel()
	}

	close(s.done)
}

// dispose releases subscriptions outside the normal terminated path.
func (s *Session) dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs
	s.subs = nil
	for _, sub := range subs {
		sub.Cancel()
	}
	if s.state != StateTerminated {
		s.state = StateTerminated
		close(s.done)
	}
}

// outputText concatenates captured output chunks in arrival order.
func (s *Session) outputText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.output, "")
}
