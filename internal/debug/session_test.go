package debug

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/dshills/exdap/internal/debug/dap"
	"github.com/dshills/exdap/internal/event"
	"github.com/dshills/exdap/internal/exunit"
	"github.com/dshills/exdap/internal/launch"
)

// fakeStarter scripts a session's event stream. Events publish synchronously
// from Start, which makes correlator tests deterministic.
type fakeStarter struct {
	bus      *event.Bus
	startErr error
	script   func(publish func(event.Topic, any))
}

func newFakeStarter(script func(publish func(event.Topic, any))) *fakeStarter {
	return &fakeStarter{bus: event.NewBus(), script: script}
}

func (f *fakeStarter) Bus() *event.Bus { return f.bus }

func (f *fakeStarter) Start(ctx context.Context, cfg *launch.Config) error {
	if f.startErr != nil {
		return f.startErr
	}
	if f.script != nil {
		f.script(f.bus.Publish)
	}
	return nil
}

func testConfig() *launch.Config {
	return launch.Synthesize(launch.Request{Cwd: "/proj", FilePath: "test/a_test.exs", Debug: true})
}

func TestSessionSuccess(t *testing.T) {
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionOutput, OutputEvent{SessionID: "s1", Category: "stdout", Output: "Compiling...\n"})
		publish(TopicSessionOutput, OutputEvent{SessionID: "s1", Category: "stderr", Output: "warning: unused\n"})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, nil)
	out, err := s.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if out != "Compiling...\nwarning: unused\n" {
		t.Errorf("output = %q, want chunks concatenated in arrival order", out)
	}
	if s.State() != StateTerminated {
		t.Errorf("state = %v, want terminated", s.State())
	}
}

func TestSessionNonzeroExit(t *testing.T) {
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionOutput, OutputEvent{SessionID: "s1", Output: "1 failure\n"})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 2})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, nil)
	out, err := s.Run(context.Background(), testConfig())

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
	if exitErr.Code != 2 {
		t.Errorf("exit code = %d, want 2", exitErr.Code)
	}
	if exitErr.Output != "1 failure\n" || out != "1 failure\n" {
		t.Errorf("failure output = %q / %q, want same captured output as a pass", exitErr.Output, out)
	}
}

func TestSessionDefaultExitCodeIsFailure(t *testing.T) {
	// A session that terminates without ever reporting an exit code must not
	// resolve as a success.
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, nil)
	_, err := s.Run(context.Background(), testConfig())

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("Run() error = %v, want *ExitError", err)
	}
}

func TestSessionStartFailure(t *testing.T) {
	starter := newFakeStarter(nil)
	starter.startErr = errors.New("adapter not found")

	s := NewSession(starter, nil)
	_, err := s.Run(context.Background(), testConfig())

	if !errors.Is(err, ErrStartFailed) {
		t.Fatalf("Run() error = %v, want ErrStartFailed", err)
	}
	// All subscriptions must be released on the failure path too.
	for _, topic := range []event.Topic{TopicSessionStarted, TopicSessionOutput, TopicSessionExited, TopicSessionTest, TopicSessionTerminated} {
		if n := starter.bus.SubscriberCount(topic); n != 0 {
			t.Errorf("topic %s has %d live subscriptions after start failure, want 0", topic, n)
		}
	}
}

func TestSessionSubscriptionsReleasedOnTermination(t *testing.T) {
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, nil)
	if _, err := s.Run(context.Background(), testConfig()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, topic := range []event.Topic{TopicSessionStarted, TopicSessionOutput, TopicSessionExited, TopicSessionTest, TopicSessionTerminated} {
		if n := starter.bus.SubscriberCount(topic); n != 0 {
			t.Errorf("topic %s has %d live subscriptions after termination, want 0", topic, n)
		}
	}
}

func TestSessionPreStartEventsReplayed(t *testing.T) {
	// Output and exit can arrive before the start confirmation binds the
	// session id. They are held and replayed in arrival order on bind.
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionOutput, OutputEvent{SessionID: "s1", Output: "early "})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionOutput, OutputEvent{SessionID: "s1", Output: "late"})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, nil)
	out, err := s.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v, want nil (buffered exit code 0)", err)
	}
	if out != "early late" {
		t.Errorf("output = %q, want buffered chunk replayed before live chunk", out)
	}
}

func TestSessionPreStartForeignEventsDiscarded(t *testing.T) {
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionOutput, OutputEvent{SessionID: "other", Output: "not ours "})
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionOutput, OutputEvent{SessionID: "s1", Output: "ours"})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, nil)
	out, err := s.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "ours" {
		t.Errorf("output = %q, want foreign pre-start chunk discarded", out)
	}
}

func TestSessionIgnoresOtherSessions(t *testing.T) {
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionOutput, OutputEvent{SessionID: "s2", Output: "other session\n"})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s2", ExitCode: 3})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s2"})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, nil)
	out, err := s.Run(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Run() error = %v, want other session's exit ignored", err)
	}
	if out != "" {
		t.Errorf("output = %q, want other session's output ignored", out)
	}
}

func TestSessionExitCodeRecordedOnce(t *testing.T) {
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 9})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, nil)
	if _, err := s.Run(context.Background(), testConfig()); err != nil {
		t.Errorf("Run() error = %v, want first exit code (0) to win", err)
	}
}

func TestSessionTestEventTransitions(t *testing.T) {
	reg := exunit.NewRegistry()
	ref := exunit.Ref{File: "test/a_test.exs", Module: "ATest", Name: "works", Kind: exunit.KindTest}
	reg.Add(ref)

	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		body := dap.TestEventBody{File: ref.File, Module: ref.Module, Name: ref.Name, TestType: "test"}
		publish(TopicSessionTest, TestEvent{SessionID: "s1", Kind: dap.TestStarted, Body: body})
		body.DurationMs = 250
		publish(TopicSessionTest, TestEvent{SessionID: "s1", Kind: dap.TestPassed, Body: body})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, reg.Lookup())
	if _, err := s.Run(context.Background(), testConfig()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	results := reg.Results()
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].State != exunit.StatePassed {
		t.Errorf("state = %s, want passed", results[0].State)
	}
	if results[0].Seconds != 0.25 {
		t.Errorf("seconds = %v, want 0.25 (milliseconds converted)", results[0].Seconds)
	}
}

func TestSessionUnknownTestItemLogged(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	reg := exunit.NewRegistry() // empty: every lookup misses

	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionTest, TestEvent{
			SessionID: "s1",
			Kind:      dap.TestFailed,
			Body:      dap.TestEventBody{File: "f", Module: "M", Name: "ghost", TestType: "test"},
		})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, reg.Lookup())
	if _, err := s.Run(context.Background(), testConfig()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(buf.String(), "ghost") {
		t.Errorf("unknown test item not logged: %q", buf.String())
	}
}

func TestSessionUnknownExcludedDroppedSilently(t *testing.T) {
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	defer SetLogger(nil)

	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionTest, TestEvent{
			SessionID: "s1",
			Kind:      dap.TestExcluded,
			Body:      dap.TestEventBody{File: "f", Module: "M", Name: "filtered", TestType: "test"},
		})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, exunit.NewRegistry().Lookup())
	if _, err := s.Run(context.Background(), testConfig()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("excluded event for unknown item was logged: %q", buf.String())
	}
}

func TestSessionContextCancellation(t *testing.T) {
	// A session that never terminates: Run unblocks on ctx and releases
	// its subscriptions.
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionOutput, OutputEvent{SessionID: "s1", Output: "partial"})
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	s := NewSession(starter, nil)
	out, err := s.Run(ctx, testConfig())

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}
	if out != "partial" {
		t.Errorf("output = %q, want partial output surfaced on cancellation", out)
	}
	if n := starter.bus.SubscriberCount(TopicSessionOutput); n != 0 {
		t.Errorf("%d live subscriptions after cancellation, want 0", n)
	}
}

func TestSessionSingleUse(t *testing.T) {
	starter := newFakeStarter(func(publish func(event.Topic, any)) {
		publish(TopicSessionStarted, StartedEvent{SessionID: "s1"})
		publish(TopicSessionExited, ExitedEvent{SessionID: "s1", ExitCode: 0})
		publish(TopicSessionTerminated, TerminatedEvent{SessionID: "s1"})
	})

	s := NewSession(starter, nil)
	if _, err := s.Run(context.Background(), testConfig()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	if _, err := s.Run(context.Background(), testConfig()); !errors.Is(err, ErrSessionReused) {
		t.Errorf("second Run() error = %v, want ErrSessionReused", err)
	}
}

func TestStateString(t *testing.T) {
	if StateIdle.String() != "idle" || StateStarted.String() != "started" || StateTerminated.String() != "terminated" {
		t.Error("State.String() mismatch")
	}
	if State(99).String() != "unknown" {
		t.Errorf("State(99).String() = %q, want unknown", State(99).String())
	}
}
