// Package debug orchestrates mix test debug sessions: it launches the debug
// adapter, republishes its protocol notifications onto an internal bus, and
// correlates them into a single per-run outcome.
package debug

import (
	"github.com/dshills/exdap/internal/debug/dap"
	"github.com/dshills/exdap/internal/event"
)

// Bus topics for session notifications. Every payload carries the session id
// it belongs to; handlers attribute events by id equality.
const (
	TopicSessionStarted    event.Topic = "session.started"
	TopicSessionTerminated event.Topic = "session.terminated"
	TopicSessionOutput     event.Topic = "session.output"
	TopicSessionExited     event.Topic = "session.exited"
	TopicSessionTest       event.Topic = "session.test"
)

// StartedEvent announces that a session finished its launch sequence.
type StartedEvent struct {
	SessionID string
}

// TerminatedEvent announces the end of a session. It is the last event
// published for a session id.
type TerminatedEvent struct {
	SessionID string
}

// OutputEvent carries one chunk of debuggee output.
type OutputEvent struct {
	SessionID string
	Category  string
	Output    string
}

// ExitedEvent reports the test process exit code.
type ExitedEvent struct {
	SessionID string
	ExitCode  int
}

// TestEvent carries one structured test notification.
type TestEvent struct {
	SessionID string
	Kind      dap.TestEventKind
	Body      dap.TestEventBody
}
