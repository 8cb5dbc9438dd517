package dap

import "encoding/json"

// ProtocolMessage is the base for all DAP messages.
type ProtocolMessage struct {
	Seq  int    `json:"seq"`
	Type string `json:"type"` // "request", "response", "event"
}

// Request represents a DAP request.
type Request struct {
	ProtocolMessage
	Command   string          `json:"command"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Response represents a DAP response.
type Response struct {
	ProtocolMessage
	RequestSeq int             `json:"request_seq"`
	Success    bool            `json:"success"`
	Command    string          `json:"command"`
	Message    string          `json:"message,omitempty"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// Event represents a DAP event.
type Event struct {
	ProtocolMessage
	Event string          `json:"event"`
	Body  json.RawMessage `json:"body,omitempty"`
}

// Capabilities describes the adapter features this client cares about.
type Capabilities struct {
	SupportsConfigurationDoneRequest bool `json:"supportsConfigurationDoneRequest,omitempty"`
	SupportTerminateDebuggee         bool `json:"supportTerminateDebuggee,omitempty"`
}

// InitializeRequestArguments are the arguments for the initialize request.
type InitializeRequestArguments struct {
	ClientID        string `json:"clientID,omitempty"`
	ClientName      string `json:"clientName,omitempty"`
	AdapterID       string `json:"adapterID"`
	Locale          string `json:"locale,omitempty"`
	LinesStartAt1   bool   `json:"linesStartAt1,omitempty"`
	ColumnsStartAt1 bool   `json:"columnsStartAt1,omitempty"`
	PathFormat      string `json:"pathFormat,omitempty"`
}

// DisconnectArguments are the arguments for the disconnect request.
type DisconnectArguments struct {
	TerminateDebuggee bool `json:"terminateDebuggee,omitempty"`
}

// OutputEventBody is the body of the output event.
type OutputEventBody struct {
	Category string `json:"category,omitempty"` // "stdout", "stderr", "console"
	Output   string `json:"output"`
}

// ExitedEventBody is the body of the exited event.
type ExitedEventBody struct {
	ExitCode int `json:"exitCode"`
}

// TerminatedEventBody is the body of the terminated event.
type TerminatedEventBody struct {
	Restart bool `json:"restart,omitempty"`
}

// TestEventKind enumerates the custom test events the structured ExUnit
// formatter emits during a run.
type TestEventKind string

const (
	TestStarted  TestEventKind = "test_started"
	TestPassed   TestEventKind = "test_passed"
	TestFailed   TestEventKind = "test_failed"
	TestErrored  TestEventKind = "test_errored"
	TestSkipped  TestEventKind = "test_skipped"
	TestExcluded TestEventKind = "test_excluded"
)

// IsTestEvent reports whether the DAP event name is one of the structured
// test notifications.
func IsTestEvent(name string) bool {
	switch TestEventKind(name) {
	case TestStarted, TestPassed, TestFailed, TestErrored, TestSkipped, TestExcluded:
		return true
	default:
		return false
	}
}

// TestEventBody is the body shared by all structured test events.
// DurationMs is only populated on test_passed.
type TestEventBody struct {
	File       string  `json:"file"`
	Module     string  `json:"module"`
	Describe   string  `json:"describe,omitempty"`
	Name       string  `json:"name"`
	TestType   string  `json:"type"` // "test" or "doctest"
	DurationMs float64 `json:"durationMs,omitempty"`
	Message    string  `json:"message,omitempty"`
}
