// Package exunit models logical ExUnit test items and their run states.
package exunit

import "fmt"

// Kind distinguishes regular tests from doctests.
type Kind string

const (
	// KindTest is a regular test defined with the test macro.
	KindTest Kind = "test"
	// KindDoctest is an embedded documentation example.
	KindDoctest Kind = "doctest"
)

// State is the run state of a test item.
type State string

const (
	// StateIdle means the test has not started in this run.
	StateIdle State = "idle"
	// StateRunning means a start notification arrived.
	StateRunning State = "running"
	// StatePassed means the test passed.
	StatePassed State = "passed"
	// StateFailed means an assertion failed.
	StateFailed State = "failed"
	// StateErrored means the test raised outside an assertion.
	StateErrored State = "errored"
	// StateSkipped means the test was skipped via a tag.
	StateSkipped State = "skipped"
	// StateExcluded means the test was filtered out of the run.
	StateExcluded State = "excluded"
)

// Ref identifies one logical test item within a project.
// Describe is empty for tests defined outside a describe block.
type Ref struct {
	File     string
	Module   string
	Describe string
	Name     string
	Kind     Kind
}

// String returns a stable human-readable identity for the ref.
func (r Ref) String() string {
	if r.Describe != "" {
		return fmt.Sprintf("%s %s %q %q (%s)", r.File, r.Module, r.Describe, r.Name, r.Kind)
	}
	return fmt.Sprintf("%s %s %q (%s)", r.File, r.Module, r.Name, r.Kind)
}

// Item receives state transitions for one logical test.
// Durations are in seconds.
type Item interface {
	// MarkStarted records that the test began executing.
	MarkStarted()

	// MarkPassed records a pass with the elapsed time in seconds.
	MarkPassed(seconds float64)

	// MarkFailed records an assertion failure with the reported message.
	MarkFailed(message string)

	// MarkErrored records a crash outside an assertion.
	MarkErrored(message string)

	// MarkSkipped records that the test was skipped.
	MarkSkipped()

	// MarkExcluded records that the test was excluded from the run.
	MarkExcluded()
}

// Lookup resolves a test reference to its logical item.
// It returns nil when no item matches the reference.
type Lookup func(ref Ref) Item
