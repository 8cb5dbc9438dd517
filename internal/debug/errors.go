package debug

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	// ErrStartFailed is returned when the debug session cannot be launched.
	ErrStartFailed = errors.New("debug: failed to start debug session")

	// ErrSessionReused is returned when Run is called twice on one Session.
	ErrSessionReused = errors.New("debug: session already ran")
)

// ExitError reports a test process that exited nonzero. Failing tests are an
// expected outcome, not an infrastructure fault; the captured output renders
// the same way as a passing run's.
type ExitError struct {
	Code   int
	Output string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("mix test exited with code %d", e.Code)
}

var (
	loggerMu  sync.RWMutex
	pkgLogger *slog.Logger
)

// SetLogger overrides the package diagnostic logger. A nil logger restores
// the process default.
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	pkgLogger = l
	loggerMu.Unlock()
}

func logger() *slog.Logger {
	loggerMu.RLock()
	l := pkgLogger
	loggerMu.RUnlock()
	if l == nil {
		return slog.Default()
	}
	return l
}
