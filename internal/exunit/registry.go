package exunit

import (
	"sort"
	"sync"
)

// Result is the recorded outcome of one test item.
type Result struct {
	Ref     Ref
	State   State
	Seconds float64
	Message string
}

// Registry is an in-memory Item store keyed by Ref.
// It backs the CLI and tests; editor integrations supply their own Lookup.
type Registry struct {
	mu    sync.RWMutex
	items map[Ref]*registryItem
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[Ref]*registryItem)}
}

// Add registers a test reference and returns its item.
// Adding an existing ref returns the already-registered item.
func (r *Registry) Add(ref Ref) Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	if it, ok := r.items[ref]; ok {
		return it
	}
	it := &registryItem{ref: ref, state: StateIdle}
	r.items[ref] = it
	return it
}

// Lookup returns the registry's lookup function.
// Unknown refs resolve to nil.
func (r *Registry) Lookup() Lookup {
	return func(ref Ref) Item {
		r.mu.RLock()
		defer r.mu.RUnlock()

		it, ok := r.items[ref]
		if !ok {
			return nil
		}
		return it
	}
}

// Results returns a snapshot of all recorded outcomes, ordered by file,
// module and name for stable rendering.
func (r *Registry) Results() []Result {
	r.mu.RLock()
	out := make([]Result, 0, len(r.items))
	for _, it := range r.items {
		out = append(out, it.snapshot())
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Ref, out[j].Ref
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		return a.Name < b.Name
	})
	return out
}

// registryItem is the registry's Item implementation.
type registryItem struct {
	mu      sync.Mutex
	ref     Ref
	state   State
	seconds float64
	message string
}

func (it *registryItem) MarkStarted() {
	it.setState(StateRunning, 0, "")
}

func (it *registryItem) MarkPassed(seconds float64) {
	it.setState(StatePassed, seconds, "")
}

func (it *registryItem) MarkFailed(message string) {
	it.setState(StateFailed, 0, message)
}

func (it *registryItem) MarkErrored(message string) {
	it.setState(StateErrored, 0, message)
}

func (it *registryItem) MarkSkipped() {
	it.setState(StateSkipped, 0, "")
}

func (it *registryItem) MarkExcluded() {
	it.setState(StateExcluded, 0, "")
}

func (it *registryItem) setState(s State, seconds float64, message string) {
	it.mu.Lock()
	it.state = s
	if seconds != 0 {
		it.seconds = seconds
	}
	if message != "" {
		it.message = message
	}
	it.mu.Unlock()
}

func (it *registryItem) snapshot() Result {
	it.mu.Lock()
	defer it.mu.Unlock()
	return Result{Ref: it.ref, State: it.state, Seconds: it.seconds, Message: it.message}
}
