package debug

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/exdap/internal/debug/dap"
	"github.com/dshills/exdap/internal/event"
	"github.com/dshills/exdap/internal/launch"
)

// Adapter describes how to reach the Elixir debug adapter.
// Command/Args spawn it over stdio; a non-empty Address connects over TCP
// instead.
type Adapter struct {
	Command string
	Args    []string
	Address string
	Env     []string
}

// Starter starts debug sessions and exposes the bus their events arrive on.
// The session correlator depends on this boundary, not on the wire protocol.
type Starter interface {
	// Bus returns the bus session events are published to.
	Bus() *event.Bus

	// Start launches one session for the configuration. Events for the
	// session may begin arriving on the bus before Start returns.
	Start(ctx context.Context, cfg *launch.Config) error
}

// Host runs debug adapter processes and republishes their DAP notifications
// as bus events tagged with a per-session id.
type Host struct {
	adapter Adapter
	bus     *event.Bus

	mu      sync.Mutex
	clients map[string]*dap.Client
}

// NewHost creates a host for the given adapter. A nil bus gets a fresh one.
func NewHost(adapter Adapter, bus *event.Bus) *Host {
	if bus == nil {
		bus = event.NewBus()
	}
	return &Host{
		adapter: adapter,
		bus:     bus,
		clients: make(map[string]*dap.Client),
	}
}

// Bus returns the host's event bus.
func (h *Host) Bus() *event.Bus {
	return h.bus
}

// Start spawns the adapter, runs the DAP launch sequence for cfg and
// publishes a StartedEvent on success. Output and test events republish from
// the client's receive goroutine as they arrive, so they can interleave with
// the tail of the launch sequence.
func (h *Host) Start(ctx context.Context, cfg *launch.Config) error {
	transport, err := h.dial()
	if err != nil {
		return err
	}

	id := uuid.NewString()
	client := dap.NewClient(transport)

	h.mu.Lock()
	h.clients[id] = client
	h.mu.Unlock()

	client.OnOutput(func(body dap.OutputEventBody) {
		h.bus.Publish(TopicSessionOutput, OutputEvent{
			SessionID: id,
			Category:  body.Category,
			Output:    body.Output,
		})
	})
	client.OnExited(func(body dap.ExitedEventBody) {
		h.bus.Publish(TopicSessionExited, ExitedEvent{SessionID: id, ExitCode: body.ExitCode})
	})
	client.OnTestEvent(func(kind dap.TestEventKind, body dap.TestEventBody) {
		h.bus.Publish(TopicSessionTest, TestEvent{SessionID: id, Kind: kind, Body: body})
	})
	client.OnTerminated(func(dap.TerminatedEventBody) {
		h.bus.Publish(TopicSessionTerminated, TerminatedEvent{SessionID: id})
		go h.release(id)
	})

	if err := h.configure(ctx, client, cfg); err != nil {
		h.release(id)
		return err
	}

	h.bus.Publish(TopicSessionStarted, StartedEvent{SessionID: id})
	return nil
}

// configure runs the initialize/launch/configurationDone sequence.
func (h *Host) configure(ctx context.Context, client *dap.Client, cfg *launch.Config) error {
	args := dap.InitializeRequestArguments{
		ClientID:        "exdap",
		ClientName:      "exdap",
		AdapterID:       "mix_task",
		LinesStartAt1:   true,
		ColumnsStartAt1: true,
		PathFormat:      "path",
	}
	if _, err := client.Initialize(ctx, args); err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	if err := client.Launch(ctx, cfg); err != nil {
		return fmt.Errorf("launch: %w", err)
	}
	if err := client.ConfigurationDone(ctx); err != nil {
		return fmt.Errorf("configurationDone: %w", err)
	}
	return nil
}

// dial builds the transport for a new session.
func (h *Host) dial() (dap.Transport, error) {
	if h.adapter.Address != "" {
		return dap.NewSocketTransport(h.adapter.Address)
	}
	if h.adapter.Command == "" {
		return nil, fmt.Errorf("no debug adapter configured")
	}

	cmd := exec.Command(h.adapter.Command, h.adapter.Args...)
	if len(h.adapter.Env) > 0 {
		cmd.Env = append(cmd.Environ(), h.adapter.Env...)
	}
	return dap.NewStdioTransport(cmd)
}

// release closes and forgets a session's client.
func (h *Host) release(id string) {
	h.mu.Lock()
	client, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
	}
	h.mu.Unlock()

	if ok {
		_ = client.Close()
	}
}
