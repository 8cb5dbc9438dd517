// Package dap implements the Debug Adapter Protocol client boundary used to
// drive the Elixir debug adapter.
package dap

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

// Transport frames DAP messages to and from a debug adapter.
type Transport interface {
	// Send writes one message to the adapter.
	Send(msg *Message) error

	// Receive blocks for the next message from the adapter.
	Receive() (*Message, error)

	// Close closes the transport.
	Close() error
}

// Message is one Content-Length framed DAP payload.
type Message struct {
	ContentLength int
	Content       json.RawMessage
}

// framedTransport implements Transport over any byte stream.
type framedTransport struct {
	writeMu sync.Mutex
	w       io.Writer
	reader  *bufio.Reader
	closer  func() error
}

// NewStdioTransport starts the adapter subprocess and frames messages over
// its stdin/stdout. The caller owns waiting on the command.
func NewStdioTransport(cmd *exec.Cmd) (Transport, error) {
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("get stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		stdin.Close()
		return nil, fmt.Errorf("get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		return nil, fmt.Errorf("start adapter: %w", err)
	}

	return &framedTransport{
		w:      stdin,
		reader: bufio.NewReader(stdout),
		closer: func() error {
			stdin.Close()
			stdout.Close()
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
			return cmd.Wait()
		},
	}, nil
}

// NewSocketTransport connects to an adapter listening on a TCP address.
func NewSocketTransport(address string) (Transport, error) {
	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("dial adapter: %w", err)
	}

	return &framedTransport{
		w:      conn,
		reader: bufio.NewReader(conn),
		closer: conn.Close,
	}, nil
}

// Send writes one framed message.
func (t *framedTransport) Send(msg *Message) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(msg.Content))
	if _, err := io.WriteString(t.w, header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if _, err := t.w.Write(msg.Content); err != nil {
		return fmt.Errorf("write content: %w", err)
	}
	return nil
}

// Receive reads one framed message, blocking until it arrives.
func (t *framedTransport) Receive() (*Message, error) {
	length := -1

	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break // end of headers
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			length, err = strconv.Atoi(strings.TrimSpace(value))
			if err != nil {
				return nil, fmt.Errorf("parse Content-Length: %w", err)
			}
		}
	}

	if length < 0 {
		return nil, fmt.Errorf("missing Content-Length header")
	}

	content := make([]byte, length)
	if _, err := io.ReadFull(t.reader, content); err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}

	return &Message{ContentLength: length, Content: content}, nil
}

// Close shuts the transport down.
func (t *framedTransport) Close() error {
	if t.closer != nil {
		return t.closer()
	}
	return nil
}
