package mcp

import (
	"errors"
	"fmt"
)

// Protocol misuse: the caller's code is wrong, not the network. Signaled
// with sentinels so callers can tell these apart from transport faults.
var (
	ErrNotConnected     = errors.New("mcp: client is not connected")
	ErrAlreadyConnected = errors.New("mcp: client is already connected")
)

// ConnectionError wraps a failure to establish the server connection.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting to MCP server %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ToolListError wraps a tool discovery failure.
type ToolListError struct {
	Err error
}

func (e *ToolListError) Error() string {
	return fmt.Sprintf("listing tools: %v", e.Err)
}

func (e *ToolListError) Unwrap() error { return e.Err }

// ToolCallError wraps a transport or remote-side tool invocation failure.
type ToolCallError struct {
	Tool string
	Err  error
}

func (e *ToolCallError) Error() string {
	return fmt.Sprintf("calling tool %q: %v", e.Tool, e.Err)
}

func (e *ToolCallError) Unwrap() error { return e.Err }
