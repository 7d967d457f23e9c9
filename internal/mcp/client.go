// Package mcp is the gateway to a remote MCP tool server: connection
// lifecycle, tool discovery, tool invocation, and normalization of tool
// results into conversation-ready text.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const (
	defaultServerURL = "http://localhost:8080/sse"
	defaultTimeout   = 30 * time.Second
	minTimeout       = 1 * time.Second
	maxTimeout       = 300 * time.Second
)

// transportBuilder is overridden in tests to connect over in-memory pipes.
var transportBuilder = buildTransport

// Config holds the gateway connection settings. Timeout bounds the
// connection handshake only, not steady-state call latency.
type Config struct {
	ServerURL string
	Transport string // sse (default), http, or stdio
	Timeout   time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.ServerURL == "" {
		out.ServerURL = defaultServerURL
	}
	if out.Transport == "" {
		out.Transport = "sse"
	}
	if out.Timeout == 0 {
		out.Timeout = defaultTimeout
	}
	return out
}

func (c *Config) Validate() error {
	cfg := c.withDefaults()
	if cfg.Timeout < minTimeout || cfg.Timeout > maxTimeout {
		return fmt.Errorf("mcp: timeout must be between %s and %s, got %s", minTimeout, maxTimeout, cfg.Timeout)
	}
	switch cfg.Transport {
	case "sse", "http", "stdio":
	default:
		return fmt.Errorf("mcp: unknown transport %q", cfg.Transport)
	}
	return nil
}

// ToolDescriptor is one discovered tool: name, description, and the JSON
// schema of its arguments. Immutable after discovery.
type ToolDescriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// Client is a connection-oriented gateway to one MCP server. Connect and
// Disconnect are explicit and mutex-serialized; every other operation fails
// with ErrNotConnected while unconnected. A disconnect does not wait for
// in-flight calls; give each logical session its own Client when that
// matters.
type Client struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	impl    *mcpsdk.Client
	session *mcpsdk.ClientSession
}

func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	impl := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "fhirchat", Version: "1.0"}, nil)
	return &Client{cfg: cfg.withDefaults(), log: log, impl: impl}, nil
}

// Connect establishes the server session. Fails with ErrAlreadyConnected on
// a second call; connection faults come back as *ConnectionError with the
// cause preserved.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return ErrAlreadyConnected
	}

	transport, err := transportBuilder(ctx, c.cfg)
	if err != nil {
		return &ConnectionError{URL: c.cfg.ServerURL, Err: err}
	}
	session, err := c.impl.Connect(ctx, transport, nil)
	if err != nil {
		c.log.Error("failed to connect to MCP server", zap.String("url", c.cfg.ServerURL), zap.Error(err))
		return &ConnectionError{URL: c.cfg.ServerURL, Err: err}
	}

	c.session = session
	c.log.Info("connected to MCP server", zap.String("url", c.cfg.ServerURL))
	return nil
}

// Disconnect closes the server session. Fails with ErrNotConnected when
// there is nothing to close.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ErrNotConnected
	}

	err := c.session.Close()
	c.session = nil
	if err != nil {
		return fmt.Errorf("disconnecting from MCP server: %w", err)
	}
	c.log.Info("disconnected from MCP server")
	return nil
}

func (c *Client) current() (*mcpsdk.ClientSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil, ErrNotConnected
	}
	return c.session, nil
}

// ListTools returns the server's tool roster in the order the server
// reports it.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	session, err := c.current()
	if err != nil {
		return nil, err
	}

	var tools []ToolDescriptor
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			return nil, &ToolListError{Err: err}
		}
		tools = append(tools, toDescriptor(tool))
	}
	c.log.Debug("listed tools", zap.Int("count", len(tools)))
	return tools, nil
}

// CallTool invokes a named tool. Nil arguments become an empty object. The
// raw result is returned verbatim; Normalize turns it into message content.
// Both transport faults and remote-side tool failures come back as
// *ToolCallError.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	session, err := c.current()
	if err != nil {
		return nil, err
	}

	if args == nil {
		args = map[string]any{}
	}

	c.log.Debug("calling tool", zap.String("tool", name))
	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, &ToolCallError{Tool: name, Err: err}
	}
	if result.IsError {
		return nil, &ToolCallError{Tool: name, Err: errors.New(firstText(result))}
	}
	return result, nil
}

func toDescriptor(tool *mcpsdk.Tool) ToolDescriptor {
	if tool == nil {
		return ToolDescriptor{}
	}
	d := ToolDescriptor{Name: tool.Name, Description: tool.Description}
	switch schema := tool.InputSchema.(type) {
	case nil:
	case map[string]any:
		d.InputSchema = schema
	default:
		// Schema arrived as a typed struct; round-trip through JSON.
		raw, err := json.Marshal(schema)
		if err == nil {
			_ = json.Unmarshal(raw, &d.InputSchema)
		}
	}
	return d
}

// firstText extracts the leading text block of an error result so the cause
// message is human-readable.
func firstText(result *mcpsdk.CallToolResult) string {
	for _, block := range result.Content {
		if text, ok := block.(*mcpsdk.TextContent); ok {
			return text.Text
		}
	}
	return "tool reported an error"
}

func buildTransport(ctx context.Context, cfg Config) (mcpsdk.Transport, error) {
	// The timeout bounds connection setup only. A plain http.Client timeout
	// would also cut the long-lived event stream, so it goes on the header
	// wait instead.
	httpClient := &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			ResponseHeaderTimeout: cfg.Timeout,
		},
	}

	switch cfg.Transport {
	case "http":
		return &mcpsdk.StreamableClientTransport{Endpoint: cfg.ServerURL, HTTPClient: httpClient}, nil
	case "stdio":
		parts := strings.Fields(cfg.ServerURL)
		if len(parts) == 0 {
			return nil, fmt.Errorf("stdio transport needs a command")
		}
		return &mcpsdk.CommandTransport{Command: exec.CommandContext(ctx, parts[0], parts[1:]...)}, nil
	default:
		return &mcpsdk.SSEClientTransport{Endpoint: cfg.ServerURL, HTTPClient: httpClient}, nil
	}
}
