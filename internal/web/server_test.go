package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chris/fhirchat/internal/chat"
	"github.com/chris/fhirchat/internal/llm"
	"github.com/chris/fhirchat/internal/mcp"
)

type fakeLLM struct {
	responses []*llm.Response
	calls     int
}

func (f *fakeLLM) Chat(ctx context.Context, messages []chat.Message, tools []llm.Tool) (*llm.Response, error) {
	if f.calls >= len(f.responses) {
		return nil, errors.New("no more scripted responses")
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

type fakeProvider struct {
	tools   []mcp.ToolDescriptor
	listErr error
	results map[string]any
}

func (f *fakeProvider) ListTools(ctx context.Context) ([]mcp.ToolDescriptor, error) {
	return f.tools, f.listErr
}

func (f *fakeProvider) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	result, ok := f.results[name]
	if !ok {
		return nil, errors.New("unknown tool: " + name)
	}
	return result, nil
}

func textResult(text string) map[string]any {
	return map[string]any{
		"content": []any{map[string]any{"type": "text", "text": text}},
	}
}

func TestHandleTools(t *testing.T) {
	provider := &fakeProvider{tools: []mcp.ToolDescriptor{
		{Name: "search_patients", Description: "Search FHIR patients"},
	}}
	server := NewServer(&fakeLLM{}, provider, nil, "sys", zap.NewNop())

	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Tools []mcp.ToolDescriptor `json:"tools"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Tools, 1)
	assert.Equal(t, "search_patients", body.Tools[0].Name)
}

func TestHandleTools_GatewayFailure(t *testing.T) {
	provider := &fakeProvider{listErr: errors.New("gateway down")}
	server := NewServer(&fakeLLM{}, provider, nil, "sys", zap.NewNop())

	ts := httptest.NewServer(server.Router())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/tools")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func dialSocket(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	var e envelope
	require.NoError(t, conn.ReadJSON(&e))
	return e
}

func TestSocket_ToolCallTurn(t *testing.T) {
	client := &fakeLLM{responses: []*llm.Response{
		{ToolCalls: []chat.ToolCall{{ID: "call_1", Name: "search_patients", Arguments: `{"name":"John"}`}}},
		{Content: "Found John."},
	}}
	provider := &fakeProvider{results: map[string]any{
		"search_patients": textResult("Patient/123"),
	}}
	server := NewServer(client, provider, nil, "sys", zap.NewNop())

	ts := httptest.NewServer(server.Router())
	defer ts.Close()
	conn := dialSocket(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "message", "content": "find John"}))

	call := readEnvelope(t, conn)
	assert.Equal(t, "tool_call", call.Type)
	assert.Equal(t, "search_patients", call.ToolName)
	assert.Equal(t, "John", call.Arguments["name"])

	result := readEnvelope(t, conn)
	assert.Equal(t, "tool_result", result.Type)
	assert.Equal(t, "Patient/123", result.Result)

	final := readEnvelope(t, conn)
	assert.Equal(t, "assistant", final.Type)
	assert.Equal(t, "Found John.", final.Content)
}

func TestSocket_ToolErrorEnvelope(t *testing.T) {
	client := &fakeLLM{responses: []*llm.Response{
		{ToolCalls: []chat.ToolCall{{ID: "call_1", Name: "missing", Arguments: `{}`}}},
		{Content: "That tool is unavailable."},
	}}
	provider := &fakeProvider{results: map[string]any{}}
	server := NewServer(client, provider, nil, "sys", zap.NewNop())

	ts := httptest.NewServer(server.Router())
	defer ts.Close()
	conn := dialSocket(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "message", "content": "go"}))

	// The call is announced before the gateway is invoked, failure or not.
	call := readEnvelope(t, conn)
	assert.Equal(t, "tool_call", call.Type)
	assert.Equal(t, "missing", call.ToolName)

	toolErr := readEnvelope(t, conn)
	assert.Equal(t, "tool_error", toolErr.Type)
	assert.Equal(t, "missing", toolErr.ToolName)
	assert.True(t, strings.HasPrefix(toolErr.Error, "Error calling tool: "))

	final := readEnvelope(t, conn)
	assert.Equal(t, "assistant", final.Type)
}

func TestSocket_CompletionErrorEnvelope(t *testing.T) {
	// No scripted responses: the first completion call fails.
	server := NewServer(&fakeLLM{}, &fakeProvider{}, nil, "sys", zap.NewNop())

	ts := httptest.NewServer(server.Router())
	defer ts.Close()
	conn := dialSocket(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "message", "content": "hi"}))

	e := readEnvelope(t, conn)
	assert.Equal(t, "error", e.Type)
	assert.Contains(t, e.Content, "no more scripted responses")
}

func TestSocket_IgnoresEmptyAndUnknownEnvelopes(t *testing.T) {
	client := &fakeLLM{responses: []*llm.Response{{Content: "hello"}}}
	server := NewServer(client, &fakeProvider{}, nil, "sys", zap.NewNop())

	ts := httptest.NewServer(server.Router())
	defer ts.Close()
	conn := dialSocket(t, ts)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "message", "content": "   "}))
	require.NoError(t, conn.WriteJSON(map[string]string{"type": "message", "content": "hi"}))

	e := readEnvelope(t, conn)
	assert.Equal(t, "assistant", e.Type)
	assert.Equal(t, "hello", e.Content)
	assert.Equal(t, 1, client.calls)
}
