package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Mock tool for testing
type mockTool struct {
	name   string
	schema JSONSchema
	result *CallToolResult
	err    error
}

func (m *mockTool) GetName() string            { return m.name }
func (m *mockTool) GetDescription() string     { return "mock " + m.name }
func (m *mockTool) GetInputSchema() JSONSchema { return m.schema }
func (m *mockTool) Execute(ctx context.Context, arguments json.RawMessage) (*CallToolResult, error) {
	return m.result, m.err
}

// Mock resource for testing; records the URI it was read with
type mockResource struct {
	uri      string
	readWith string
}

func (m *mockResource) GetURI() string         { return m.uri }
func (m *mockResource) GetName() string        { return m.uri }
func (m *mockResource) GetDescription() string { return "" }
func (m *mockResource) GetMimeType() string    { return "application/json" }
func (m *mockResource) Read(ctx context.Context, uri string) (*ReadResourceResult, error) {
	m.readWith = uri
	return &ReadResourceResult{Contents: []ResourceContent{{URI: uri, Text: "{}"}}}, nil
}

func call(t *testing.T, s *Service, method string, params interface{}) HTTPResponse {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		require.NoError(t, err)
		raw = b
	}
	return s.HandleRequest(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  method,
		Params:  raw,
	})
}

func decode(t *testing.T, resp HTTPResponse, out interface{}) {
	t.Helper()
	require.Nil(t, resp.JSONRPCResponse.Error)
	b, err := json.Marshal(resp.JSONRPCResponse.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, out))
}

func TestService_HandleInitialize(t *testing.T) {
	service := NewService(zap.NewNop(), NewHandlerRegistry())

	resp := call(t, service, "initialize", InitializeParams{
		ProtocolVersion: "2024-11-05",
		ClientInfo:      ClientInfo{Name: "test-client", Version: "1.0.0"},
	})

	var result InitializeResult
	decode(t, resp, &result)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "2024-11-05", result.ProtocolVersion)
	assert.Equal(t, "construction-erp-mcp", result.ServerInfo.Name)
	assert.True(t, result.Capabilities.Tools.ListChanged)
}

func TestService_ListsAreSorted(t *testing.T) {
	// Setup
	registry := NewHandlerRegistry()
	registry.RegisterTool(&mockTool{name: "post-journal-entry"})
	registry.RegisterTool(&mockTool{name: "create-account"})
	registry.RegisterResource(&mockResource{uri: "erp://reports/balance-sheet"})
	registry.RegisterResource(&mockResource{uri: "erp://accounts"})
	service := NewService(zap.NewNop(), registry)

	// Act
	var tools ListToolsResult
	decode(t, call(t, service, "tools/list", nil), &tools)
	var resources ListResourcesResult
	decode(t, call(t, service, "resources/list", nil), &resources)

	// Assert
	require.Len(t, tools.Tools, 2)
	assert.Equal(t, "create-account", tools.Tools[0].Name)
	require.Len(t, resources.Resources, 2)
	assert.Equal(t, "erp://accounts", resources.Resources[0].URI)
}

func TestService_CallTool(t *testing.T) {
	registry := NewHandlerRegistry()
	registry.RegisterTool(&mockTool{name: "ok", result: TextResult("done")})
	registry.RegisterTool(&mockTool{name: "fails", err: errors.New("ALREADY_POSTED: journal entry je-1 is already posted")})
	service := NewService(zap.NewNop(), registry)

	t.Run("success", func(t *testing.T) {
		var result CallToolResult
		decode(t, call(t, service, "tools/call", CallToolParams{Name: "ok"}), &result)

		assert.False(t, result.IsError)
		assert.Equal(t, "done", result.Content[0].Text)
	})

	t.Run("handler error becomes an error result", func(t *testing.T) {
		var result CallToolResult
		decode(t, call(t, service, "tools/call", CallToolParams{Name: "fails"}), &result)

		assert.True(t, result.IsError)
		assert.Contains(t, result.Content[0].Text, "ALREADY_POSTED")
	})

	t.Run("unknown tool", func(t *testing.T) {
		resp := call(t, service, "tools/call", CallToolParams{Name: "nope"})

		require.NotNil(t, resp.JSONRPCResponse.Error)
		assert.Equal(t, InvalidParams, resp.JSONRPCResponse.Error.Code)
	})
}

func TestService_ReadResource(t *testing.T) {
	entries := &mockResource{uri: "erp://journal-entries"}
	registry := NewHandlerRegistry()
	registry.RegisterResource(entries)
	registry.RegisterResource(&mockResource{uri: "erp://accounts"})
	service := NewService(zap.NewNop(), registry)

	t.Run("sub uri resolves to its base", func(t *testing.T) {
		var result ReadResourceResult
		decode(t, call(t, service, "resources/read", ReadResourceParams{URI: "erp://journal-entries/je-1"}), &result)

		assert.Equal(t, "erp://journal-entries/je-1", entries.readWith)
	})

	t.Run("unregistered uri", func(t *testing.T) {
		resp := call(t, service, "resources/read", ReadResourceParams{URI: "erp://journal"})

		require.NotNil(t, resp.JSONRPCResponse.Error)
	})
}

func TestService_UnknownMethod(t *testing.T) {
	service := NewService(zap.NewNop(), NewHandlerRegistry())

	resp := call(t, service, "prompts/list", nil)

	require.NotNil(t, resp.JSONRPCResponse.Error)
	assert.Equal(t, MethodNotFound, resp.JSONRPCResponse.Error.Code)
}
