// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dirigent-ai/dirigent/pkg/llm"
	"github.com/dirigent-ai/dirigent/pkg/tool"
)

type stubCaller struct {
	lastName string
	lastArgs map[string]any
	result   *mcp.CallToolResult
	err      error
}

func (s *stubCaller) CallTool(_ context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	s.lastName = name
	s.lastArgs = args
	return s.result, s.err
}

func echoTool() mcp.Tool {
	return mcp.Tool{
		Name:        "echo",
		Description: "Echo the input back",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"input": map[string]any{"type": "string", "description": "text to echo"},
			},
			Required: []string{"input"},
		},
	}
}

func TestNewToolDescriptorValidation(t *testing.T) {
	caller := &stubCaller{}

	if _, err := NewToolDescriptor(mcp.Tool{}, caller); err == nil {
		t.Error("expected error for unnamed tool")
	}
	if _, err := NewToolDescriptor(echoTool(), nil); err == nil {
		t.Error("expected error for nil caller")
	}
	if _, err := NewToolDescriptor(mcp.Tool{
		Name:        "scalar",
		InputSchema: mcp.ToolInputSchema{Type: "string"},
	}, caller); err == nil {
		t.Error("expected error for non-object schema")
	}
}

func TestNewToolDescriptorShape(t *testing.T) {
	d, err := NewToolDescriptor(echoTool(), &stubCaller{})
	if err != nil {
		t.Fatalf("NewToolDescriptor: %v", err)
	}

	if d.Name() != "echo" {
		t.Errorf("name = %q", d.Name())
	}
	if d.Terminal() {
		t.Error("mcp tools must not be terminal")
	}
	if d.Stateful() {
		t.Error("mcp tools must be stateless")
	}

	params := d.Params()
	if len(params) != 1 {
		t.Fatalf("params = %d, want 1", len(params))
	}
	if params[0].Name != "input" || params[0].Type != tool.TypeString || !params[0].Required {
		t.Errorf("param = %+v", params[0])
	}
	if params[0].Description != "text to echo" {
		t.Errorf("description = %q", params[0].Description)
	}
}

func TestParamsFromSchemaDeterministicOrder(t *testing.T) {
	schema := mcp.ToolInputSchema{
		Type: "object",
		Properties: map[string]any{
			"zone":   map[string]any{"type": "string"},
			"bucket": map[string]any{"type": "string"},
			"limit":  map[string]any{"type": "integer"},
			"key":    map[string]any{"type": "string"},
			"prefix": map[string]any{"type": "string"},
		},
		Required: []string{"zone", "bucket"},
	}

	want := []string{"bucket", "zone", "key", "limit", "prefix"}
	for range 20 {
		params, err := paramsFromSchema(schema)
		if err != nil {
			t.Fatalf("paramsFromSchema: %v", err)
		}
		for i, p := range params {
			if p.Name != want[i] {
				t.Fatalf("param %d = %s, want %s", i, p.Name, want[i])
			}
		}
	}
}

func TestDescriptorCallsThroughToServer(t *testing.T) {
	caller := &stubCaller{
		result: &mcp.CallToolResult{
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "ok"}},
		},
	}
	d, err := NewToolDescriptor(echoTool(), caller)
	if err != nil {
		t.Fatalf("NewToolDescriptor: %v", err)
	}

	stop := tool.MustNew("stop",
		tool.Terminal(),
		tool.WithFunc(func(_ context.Context, _ tool.Args) (any, error) { return nil, nil }),
	)
	registry, err := tool.NewRegistry(d, stop)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	dispatcher := tool.NewDispatcher(registry, nil)

	res := dispatcher.Dispatch(context.Background(), llm.ToolCall{
		ID:   "c1",
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionCall{
			Name:      "echo",
			Arguments: `{"input": "hello"}`,
		},
	})
	if res.Status != tool.StatusOK {
		t.Fatalf("status = %s, payload %v", res.Status, res.Payload)
	}
	if res.Payload != "ok" {
		t.Errorf("payload = %v", res.Payload)
	}
	if caller.lastName != "echo" || caller.lastArgs["input"] != "hello" {
		t.Errorf("caller saw %q %v", caller.lastName, caller.lastArgs)
	}
}

func TestDescriptorSurfacesServerError(t *testing.T) {
	caller := &stubCaller{
		result: &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "backend offline"}},
		},
	}
	d, err := NewToolDescriptor(echoTool(), caller)
	if err != nil {
		t.Fatalf("NewToolDescriptor: %v", err)
	}

	stop := tool.MustNew("stop",
		tool.Terminal(),
		tool.WithFunc(func(_ context.Context, _ tool.Args) (any, error) { return nil, nil }),
	)
	registry, err := tool.NewRegistry(d, stop)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	dispatcher := tool.NewDispatcher(registry, nil)

	res := dispatcher.Dispatch(context.Background(), llm.ToolCall{
		ID:   "c1",
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionCall{
			Name:      "echo",
			Arguments: `{"input": "hello"}`,
		},
	})
	if res.Status != tool.StatusError {
		t.Fatalf("status = %s, want error", res.Status)
	}
	if msg, _ := res.Payload.(string); !strings.Contains(msg, "backend offline") {
		t.Errorf("payload = %v", res.Payload)
	}
}

func TestResultToPayloadStructuredContent(t *testing.T) {
	structured := map[string]any{"total": 3}
	payload, err := resultToPayload(&mcp.CallToolResult{StructuredContent: structured})
	if err != nil {
		t.Fatalf("resultToPayload: %v", err)
	}
	if got, ok := payload.(map[string]any); !ok || got["total"] != 3 {
		t.Errorf("payload = %v", payload)
	}

	if _, err := resultToPayload(nil); err == nil {
		t.Error("expected error for nil result")
	}
	if _, err := resultToPayload(&mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "boom"}},
	}); err == nil {
		t.Error("expected error for error result")
	}
}
