// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

// Package mcp adapts Model Context Protocol tools into dispatchable tool
// descriptors so MCP servers can feed a run's tool set.
package mcp

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dirigent-ai/dirigent/pkg/errors"
	"github.com/dirigent-ai/dirigent/pkg/tool"
)

// ToolCaller abstracts MCP tool execution for adapters.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// NewToolDescriptor wraps an MCP tool definition and its caller as a
// stateless, non-terminal tool descriptor. The MCP input schema must be a
// flat object of typed properties; anything richer cannot be validated by
// the dispatcher and is rejected here.
func NewToolDescriptor(t mcp.Tool, caller ToolCaller) (*tool.Descriptor, error) {
	if t.Name == "" {
		return nil, errors.New(errors.CodeConfiguration, "mcp tool name is required", nil)
	}
	if caller == nil {
		return nil, errors.New(errors.CodeConfiguration, "mcp tool caller is required", nil)
	}

	params, err := paramsFromSchema(t.InputSchema)
	if err != nil {
		return nil, errors.New(errors.CodeConfiguration, "mcp tool schema is not adaptable", err).
			WithContext("tool", t.Name)
	}

	name := t.Name
	return tool.New(name,
		tool.WithDescription(t.Description),
		tool.WithParams(params...),
		tool.WithFunc(func(ctx context.Context, args tool.Args) (any, error) {
			result, err := caller.CallTool(ctx, name, map[string]any(args))
			if err != nil {
				return nil, err
			}
			return resultToPayload(result)
		}),
	)
}

// NewToolDescriptors adapts a server's full tool listing, skipping none:
// a single unadaptable tool fails the whole listing so misconfiguration
// surfaces before the first run.
func NewToolDescriptors(tools []mcp.Tool, caller ToolCaller) ([]*tool.Descriptor, error) {
	descriptors := make([]*tool.Descriptor, 0, len(tools))
	for _, t := range tools {
		d, err := NewToolDescriptor(t, caller)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// paramsFromSchema converts an MCP object schema into ordered parameters.
// Property order in the serialized schema is not guaranteed; required
// properties are listed first, each group sorted by name, for a stable
// rendering.
func paramsFromSchema(schema mcp.ToolInputSchema) ([]tool.Param, error) {
	if schema.Type != "" && schema.Type != "object" {
		return nil, fmt.Errorf("unsupported schema type %q", schema.Type)
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var requiredParams, optionalParams []tool.Param
	for _, name := range names {
		prop, _ := schema.Properties[name].(map[string]any)
		p := tool.Param{
			Name:     name,
			Type:     propertyType(prop),
			Required: required[name],
		}
		if prop != nil {
			p.Description, _ = prop["description"].(string)
			p.Default = prop["default"]
		}
		if required[name] {
			requiredParams = append(requiredParams, p)
		} else {
			optionalParams = append(optionalParams, p)
		}
	}
	return append(requiredParams, optionalParams...), nil
}

func propertyType(prop map[string]any) string {
	if prop == nil {
		return tool.TypeString
	}
	t, _ := prop["type"].(string)
	switch t {
	case tool.TypeString, tool.TypeInteger, tool.TypeNumber, tool.TypeBoolean,
		tool.TypeArray, tool.TypeObject:
		return t
	default:
		// Untyped and union-typed properties pass through as strings.
		return tool.TypeString
	}
}

// resultToPayload flattens an MCP call result into a dispatch payload.
func resultToPayload(result *mcp.CallToolResult) (any, error) {
	if result == nil {
		return nil, fmt.Errorf("mcp tool result is nil")
	}
	if result.IsError {
		return nil, fmt.Errorf("mcp tool returned error: %s", textContent(result.Content))
	}
	if result.StructuredContent != nil {
		return result.StructuredContent, nil
	}
	if text := textContent(result.Content); text != "" {
		return text, nil
	}
	return result, nil
}

func textContent(items []mcp.Content) string {
	var parts []string
	for _, item := range items {
		switch content := item.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		}
	}
	return strings.Join(parts, "\n")
}
