// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry provides OpenTelemetry integration with rich attributes
// for agent-loop observability.
package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Semantic conventions for Dirigent agent telemetry.
// These follow OpenTelemetry naming conventions where applicable.
const (
	// Run attributes
	AttrRunID        = "dirigent.run.id"
	AttrRunModel     = "dirigent.run.model"
	AttrRunBudget    = "dirigent.run.budget"
	AttrRunIteration = "dirigent.run.iteration"
	AttrRunReason    = "dirigent.run.stop_reason"
	AttrRunParallel  = "dirigent.run.parallel_tool_calls"

	// Tool attributes
	AttrToolName       = "dirigent.tool.name"
	AttrToolCallID     = "dirigent.tool.call_id"
	AttrToolDurationMs = "dirigent.tool.duration_ms"
	AttrToolSuccess    = "dirigent.tool.success"
	AttrToolTerminal   = "dirigent.tool.terminal"

	// Tool set attributes
	AttrToolsCount = "dirigent.tools.count"
	AttrToolsNames = "dirigent.tools.names"

	// LLM attributes (extending standard gen_ai conventions)
	AttrLLMModel        = "gen_ai.request.model"
	AttrLLMMessages     = "gen_ai.request.messages"
	AttrLLMTokensInput  = "gen_ai.usage.input_tokens"
	AttrLLMTokensOutput = "gen_ai.usage.output_tokens"
	AttrLLMTokensTotal  = "gen_ai.usage.total_tokens"
	AttrLLMToolCalls    = "gen_ai.tool_calls"
)

// RunAttributes returns common attributes for run spans.
func RunAttributes(runID, model string, budget int, parallel bool) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrRunID, runID),
		attribute.Bool(AttrRunParallel, parallel),
	}
	if model != "" {
		attrs = append(attrs, attribute.String(AttrRunModel, model))
	}
	if budget > 0 {
		attrs = append(attrs, attribute.Int(AttrRunBudget, budget))
	}
	return attrs
}

// ToolCallAttributes returns attributes for a tool dispatch span.
func ToolCallAttributes(name, callID string, durationMs float64, success bool) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrToolName, name),
		attribute.String(AttrToolCallID, callID),
		attribute.Float64(AttrToolDurationMs, durationMs),
		attribute.Bool(AttrToolSuccess, success),
	}
}

// ToolsetAttributes returns attributes describing the registered tools.
func ToolsetAttributes(count int, names []string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.Int(AttrToolsCount, count),
	}
	if len(names) > 0 {
		attrs = append(attrs, attribute.StringSlice(AttrToolsNames, names))
	}
	return attrs
}

// LLMAttributes returns attributes for completion call spans.
func LLMAttributes(model string, msgCount, toolCallCount int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(AttrLLMModel, model),
		attribute.Int(AttrLLMMessages, msgCount),
	}
	if toolCallCount > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMToolCalls, toolCallCount))
	}
	return attrs
}

// LLMUsageAttributes returns token usage attributes.
func LLMUsageAttributes(inputTokens, outputTokens int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{}
	if inputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensInput, inputTokens))
	}
	if outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensOutput, outputTokens))
	}
	if inputTokens > 0 || outputTokens > 0 {
		attrs = append(attrs, attribute.Int(AttrLLMTokensTotal, inputTokens+outputTokens))
	}
	return attrs
}
