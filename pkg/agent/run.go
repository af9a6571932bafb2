// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dirigent-ai/dirigent/pkg/audit"
	"github.com/dirigent-ai/dirigent/pkg/core"
	"github.com/dirigent-ai/dirigent/pkg/errors"
	"github.com/dirigent-ai/dirigent/pkg/llm"
	"github.com/dirigent-ai/dirigent/pkg/telemetry"
	"github.com/dirigent-ai/dirigent/pkg/tool"
)

// StopReason explains why a run terminated.
type StopReason string

const (
	// StoppedByTool means a terminating tool fired; its payload is the output.
	StoppedByTool StopReason = "stopped_by_tool"
	// StoppedByBudget means the iteration budget ran out before a
	// terminating tool fired. There is no final output payload.
	StoppedByBudget StopReason = "stopped_by_budget"
	// StoppedByModel means the model answered without tool calls and the
	// no-tool-call policy is "stop"; the assistant text is the output.
	StoppedByModel StopReason = "stopped_by_model"
	// StoppedByError means the completion call failed or the no-tool-call
	// policy is "fail"; the error is returned alongside the result.
	StoppedByError StopReason = "stopped_by_error"
)

// RunConfig describes one run. It is immutable for the run's duration.
type RunConfig struct {
	// Prompt is the user request that seeds the conversation.
	Prompt string
	// Tools is the ordered tool set for this run. It must contain at
	// least one terminating tool and no duplicate names.
	Tools []*tool.Descriptor
	// InitialState seeds the shared state container. A nil value gets a
	// fresh map[string]any. The container is passed by reference to every
	// stateful tool and returned in the result; the loop never inspects it.
	InitialState any
	// Budget overrides the agent's iteration budget when positive.
	Budget int
}

// RunResult is the output contract of a run: the final state container, the
// stop reason, and the final output payload when one exists.
type RunResult struct {
	State      any
	Reason     StopReason
	Output     any
	Iterations int
	Usage      llm.Usage
	Messages   []llm.Message
}

// Run executes the agent loop until a terminating tool fires, the budget is
// exhausted, or a fatal error occurs. Tool-level failures are contained and
// fed back to the model; only configuration and transport failures surface
// as errors.
func (a *Agent) Run(ctx context.Context, cfg RunConfig) (*RunResult, error) {
	registry, err := tool.NewRegistry(cfg.Tools...)
	if err != nil {
		return nil, err
	}

	state := cfg.InitialState
	if state == nil {
		state = map[string]any{}
	}

	budget := a.budget
	if cfg.Budget > 0 {
		budget = cfg.Budget
	}

	ctx, runID := core.EnsureRunID(ctx)
	ctx, span := a.tracer.Start(ctx, "Agent.Run", trace.WithAttributes(
		telemetry.RunAttributes(runID, a.model, budget, a.parallel)...,
	))
	span.SetAttributes(telemetry.ToolsetAttributes(registry.Len(), registry.Names())...)
	defer span.End()

	dispatcher := tool.NewDispatcher(registry, state)

	messages := make([]llm.Message, 0, 2)
	if a.systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: cfg.Prompt})

	result := &RunResult{State: state}

	a.logger.InfoContext(ctx, "run.start",
		slog.String("model", a.model),
		slog.Int("budget", budget),
		slog.Int("tools", registry.Len()),
	)
	a.emitter.Emit(ctx, core.NewEvent(core.EventRunStarted, runID, 0, map[string]any{
		"model":  a.model,
		"budget": budget,
		"tools":  registry.Names(),
	}))

	for iteration := 1; iteration <= budget; iteration++ {
		result.Iterations = iteration
		a.metrics.RecordIteration(ctx, a.model)
		a.emitter.Emit(ctx, core.NewEvent(core.EventModelCalled, runID, iteration, map[string]any{
			"messages": len(messages),
		}))

		resp, err := a.chat(ctx, messages, registry)
		if err != nil {
			terr := errors.New(errors.CodeTransport, "completion call failed", err).
				WithContext("iteration", iteration).
				WithAttribute(telemetry.AttrRunModel, a.model)
			a.metrics.RecordError(ctx, terr)
			a.emitter.Emit(ctx, core.NewEvent(core.EventRunError, runID, iteration, map[string]any{
				"error": terr.Error(),
			}))
			span.SetStatus(codes.Error, terr.Error())
			result.Reason = StoppedByError
			result.Messages = messages
			a.finish(ctx, result)
			return result, terr
		}
		result.Usage.Add(resp.Usage)
		a.metrics.RecordTokens(ctx, resp.Usage.PromptTokens, resp.Usage.CompletionTokens)

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		if len(resp.ToolCalls) == 0 {
			result.Messages = messages
			if a.onNoToolCalls == NoToolCallsFail {
				merr := errors.New(errors.CodeTransport, "model returned no tool calls", nil).
					WithContext("iteration", iteration).
					WithContext("content", resp.Content)
				a.metrics.RecordError(ctx, merr)
				span.SetStatus(codes.Error, merr.Error())
				result.Reason = StoppedByError
				a.finish(ctx, result)
				return result, merr
			}
			result.Reason = StoppedByModel
			result.Output = resp.Content
			a.finish(ctx, result)
			return result, nil
		}

		results := dispatcher.DispatchAll(ctx, resp.ToolCalls, a.parallel)

		terminalIdx := -1
		for i, res := range results {
			messages = append(messages, res.Message())
			a.metrics.RecordToolCall(ctx, res.Tool, res.Status == tool.StatusOK)
			a.record(ctx, runID, iteration, res)
			a.emitter.Emit(ctx, core.NewEvent(core.EventToolDispatched, runID, iteration, map[string]any{
				"tool":    res.Tool,
				"call_id": res.CallID,
				"status":  string(res.Status),
			}))
			// First terminal result in request order wins; later results
			// are still recorded for auditability.
			if res.Terminal && terminalIdx < 0 {
				terminalIdx = i
			}
		}

		if terminalIdx >= 0 {
			result.Reason = StoppedByTool
			result.Output = results[terminalIdx].Payload
			result.Messages = messages
			span.SetAttributes(attribute.String(telemetry.AttrRunReason, string(StoppedByTool)))
			a.finish(ctx, result)
			return result, nil
		}
	}

	result.Reason = StoppedByBudget
	result.Messages = messages
	a.logger.WarnContext(ctx, "run.budget_exhausted",
		slog.Int("budget", budget),
	)
	a.finish(ctx, result)
	return result, nil
}

// chat performs one completion call with the full conversation and the
// registered tool schemas. This is the loop's only blocking point.
func (a *Agent) chat(ctx context.Context, messages []llm.Message, registry *tool.Registry) (*llm.ChatResponse, error) {
	ctx, span := a.tracer.Start(ctx, "Agent.Chat", trace.WithAttributes(
		telemetry.LLMAttributes(a.model, len(messages), 0)...,
	))
	defer span.End()

	resp, err := a.provider.Chat(ctx, llm.ChatRequest{
		Model:             a.model,
		Messages:          messages,
		Tools:             registry.Definitions(),
		ToolChoice:        a.toolChoice,
		ParallelToolCalls: a.parallel,
		Temperature:       a.temperature,
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(telemetry.LLMUsageAttributes(
		resp.Usage.PromptTokens, resp.Usage.CompletionTokens,
	)...)
	return resp, nil
}

// record persists one dispatched call to the audit store, if attached.
func (a *Agent) record(ctx context.Context, runID string, iteration int, res tool.Result) {
	if a.auditStore == nil {
		return
	}
	finished := time.Now().UTC()
	event := audit.Event{
		RunID:      runID,
		Iteration:  iteration,
		CallID:     res.CallID,
		ToolName:   res.Tool,
		Status:     string(res.Status),
		StartedAt:  finished.Add(-res.Duration),
		FinishedAt: finished,
	}
	if res.Status == tool.StatusError {
		event.Error, _ = res.Payload.(string)
	} else {
		event.Payload = res.Payload
	}
	if err := a.auditStore.Record(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "run.audit_record_failed",
			slog.String("tool", res.Tool),
			slog.String("error", err.Error()),
		)
	}
}

// finish emits the terminal event and run metrics.
func (a *Agent) finish(ctx context.Context, result *RunResult) {
	runID, _ := core.RunID(ctx)
	a.metrics.RecordRun(ctx, string(result.Reason))
	a.emitter.Emit(ctx, core.NewEvent(core.EventRunStopped, runID, result.Iterations, map[string]any{
		"reason":     string(result.Reason),
		"iterations": result.Iterations,
	}))
	a.logger.InfoContext(ctx, "run.stop",
		slog.String("reason", string(result.Reason)),
		slog.Int("iterations", result.Iterations),
		slog.Int("total_tokens", result.Usage.TotalTokens),
	)
}
