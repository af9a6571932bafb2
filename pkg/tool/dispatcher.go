// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dirigent-ai/dirigent/pkg/llm"
	"github.com/dirigent-ai/dirigent/pkg/telemetry"
)

// Status reports the outcome of a dispatched tool call.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result is the outcome of one tool call. A result is always produced,
// even on failure, so the model sees a coherent turn.
type Result struct {
	CallID   string
	Tool     string
	Status   Status
	Payload  any // execution return value verbatim, or the error message
	Terminal bool
	Duration time.Duration
}

// Message renders the tool-result message appended to the conversation.
func (r Result) Message() llm.Message {
	var body map[string]any
	if r.Status == StatusError {
		body = map[string]any{"error": r.Payload}
	} else {
		body = map[string]any{"result": r.Payload}
	}
	content, err := json.Marshal(body)
	if err != nil {
		// Non-serializable payloads degrade to their string form.
		content, _ = json.Marshal(map[string]any{"result": fmt.Sprintf("%v", r.Payload)})
	}
	return llm.Message{
		Role:       llm.RoleTool,
		Content:    string(content),
		ToolCallID: r.CallID,
	}
}

// Dispatcher resolves model-issued tool calls against a registry and executes
// them against the run's shared state container. All failures are contained:
// Dispatch never returns an error, only error-status results.
type Dispatcher struct {
	registry *Registry
	state    any
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewDispatcher creates a dispatcher for one run. The state container is
// held by reference for the lifetime of the run and handed to every
// stateful tool execution.
func NewDispatcher(registry *Registry, state any) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		state:    state,
		logger:   slog.Default(),
		tracer:   otel.Tracer("dirigent/tool"),
	}
}

// State returns the shared state container.
func (d *Dispatcher) State() any { return d.state }

// Dispatch resolves and executes a single tool call.
func (d *Dispatcher) Dispatch(ctx context.Context, call llm.ToolCall) Result {
	callID := call.ID
	if callID == "" {
		callID = uuid.NewString()
	}
	name := call.Function.Name

	ctx, span := d.tracer.Start(ctx, "Dispatcher.Dispatch")
	defer span.End()

	started := time.Now()
	result := d.dispatch(ctx, callID, name, call.Function.Arguments)
	result.Duration = time.Since(started)

	span.SetAttributes(telemetry.ToolCallAttributes(
		name, callID, result.Duration.Seconds()*1000, result.Status == StatusOK,
	)...)

	if result.Status == StatusError {
		d.logger.WarnContext(ctx, "tool.dispatch.error",
			slog.String("tool", name),
			slog.String("call_id", callID),
			slog.Any("error", result.Payload),
		)
	} else {
		d.logger.DebugContext(ctx, "tool.dispatch.ok",
			slog.String("tool", name),
			slog.String("call_id", callID),
			slog.Bool("terminal", result.Terminal),
		)
	}
	return result
}

func (d *Dispatcher) dispatch(ctx context.Context, callID, name, rawArgs string) Result {
	desc, ok := d.registry.Lookup(name)
	if !ok {
		return errResult(callID, name, fmt.Sprintf("unknown tool: %s", name))
	}

	raw, err := parseArguments(rawArgs)
	if err != nil {
		return errResult(callID, name, fmt.Sprintf("invalid tool arguments: %v", err))
	}

	args, err := validateArguments(desc.params, raw)
	if err != nil {
		return errResult(callID, name, err.Error())
	}

	payload, err := d.execute(ctx, desc, args)
	if err != nil {
		return errResult(callID, name, fmt.Sprintf("error executing %s: %v", name, err))
	}

	return Result{
		CallID:   callID,
		Tool:     name,
		Status:   StatusOK,
		Payload:  payload,
		Terminal: desc.Terminal(),
	}
}

// execute runs the descriptor's execution function, converting panics into
// errors so a misbehaving tool cannot abort the run.
func (d *Dispatcher) execute(ctx context.Context, desc *Descriptor, args Args) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return desc.execute(ctx, d.state, args)
}

// DispatchAll executes a turn's tool calls. When parallel is false, calls run
// strictly in the order the model emitted them, each completing before the
// next starts. When parallel is true, calls may run concurrently but results
// are returned in the original request order regardless of completion order.
// Concurrent mutation of the shared state container is the tool authors'
// responsibility; the dispatcher neither locks nor copies it.
func (d *Dispatcher) DispatchAll(ctx context.Context, calls []llm.ToolCall, parallel bool) []Result {
	results := make([]Result, len(calls))
	if !parallel || len(calls) < 2 {
		for i, call := range calls {
			results[i] = d.Dispatch(ctx, call)
		}
		return results
	}

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(i int, call llm.ToolCall) {
			defer wg.Done()
			results[i] = d.Dispatch(ctx, call)
		}(i, call)
	}
	wg.Wait()
	return results
}

func errResult(callID, name, message string) Result {
	return Result{
		CallID:  callID,
		Tool:    name,
		Status:  StatusError,
		Payload: message,
	}
}

// parseArguments defensively decodes the serialized arguments payload.
// Empty payloads mean no arguments.
func parseArguments(raw string) (map[string]any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

// validateArguments checks the raw arguments against the declared parameters:
// exactly the declared parameters are accepted, required ones must be present,
// defaults fill the rest, and every value is type checked and coerced.
func validateArguments(params []Param, raw map[string]any) (Args, error) {
	declared := make(map[string]bool, len(params))
	for _, p := range params {
		declared[p.Name] = true
	}
	for name := range raw {
		if !declared[name] {
			return nil, fmt.Errorf("unexpected argument: %s", name)
		}
	}

	args := make(Args, len(params))
	for _, p := range params {
		value, present := raw[p.Name]
		if !present {
			if p.Default != nil {
				args[p.Name] = p.Default
				continue
			}
			if p.Required {
				return nil, fmt.Errorf("missing required argument: %s", p.Name)
			}
			continue
		}
		coerced, err := p.coerce(value)
		if err != nil {
			return nil, err
		}
		args[p.Name] = coerced
	}
	return args, nil
}
