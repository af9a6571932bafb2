// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package agent

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	dirigenterrors "github.com/dirigent-ai/dirigent/pkg/errors"
	"github.com/dirigent-ai/dirigent/pkg/llm"
	"github.com/dirigent-ai/dirigent/pkg/tool"
)

func call(id, name, args string) llm.ToolCall {
	return llm.ToolCall{
		ID:   id,
		Type: llm.ToolTypeFunction,
		Function: llm.FunctionCall{
			Name:      name,
			Arguments: args,
		},
	}
}

func stopTool(t *testing.T) *tool.Descriptor {
	t.Helper()
	return tool.MustNew("stop",
		tool.WithDescription("Finish the run with a value"),
		tool.WithParams(tool.Param{Name: "value", Type: tool.TypeInteger, Required: true}),
		tool.Terminal(),
		tool.WithFunc(func(_ context.Context, args tool.Args) (any, error) {
			return args.Int("value"), nil
		}),
	)
}

func TestRunStopsOnTerminalTool(t *testing.T) {
	provider := llm.NewScriptedMockProvider()
	provider.AddToolCalls(call("c1", "stop", `{"value": 42}`))

	agent, err := New(provider, WithModel("test-model"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "finish with 42",
		Tools:  []*tool.Descriptor{stopTool(t)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reason != StoppedByTool {
		t.Errorf("reason = %q, want %q", result.Reason, StoppedByTool)
	}
	if got, ok := result.Output.(int64); !ok || got != 42 {
		t.Errorf("output = %v (%T), want 42", result.Output, result.Output)
	}
	if result.Iterations != 1 {
		t.Errorf("iterations = %d, want 1", result.Iterations)
	}
}

func TestRunExhaustsBudgetExactly(t *testing.T) {
	const budget = 4

	counter := tool.MustNew("tick",
		tool.WithFunc(func(_ context.Context, _ tool.Args) (any, error) {
			return "tick", nil
		}),
	)

	provider := llm.NewScriptedMockProvider()
	for i := 0; i < budget+2; i++ {
		provider.AddToolCalls(call("c", "tick", "{}"))
	}

	agent, err := New(provider, WithBudget(budget))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "loop forever",
		Tools:  []*tool.Descriptor{counter, stopTool(t)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reason != StoppedByBudget {
		t.Errorf("reason = %q, want %q", result.Reason, StoppedByBudget)
	}
	if result.Output != nil {
		t.Errorf("output = %v, want nil", result.Output)
	}
	if provider.CallCount != budget {
		t.Errorf("model calls = %d, want exactly %d", provider.CallCount, budget)
	}
	if result.Iterations != budget {
		t.Errorf("iterations = %d, want %d", result.Iterations, budget)
	}
}

func TestRunConfigBudgetOverridesAgentBudget(t *testing.T) {
	noop := tool.MustNew("noop",
		tool.WithFunc(func(_ context.Context, _ tool.Args) (any, error) { return nil, nil }),
	)

	provider := llm.NewScriptedMockProvider()
	for i := 0; i < 5; i++ {
		provider.AddToolCalls(call("c", "noop", "{}"))
	}

	agent, err := New(provider, WithBudget(5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "go",
		Tools:  []*tool.Descriptor{noop, stopTool(t)},
		Budget: 2,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if provider.CallCount != 2 {
		t.Errorf("model calls = %d, want 2", provider.CallCount)
	}
	if result.Reason != StoppedByBudget {
		t.Errorf("reason = %q, want %q", result.Reason, StoppedByBudget)
	}
}

func TestRunSharesStateAcrossStatefulTools(t *testing.T) {
	set := tool.MustNew("set_counter",
		tool.WithParams(tool.Param{Name: "value", Type: tool.TypeInteger, Required: true}),
		tool.WithStateFunc(func(_ context.Context, state any, args tool.Args) (any, error) {
			state.(map[string]any)["counter"] = args.Int("value")
			return "set", nil
		}),
	)
	read := tool.MustNew("read_counter",
		tool.WithStateFunc(func(_ context.Context, state any, _ tool.Args) (any, error) {
			return state.(map[string]any)["counter"], nil
		}),
	)

	provider := llm.NewScriptedMockProvider()
	provider.AddToolCalls(call("c1", "set_counter", `{"value": 7}`))
	provider.AddToolCalls(call("c2", "read_counter", "{}"), call("c3", "stop", `{"value": 7}`))

	agent, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "set then read",
		Tools:  []*tool.Descriptor{set, read, stopTool(t)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reason != StoppedByTool {
		t.Fatalf("reason = %q, want %q", result.Reason, StoppedByTool)
	}
	state, ok := result.State.(map[string]any)
	if !ok {
		t.Fatalf("state is %T, want map[string]any", result.State)
	}
	if got := state["counter"]; got != int64(7) {
		t.Errorf("state counter = %v, want 7", got)
	}
	// The read_counter call ran before stop in the same turn and must
	// have observed set_counter's mutation from the previous turn.
	var readMsg *llm.Message
	for i := range result.Messages {
		if result.Messages[i].ToolCallID == "c2" {
			readMsg = &result.Messages[i]
		}
	}
	if readMsg == nil {
		t.Fatal("no tool message for read_counter")
	}
	if !strings.Contains(readMsg.Content, "7") {
		t.Errorf("read_counter message %q does not contain counter value", readMsg.Content)
	}
}

func TestRunKeepsInitialStateReference(t *testing.T) {
	type cart struct {
		Items []string
	}
	initial := &cart{}

	add := tool.MustNew("add_item",
		tool.WithParams(tool.Param{Name: "name", Type: tool.TypeString, Required: true}),
		tool.WithStateFunc(func(_ context.Context, state any, args tool.Args) (any, error) {
			c := state.(*cart)
			c.Items = append(c.Items, args.String("name"))
			return len(c.Items), nil
		}),
	)

	provider := llm.NewScriptedMockProvider()
	provider.AddToolCalls(call("c1", "add_item", `{"name": "apple"}`))
	provider.AddToolCalls(call("c2", "stop", `{"value": 1}`))

	agent, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt:       "add apple",
		Tools:        []*tool.Descriptor{add, stopTool(t)},
		InitialState: initial,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.State != any(initial) {
		t.Error("result state is not the same container passed in")
	}
	if len(initial.Items) != 1 || initial.Items[0] != "apple" {
		t.Errorf("cart items = %v, want [apple]", initial.Items)
	}
}

func TestRunContainsUnknownToolError(t *testing.T) {
	provider := llm.NewScriptedMockProvider()
	provider.AddToolCalls(call("c1", "no_such_tool", "{}"))
	provider.AddToolCalls(call("c2", "stop", `{"value": 1}`))

	agent, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "call a missing tool",
		Tools:  []*tool.Descriptor{stopTool(t)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reason != StoppedByTool {
		t.Errorf("reason = %q, want %q", result.Reason, StoppedByTool)
	}
	var errMsg *llm.Message
	for i := range result.Messages {
		if result.Messages[i].ToolCallID == "c1" {
			errMsg = &result.Messages[i]
		}
	}
	if errMsg == nil {
		t.Fatal("no tool message for the unknown call")
	}
	if !strings.Contains(errMsg.Content, "unknown tool") {
		t.Errorf("error message = %q, want mention of unknown tool", errMsg.Content)
	}
}

func TestRunContainsPanickingTool(t *testing.T) {
	boom := tool.MustNew("boom",
		tool.WithFunc(func(_ context.Context, _ tool.Args) (any, error) {
			panic("kaboom")
		}),
	)

	provider := llm.NewScriptedMockProvider()
	provider.AddToolCalls(call("c1", "boom", "{}"))
	provider.AddToolCalls(call("c2", "stop", `{"value": 1}`))

	agent, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "trigger a panic",
		Tools:  []*tool.Descriptor{boom, stopTool(t)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reason != StoppedByTool {
		t.Errorf("reason = %q, want %q", result.Reason, StoppedByTool)
	}
	if provider.CallCount != 2 {
		t.Errorf("model calls = %d, want 2 (run must survive the panic)", provider.CallCount)
	}
}

func TestRunParallelDispatchPreservesOrder(t *testing.T) {
	var dispatched atomic.Int32

	echo := tool.MustNew("echo",
		tool.WithParams(tool.Param{Name: "text", Type: tool.TypeString, Required: true}),
		tool.WithFunc(func(_ context.Context, args tool.Args) (any, error) {
			dispatched.Add(1)
			return args.String("text"), nil
		}),
	)

	provider := llm.NewScriptedMockProvider()
	provider.AddToolCalls(
		call("c1", "echo", `{"text": "first"}`),
		call("c2", "echo", `{"text": "second"}`),
		call("c3", "echo", `{"text": "third"}`),
	)
	provider.AddToolCalls(call("c4", "stop", `{"value": 1}`))

	agent, err := New(provider, WithParallelToolCalls(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "echo three things",
		Tools:  []*tool.Descriptor{echo, stopTool(t)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var ids []string
	for _, msg := range result.Messages {
		if msg.Role == llm.RoleTool && strings.HasPrefix(msg.ToolCallID, "c") && msg.ToolCallID != "c4" {
			ids = append(ids, msg.ToolCallID)
		}
	}
	if dispatched.Load() != 3 {
		t.Errorf("dispatched = %d, want 3", dispatched.Load())
	}
	want := []string{"c1", "c2", "c3"}
	if len(ids) != len(want) {
		t.Fatalf("tool messages = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("tool message %d = %s, want %s (request order must hold)", i, ids[i], want[i])
		}
	}
}

func TestRunFirstTerminalInRequestOrderWins(t *testing.T) {
	finishA := tool.MustNew("finish_a",
		tool.Terminal(),
		tool.WithFunc(func(_ context.Context, _ tool.Args) (any, error) { return "a", nil }),
	)
	finishB := tool.MustNew("finish_b",
		tool.Terminal(),
		tool.WithFunc(func(_ context.Context, _ tool.Args) (any, error) { return "b", nil }),
	)

	provider := llm.NewScriptedMockProvider()
	provider.AddToolCalls(call("c1", "finish_a", "{}"), call("c2", "finish_b", "{}"))

	agent, err := New(provider, WithParallelToolCalls(true))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "finish twice",
		Tools:  []*tool.Descriptor{finishA, finishB},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Output != "a" {
		t.Errorf("output = %v, want payload of the first terminal call", result.Output)
	}
}

func TestRunFailedTerminalCallDoesNotStop(t *testing.T) {
	provider := llm.NewScriptedMockProvider()
	// Missing the required argument: validation fails, run continues.
	provider.AddToolCalls(call("c1", "stop", "{}"))
	provider.AddToolCalls(call("c2", "stop", `{"value": 9}`))

	agent, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "finish",
		Tools:  []*tool.Descriptor{stopTool(t)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Iterations != 2 {
		t.Errorf("iterations = %d, want 2 (failed terminal call must not stop)", result.Iterations)
	}
	if got, _ := result.Output.(int64); got != 9 {
		t.Errorf("output = %v, want 9", result.Output)
	}
}

func TestRunNoToolCallsStopPolicy(t *testing.T) {
	provider := llm.NewScriptedMockProvider("I am done, no tools needed.")

	agent, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "say something",
		Tools:  []*tool.Descriptor{stopTool(t)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Reason != StoppedByModel {
		t.Errorf("reason = %q, want %q", result.Reason, StoppedByModel)
	}
	if result.Output != "I am done, no tools needed." {
		t.Errorf("output = %v, want the assistant text", result.Output)
	}
}

func TestRunNoToolCallsFailPolicy(t *testing.T) {
	provider := llm.NewScriptedMockProvider("plain answer")

	agent, err := New(provider, WithOnNoToolCalls(NoToolCallsFail))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "say something",
		Tools:  []*tool.Descriptor{stopTool(t)},
	})
	if err == nil {
		t.Fatal("Run: expected an error for a no-tool-call turn")
	}
	if result.Reason != StoppedByError {
		t.Errorf("reason = %q, want %q", result.Reason, StoppedByError)
	}
}

func TestRunTransportErrorIsFatal(t *testing.T) {
	provider := &llm.MockProvider{Err: errors.New("connection refused")}

	agent, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "anything",
		Tools:  []*tool.Descriptor{stopTool(t)},
	})
	if err == nil {
		t.Fatal("Run: expected a transport error")
	}
	if dirigenterrors.CodeOf(err) != dirigenterrors.CodeTransport {
		t.Errorf("error code = %s, want %s", dirigenterrors.CodeOf(err), dirigenterrors.CodeTransport)
	}
	if result.Reason != StoppedByError {
		t.Errorf("reason = %q, want %q", result.Reason, StoppedByError)
	}
}

func TestRunRejectsToolSetWithoutTerminal(t *testing.T) {
	noop := tool.MustNew("noop",
		tool.WithFunc(func(_ context.Context, _ tool.Args) (any, error) { return nil, nil }),
	)

	provider := llm.NewScriptedMockProvider()
	agent, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = agent.Run(context.Background(), RunConfig{
		Prompt: "go",
		Tools:  []*tool.Descriptor{noop},
	})
	if err == nil {
		t.Fatal("Run: expected a configuration error")
	}
	if dirigenterrors.CodeOf(err) != dirigenterrors.CodeConfiguration {
		t.Errorf("error code = %s, want %s", dirigenterrors.CodeOf(err), dirigenterrors.CodeConfiguration)
	}
	if provider.CallCount != 0 {
		t.Errorf("model calls = %d, want 0 (validation must precede the first call)", provider.CallCount)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil provider): expected error")
	}
	if _, err := New(&llm.MockProvider{}, WithBudget(0)); err == nil {
		t.Error("New(budget 0): expected error")
	}
	if _, err := New(&llm.MockProvider{}, WithBudget(-3)); err == nil {
		t.Error("New(negative budget): expected error")
	}
	if _, err := New(&llm.MockProvider{}, WithOnNoToolCalls("explode")); err == nil {
		t.Error("New(bad no-tool-call policy): expected error")
	}
}

func TestRunDefaultsStateToMap(t *testing.T) {
	provider := llm.NewScriptedMockProvider()
	provider.AddToolCalls(call("c1", "stop", `{"value": 1}`))

	agent, err := New(provider)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	result, err := agent.Run(context.Background(), RunConfig{
		Prompt: "go",
		Tools:  []*tool.Descriptor{stopTool(t)},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := result.State.(map[string]any); !ok {
		t.Errorf("default state is %T, want map[string]any", result.State)
	}
}
