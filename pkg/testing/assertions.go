// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

package testing

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/dirigent-ai/dirigent/pkg/agent"
	"github.com/dirigent-ai/dirigent/pkg/llm"
)

// Assertions provides assertion helpers for testing.
type Assertions struct {
	t      *testing.T
	failed bool
}

// NewAssertions creates a new assertions helper.
func NewAssertions(t *testing.T) *Assertions {
	return &Assertions{t: t}
}

// Failed returns true if any assertion has failed.
func (a *Assertions) Failed() bool {
	return a.failed
}

// AssertEqual asserts that two values are equal.
func (a *Assertions) AssertEqual(expected, actual any, msg string) {
	a.t.Helper()
	if expected != actual {
		a.t.Errorf("%s: expected %v, got %v", msg, expected, actual)
		a.failed = true
	}
}

// AssertTrue asserts that the value is true.
func (a *Assertions) AssertTrue(value bool, msg string) {
	a.t.Helper()
	if !value {
		a.t.Errorf("%s: expected true", msg)
		a.failed = true
	}
}

// AssertContains asserts that the string contains the substring.
func (a *Assertions) AssertContains(s, substr, msg string) {
	a.t.Helper()
	if !strings.Contains(s, substr) {
		a.t.Errorf("%s: %q does not contain %q", msg, s, substr)
		a.failed = true
	}
}

// AssertError asserts that the error is not nil.
func (a *Assertions) AssertError(err error, msg string) {
	a.t.Helper()
	if err == nil {
		a.t.Errorf("%s: expected error, got nil", msg)
		a.failed = true
	}
}

// AssertNoError asserts that the error is nil.
func (a *Assertions) AssertNoError(err error, msg string) {
	a.t.Helper()
	if err != nil {
		a.t.Errorf("%s: unexpected error: %v", msg, err)
		a.failed = true
	}
}

// RequestAssertions provides assertion helpers for captured requests.
type RequestAssertions struct {
	*Assertions
	req *llm.ChatRequest
}

// AssertRequest creates request assertions for the given request.
func (a *Assertions) AssertRequest(req *llm.ChatRequest) *RequestAssertions {
	a.t.Helper()
	if req == nil {
		a.t.Error("request is nil")
		a.failed = true
		return &RequestAssertions{Assertions: a, req: &llm.ChatRequest{}}
	}
	return &RequestAssertions{Assertions: a, req: req}
}

// HasModel asserts the request uses the given model.
func (r *RequestAssertions) HasModel(model string) *RequestAssertions {
	r.t.Helper()
	if r.req.Model != model {
		r.t.Errorf("expected model %q, got %q", model, r.req.Model)
		r.failed = true
	}
	return r
}

// HasMessageCount asserts the number of messages in the request.
func (r *RequestAssertions) HasMessageCount(count int) *RequestAssertions {
	r.t.Helper()
	if len(r.req.Messages) != count {
		r.t.Errorf("expected %d messages, got %d", count, len(r.req.Messages))
		r.failed = true
	}
	return r
}

// HasTool asserts a tool with the given name is offered.
func (r *RequestAssertions) HasTool(name string) *RequestAssertions {
	r.t.Helper()
	for _, tool := range r.req.Tools {
		if tool.Function.Name == name {
			return r
		}
	}
	r.t.Errorf("tool %q not found in request", name)
	r.failed = true
	return r
}

// HasSystemMessage asserts a system message exists with the given content.
func (r *RequestAssertions) HasSystemMessage(contains string) *RequestAssertions {
	r.t.Helper()
	for _, msg := range r.req.Messages {
		if msg.Role == llm.RoleSystem && strings.Contains(msg.Content, contains) {
			return r
		}
	}
	r.t.Errorf("no system message containing %q found", contains)
	r.failed = true
	return r
}

// HasToolMessage asserts a tool-role message for the given call ID exists
// containing the substring.
func (r *RequestAssertions) HasToolMessage(callID, contains string) *RequestAssertions {
	r.t.Helper()
	for _, msg := range r.req.Messages {
		if msg.Role == llm.RoleTool && msg.ToolCallID == callID {
			if strings.Contains(msg.Content, contains) {
				return r
			}
			r.t.Errorf("tool message %s = %q, does not contain %q", callID, msg.Content, contains)
			r.failed = true
			return r
		}
	}
	r.t.Errorf("no tool message for call %q found", callID)
	r.failed = true
	return r
}

// RunAssertions provides assertion helpers for run results.
type RunAssertions struct {
	*Assertions
	result *agent.RunResult
}

// AssertRun creates assertions for a run result.
func (a *Assertions) AssertRun(result *agent.RunResult) *RunAssertions {
	a.t.Helper()
	if result == nil {
		a.t.Error("run result is nil")
		a.failed = true
		return &RunAssertions{Assertions: a, result: &agent.RunResult{}}
	}
	return &RunAssertions{Assertions: a, result: result}
}

// StoppedBy asserts the run's stop reason.
func (r *RunAssertions) StoppedBy(reason agent.StopReason) *RunAssertions {
	r.t.Helper()
	if r.result.Reason != reason {
		r.t.Errorf("stop reason = %q, want %q", r.result.Reason, reason)
		r.failed = true
	}
	return r
}

// OutputEquals asserts the run's final output.
func (r *RunAssertions) OutputEquals(expected any) *RunAssertions {
	r.t.Helper()
	if r.result.Output != expected {
		r.t.Errorf("output = %v, want %v", r.result.Output, expected)
		r.failed = true
	}
	return r
}

// UsedIterations asserts the number of model iterations consumed.
func (r *RunAssertions) UsedIterations(count int) *RunAssertions {
	r.t.Helper()
	if r.result.Iterations != count {
		r.t.Errorf("iterations = %d, want %d", r.result.Iterations, count)
		r.failed = true
	}
	return r
}

// StateKeyEquals asserts a key in a map-shaped state container.
func (r *RunAssertions) StateKeyEquals(key string, expected any) *RunAssertions {
	r.t.Helper()
	state, ok := r.result.State.(map[string]any)
	if !ok {
		r.t.Errorf("state is %T, not map[string]any", r.result.State)
		r.failed = true
		return r
	}
	if state[key] != expected {
		r.t.Errorf("state[%q] = %v, want %v", key, state[key], expected)
		r.failed = true
	}
	return r
}

// RequireNoError fails the test immediately if err is not nil.
func RequireNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: %v", msg, err)
	}
}

// RequireEqual fails the test immediately if values are not equal.
func RequireEqual(t *testing.T, expected, actual any, msg string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("%s: expected %v, got %v", msg, expected, actual)
	}
}

// AssertToolCallArgs extracts and validates tool call arguments.
func AssertToolCallArgs(t *testing.T, tc llm.ToolCall, expectedName string) map[string]any {
	t.Helper()
	if tc.Function.Name != expectedName {
		t.Errorf("expected tool %q, got %q", expectedName, tc.Function.Name)
	}

	var args map[string]any
	if tc.Function.Arguments != "" {
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			t.Errorf("failed to parse tool arguments: %v", err)
			return nil
		}
	}
	return args
}

// FormatToolCalls formats tool calls for error messages.
func FormatToolCalls(calls []llm.ToolCall) string {
	if len(calls) == 0 {
		return "(none)"
	}
	names := make([]string, len(calls))
	for i, tc := range calls {
		names[i] = tc.Function.Name
	}
	return fmt.Sprintf("[%s]", strings.Join(names, ", "))
}
