// Copyright 2026 © The Dirigent Authors
// SPDX-License-Identifier: Apache-2.0

// Package agent implements the LLM-driven tool-dispatch loop and its
// configuration options.
package agent

import (
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dirigent-ai/dirigent/pkg/audit"
	"github.com/dirigent-ai/dirigent/pkg/core"
	"github.com/dirigent-ai/dirigent/pkg/errors"
	"github.com/dirigent-ai/dirigent/pkg/llm"
	"github.com/dirigent-ai/dirigent/pkg/telemetry"
)

// DefaultBudget caps model iterations when no budget is configured.
const DefaultBudget = 20

// NoToolCallPolicy decides what happens when a model turn contains zero
// tool-call requests.
type NoToolCallPolicy string

const (
	// NoToolCallsStop ends the run with the assistant's text as output.
	NoToolCallsStop NoToolCallPolicy = "stop"
	// NoToolCallsFail ends the run with an error.
	NoToolCallsFail NoToolCallPolicy = "fail"
)

// Agent drives the request/response/dispatch cycle against a budget.
type Agent struct {
	provider      llm.Provider
	model         string
	systemPrompt  string
	budget        int
	toolChoice    llm.ToolChoice
	parallel      bool
	onNoToolCalls NoToolCallPolicy
	temperature   float64

	emitter    core.EventEmitter
	auditStore audit.Store
	metrics    *telemetry.LoopMetrics
	logger     *slog.Logger
	tracer     trace.Tracer
}

// Option configures an Agent instance.
type Option func(*Agent) error

// New creates an Agent bound to a completion provider.
func New(provider llm.Provider, opts ...Option) (*Agent, error) {
	if provider == nil {
		return nil, errors.New(errors.CodeConfiguration, "agent requires a completion provider", nil)
	}
	a := &Agent{
		provider:      provider,
		budget:        DefaultBudget,
		toolChoice:    llm.ToolChoiceAuto,
		onNoToolCalls: NoToolCallsStop,
		emitter:       core.NoopEventEmitter{},
		logger:        slog.Default(),
		tracer:        otel.Tracer("dirigent/agent"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if a.budget <= 0 {
		return nil, errors.New(errors.CodeConfiguration, "budget must be positive", nil).
			WithContext("budget", a.budget)
	}
	return a, nil
}

// WithModel sets the model identifier sent to the provider.
func WithModel(model string) Option {
	return func(a *Agent) error {
		a.model = model
		return nil
	}
}

// WithSystemPrompt seeds the conversation with a system message.
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) error {
		a.systemPrompt = prompt
		return nil
	}
}

// WithBudget sets the maximum number of model iterations per run.
func WithBudget(budget int) Option {
	return func(a *Agent) error {
		a.budget = budget
		return nil
	}
}

// WithToolChoice sets the tool selection policy sent to the model.
func WithToolChoice(choice llm.ToolChoice) Option {
	return func(a *Agent) error {
		a.toolChoice = choice
		return nil
	}
}

// WithParallelToolCalls allows a turn's tool calls to execute concurrently.
// Results are still appended to the conversation in request order. Tools
// that mutate the shared state must be safe for this parallelism.
func WithParallelToolCalls(parallel bool) Option {
	return func(a *Agent) error {
		a.parallel = parallel
		return nil
	}
}

// WithOnNoToolCalls sets the policy for model turns without tool calls.
func WithOnNoToolCalls(policy NoToolCallPolicy) Option {
	return func(a *Agent) error {
		switch policy {
		case NoToolCallsStop, NoToolCallsFail:
			a.onNoToolCalls = policy
			return nil
		default:
			return errors.New(errors.CodeConfiguration, "unknown no-tool-call policy", nil).
				WithContext("policy", string(policy))
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(temperature float64) Option {
	return func(a *Agent) error {
		a.temperature = temperature
		return nil
	}
}

// WithEmitter attaches a semantic event emitter.
func WithEmitter(emitter core.EventEmitter) Option {
	return func(a *Agent) error {
		if emitter == nil {
			emitter = core.NoopEventEmitter{}
		}
		a.emitter = emitter
		return nil
	}
}

// WithAuditStore records every dispatched tool call to the store.
func WithAuditStore(store audit.Store) Option {
	return func(a *Agent) error {
		a.auditStore = store
		return nil
	}
}

// WithMetrics attaches loop metrics.
func WithMetrics(metrics *telemetry.LoopMetrics) Option {
	return func(a *Agent) error {
		a.metrics = metrics
		return nil
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) error {
		if logger != nil {
			a.logger = logger
		}
		return nil
	}
}
