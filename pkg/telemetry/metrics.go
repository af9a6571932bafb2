// SPDX-License-Identifier: Apache-2.0
package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dirigent-ai/dirigent/pkg/errors"
)

// LoopMetrics tracks run outcomes, iterations, and tool dispatches for
// production monitoring of the agent loop.
type LoopMetrics struct {
	// runCounter tracks completed runs by stop reason
	runCounter metric.Int64Counter

	// iterationCounter tracks model-call iterations across runs
	iterationCounter metric.Int64Counter

	// toolCallCounter tracks dispatched tool calls by tool and status
	toolCallCounter metric.Int64Counter

	// errorCounter tracks errors by code
	errorCounter metric.Int64Counter

	// tokenCounter tracks consumed tokens by kind (prompt, completion)
	tokenCounter metric.Int64Counter
}

// NewLoopMetrics creates a new loop metrics tracker with OTEL meters.
func NewLoopMetrics(_ context.Context) (*LoopMetrics, error) {
	meter := otel.Meter("dirigent/loop")

	runCounter, err := meter.Int64Counter(
		"dirigent.runs.total",
		metric.WithDescription("Completed runs by stop reason"),
	)
	if err != nil {
		return nil, err
	}

	iterationCounter, err := meter.Int64Counter(
		"dirigent.iterations.total",
		metric.WithDescription("Model-call iterations across runs"),
	)
	if err != nil {
		return nil, err
	}

	toolCallCounter, err := meter.Int64Counter(
		"dirigent.tool_calls.total",
		metric.WithDescription("Dispatched tool calls by tool and status"),
	)
	if err != nil {
		return nil, err
	}

	errorCounter, err := meter.Int64Counter(
		"dirigent.errors.total",
		metric.WithDescription("Errors by code"),
	)
	if err != nil {
		return nil, err
	}

	tokenCounter, err := meter.Int64Counter(
		"dirigent.tokens.total",
		metric.WithDescription("Consumed tokens by kind"),
	)
	if err != nil {
		return nil, err
	}

	return &LoopMetrics{
		runCounter:       runCounter,
		iterationCounter: iterationCounter,
		toolCallCounter:  toolCallCounter,
		errorCounter:     errorCounter,
		tokenCounter:     tokenCounter,
	}, nil
}

// RecordRun increments the run counter for the given stop reason.
func (lm *LoopMetrics) RecordRun(ctx context.Context, reason string) {
	if lm == nil {
		return
	}
	lm.runCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(AttrRunReason, reason)),
	)
}

// RecordIteration increments the iteration counter.
func (lm *LoopMetrics) RecordIteration(ctx context.Context, model string) {
	if lm == nil {
		return
	}
	lm.iterationCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String(AttrRunModel, model)),
	)
}

// RecordToolCall increments the tool call counter.
func (lm *LoopMetrics) RecordToolCall(ctx context.Context, tool string, success bool) {
	if lm == nil {
		return
	}
	lm.toolCallCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String(AttrToolName, tool),
			attribute.Bool(AttrToolSuccess, success),
		),
	)
}

// RecordError increments the error counter for the given error.
func (lm *LoopMetrics) RecordError(ctx context.Context, err error) {
	if lm == nil || err == nil {
		return
	}
	lm.errorCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("error.code", string(errors.CodeOf(err))),
		),
	)
}

// RecordTokens records consumed prompt and completion tokens.
func (lm *LoopMetrics) RecordTokens(ctx context.Context, prompt, completion int) {
	if lm == nil {
		return
	}
	if prompt > 0 {
		lm.tokenCounter.Add(ctx, int64(prompt),
			metric.WithAttributes(attribute.String("kind", "prompt")),
		)
	}
	if completion > 0 {
		lm.tokenCounter.Add(ctx, int64(completion),
			metric.WithAttributes(attribute.String("kind", "completion")),
		)
	}
}
